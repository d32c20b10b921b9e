package station

import (
	"log"
	"sync"

	"github.com/eapache/queue"

	"github.com/DoniLite/morsewire/kob"
)

// edgeQueue is the bounded buffer between the key capture path and the
// network sender. Push never blocks; on overflow the oldest edge is
// dropped, since stale key timing is worse than a gap.
type edgeQueue struct {
	mu  sync.Mutex
	q   *queue.Queue
	cap int
}

func newEdgeQueue(capacity int) *edgeQueue {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &edgeQueue{q: queue.New(), cap: capacity}
}

func (eq *edgeQueue) Push(e kob.Edge) {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	if eq.q.Length() >= eq.cap {
		dropped := eq.q.Remove().(kob.Edge)
		log.Printf("Warning: send queue full, dropping oldest edge t=%dus", dropped.T)
	}
	eq.q.Add(e)
}

// Drain pops everything queued so far, oldest first.
func (eq *edgeQueue) Drain() []kob.Edge {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	if eq.q.Length() == 0 {
		return nil
	}
	out := make([]kob.Edge, 0, eq.q.Length())
	for eq.q.Length() > 0 {
		out = append(out, eq.q.Remove().(kob.Edge))
	}
	return out
}

func (eq *edgeQueue) Len() int {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	return eq.q.Length()
}
