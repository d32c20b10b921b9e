package station

import (
	"log"
	"time"

	"github.com/DoniLite/morsewire/wire"
)

// reorderBuffer restores per-sender sequence order for timing messages.
// Out-of-order messages are held briefly; a gap older than the timeout is
// skipped so a lost message degrades the decode instead of stalling it.
// Not safe for concurrent use; the client serializes access.
type reorderBuffer struct {
	timeout time.Duration
	next    uint64
	held    map[uint64]wire.TimingPayload
	waiting time.Time // when the current gap was first observed
}

func newReorderBuffer(timeout time.Duration) *reorderBuffer {
	if timeout <= 0 {
		timeout = DefaultReorderTimeout
	}
	return &reorderBuffer{
		timeout: timeout,
		held:    make(map[uint64]wire.TimingPayload),
	}
}

// Offer accepts one message and returns every message now deliverable in
// order. The first message from a sender anchors its sequence.
func (rb *reorderBuffer) Offer(p wire.TimingPayload, now time.Time) []wire.TimingPayload {
	if rb.next == 0 {
		rb.next = p.Seq
	}
	if p.Seq == 1 && rb.next > 1 {
		// The sender rejoined and its sequence restarted.
		rb.next = 1
		rb.held = make(map[uint64]wire.TimingPayload)
		rb.waiting = time.Time{}
	}
	if p.Seq < rb.next {
		log.Printf("Warning: dropping stale timing seq %d from <%s> (next %d)", p.Seq, p.Station, rb.next)
		return nil
	}
	rb.held[p.Seq] = p
	return rb.drain(now)
}

// Expire gives up on a gap that has been open longer than the timeout and
// advances to the lowest held sequence.
func (rb *reorderBuffer) Expire(now time.Time) []wire.TimingPayload {
	if len(rb.held) == 0 || rb.waiting.IsZero() || now.Sub(rb.waiting) < rb.timeout {
		return nil
	}
	lowest := uint64(0)
	for seq := range rb.held {
		if lowest == 0 || seq < lowest {
			lowest = seq
		}
	}
	log.Printf("Warning: skipping timing gap %d..%d", rb.next, lowest-1)
	rb.next = lowest
	return rb.drain(now)
}

func (rb *reorderBuffer) drain(now time.Time) []wire.TimingPayload {
	var out []wire.TimingPayload
	for {
		p, ok := rb.held[rb.next]
		if !ok {
			break
		}
		delete(rb.held, rb.next)
		out = append(out, p)
		rb.next++
	}
	if len(rb.held) == 0 {
		rb.waiting = time.Time{}
	} else if rb.waiting.IsZero() {
		rb.waiting = now
	}
	return out
}
