package station

import (
	"testing"

	"github.com/DoniLite/morsewire/kob"
)

func TestQueueDrainsOldestFirst(t *testing.T) {
	q := newEdgeQueue(8)
	for i := int64(0); i < 5; i++ {
		q.Push(kob.Edge{Dir: kob.KeyDown, T: i})
	}
	got := q.Drain()
	if len(got) != 5 {
		t.Fatalf("Drain() returned %d edges, want 5", len(got))
	}
	for i, e := range got {
		if e.T != int64(i) {
			t.Fatalf("edge %d has t=%d, want %d", i, e.T, i)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("queue not empty after drain: %d", q.Len())
	}
}

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	q := newEdgeQueue(3)
	for i := int64(0); i < 5; i++ {
		q.Push(kob.Edge{Dir: kob.KeyDown, T: i})
	}
	got := q.Drain()
	if len(got) != 3 {
		t.Fatalf("Drain() returned %d edges, want capacity 3", len(got))
	}
	// The two oldest edges were dropped to make room.
	for i, want := range []int64{2, 3, 4} {
		if got[i].T != want {
			t.Fatalf("edge %d has t=%d, want %d", i, got[i].T, want)
		}
	}
}

func TestQueueDrainEmpty(t *testing.T) {
	q := newEdgeQueue(0) // zero capacity falls back to the default
	if got := q.Drain(); got != nil {
		t.Fatalf("Drain() on empty queue = %v, want nil", got)
	}
}
