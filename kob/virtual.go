package kob

import (
	"fmt"
	"sync"
)

// VirtualKey is an in-memory Key fed by tests or by the keyboard sender.
type VirtualKey struct {
	mu    sync.Mutex
	edges []Edge
}

func NewVirtualKey() *VirtualKey {
	return &VirtualKey{}
}

// Press appends edges to the pending stream in order.
func (k *VirtualKey) Press(edges ...Edge) {
	k.mu.Lock()
	k.edges = append(k.edges, edges...)
	k.mu.Unlock()
}

func (k *VirtualKey) PollEdge() (Edge, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.edges) == 0 {
		return Edge{}, false
	}
	e := k.edges[0]
	k.edges = k.edges[1:]
	return e, true
}

// MemorySounder records every driven edge. FailAfter, when positive, makes
// DriveEdge fail once that many edges have been accepted, for exercising
// hardware error paths.
type MemorySounder struct {
	mu        sync.Mutex
	edges     []Edge
	FailAfter int
}

func NewMemorySounder() *MemorySounder {
	return &MemorySounder{}
}

func (s *MemorySounder) DriveEdge(e Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAfter > 0 && len(s.edges) >= s.FailAfter {
		return fmt.Errorf("memory sounder: %w", ErrHardware)
	}
	s.edges = append(s.edges, e)
	return nil
}

// Edges returns a copy of everything driven so far.
func (s *MemorySounder) Edges() []Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out
}
