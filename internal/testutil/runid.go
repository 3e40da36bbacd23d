package testutil

import "sync"

// FixedRunIDGenerator returns predetermined run ids in order, then keeps
// returning the last one.
//
// This enables deterministic reports and golden snapshot comparison.
//
// Thread-safety: FixedRunIDGenerator is safe for concurrent use via internal mutex.
type FixedRunIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedRunIDGenerator creates a generator that returns ids in order.
// With no ids, Generate() returns "test-run-default".
func NewFixedRunIDGenerator(ids ...string) *FixedRunIDGenerator {
	var kept []string
	for _, id := range ids {
		if id != "" {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		kept = []string{"test-run-default"}
	}
	return &FixedRunIDGenerator{ids: kept}
}

// Generate returns the next predetermined run id.
//
// Implements dispatch.RunIDGenerator interface.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}
