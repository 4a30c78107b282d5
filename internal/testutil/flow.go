package testutil

import (
	"fmt"
	"sync"
)

// SequentialSessionGenerator hands out predictable session ids
// ("session-1", "session-2", ...).
//
// Connections in tests get ids that can be asserted on and that stay
// stable between runs.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialSessionGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialSessionGenerator creates a generator using prefix.
//
// If prefix is empty, "session" is used.
func NewSequentialSessionGenerator(prefix string) *SequentialSessionGenerator {
	if prefix == "" {
		prefix = "session"
	}
	return &SequentialSessionGenerator{prefix: prefix}
}

// Generate returns the next session id.
func (g *SequentialSessionGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
