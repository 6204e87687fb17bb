package testutil

import (
	"fmt"
	"sync"
)

// SequenceBatchGenerator yields "<prefix>-1", "<prefix>-2", ... so log and
// queue assertions can name batches without depending on UUIDs.
//
// Thread-safety: SequenceBatchGenerator is safe for concurrent use via
// internal mutex.
type SequenceBatchGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceBatchGenerator creates a generator. An empty prefix becomes
// "batch".
func NewSequenceBatchGenerator(prefix string) *SequenceBatchGenerator {
	if prefix == "" {
		prefix = "batch"
	}
	return &SequenceBatchGenerator{prefix: prefix}
}

// Generate returns the next token.
func (g *SequenceBatchGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
