package audit

import (
	"context"
	"sync"

	"github.com/roach88/glados/internal/contentkey"
	"github.com/roach88/glados/internal/store"
)

// fakeCatalog serves entries from memory. recentErrs are returned by
// successive RecentContentKeys calls; a nil element means that call succeeds.
type fakeCatalog struct {
	mu          sync.Mutex
	entries     []store.ContentKey // newest first
	recentErrs  []error
	recentCalls int
	resolveErr  error
}

func (c *fakeCatalog) RecentContentKeys(ctx context.Context, limit int) ([]store.ContentKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recentCalls++
	if len(c.recentErrs) > 0 {
		err := c.recentErrs[0]
		c.recentErrs = c.recentErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	n := min(limit, len(c.entries))
	out := make([]store.ContentKey, n)
	copy(out, c.entries[:n])
	return out, nil
}

func (c *fakeCatalog) ResolveContentKey(ctx context.Context, key contentkey.LookupKey) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resolveErr != nil {
		return 0, false, c.resolveErr
	}
	for _, e := range c.entries {
		k, err := contentkey.FromRaw(e.ContentKey)
		if err == nil && k == key {
			return e.ID, true, nil
		}
	}
	return 0, false, nil
}

func (c *fakeCatalog) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recentCalls
}

// fakeAudits records CreateAudit calls.
type fakeAudits struct {
	mu      sync.Mutex
	records []store.ContentAudit
	err     error
}

func (a *fakeAudits) CreateAudit(ctx context.Context, contentKeyID int64, passed bool) (store.ContentAudit, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return store.ContentAudit{}, a.err
	}
	rec := store.ContentAudit{
		ID:           int64(len(a.records) + 1),
		ContentKeyID: contentKeyID,
		Passed:       passed,
	}
	a.records = append(a.records, rec)
	return rec, nil
}

func (a *fakeAudits) all() []store.ContentAudit {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]store.ContentAudit, len(a.records))
	copy(out, a.records)
	return out
}

// fakeNetwork returns payloads by hash. Unknown hashes get defaultPayload.
type fakeNetwork struct {
	mu             sync.Mutex
	payloads       map[[contentkey.HashLen]byte][]byte
	defaultPayload []byte
	err            error
	lookups        []contentkey.LookupKey
}

func (n *fakeNetwork) GetContent(ctx context.Context, key contentkey.LookupKey) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.lookups = append(n.lookups, key)
	if n.err != nil {
		return nil, n.err
	}
	if p, ok := n.payloads[key.Hash]; ok {
		return p, nil
	}
	return n.defaultPayload, nil
}

func (n *fakeNetwork) calls() []contentkey.LookupKey {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]contentkey.LookupKey, len(n.lookups))
	copy(out, n.lookups)
	return out
}

func testHash(seed byte) [contentkey.HashLen]byte {
	var h [contentkey.HashLen]byte
	for i := range h {
		h[i] = seed ^ byte(i*7)
	}
	return h
}

// rawKey builds a block header catalog key: selector 0x00, hash, tail.
func rawKey(seed byte, tail ...byte) []byte {
	h := testHash(seed)
	raw := append([]byte{0x00}, h[:]...)
	return append(raw, tail...)
}

func entry(id int64, seed byte, tail ...byte) store.ContentKey {
	return store.ContentKey{ID: id, ContentKey: rawKey(seed, tail...)}
}

func lookupKey(seed byte) contentkey.LookupKey {
	return contentkey.LookupKey{Selector: contentkey.SelectorBlockHeader, Hash: testHash(seed)}
}
