package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/glados/internal/contentkey"
)

var testEpoch = time.Date(2022, 9, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedTime returns testEpoch shifted by n seconds.
func fixedTime(n int) time.Time {
	return testEpoch.Add(time.Duration(n) * time.Second)
}

// testHash returns a recognizable 32-byte hash derived from seed.
func testHash(seed byte) [contentkey.HashLen]byte {
	var h [contentkey.HashLen]byte
	for i := range h {
		h[i] = seed ^ byte(i)
	}
	return h
}

// rawKey builds a block header catalog key: selector 0x00, hash, tail.
func rawKey(seed byte, tail []byte) []byte {
	h := testHash(seed)
	raw := append([]byte{0x00}, h[:]...)
	return append(raw, tail...)
}

func insertKey(t *testing.T, s *Store, raw []byte, createdAt time.Time) ContentKey {
	t.Helper()
	k, err := s.InsertContentKey(context.Background(), raw, createdAt)
	if err != nil {
		t.Fatalf("InsertContentKey() failed: %v", err)
	}
	return k
}
