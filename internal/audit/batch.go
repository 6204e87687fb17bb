package audit

import "github.com/google/uuid"

// BatchTokenGenerator mints the token that tags every request produced by one
// scheduler tick. Implemented by UUIDv7Generator (production) and
// testutil.SequenceBatchGenerator (tests).
type BatchTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 batch tokens, so log lines
// from successive ticks sort by when the tick happened.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
