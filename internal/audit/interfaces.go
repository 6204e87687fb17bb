package audit

import (
	"context"
	"time"

	"github.com/roach88/glados/internal/contentkey"
	"github.com/roach88/glados/internal/store"
)

// Catalog is the read-only view of known content keys.
type Catalog interface {
	// RecentContentKeys returns up to limit entries, newest first.
	RecentContentKeys(ctx context.Context, limit int) ([]store.ContentKey, error)

	// ResolveContentKey maps a lookup key back to its catalog entry id.
	// found is false, with a nil error, when no entry matches.
	ResolveContentKey(ctx context.Context, key contentkey.LookupKey) (id int64, found bool, err error)
}

// AuditStore persists audit outcomes.
type AuditStore interface {
	CreateAudit(ctx context.Context, contentKeyID int64, passed bool) (store.ContentAudit, error)
}

// NetworkClient fetches content from the peer-to-peer network.
type NetworkClient interface {
	GetContent(ctx context.Context, key contentkey.LookupKey) ([]byte, error)
}

// Ticker drives the scheduler. *time.Ticker is adapted by newTimeTicker;
// testutil.ManualTicker satisfies it directly.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}
