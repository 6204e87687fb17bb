package audit

import (
	"context"
	"log/slog"
)

// passThreshold is the payload length a lookup must exceed to pass.
//
// This is an availability signal only: it tells an empty or trivial response
// apart from a real one. The payload itself is never decoded.
const passThreshold = 2

// Classify reports whether a retrieved payload counts as a passed audit.
func Classify(payload []byte) bool {
	return len(payload) > passThreshold
}

// Auditor drains the queue, one lookup at a time.
//
// Thread-safety model:
//   - Run(): must be called from exactly one goroutine
//   - Audit(): not safe to call concurrently with Run
type Auditor struct {
	queue   *Queue
	client  NetworkClient
	catalog Catalog
	audits  AuditStore
}

// NewAuditor creates an Auditor consuming queue.
func NewAuditor(queue *Queue, client NetworkClient, catalog Catalog, audits AuditStore) *Auditor {
	return &Auditor{
		queue:   queue,
		client:  client,
		catalog: catalog,
		audits:  audits,
	}
}

// Run processes requests in arrival order until ctx is cancelled or an audit
// fails.
//
// ERROR HANDLING: fail-fast. The first network or store error ends
// Run and is returned; there is no per-key isolation and no retry. On return
// the queue's receiving side is closed so the scheduler stops rather than
// blocking on a queue nobody drains.
func (a *Auditor) Run(ctx context.Context) error {
	defer a.queue.CloseReceiver()

	slog.Info("auditor starting")

	for {
		req, err := a.queue.Pop(ctx)
		if err != nil {
			slog.Info("auditor stopping: context cancelled")
			return err
		}

		if err := a.Audit(ctx, req); err != nil {
			slog.Error("auditor stopping", "batch", req.Batch, "error", err)
			return err
		}
	}
}

// Audit performs one lookup and records the outcome.
//
// Returns nil without writing anything when the key no longer resolves to a
// catalog entry, or when resolving it fails. A resolve failure is logged
// with code CATALOG_ERROR and the next key is processed as usual.
func (a *Auditor) Audit(ctx context.Context, req Request) error {
	keyHex := req.Key.Hex()

	slog.Debug("auditing content",
		"batch", req.Batch,
		"content_key", keyHex,
		"content_id", req.Key.ContentIDHex(),
	)

	payload, err := a.client.GetContent(ctx, req.Key)
	if err != nil {
		return newError(ErrCodeNetwork, "get content", keyHex, err)
	}

	id, found, err := a.catalog.ResolveContentKey(ctx, req.Key)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Error("catalog resolve failed, skipping content key",
			"batch", req.Batch,
			"error", newError(ErrCodeCatalog, "resolve content key", keyHex, err),
		)
		return nil
	}
	if !found {
		slog.Debug("no catalog entry for content key, skipping",
			"batch", req.Batch,
			"content_key", keyHex,
		)
		return nil
	}

	passed := Classify(payload)

	record, err := a.audits.CreateAudit(ctx, id, passed)
	if err != nil {
		return newError(ErrCodeStore, "create audit", keyHex, err)
	}

	slog.Info("audited content",
		"batch", req.Batch,
		"content_key_id", id,
		"audit_id", record.ID,
		"passed", passed,
		"payload_bytes", len(payload),
	)

	return nil
}
