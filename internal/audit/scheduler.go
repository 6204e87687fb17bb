package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/glados/internal/contentkey"
)

// Scheduler periodically queues the newest catalog entries for auditing.
//
// There is one Scheduler per queue; it is the only producer.
type Scheduler struct {
	catalog   Catalog
	queue     *Queue
	period    time.Duration
	batchSize int
	batches   BatchTokenGenerator
	newTicker func(time.Duration) Ticker
}

// NewScheduler creates a Scheduler feeding queue from catalog.
// WithQueueCapacity has no effect here; size the queue with NewQueue.
func NewScheduler(catalog Catalog, queue *Queue, opts ...Option) *Scheduler {
	s := applyOptions(opts)
	return &Scheduler{
		catalog:   catalog,
		queue:     queue,
		period:    s.period,
		batchSize: s.batchSize,
		batches:   s.batches,
		newTicker: s.newTicker,
	}
}

// Run polls the catalog immediately and then once per period, until ctx is
// cancelled or a push fails.
//
// The period is fixed: no jitter and no backoff. A tick that blocks on a full
// queue delays the next poll.
//
// Returns ctx.Err() on cancellation, or a CHANNEL_CLOSED *Error if the
// auditor has stopped.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting", "period", s.period, "batch_size", s.batchSize)

	ticker := s.newTicker(s.period)
	defer ticker.Stop()

	for {
		if err := s.Tick(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			slog.Info("scheduler stopping: context cancelled")
			return ctx.Err()
		case <-ticker.C():
		}
	}
}

// Tick runs one poll: read the newest batch and push a request per entry.
//
// A catalog failure is logged and the tick skipped (nil error). Entries too
// short to derive a lookup key are logged and skipped.
func (s *Scheduler) Tick(ctx context.Context) error {
	batch := s.batches.Generate()

	entries, err := s.catalog.RecentContentKeys(ctx, s.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Error("catalog lookup failed, skipping tick",
			"batch", batch,
			"error", newError(ErrCodeCatalog, "look up recent content keys", "", err),
		)
		return nil
	}

	slog.Debug("adding content keys to the audit queue",
		"batch", batch,
		"count", len(entries),
	)

	for _, entry := range entries {
		key, err := contentkey.FromRaw(entry.ContentKey)
		if err != nil {
			slog.Error("skipping content key",
				"batch", batch,
				"content_key_id", entry.ID,
				"error", err,
			)
			continue
		}

		slog.Info("queueing content key",
			"batch", batch,
			"content_key_id", entry.ID,
			"content_key", key.Hex(),
		)

		if err := s.queue.Push(ctx, Request{Key: key, Batch: batch}); err != nil {
			if errors.Is(err, ErrChannelClosed) {
				return newError(ErrCodeChannelClosed, "cannot queue content key, auditor likely stopped", key.Hex(), err)
			}
			return err
		}
	}

	return nil
}
