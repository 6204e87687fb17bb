package audit

import (
	"context"
	"log/slog"
)

// Supervisor runs one Scheduler and one Auditor over a shared queue.
type Supervisor struct {
	queue     *Queue
	scheduler *Scheduler
	auditor   *Auditor
}

// New wires a pipeline. catalog and audits are usually the same *store.Store.
func New(catalog Catalog, audits AuditStore, client NetworkClient, opts ...Option) *Supervisor {
	s := applyOptions(opts)
	q := NewQueue(s.queueCapacity)

	return &Supervisor{
		queue:     q,
		scheduler: NewScheduler(catalog, q, opts...),
		auditor:   NewAuditor(q, client, catalog, audits),
	}
}

// Queue exposes the hand-off queue for inspection.
func (s *Supervisor) Queue() *Queue {
	return s.queue
}

// Run starts both tasks and blocks until ctx is cancelled or either task
// fails. Call it at most once.
//
// Shutdown is immediate. Run does not wait for the tasks to exit: queued
// requests are dropped and an in-flight lookup is abandoned. Audits already
// written stay written.
//
// Returns nil on cancellation, otherwise the first task error.
func (s *Supervisor) Run(ctx context.Context) error {
	errc := make(chan error, 2)

	go func() { errc <- s.scheduler.Run(ctx) }()
	go func() { errc <- s.auditor.Run(ctx) }()

	select {
	case <-ctx.Done():
		slog.Info("audit pipeline shutting down", "queued", s.queue.Len())
		return nil

	case err := <-errc:
		if ctx.Err() != nil {
			return nil
		}
		slog.Error("audit pipeline failed", "error", err)
		return err
	}
}
