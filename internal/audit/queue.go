package audit

import (
	"context"
	"sync"

	"github.com/roach88/glados/internal/contentkey"
)

// DefaultQueueCapacity is the number of lookup requests that may wait for
// the auditor before the scheduler blocks.
const DefaultQueueCapacity = 100

// Request is one queued lookup.
type Request struct {
	Key contentkey.LookupKey

	// Batch identifies the scheduler tick that produced the request.
	Batch string
}

// Queue is a bounded FIFO hand-off between one producer and one consumer.
//
// Push blocks while the queue is full. Once the consumer calls CloseReceiver,
// Push fails with ErrChannelClosed instead of blocking forever.
type Queue struct {
	items chan Request

	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a queue holding at most capacity requests.
// A non-positive capacity selects DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		items: make(chan Request, capacity),
		done:  make(chan struct{}),
	}
}

// Push appends req, blocking while the queue is at capacity.
//
// Returns ErrChannelClosed if the receiver has stopped, or ctx.Err() if ctx
// ends first.
func (q *Queue) Push(ctx context.Context, req Request) error {
	// A stopped receiver wins over free capacity: nothing would drain it.
	select {
	case <-q.done:
		return ErrChannelClosed
	default:
	}

	select {
	case q.items <- req:
		return nil
	case <-q.done:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop removes the oldest request, blocking until one is available or ctx
// ends.
func (q *Queue) Pop(ctx context.Context) (Request, error) {
	select {
	case req := <-q.items:
		return req, nil
	case <-ctx.Done():
		return Request{}, ctx.Err()
	}
}

// CloseReceiver signals that no more requests will be popped.
// Safe to call more than once.
func (q *Queue) CloseReceiver() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}

// Len returns the number of waiting requests.
func (q *Queue) Len() int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.items)
}
