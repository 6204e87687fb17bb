package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_DefaultCapacity(t *testing.T) {
	assert.Equal(t, 100, NewQueue(0).Cap())
	assert.Equal(t, DefaultQueueCapacity, NewQueue(-5).Cap())
	assert.Equal(t, 7, NewQueue(7).Cap())
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(10)
	ctx := context.Background()

	for i := byte(0); i < 5; i++ {
		require.NoError(t, q.Push(ctx, Request{Key: lookupKey(i)}))
	}
	assert.Equal(t, 5, q.Len())

	for i := byte(0); i < 5; i++ {
		req, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, lookupKey(i), req.Key)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PushBlocksWhenFull(t *testing.T) {
	q := NewQueue(2)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, Request{Key: lookupKey(1)}))
	require.NoError(t, q.Push(ctx, Request{Key: lookupKey(2)}))

	pushed := make(chan error, 1)
	go func() { pushed <- q.Push(ctx, Request{Key: lookupKey(3)}) }()

	select {
	case err := <-pushed:
		t.Fatalf("push into a full queue returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 2, q.Len())

	req, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, lookupKey(1), req.Key)

	select {
	case err := <-pushed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("blocked push did not resume after a pop")
	}
	assert.Equal(t, 2, q.Len())
}

func TestQueue_LenNeverExceedsCapacity(t *testing.T) {
	const capacity = 100
	q := NewQueue(capacity)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 3*capacity; i++ {
			if err := q.Push(ctx, Request{Key: lookupKey(byte(i))}); err != nil {
				return
			}
		}
	}()

	maxSeen := 0
	for popped := 0; popped < 3*capacity; popped++ {
		if n := q.Len(); n > maxSeen {
			maxSeen = n
		}
		_, err := q.Pop(ctx)
		require.NoError(t, err)
	}
	wg.Wait()

	assert.LessOrEqual(t, maxSeen, capacity)
}

func TestQueue_PushAfterCloseReceiver(t *testing.T) {
	q := NewQueue(10)
	q.CloseReceiver()

	err := q.Push(context.Background(), Request{Key: lookupKey(1)})
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_CloseReceiverUnblocksPush(t *testing.T) {
	q := NewQueue(1)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, Request{Key: lookupKey(1)}))

	pushed := make(chan error, 1)
	go func() { pushed <- q.Push(ctx, Request{Key: lookupKey(2)}) }()

	time.Sleep(20 * time.Millisecond)
	q.CloseReceiver()

	select {
	case err := <-pushed:
		assert.ErrorIs(t, err, ErrChannelClosed)
	case <-time.After(time.Second):
		t.Fatal("push stayed blocked after receiver closed")
	}
}

func TestQueue_CloseReceiverIdempotent(t *testing.T) {
	q := NewQueue(1)
	q.CloseReceiver()
	assert.NotPanics(t, q.CloseReceiver)
}

func TestQueue_PushHonorsContext(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.Push(context.Background(), Request{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Push(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_PopHonorsContext(t *testing.T) {
	q := NewQueue(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
