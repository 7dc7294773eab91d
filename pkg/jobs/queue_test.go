package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Payload.(string))
		return nil
	}, Config{Workers: 2, BufferSize: 10})

	q.Start(context.Background())
	for _, p := range []string{"a", "b", "c", "d"} {
		require.NoError(t, q.TryEnqueue(Job{Kind: "note", Payload: p}))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, seen)
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, Config{})
	err := q.TryEnqueue(Job{Kind: "note"})
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{}), ErrNotRunning)
}

func TestQueueTryEnqueueReportsFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, Config{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.TryEnqueue(Job{Kind: "first"}))
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.TryEnqueue(Job{Kind: "second"}))
	assert.ErrorIs(t, q.TryEnqueue(Job{Kind: "third"}), ErrQueueFull)

	close(block)
	q.Stop()
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, Config{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.TryEnqueue(Job{Kind: "flaky"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}
