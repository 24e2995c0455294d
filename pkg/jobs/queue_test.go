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

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan struct{}, 3)

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen[job.ID] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{ID: id}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 3)
}

func TestQueueRetriesThenExhausts(t *testing.T) {
	var attempts int32
	exhausted := make(chan Job, 1)

	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("boom")
	}, QueueConfig{
		MaxRetries:  2,
		RetryDelay:  time.Millisecond,
		OnExhausted: func(job Job, err error) { exhausted <- job },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "x"}))

	select {
	case job := <-exhausted:
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(time.Second):
		t.Fatal("job never exhausted")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, int64(0), q.Pending())
}

func TestQueueRecoversPanics(t *testing.T) {
	exhausted := make(chan error, 1)
	ok := make(chan struct{}, 1)

	q := NewQueue("panic", func(ctx context.Context, job Job) error {
		if job.ID == "bad" {
			panic("kaboom")
		}
		ok <- struct{}{}
		return nil
	}, QueueConfig{OnExhausted: func(job Job, err error) { exhausted <- err }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "bad"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "good"}))

	select {
	case err := <-exhausted:
		assert.Contains(t, err.Error(), "kaboom")
	case <-time.After(time.Second):
		t.Fatal("panic was not reported")
	}
	select {
	case <-ok:
	case <-time.After(time.Second):
		t.Fatal("healthy job did not run")
	}
}

func TestEnqueueRequiresStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(context.Background(), Job{ID: "x"}))
}

func TestEnqueueHonoursContextWhenFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "running"}))
	// Wait for the worker to pick up the first job so the buffer slot frees.
	require.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "buffered"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{ID: "overflow"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
