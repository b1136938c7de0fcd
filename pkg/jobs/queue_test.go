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

func TestQueueProcessesAndWaits(t *testing.T) {
	var processed atomic.Int32
	q := NewQueue("parse", func(ctx context.Context, job Job) error {
		processed.Add(1)
		return nil
	}, QueueConfig{Workers: 3})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "parse"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Wait(ctx))
	assert.Equal(t, int32(10), processed.Load())
}

func TestQueueRetriesThenReportsFailure(t *testing.T) {
	var attempts atomic.Int32
	var mu sync.Mutex
	var failed []Job

	q := NewQueue("parse", func(ctx context.Context, job Job) error {
		attempts.Add(1)
		return errors.New("boom")
	}, QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnFailure: func(job Job, err error) {
			mu.Lock()
			failed = append(failed, job)
			mu.Unlock()
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "bad.pdf"}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Wait(ctx))

	assert.Equal(t, int32(3), attempts.Load())
	require.Len(t, failed, 1)
	assert.Equal(t, "bad.pdf", failed[0].ID)
	assert.Equal(t, 3, failed[0].Attempt)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("parse", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))
	assert.NoError(t, q.Wait(context.Background()))
}
