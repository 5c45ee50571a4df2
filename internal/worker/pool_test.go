package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-service/internal/service"
)

type fakeProcessor struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
}

func (f *fakeProcessor) Process(ctx context.Context, task service.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, task.JobID)
	if f.fail[task.JobID] {
		return errors.New("store unavailable")
	}
	return nil
}

func (f *fakeProcessor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func newTestQueue(t *testing.T) (*service.RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return service.NewRedisQueue(rdb, "jobs:queue", "jobs:processing", time.Minute), mr
}

func TestPool_AcksOnlySuccessfulTasks(t *testing.T) {
	queue, mr := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, queue.Enqueue(ctx, service.Task{JobID: "ok-1", ImageRef: "a.jpg"}))
	require.NoError(t, queue.Enqueue(ctx, service.Task{JobID: "broken", ImageRef: "b.jpg"}))
	require.NoError(t, queue.Enqueue(ctx, service.Task{JobID: "ok-2", ImageRef: "c.jpg"}))

	proc := &fakeProcessor{fail: map[string]bool{"broken": true}}
	pool := NewPool(queue, proc, 2, zerolog.Nop())
	pool.claimDelay = 50 * time.Millisecond

	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return proc.count() == 3 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		left, _ := mr.List("jobs:processing")
		return len(left) == 1
	}, 2*time.Second, 10*time.Millisecond)

	left, err := mr.List("jobs:processing")
	require.NoError(t, err)
	assert.Contains(t, left[0], `"job_id":"broken"`)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("pool did not stop")
	}
}

func TestReaper_TickRequeuesStale(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	queue := service.NewRedisQueue(rdb, "jobs:queue", "jobs:processing", 10*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, service.Task{JobID: "stuck", ImageRef: "a.jpg"}))
	_, err := queue.ClaimBlocking(ctx, time.Second)
	require.NoError(t, err)

	reaper := NewReaper(queue, time.Second, zerolog.Nop())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), reaper.Tick(ctx))

	queued, processing, err := queue.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), queued)
	assert.Equal(t, int64(0), processing)
}
