package jobstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-service/internal/apperr"
	"pantry-service/internal/entity"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemory_PutGetExpire(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemory().WithClock(clock.Now)

	job := entity.NewDetectionJob("job-1", "temp/ingredients/a.jpg", "http://x/a.jpg", "a.jpg", "image/jpeg", clock.Now())
	require.NoError(t, store.Put(ctx, job, 10*time.Minute))
	assert.Equal(t, clock.Now().Add(10*time.Minute), job.ExpiresAt)

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Equal(t, "a.jpg", got.Filename)

	clock.Advance(10 * time.Minute)
	_, err = store.Get(ctx, "job-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestMemory_PutRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	store := NewMemory().WithClock(clock.Now)

	job := entity.NewDetectionJob("job-2", "k", "u", "f.png", "image/png", clock.Now())
	require.NoError(t, store.Put(ctx, job, 5*time.Minute))

	clock.Advance(4 * time.Minute)
	require.NoError(t, job.MarkProcessing(clock.Now()))
	require.NoError(t, store.Put(ctx, job, 5*time.Minute))

	clock.Advance(4 * time.Minute)
	got, err := store.Get(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, got.Status)
}

func TestMemory_PutPrunesExpired(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemory().WithClock(clock.Now)

	old := entity.NewDetectionJob("never-polled", "k", "u", "f.png", "image/png", clock.Now())
	require.NoError(t, store.Put(ctx, old, time.Minute))
	clock.Advance(2 * time.Minute)

	for i := 1; i < pruneEvery; i++ {
		job := entity.NewDetectionJob(fmt.Sprintf("job-%d", i), "k", "u", "f.png", "image/png", clock.Now())
		require.NoError(t, store.Put(ctx, job, 10*time.Minute))
	}
	assert.Equal(t, pruneEvery-1, store.Len())
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	job := entity.NewDetectionJob("job-3", "k", "u", "f.png", "image/png", time.Now())
	require.NoError(t, store.Put(ctx, job, time.Minute))

	got, err := store.Get(ctx, "job-3")
	require.NoError(t, err)
	got.Status = entity.StatusFailed

	again, err := store.Get(ctx, "job-3")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, again.Status, "only Put changes stored state")
}

func TestMemory_UnknownAndBadTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.Get(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))

	job := entity.NewDetectionJob("job-4", "k", "u", "f", "image/png", time.Now())
	assert.Error(t, store.Put(ctx, job, 0))
}

func TestTTL_For(t *testing.T) {
	ttl := TTL{Pending: 30 * time.Minute, Terminal: 10 * time.Minute}
	assert.Equal(t, 30*time.Minute, ttl.For(entity.StatusPending))
	assert.Equal(t, 30*time.Minute, ttl.For(entity.StatusProcessing))
	assert.Equal(t, 10*time.Minute, ttl.For(entity.StatusCompleted))
	assert.Equal(t, 10*time.Minute, ttl.For(entity.StatusFailed))
}
