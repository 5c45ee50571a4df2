package jobstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-service/internal/apperr"
	"pantry-service/internal/entity"
)

func newRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, "jobs:record:"), mr
}

func TestRedis_PutSetsKeyAndTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	job := entity.NewDetectionJob("abc", "temp/ingredients/abc.jpg", "http://x/abc.jpg", "pantry.jpg", "image/jpeg", time.Now())
	require.NoError(t, store.Put(ctx, job, 30*time.Minute))

	assert.True(t, mr.Exists("jobs:record:abc"))
	assert.Equal(t, 30*time.Minute, mr.TTL("jobs:record:abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "pantry.jpg", got.Filename)
	assert.Equal(t, entity.StatusPending, got.Status)
}

func TestRedis_TerminalWriteShortensTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	job := entity.NewDetectionJob("abc", "k", "u", "f", "image/png", time.Now())
	require.NoError(t, store.Put(ctx, job, 30*time.Minute))
	require.NoError(t, job.MarkProcessing(time.Now()))
	require.NoError(t, job.Complete([]entity.Observation{{Name: "Egg", Confidence: 0.9}}, time.Now()))
	require.NoError(t, store.Put(ctx, job, 10*time.Minute))

	assert.Equal(t, 10*time.Minute, mr.TTL("jobs:record:abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, got.Status)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "Egg", got.Results[0].Name)
}

func TestRedis_ExpiredIsNotFound(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	job := entity.NewDetectionJob("gone", "k", "u", "f", "image/png", time.Now())
	require.NoError(t, store.Put(ctx, job, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "gone")
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestRedis_ConnectionErrorIsNotNotFound(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Get(ctx, "x")
	require.Error(t, err)
	assert.False(t, apperr.Is(err, apperr.ErrNotFound))
}
