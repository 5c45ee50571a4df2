package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"pantry-service/internal/apperr"
	"pantry-service/internal/entity"
)

// Redis keeps each job as a JSON string under <prefix><id> with SET ... EX.
// Every Put resets the expiry.
type Redis struct {
	rdb    redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedis(rdb redis.Cmdable, prefix string) *Redis {
	if prefix == "" {
		prefix = "jobs:record:"
	}
	return &Redis{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *Redis) key(id string) string {
	return s.prefix + id
}

func (s *Redis) Put(ctx context.Context, job *entity.DetectionJob, ttl time.Duration) error {
	if ttl <= 0 {
		return apperr.Newf("jobstore: ttl must be positive, got %s", ttl)
	}
	job.ExpiresAt = s.now().Add(ttl).UTC()

	b, err := json.Marshal(job)
	if err != nil {
		return apperr.Wrap(err, "jobstore: marshal job")
	}
	if err := s.rdb.Set(ctx, s.key(job.ID), b, ttl).Err(); err != nil {
		return apperr.Wrapf(err, "jobstore: set %s", job.ID)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, id string) (*entity.DetectionJob, error) {
	b, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Wrapf(err, "jobstore: get %s", id)
	}

	var job entity.DetectionJob
	if err := json.Unmarshal(b, &job); err != nil {
		return nil, apperr.Wrapf(err, "jobstore: decode %s", id)
	}
	return &job, nil
}

// Ping checks connectivity for readiness probes.
func (s *Redis) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
