// Package jobstore is the TTL-bound ledger of detection jobs.
//
// Writers always Put the full merged record; there is no partial update and no
// locking. Only the dispatcher (first write) and then exactly one worker
// invocation ever write a given id.
package jobstore

import (
	"context"
	"time"

	"pantry-service/internal/entity"
)

// Store persists DetectionJob records with a per-entry TTL.
// Get returns apperr.ErrNotFound for unknown or expired ids.
type Store interface {
	Put(ctx context.Context, job *entity.DetectionJob, ttl time.Duration) error
	Get(ctx context.Context, id string) (*entity.DetectionJob, error)
}

// TTL picks the retention window for a record from its status.
type TTL struct {
	Pending  time.Duration
	Terminal time.Duration
}

func (t TTL) For(status entity.JobStatus) time.Duration {
	if status.Terminal() {
		return t.Terminal
	}
	return t.Pending
}
