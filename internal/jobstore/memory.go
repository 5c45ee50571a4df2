package jobstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"pantry-service/internal/apperr"
	"pantry-service/internal/entity"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process Store for single binary deployments and tests.
// Records are stored serialized so callers never share a pointer with the
// store. Expired entries are dropped on access and by a prune every
// pruneEvery writes.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	puts    int
	now     func() time.Time
}

const pruneEvery = 64

func NewMemory() *Memory {
	return &Memory{entries: map[string]memoryEntry{}, now: time.Now}
}

// WithClock replaces the time source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Put(ctx context.Context, job *entity.DetectionJob, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return apperr.Newf("jobstore: ttl must be positive, got %s", ttl)
	}
	now := m.now()
	job.ExpiresAt = now.Add(ttl)

	b, err := json.Marshal(job)
	if err != nil {
		return apperr.Wrap(err, "jobstore: marshal job")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[job.ID] = memoryEntry{data: b, expiresAt: job.ExpiresAt}
	m.puts++
	if m.puts%pruneEvery == 0 {
		m.prune(now)
	}
	return nil
}

// prune removes expired entries. Callers hold mu.
func (m *Memory) prune(now time.Time) {
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
		}
	}
}

func (m *Memory) Get(ctx context.Context, id string) (*entity.DetectionJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, still := m.entries[id]; still && !m.now().Before(cur.expiresAt) {
			delete(m.entries, id)
		}
		m.mu.Unlock()
		return nil, apperr.ErrNotFound
	}

	var job entity.DetectionJob
	if err := json.Unmarshal(e.data, &job); err != nil {
		return nil, apperr.Wrap(err, "jobstore: unmarshal job")
	}
	return &job, nil
}

// Len reports the number of entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
