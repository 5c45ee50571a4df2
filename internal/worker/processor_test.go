package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-service/internal/apperr"
	"pantry-service/internal/detect"
	"pantry-service/internal/entity"
	"pantry-service/internal/jobstore"
	"pantry-service/internal/service"
)

type recordingStore struct {
	*jobstore.Memory
	mu       sync.Mutex
	statuses []entity.JobStatus
	ttls     []time.Duration
	putErr   error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Memory: jobstore.NewMemory()}
}

func (s *recordingStore) Put(ctx context.Context, job *entity.DetectionJob, ttl time.Duration) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	s.statuses = append(s.statuses, job.Status)
	s.ttls = append(s.ttls, ttl)
	s.mu.Unlock()
	return s.Memory.Put(ctx, job, ttl)
}

func (s *recordingStore) seen() []entity.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.JobStatus(nil), s.statuses...)
}

type mapImages struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapImages) Save(ctx context.Context, key, contentType string, data []byte) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = data
	return key, "http://localhost/storage/" + key, nil
}

func (m *mapImages) Read(ctx context.Context, ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[ref]
	if !ok {
		return nil, apperr.Wrapf(apperr.ErrNotFound, "image %s", ref)
	}
	return b, nil
}

type stubDetector struct {
	obs   []detect.RawObservation
	err   error
	block bool
	calls int
}

func (d *stubDetector) Name() string { return "stub" }

func (d *stubDetector) Detect(ctx context.Context, img detect.Image) ([]detect.RawObservation, error) {
	d.calls++
	if d.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return d.obs, d.err
}

var testTTL = jobstore.TTL{Pending: 30 * time.Minute, Terminal: 10 * time.Minute}

func score(v float64) *float64 { return &v }

func jpegBytes(size int) []byte {
	b := bytes.Repeat([]byte{0x00}, size)
	copy(b, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	return b
}

func seedPending(t *testing.T, store jobstore.Store, images *mapImages) service.Task {
	t.Helper()
	ref, url, err := images.Save(context.Background(), "temp/ingredients/a.jpg", "image/jpeg", jpegBytes(64))
	require.NoError(t, err)
	job := entity.NewDetectionJob("3b241101-e2bb-4255-8caf-4136c566a962", ref, url, "a.jpg", "image/jpeg", time.Now().UTC())
	require.NoError(t, store.Put(context.Background(), job, testTTL.Pending))
	return service.Task{JobID: job.ID, ImageRef: ref}
}

func TestProcessor_SubmitToCompletedTomato(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	images := &mapImages{}
	queue := service.NewMemoryQueue(4)
	dispatcher := service.NewDetectionService(store, images, queue, testTTL, 15*1024*1024, zerolog.Nop())

	id, err := dispatcher.Submit(ctx, service.Upload{Filename: "pantry.jpg", Data: jpegBytes(2 * 1024 * 1024)})
	require.NoError(t, err)

	task, err := queue.ClaimBlocking(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, id, task.JobID)

	det := &stubDetector{obs: []detect.RawObservation{{Name: "Tomato", Score: score(0.95)}}}
	p := NewProcessor(store, images, det, testTTL, time.Second, zerolog.Nop())
	require.NoError(t, p.Process(ctx, task))

	job, err := dispatcher.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, job.Status)
	require.Len(t, job.Results, 1)
	assert.Equal(t, "Tomato", job.Results[0].Name)
	assert.Equal(t, 0.95, job.Results[0].Confidence)
	assert.Equal(t, 1, job.Count)
	assert.Empty(t, job.Error)
	assert.Equal(t, "pantry.jpg", job.Filename)

	assert.Equal(t, []entity.JobStatus{entity.StatusPending, entity.StatusProcessing, entity.StatusCompleted}, store.seen())
	assert.Equal(t, []time.Duration{testTTL.Pending, testTTL.Pending, testTTL.Terminal}, store.ttls)
}

func TestProcessor_CapabilityFailureIsTerminal(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	images := &mapImages{}
	task := seedPending(t, store, images)

	det := &stubDetector{err: apperr.Mark(errors.New("yolo returned status 500"), apperr.ErrCapabilityUnavailable)}
	p := NewProcessor(store, images, det, testTTL, time.Second, zerolog.Nop())
	require.NoError(t, p.Process(ctx, task))

	job, err := store.Get(ctx, task.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
	assert.Equal(t, "detection failed: yolo returned status 500", job.Error)
	assert.Empty(t, job.Results)
	assert.Equal(t, []entity.JobStatus{entity.StatusPending, entity.StatusProcessing, entity.StatusFailed}, store.seen())
}

func TestProcessor_TimeoutFails(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	images := &mapImages{}
	task := seedPending(t, store, images)

	p := NewProcessor(store, images, &stubDetector{block: true}, testTTL, 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, p.Process(ctx, task))

	job, err := store.Get(ctx, task.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
	assert.Equal(t, "detection timed out after 20ms", job.Error)
}

func TestProcessor_MissingImageFails(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	images := &mapImages{}
	task := seedPending(t, store, images)
	task.ImageRef = "temp/ingredients/gone.jpg"

	det := &stubDetector{}
	p := NewProcessor(store, images, det, testTTL, time.Second, zerolog.Nop())
	require.NoError(t, p.Process(ctx, task))

	job, err := store.Get(ctx, task.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "detection failed: read image")
	assert.Equal(t, 0, det.calls)
}

func TestProcessor_EvictedJobAborts(t *testing.T) {
	store := newRecordingStore()
	det := &stubDetector{}
	p := NewProcessor(store, &mapImages{}, det, testTTL, time.Second, zerolog.Nop())

	err := p.Process(context.Background(), service.Task{JobID: "3b241101-e2bb-4255-8caf-4136c566a962"})
	require.NoError(t, err)
	assert.Empty(t, store.seen())
	assert.Equal(t, 0, det.calls)
}

func TestProcessor_TerminalJobIsNotRewritten(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	images := &mapImages{}
	task := seedPending(t, store, images)

	det := &stubDetector{obs: []detect.RawObservation{{Name: "Egg", Level: "high"}}}
	p := NewProcessor(store, images, det, testTTL, time.Second, zerolog.Nop())
	require.NoError(t, p.Process(ctx, task))
	// redelivered copy of the same task
	require.NoError(t, p.Process(ctx, task))

	assert.Equal(t, 1, det.calls)
	assert.Equal(t, []entity.JobStatus{entity.StatusPending, entity.StatusProcessing, entity.StatusCompleted}, store.seen())

	job, err := store.Get(ctx, task.JobID)
	require.NoError(t, err)
	assert.Equal(t, 0.9, job.Results[0].Confidence)
}

func TestProcessor_StoreFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	images := &mapImages{}
	task := seedPending(t, store, images)
	store.putErr = errors.New("redis: connection refused")

	det := &stubDetector{}
	p := NewProcessor(store, images, det, testTTL, time.Second, zerolog.Nop())
	require.Error(t, p.Process(ctx, task))
	assert.Equal(t, 0, det.calls)
}

func TestProcessor_ShutdownLeavesJobProcessing(t *testing.T) {
	store := newRecordingStore()
	images := &mapImages{}
	task := seedPending(t, store, images)

	ctx, cancel := context.WithCancel(context.Background())
	det := &stubDetector{block: true}
	p := NewProcessor(store, images, det, testTTL, time.Minute, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- p.Process(ctx, task) }()

	require.Eventually(t, func() bool { return len(store.seen()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("process did not return after cancel")
	}

	job, err := store.Get(context.Background(), task.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, job.Status)
}
