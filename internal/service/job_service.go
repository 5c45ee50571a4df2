package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pantry-service/internal/apperr"
	"pantry-service/internal/entity"
	"pantry-service/internal/jobstore"
	"pantry-service/internal/storage"
)

// JobQueue is the scheduling side of Queue.
type JobQueue interface {
	Enqueue(ctx context.Context, task Task) error
}

// ImageKeyPrefix is where uploaded pantry photos are stored.
const ImageKeyPrefix = "temp/ingredients/"

// allowedImageTypes maps sniffed content types to stored extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Upload is one submitted image.
type Upload struct {
	Filename string
	Data     []byte
}

// DetectionService accepts uploads and answers status polls.
type DetectionService struct {
	store    jobstore.Store
	images   storage.ImageStore
	queue    JobQueue
	ttl      jobstore.TTL
	maxBytes int64
	log      zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewDetectionService(store jobstore.Store, images storage.ImageStore, queue JobQueue, ttl jobstore.TTL, maxBytes int64, log zerolog.Logger) *DetectionService {
	return &DetectionService{
		store:    store,
		images:   images,
		queue:    queue,
		ttl:      ttl,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "dispatcher").Logger(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// ValidateImage checks size and sniffed type and returns the content type.
func (s *DetectionService) ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.NewValidation("image", "The image field is required.")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", apperr.NewValidation("image", fmt.Sprintf("The image may not be greater than %d kilobytes.", s.maxBytes/1024))
	}
	contentType := http.DetectContentType(data)
	if _, ok := allowedImageTypes[contentType]; !ok {
		return "", apperr.NewValidation("image", "The image must be a file of type: jpg, jpeg, png, webp.")
	}
	return contentType, nil
}

// Submit stores the image, writes a pending job and schedules detection.
// The pending record is written before the id is returned, so an immediate
// poll never sees not-found.
func (s *DetectionService) Submit(ctx context.Context, up Upload) (string, error) {
	contentType, err := s.ValidateImage(up.Data)
	if err != nil {
		return "", err
	}

	jobID := s.newID()
	key := ImageKeyPrefix + uuid.NewString() + "." + allowedImageTypes[contentType]

	ref, url, err := s.images.Save(ctx, key, contentType, up.Data)
	if err != nil {
		return "", apperr.Wrap(err, "store image")
	}

	job := entity.NewDetectionJob(jobID, ref, url, up.Filename, contentType, s.now().UTC())
	if err := s.store.Put(ctx, job, s.ttl.For(job.Status)); err != nil {
		return "", apperr.Wrap(err, "write pending job")
	}

	if err := s.queue.Enqueue(ctx, Task{JobID: jobID, ImageRef: ref}); err != nil {
		// The record stays pending until its TTL runs out.
		s.log.Error().Err(err).Str("job_id", jobID).Msg("enqueue detection failed")
		return "", apperr.Wrap(err, "schedule detection")
	}

	s.log.Info().
		Str("job_id", jobID).
		Str("image_ref", ref).
		Int("bytes", len(up.Data)).
		Str("content_type", contentType).
		Msg("detection job accepted")
	return jobID, nil
}

// GetJob is a pure read. Malformed ids are reported as not found.
func (s *DetectionService) GetJob(ctx context.Context, id string) (*entity.DetectionJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.ErrNotFound
	}
	return s.store.Get(ctx, id)
}
