package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pantry-service/internal/apperr"
	"pantry-service/internal/detect"
	"pantry-service/internal/entity"
	"pantry-service/internal/jobstore"
	"pantry-service/internal/service"
	"pantry-service/internal/storage"
)

// Processor runs one detection job through
// pending -> processing -> {completed, failed}.
type Processor struct {
	store    jobstore.Store
	images   storage.ImageStore
	detector detect.Detector
	ttl      jobstore.TTL
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewProcessor(store jobstore.Store, images storage.ImageStore, detector detect.Detector, ttl jobstore.TTL, timeout time.Duration, log zerolog.Logger) *Processor {
	return &Processor{
		store:    store,
		images:   images,
		detector: detector,
		ttl:      ttl,
		timeout:  timeout,
		log:      log.With().Str("component", "worker").Logger(),
		now:      time.Now,
	}
}

// Process returns an error only when the job store could not be read or
// written. Detection failures end in a failed record and a nil error, so the
// task is acked and never retried.
func (p *Processor) Process(ctx context.Context, task service.Task) error {
	start := p.now()
	l := p.log.With().Str("job_id", task.JobID).Str("provider", p.detector.Name()).Logger()

	job, err := p.store.Get(ctx, task.JobID)
	if apperr.Is(err, apperr.ErrNotFound) {
		l.Warn().Msg("job expired before processing, nothing to update")
		return nil
	}
	if err != nil {
		return apperr.Wrap(err, "load job")
	}
	if job.Status.Terminal() {
		l.Info().Str("status", string(job.Status)).Msg("job already terminal, skipping redelivery")
		return nil
	}

	if err := job.MarkProcessing(p.now().UTC()); err != nil {
		l.Error().Err(err).Msg("unexpected job state")
		return nil
	}
	if err := p.store.Put(ctx, job, p.ttl.For(job.Status)); err != nil {
		return apperr.Wrap(err, "write processing")
	}
	l.Info().Msg("status=processing")

	ref := task.ImageRef
	if ref == "" {
		ref = job.ImageRef
	}
	results, detectErr := p.detect(ctx, ref, job)

	// shutdown mid-detection: leave the job processing and the task unacked
	// so the reaper hands it to another worker
	if err := ctx.Err(); err != nil {
		l.Warn().Err(err).Msg("detection interrupted")
		return apperr.Wrap(err, "detection interrupted")
	}

	if detectErr != nil {
		msg := failureMessage(detectErr, p.timeout)
		_ = job.Fail(msg, p.now().UTC())
		l.Error().Err(detectErr).Dur("elapsed", p.now().Sub(start)).Msg("status=failed")
	} else {
		_ = job.Complete(results, p.now().UTC())
		l.Info().Int("count", job.Count).Dur("elapsed", p.now().Sub(start)).Msg("status=completed")
	}

	if err := p.store.Put(ctx, job, p.ttl.For(job.Status)); err != nil {
		return apperr.Wrap(err, "write terminal")
	}
	return nil
}

func (p *Processor) detect(ctx context.Context, ref string, job *entity.DetectionJob) ([]entity.Observation, error) {
	data, err := p.images.Read(ctx, ref)
	if err != nil {
		return nil, apperr.Wrap(err, "read image")
	}

	dctx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	raw, err := p.detector.Detect(dctx, detect.Image{Data: data, Filename: job.Filename, ContentType: job.ContentType})
	if err != nil {
		return nil, err
	}
	return detect.Normalize(raw), nil
}

// failureMessage is what the client sees in the job's error field.
func failureMessage(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("detection timed out after %s", timeout)
	}
	return "detection failed: " + err.Error()
}
