package entity

import (
	"time"

	"pantry-service/internal/apperr"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Observation is one detected ingredient in canonical form.
type Observation struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Note       *string `json:"note,omitempty"`
}

// DetectionJob is the record kept in the job store for one uploaded image.
type DetectionJob struct {
	ID          string        `json:"id"`
	Status      JobStatus     `json:"status"`
	ImageRef    string        `json:"image_ref"`
	ImageURL    string        `json:"image_url"`
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	Results     []Observation `json:"results,omitempty"`
	Count       int           `json:"count,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// NewDetectionJob returns a pending job.
func NewDetectionJob(id, imageRef, imageURL, filename, contentType string, now time.Time) *DetectionJob {
	return &DetectionJob{
		ID:          id,
		Status:      StatusPending,
		ImageRef:    imageRef,
		ImageURL:    imageURL,
		Filename:    filename,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// pending -> processing -> {completed, failed}. processing -> processing is
// allowed so a redelivered task can resume a job whose worker died.
func canTransition(from, to JobStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusProcessing || to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// MarkProcessing moves the job into processing.
func (j *DetectionJob) MarkProcessing(now time.Time) error {
	if !canTransition(j.Status, StatusProcessing) {
		return apperr.Wrapf(apperr.ErrInvalidTransition, "%s -> %s", j.Status, StatusProcessing)
	}
	j.Status = StatusProcessing
	j.UpdatedAt = now
	return nil
}

// Complete stores the results and terminates the job.
func (j *DetectionJob) Complete(results []Observation, now time.Time) error {
	if !canTransition(j.Status, StatusCompleted) {
		return apperr.Wrapf(apperr.ErrInvalidTransition, "%s -> %s", j.Status, StatusCompleted)
	}
	if results == nil {
		results = []Observation{}
	}
	j.Status = StatusCompleted
	j.Results = results
	j.Count = len(results)
	j.Error = ""
	j.UpdatedAt = now
	return nil
}

// Fail records msg and terminates the job.
func (j *DetectionJob) Fail(msg string, now time.Time) error {
	if !canTransition(j.Status, StatusFailed) {
		return apperr.Wrapf(apperr.ErrInvalidTransition, "%s -> %s", j.Status, StatusFailed)
	}
	j.Status = StatusFailed
	j.Results = nil
	j.Count = 0
	j.Error = msg
	j.UpdatedAt = now
	return nil
}
