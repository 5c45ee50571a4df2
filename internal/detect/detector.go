// Package detect adapts external ingredient detection providers.
//
// Every adapter returns RawObservation values; Normalize turns them into the
// canonical entity.Observation so provider shapes never reach the worker.
package detect

import (
	"context"
)

// Image is the input handed to a provider.
type Image struct {
	Data        []byte
	Filename    string
	ContentType string
}

// RawObservation is a provider result before normalization. Score is set when
// the provider reports a number; Level carries qualitative or textual values.
type RawObservation struct {
	Name  string
	Score *float64
	Level string
	Note  string
}

// Detector finds ingredients in an image. Transport failures and non-success
// answers are marked apperr.ErrCapabilityUnavailable; undecodable payloads
// are marked apperr.ErrMalformedResponse.
type Detector interface {
	Detect(ctx context.Context, img Image) ([]RawObservation, error)
	Name() string
}
