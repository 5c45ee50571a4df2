// Package generate adapts language model providers that turn a prompt into
// recipe JSON text.
package generate

import "context"

// Generator returns the raw model text for prompt. It may be fenced and may
// not be valid JSON; callers parse it. Failures are marked
// apperr.ErrCapabilityUnavailable.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

const systemInstruction = "You are a helpful home cooking assistant. Always answer with a single JSON object and nothing else."
