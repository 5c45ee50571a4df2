package detect

import (
	"math"
	"strconv"
	"strings"

	"pantry-service/internal/entity"
)

const (
	UnknownName       = "Unknown"
	DefaultConfidence = 0.5
)

// Qualitative confidence levels and the value each one maps to.
var levelConfidence = map[string]float64{
	"high":   0.9,
	"medium": 0.6,
	"low":    0.3,
}

// Normalize converts provider output into canonical observations, keeping
// order.
func Normalize(raw []RawObservation) []entity.Observation {
	out := make([]entity.Observation, 0, len(raw))
	for _, r := range raw {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = UnknownName
		}
		obs := entity.Observation{Name: name, Confidence: Confidence(r)}
		if note := strings.TrimSpace(r.Note); note != "" {
			obs.Note = &note
		}
		out = append(out, obs)
	}
	return out
}

// Confidence resolves the numeric confidence of one observation.
func Confidence(r RawObservation) float64 {
	if r.Score != nil {
		return clampScore(*r.Score)
	}
	level := strings.ToLower(strings.TrimSpace(r.Level))
	if level == "" {
		return DefaultConfidence
	}
	if v, ok := levelConfidence[level]; ok {
		return v
	}
	if f, err := strconv.ParseFloat(strings.TrimSuffix(level, "%"), 64); err == nil {
		if strings.HasSuffix(level, "%") {
			f /= 100
		}
		return clampScore(f)
	}
	return DefaultConfidence
}

// clampScore keeps values in [0,1]. Values in (1,100] are read as percentages.
func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return DefaultConfidence
	case v < 0:
		return 0
	case v <= 1:
		return v
	case v <= 100:
		return v / 100
	default:
		return 1
	}
}
