package entity

import (
	"time"

	"github.com/google/uuid"

	"pantry-service/internal/apperr"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts the three known levels; anything else is false.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), true
	}
	return "", false
}

type RecipeIngredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type Recipe struct {
	ID                 uuid.UUID          `json:"id"`
	OwnerID            string             `json:"owner_id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	CookingTimeMinutes *int               `json:"cooking_time,omitempty"`
	Difficulty         Difficulty         `json:"difficulty"`
	Ingredients        []RecipeIngredient `json:"ingredients"`
	Instructions       []string           `json:"instructions"`
	Nutrition          map[string]any     `json:"nutrition,omitempty"`
	ImageURL           *string            `json:"image_url,omitempty"`
	IsFavorite         bool               `json:"is_favorite"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Validate enforces what every stored recipe must satisfy.
func (r *Recipe) Validate() error {
	v := &apperr.ValidationError{}
	if r.OwnerID == "" {
		v.Add("owner_id", "is required")
	}
	if r.Title == "" {
		v.Add("title", "is required")
	}
	if _, ok := ParseDifficulty(string(r.Difficulty)); !ok {
		v.Add("difficulty", "must be one of easy, medium, hard")
	}
	if len(r.Ingredients) == 0 {
		v.Add("ingredients", "must not be empty")
	}
	if len(r.Instructions) == 0 {
		v.Add("instructions", "must not be empty")
	}
	if v.Empty() {
		return nil
	}
	return v
}
