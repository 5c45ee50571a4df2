package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pantry-service/internal/apperr"
	"pantry-service/internal/entity"
	"pantry-service/internal/generate"
	"pantry-service/internal/recipegen"
)

const (
	MaxIngredientNames   = 30
	MaxIngredientNameLen = 50
	RecipesPerPage       = 10
	maxTitleLen          = 255
)

// RecipeRepository is implemented by postgresql.RecipeRepository.
type RecipeRepository interface {
	Create(ctx context.Context, r *entity.Recipe) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Recipe, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]entity.Recipe, int, error)
	Update(ctx context.Context, r *entity.Recipe) error
	SetFavorite(ctx context.Context, id uuid.UUID, favorite bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RecipeService struct {
	repo    RecipeRepository
	gen     generate.Generator
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

func NewRecipeService(repo RecipeRepository, gen generate.Generator, timeout time.Duration, log zerolog.Logger) *RecipeService {
	return &RecipeService{
		repo:    repo,
		gen:     gen,
		timeout: timeout,
		log:     log.With().Str("component", "recipes").Logger(),
		now:     time.Now,
	}
}

// NormalizeIngredientNames trims names and enforces count and length limits.
func NormalizeIngredientNames(names []string) ([]string, error) {
	v := &apperr.ValidationError{}
	if len(names) == 0 {
		return nil, v.Add("ingredients", "The ingredients field must have at least 1 item.")
	}
	if len(names) > MaxIngredientNames {
		return nil, v.Add("ingredients", fmt.Sprintf("The ingredients field must not have more than %d items.", MaxIngredientNames))
	}
	out := make([]string, 0, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		field := fmt.Sprintf("ingredients.%d", i)
		switch {
		case n == "":
			v.Add(field, "The ingredient name is required.")
		case utf8.RuneCountInString(n) > MaxIngredientNameLen:
			v.Add(field, fmt.Sprintf("The ingredient name must not be greater than %d characters.", MaxIngredientNameLen))
		default:
			out = append(out, n)
		}
	}
	if !v.Empty() {
		return nil, v
	}
	return out, nil
}

// Generate asks the generator for a recipe and persists it for ownerID.
// Nothing is stored unless the response parses into a complete recipe.
func (s *RecipeService) Generate(ctx context.Context, ownerID string, names []string) (*entity.Recipe, error) {
	names, err := NormalizeIngredientNames(names)
	if err != nil {
		return nil, err
	}
	start := s.now()
	prompt := recipegen.BuildPrompt(names)

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	raw, err := s.gen.Generate(genCtx, prompt)
	cancel()
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.gen.Name()).Strs("ingredients", names).Msg("recipe generation failed")
		return nil, apperr.Mark(apperr.Wrap(err, "generate recipe"), apperr.ErrCapabilityUnavailable)
	}

	draft, err := recipegen.Parse(raw)
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.gen.Name()).Int("raw_len", len(raw)).Msg("recipe response rejected")
		return nil, err
	}

	recipe := draft.Recipe(ownerID, s.now().UTC())
	if err := recipe.Validate(); err != nil {
		return nil, apperr.Wrap(err, "generated recipe")
	}
	if err := s.repo.Create(ctx, recipe); err != nil {
		return nil, apperr.Wrap(err, "persist recipe")
	}

	s.log.Info().
		Str("recipe_id", recipe.ID.String()).
		Str("owner_id", ownerID).
		Str("provider", s.gen.Name()).
		Dur("elapsed", s.now().Sub(start)).
		Msg("recipe generated")
	return recipe, nil
}

// RecipePage is one page of an owner's recipes, newest first.
type RecipePage struct {
	Items       []entity.Recipe `json:"data"`
	CurrentPage int             `json:"current_page"`
	PerPage     int             `json:"per_page"`
	Total       int             `json:"total"`
	LastPage    int             `json:"last_page"`
}

func (s *RecipeService) List(ctx context.Context, ownerID string, page int) (*RecipePage, error) {
	if page < 1 {
		page = 1
	}
	items, total, err := s.repo.ListByOwner(ctx, ownerID, RecipesPerPage, (page-1)*RecipesPerPage)
	if err != nil {
		return nil, apperr.Wrap(err, "list recipes")
	}
	if items == nil {
		items = []entity.Recipe{}
	}
	last := (total + RecipesPerPage - 1) / RecipesPerPage
	if last < 1 {
		last = 1
	}
	return &RecipePage{Items: items, CurrentPage: page, PerPage: RecipesPerPage, Total: total, LastPage: last}, nil
}

// Get returns the recipe if ownerID owns it.
func (s *RecipeService) Get(ctx context.Context, ownerID string, id uuid.UUID) (*entity.Recipe, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != ownerID {
		return nil, apperr.ErrForbidden
	}
	return r, nil
}

// RecipeUpdate is a full replacement of the editable fields.
type RecipeUpdate struct {
	Title              string                    `json:"title"`
	Description        string                    `json:"description"`
	CookingTimeMinutes *int                      `json:"cooking_time"`
	Difficulty         string                    `json:"difficulty"`
	Ingredients        []entity.RecipeIngredient `json:"ingredients"`
	Instructions       []string                  `json:"instructions"`
	ImageURL           *string                   `json:"image_url"`
}

func (s *RecipeService) Update(ctx context.Context, ownerID string, id uuid.UUID, in RecipeUpdate) (*entity.Recipe, error) {
	r, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, apperr.NewValidation("title", fmt.Sprintf("The title must not be greater than %d characters.", maxTitleLen))
	}
	if in.CookingTimeMinutes != nil && *in.CookingTimeMinutes < 0 {
		return nil, apperr.NewValidation("cooking_time", "The cooking time must be a positive number of minutes.")
	}

	r.Title = title
	r.Description = in.Description
	r.CookingTimeMinutes = in.CookingTimeMinutes
	r.Difficulty = entity.Difficulty(in.Difficulty)
	r.Ingredients = in.Ingredients
	r.Instructions = in.Instructions
	r.ImageURL = in.ImageURL
	r.UpdatedAt = s.now().UTC()

	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, apperr.Wrap(err, "update recipe")
	}
	return r, nil
}

// ToggleFavorite flips is_favorite and returns the new value.
func (s *RecipeService) ToggleFavorite(ctx context.Context, ownerID string, id uuid.UUID) (bool, error) {
	r, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return false, err
	}
	fav := !r.IsFavorite
	if err := s.repo.SetFavorite(ctx, id, fav); err != nil {
		return false, apperr.Wrap(err, "toggle favorite")
	}
	return fav, nil
}

func (s *RecipeService) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Wrap(err, "delete recipe")
	}
	return nil
}
