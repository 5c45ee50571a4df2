package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pantry-service/internal/apperr"
	"pantry-service/internal/entity"
)

type RecipeRepository struct {
	db DB
}

func NewRecipeRepository(db DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

const recipeColumns = `id, owner_id, title, description, cooking_time, difficulty,
       ingredients, instructions, nutrition, image_url, is_favorite, created_at, updated_at`

// jsonb columns travel as raw bytes
type recipeJSON struct {
	ingredients  []byte
	instructions []byte
	nutrition    any
}

func encodeRecipe(r *entity.Recipe) (recipeJSON, error) {
	var out recipeJSON
	var err error
	if out.ingredients, err = json.Marshal(r.Ingredients); err != nil {
		return out, apperr.Wrap(err, "encode ingredients")
	}
	if out.instructions, err = json.Marshal(r.Instructions); err != nil {
		return out, apperr.Wrap(err, "encode instructions")
	}
	if len(r.Nutrition) > 0 {
		b, err := json.Marshal(r.Nutrition)
		if err != nil {
			return out, apperr.Wrap(err, "encode nutrition")
		}
		out.nutrition = b
	}
	return out, nil
}

func (r *RecipeRepository) Create(ctx context.Context, rec *entity.Recipe) error {
	enc, err := encodeRecipe(rec)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO recipes (id, owner_id, title, description, cooking_time, difficulty,
                     ingredients, instructions, nutrition, image_url, is_favorite, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
`
	_, err = r.db.Exec(ctx, q,
		rec.ID,
		rec.OwnerID,
		rec.Title,
		rec.Description,
		rec.CookingTimeMinutes,
		string(rec.Difficulty),
		enc.ingredients,
		enc.instructions,
		enc.nutrition,
		rec.ImageURL,
		rec.IsFavorite,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return apperr.Wrap(err, "insert recipe")
	}
	return nil
}

func scanRecipe(row pgx.Row) (*entity.Recipe, error) {
	var (
		rec          entity.Recipe
		difficulty   string
		ingredients  []byte
		instructions []byte
		nutrition    []byte
		createdAt    time.Time
		updatedAt    time.Time
	)
	if err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Title,
		&rec.Description,
		&rec.CookingTimeMinutes, // NULL => nil
		&difficulty,
		&ingredients,
		&instructions,
		&nutrition, // NULL => nil
		&rec.ImageURL,
		&rec.IsFavorite,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	rec.Difficulty = entity.Difficulty(difficulty)
	if err := json.Unmarshal(ingredients, &rec.Ingredients); err != nil {
		return nil, apperr.Wrap(err, "decode ingredients")
	}
	if err := json.Unmarshal(instructions, &rec.Instructions); err != nil {
		return nil, apperr.Wrap(err, "decode instructions")
	}
	if len(nutrition) > 0 {
		if err := json.Unmarshal(nutrition, &rec.Nutrition); err != nil {
			return nil, apperr.Wrap(err, "decode nutrition")
		}
	}
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt
	return &rec, nil
}

func (r *RecipeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Recipe, error) {
	q := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1;`

	rec, err := scanRecipe(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Wrapf(apperr.ErrNotFound, "recipe %s", id)
		}
		return nil, apperr.Wrap(err, "select recipe")
	}
	return rec, nil
}

// ListByOwner returns one page, newest first, and the owner's total count.
func (r *RecipeRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]entity.Recipe, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM recipes WHERE owner_id = $1;`, ownerID).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(err, "count recipes")
	}
	if total == 0 {
		return []entity.Recipe{}, 0, nil
	}

	q := `SELECT ` + recipeColumns + `
FROM recipes
WHERE owner_id = $1
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3;`

	rows, err := r.db.Query(ctx, q, ownerID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "list recipes")
	}
	defer rows.Close()

	out := make([]entity.Recipe, 0, limit)
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, apperr.Wrap(err, "scan recipe")
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Wrap(err, "iterate recipes")
	}
	return out, total, nil
}

func (r *RecipeRepository) Update(ctx context.Context, rec *entity.Recipe) error {
	enc, err := encodeRecipe(rec)
	if err != nil {
		return err
	}

	const q = `
UPDATE recipes
SET title=$2, description=$3, cooking_time=$4, difficulty=$5,
    ingredients=$6, instructions=$7, nutrition=$8, image_url=$9, updated_at=$10
WHERE id=$1;
`
	tag, err := r.db.Exec(ctx, q,
		rec.ID,
		rec.Title,
		rec.Description,
		rec.CookingTimeMinutes,
		string(rec.Difficulty),
		enc.ingredients,
		enc.instructions,
		enc.nutrition,
		rec.ImageURL,
		rec.UpdatedAt,
	)
	if err != nil {
		return apperr.Wrap(err, "update recipe")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrapf(apperr.ErrNotFound, "recipe %s", rec.ID)
	}
	return nil
}

func (r *RecipeRepository) SetFavorite(ctx context.Context, id uuid.UUID, favorite bool) error {
	const q = `UPDATE recipes SET is_favorite=$2, updated_at=now() WHERE id=$1;`

	tag, err := r.db.Exec(ctx, q, id, favorite)
	if err != nil {
		return apperr.Wrap(err, "set favorite")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrapf(apperr.ErrNotFound, "recipe %s", id)
	}
	return nil
}

func (r *RecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM recipes WHERE id=$1;`, id)
	if err != nil {
		return apperr.Wrap(err, "delete recipe")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrapf(apperr.ErrNotFound, "recipe %s", id)
	}
	return nil
}
