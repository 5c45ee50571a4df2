package postgresql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-service/internal/apperr"
	"pantry-service/internal/entity"
)

var recipeCols = []string{
	"id", "owner_id", "title", "description", "cooking_time", "difficulty",
	"ingredients", "instructions", "nutrition", "image_url", "is_favorite", "created_at", "updated_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestRecipeRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewRecipeRepository(mock)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &entity.Recipe{
		ID:           uuid.New(),
		OwnerID:      "user-1",
		Title:        "Tomato Soup",
		Difficulty:   entity.DifficultyEasy,
		Ingredients:  []entity.RecipeIngredient{{Name: "Tomato", Amount: "2"}},
		Instructions: []string{"Boil"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec("INSERT INTO recipes").
		WithArgs(rec.ID, "user-1", "Tomato Soup", "", pgxmock.AnyArg(), "easy",
			[]byte(`[{"name":"Tomato","amount":"2"}]`), []byte(`["Boil"]`), nil,
			pgxmock.AnyArg(), false, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewRecipeRepository(mock)

	id := uuid.New()
	mins := 25
	now := time.Now().UTC()
	rows := mock.NewRows(recipeCols).AddRow(
		id, "user-1", "Tomato Soup", "Warm", &mins, "medium",
		[]byte(`[{"name":"Tomato","amount":"2"}]`), []byte(`["Chop","Boil"]`), []byte(`{"calories":120}`),
		nil, true, now, now,
	)
	mock.ExpectQuery("FROM recipes WHERE id").WithArgs(id).WillReturnRows(rows)

	rec, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, entity.DifficultyMedium, rec.Difficulty)
	require.NotNil(t, rec.CookingTimeMinutes)
	assert.Equal(t, 25, *rec.CookingTimeMinutes)
	assert.Equal(t, []string{"Chop", "Boil"}, rec.Instructions)
	assert.Equal(t, "Tomato", rec.Ingredients[0].Name)
	assert.Equal(t, float64(120), rec.Nutrition["calories"])
	assert.Nil(t, rec.ImageURL)
	assert.True(t, rec.IsFavorite)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepository_GetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewRecipeRepository(mock)

	id := uuid.New()
	mock.ExpectQuery("FROM recipes WHERE id").WithArgs(id).WillReturnRows(mock.NewRows(recipeCols))

	_, err := repo.GetByID(context.Background(), id)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestRecipeRepository_ListByOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewRecipeRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT count`).WithArgs("user-1").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery("ORDER BY created_at DESC").WithArgs("user-1", 10, 10).
		WillReturnRows(mock.NewRows(recipeCols).
			AddRow(uuid.New(), "user-1", "A", "", nil, "easy", []byte(`[{"name":"Egg","amount":"1"}]`), []byte(`["Fry"]`), nil, nil, false, now, now).
			AddRow(uuid.New(), "user-1", "B", "", nil, "hard", []byte(`[{"name":"Rice","amount":"1 cup"}]`), []byte(`["Cook"]`), nil, nil, false, now, now))

	items, total, err := repo.ListByOwner(context.Background(), "user-1", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Title)
	assert.Nil(t, items[0].Nutrition)
	assert.Equal(t, entity.DifficultyHard, items[1].Difficulty)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepository_ListByOwnerEmptySkipsSelect(t *testing.T) {
	mock := newMock(t)
	repo := NewRecipeRepository(mock)

	mock.ExpectQuery(`SELECT count`).WithArgs("nobody").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := repo.ListByOwner(context.Background(), "nobody", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepository_WritesReportNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewRecipeRepository(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE recipes SET is_favorite").WithArgs(id, true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec("DELETE FROM recipes").WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("UPDATE recipes").
		WithArgs(id, "T", "", pgxmock.AnyArg(), "easy", pgxmock.AnyArg(), pgxmock.AnyArg(), nil, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.True(t, apperr.Is(repo.SetFavorite(context.Background(), id, true), apperr.ErrNotFound))
	assert.True(t, apperr.Is(repo.Delete(context.Background(), id), apperr.ErrNotFound))

	err := repo.Update(context.Background(), &entity.Recipe{
		ID: id, Title: "T", Difficulty: entity.DifficultyEasy,
		Ingredients: []entity.RecipeIngredient{{Name: "x"}}, Instructions: []string{"y"},
	})
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepository_DriverErrorIsNotNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewRecipeRepository(mock)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM recipes").WithArgs(id).WillReturnError(errors.New("conn reset"))

	err := repo.Delete(context.Background(), id)
	require.Error(t, err)
	assert.False(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestMigrate_AppliesPendingOnce(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("001").
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS recipes").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("001").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), mock, zerolog.Nop()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_SkipsApplied(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("001").
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, Migrate(context.Background(), mock, zerolog.Nop()))
	require.NoError(t, mock.ExpectationsWereMet())
}
