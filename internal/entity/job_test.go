package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-service/internal/apperr"
	"pantry-service/internal/entity"
)

func newJob() *entity.DetectionJob {
	return entity.NewDetectionJob("id-1", "temp/ingredients/a.jpg", "http://x/a.jpg", "a.jpg", "image/jpeg", time.Now())
}

func TestDetectionJob_HappyPath(t *testing.T) {
	j := newJob()
	assert.Equal(t, entity.StatusPending, j.Status)

	require.NoError(t, j.MarkProcessing(time.Now()))
	require.NoError(t, j.Complete([]entity.Observation{{Name: "Tomato", Confidence: 0.95}}, time.Now()))

	assert.Equal(t, entity.StatusCompleted, j.Status)
	assert.Equal(t, 1, j.Count)
	assert.Empty(t, j.Error)
	assert.Equal(t, "temp/ingredients/a.jpg", j.ImageRef, "fields from earlier writes are kept")
}

func TestDetectionJob_CompleteWithNoResultsKeepsEmptySlice(t *testing.T) {
	j := newJob()
	require.NoError(t, j.MarkProcessing(time.Now()))
	require.NoError(t, j.Complete(nil, time.Now()))

	assert.NotNil(t, j.Results)
	assert.Equal(t, 0, j.Count)
}

func TestDetectionJob_CannotSkipProcessing(t *testing.T) {
	j := newJob()

	err := j.Complete(nil, time.Now())
	assert.True(t, apperr.Is(err, apperr.ErrInvalidTransition))

	err = j.Fail("boom", time.Now())
	assert.True(t, apperr.Is(err, apperr.ErrInvalidTransition))
	assert.Equal(t, entity.StatusPending, j.Status)
}

func TestDetectionJob_NoTransitionAfterTerminal(t *testing.T) {
	j := newJob()
	require.NoError(t, j.MarkProcessing(time.Now()))
	require.NoError(t, j.Fail("detection timed out after 1m0s", time.Now()))

	assert.Error(t, j.MarkProcessing(time.Now()))
	assert.Error(t, j.Complete([]entity.Observation{{Name: "Egg"}}, time.Now()))
	assert.Error(t, j.Fail("again", time.Now()))

	assert.Equal(t, entity.StatusFailed, j.Status)
	assert.Nil(t, j.Results)
	assert.Equal(t, "detection timed out after 1m0s", j.Error)
}

func TestDetectionJob_ProcessingIsResumable(t *testing.T) {
	j := newJob()
	require.NoError(t, j.MarkProcessing(time.Now()))
	require.NoError(t, j.MarkProcessing(time.Now()))
	assert.Equal(t, entity.StatusProcessing, j.Status)
}

func TestRecipe_Validate(t *testing.T) {
	r := &entity.Recipe{
		OwnerID:      "user-1",
		Title:        "Tomato Soup",
		Difficulty:   entity.DifficultyEasy,
		Ingredients:  []entity.RecipeIngredient{{Name: "Tomato", Amount: "2"}},
		Instructions: []string{"Boil"},
	}
	require.NoError(t, r.Validate())

	r.Instructions = nil
	err := r.Validate()
	require.Error(t, err)

	var verr *apperr.ValidationError
	require.True(t, apperr.As(err, &verr))
	assert.Contains(t, verr.Fields, "instructions")
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}
