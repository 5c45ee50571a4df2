package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pantry-service/internal/entity"
	"pantry-service/internal/service"
)

// ReadyCheck is one dependency probed by /ready.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handler struct {
	detections *service.DetectionService
	recipes    *service.RecipeService
	maxUpload  int64
	checks     []ReadyCheck
	log        zerolog.Logger
}

func NewHandler(detections *service.DetectionService, recipes *service.RecipeService, maxUpload int64, log zerolog.Logger, checks ...ReadyCheck) *Handler {
	return &Handler{
		detections: detections,
		recipes:    recipes,
		maxUpload:  maxUpload,
		checks:     checks,
		log:        log.With().Str("component", "http").Logger(),
	}
}

type uploadResp struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

type jobData struct {
	Status      entity.JobStatus      `json:"status"`
	ImageURL    string                `json:"image_url"`
	Filename    string                `json:"filename"`
	ContentType string                `json:"content_type"`
	Results     *[]entity.Observation `json:"results,omitempty"`
	Count       *int                  `json:"count,omitempty"`
	Error       string                `json:"error,omitempty"`
	CreatedAt   string                `json:"created_at"`
	UpdatedAt   string                `json:"updated_at"`
	ExpiresAt   string                `json:"expires_at,omitempty"`
}

type jobResp struct {
	Success bool    `json:"success"`
	JobID   string  `json:"job_id"`
	Data    jobData `json:"data"`
}

func toJobData(j *entity.DetectionJob) jobData {
	d := jobData{
		Status:      j.Status,
		ImageURL:    j.ImageURL,
		Filename:    j.Filename,
		ContentType: j.ContentType,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   j.UpdatedAt.Format(time.RFC3339),
	}
	if !j.ExpiresAt.IsZero() {
		d.ExpiresAt = j.ExpiresAt.Format(time.RFC3339)
	}
	// completed always carries results, even an empty list
	if j.Status == entity.StatusCompleted {
		results := j.Results
		if results == nil {
			results = []entity.Observation{}
		}
		count := len(results)
		d.Results = &results
		d.Count = &count
	}
	return d
}

type generateDTO struct {
	Ingredients []string `json:"ingredients"`
}

type recipeResp struct {
	Success bool           `json:"success"`
	Data    *entity.Recipe `json:"data"`
}

type recipePageResp struct {
	Success bool `json:"success"`
	*service.RecipePage
}

type favoriteResp struct {
	Success    bool `json:"success"`
	IsFavorite bool `json:"is_favorite"`
}

type successResp struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

const (
	msgJobNotFound      = "Job not found or expired."
	msgRecipeNotFound   = "Recipe not found."
	msgUploadFailed     = "Failed to process image. Please try again."
	msgGenerationFailed = "Failed to generate recipe. Please try again later."
)

// UploadIngredients godoc
// @Summary Upload a pantry photo
// @Description Stores the image and starts background ingredient detection. Poll /api/jobs/{jobId} for the result.
// @Tags ingredients
// @Accept multipart/form-data
// @Produce json
// @Param X-User-ID header string true "caller identity"
// @Param image formData file true "jpeg, png or webp image"
// @Success 202 {object} uploadResp
// @Failure 401 {object} apiError
// @Failure 422 {object} apiError
// @Failure 429 {object} apiError
// @Failure 500 {object} apiError
// @Router /api/ingredients/upload [post]
func (h *Handler) UploadIngredients(w http.ResponseWriter, r *http.Request) {
	// one extra MiB for multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusUnprocessableEntity, apiError{
				Message: msgInvalid,
				Errors:  map[string]string{"image": "The image may not be greater than " + strconv.FormatInt(h.maxUpload/1024, 10) + " kilobytes."},
			})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Message: msgInvalid, Errors: map[string]string{"image": "The image field is required."}})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Message: msgInvalid, Errors: map[string]string{"image": "The image field is required."}})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		writeServiceErr(w, r, h.log, err, "", msgUploadFailed)
		return
	}

	jobID, err := h.detections.Submit(r.Context(), service.Upload{Filename: header.Filename, Data: data})
	if err != nil {
		writeServiceErr(w, r, h.log, err, "", msgUploadFailed)
		return
	}

	writeJSON(w, http.StatusAccepted, uploadResp{
		Success: true,
		JobID:   jobID,
		Message: "Image uploaded. Detection processing started.",
	})
}

// GetJob godoc
// @Summary Get detection job status
// @Tags ingredients
// @Produce json
// @Param X-User-ID header string true "caller identity"
// @Param jobId path string true "job id (uuid)"
// @Success 200 {object} jobResp
// @Failure 404 {object} apiError
// @Router /api/jobs/{jobId} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobId")

	j, err := h.detections.GetJob(r.Context(), id)
	if err != nil {
		writeServiceErr(w, r, h.log, err, msgJobNotFound, "")
		return
	}

	writeJSON(w, http.StatusOK, jobResp{Success: true, JobID: j.ID, Data: toJobData(j)})
}

// GenerateRecipe godoc
// @Summary Generate a recipe from ingredient names
// @Description Calls the language model synchronously and stores the result for the caller.
// @Tags recipes
// @Accept json
// @Produce json
// @Param X-User-ID header string true "caller identity"
// @Param request body generateDTO true "ingredient names (1-30, each at most 50 characters)"
// @Success 201 {object} recipeResp
// @Failure 400 {object} apiError
// @Failure 422 {object} apiError
// @Failure 429 {object} apiError
// @Failure 502 {object} apiError
// @Router /api/recipes/generate [post]
func (h *Handler) GenerateRecipe(w http.ResponseWriter, r *http.Request) {
	var dto generateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	rec, err := h.recipes.Generate(r.Context(), UserID(r.Context()), dto.Ingredients)
	if err != nil {
		writeServiceErr(w, r, h.log, err, "", msgGenerationFailed)
		return
	}

	writeJSON(w, http.StatusCreated, recipeResp{Success: true, Data: rec})
}

// ListRecipes godoc
// @Summary List the caller's recipes
// @Tags recipes
// @Produce json
// @Param X-User-ID header string true "caller identity"
// @Param page query int false "page number (10 per page)"
// @Success 200 {object} recipePageResp
// @Router /api/recipes [get]
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	p, err := h.recipes.List(r.Context(), UserID(r.Context()), page)
	if err != nil {
		writeServiceErr(w, r, h.log, err, "", "")
		return
	}
	writeJSON(w, http.StatusOK, recipePageResp{Success: true, RecipePage: p})
}

func recipeID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// GetRecipe godoc
// @Summary Get one recipe
// @Tags recipes
// @Produce json
// @Param X-User-ID header string true "caller identity"
// @Param id path string true "recipe id (uuid)"
// @Success 200 {object} recipeResp
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Router /api/recipes/{id} [get]
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		writeErr(w, http.StatusNotFound, msgRecipeNotFound)
		return
	}
	rec, err := h.recipes.Get(r.Context(), UserID(r.Context()), id)
	if err != nil {
		writeServiceErr(w, r, h.log, err, msgRecipeNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, recipeResp{Success: true, Data: rec})
}

// UpdateRecipe godoc
// @Summary Replace the editable fields of a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Param X-User-ID header string true "caller identity"
// @Param id path string true "recipe id (uuid)"
// @Param request body service.RecipeUpdate true "recipe fields"
// @Success 200 {object} recipeResp
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Failure 422 {object} apiError
// @Router /api/recipes/{id} [put]
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		writeErr(w, http.StatusNotFound, msgRecipeNotFound)
		return
	}
	var in service.RecipeUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	rec, err := h.recipes.Update(r.Context(), UserID(r.Context()), id, in)
	if err != nil {
		writeServiceErr(w, r, h.log, err, msgRecipeNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, recipeResp{Success: true, Data: rec})
}

// ToggleFavorite godoc
// @Summary Toggle the favorite flag of a recipe
// @Tags recipes
// @Produce json
// @Param X-User-ID header string true "caller identity"
// @Param id path string true "recipe id (uuid)"
// @Success 200 {object} favoriteResp
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Router /api/recipes/{id}/favorite [post]
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		writeErr(w, http.StatusNotFound, msgRecipeNotFound)
		return
	}
	fav, err := h.recipes.ToggleFavorite(r.Context(), UserID(r.Context()), id)
	if err != nil {
		writeServiceErr(w, r, h.log, err, msgRecipeNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, favoriteResp{Success: true, IsFavorite: fav})
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Tags recipes
// @Produce json
// @Param X-User-ID header string true "caller identity"
// @Param id path string true "recipe id (uuid)"
// @Success 200 {object} successResp
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Router /api/recipes/{id} [delete]
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		writeErr(w, http.StatusNotFound, msgRecipeNotFound)
		return
	}
	if err := h.recipes.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		writeServiceErr(w, r, h.log, err, msgRecipeNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, successResp{Success: true, Message: "Recipe deleted."})
}

// Ready godoc
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	out := map[string]string{}
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			out[c.Name] = err.Error()
			h.log.Warn().Err(err).Str("check", c.Name).Msg("not ready")
			continue
		}
		out[c.Name] = "ok"
	}
	writeJSON(w, status, out)
}
