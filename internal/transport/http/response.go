package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"pantry-service/internal/apperr"
)

// apiError is the failure envelope. Errors is set for validation failures only.
type apiError struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiError{Message: msg})
}

const (
	msgInvalid  = "The given data was invalid."
	msgNotFound = "Not found."
	msgInternal = "Something went wrong. Please try again later."
)

// writeServiceErr maps the apperr taxonomy onto status codes. Provider
// failures answer with unavailableMsg; the cause only goes to the log.
func writeServiceErr(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error, notFoundMsg, unavailableMsg string) {
	var verr *apperr.ValidationError
	switch {
	case apperr.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Message: msgInvalid, Errors: verr.Fields})
	case apperr.Is(err, apperr.ErrNotFound):
		if notFoundMsg == "" {
			notFoundMsg = msgNotFound
		}
		writeErr(w, http.StatusNotFound, notFoundMsg)
	case apperr.Is(err, apperr.ErrForbidden):
		writeErr(w, http.StatusForbidden, "You do not have access to this resource.")
	case apperr.IsAny(err, apperr.ErrCapabilityUnavailable, apperr.ErrMalformedResponse, apperr.ErrIncompleteRecipe):
		log.Error().Err(err).Str("req_id", middleware.GetReqID(r.Context())).Msg("provider failure")
		if unavailableMsg == "" {
			unavailableMsg = msgInternal
		}
		writeErr(w, http.StatusBadGateway, unavailableMsg)
	default:
		log.Error().Err(err).Str("req_id", middleware.GetReqID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
		writeErr(w, http.StatusInternalServerError, msgInternal)
	}
}
