package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/cheahjs/stable-diffusion-frontend/internal/client"
	"github.com/cheahjs/stable-diffusion-frontend/internal/models"
	"github.com/cheahjs/stable-diffusion-frontend/internal/normalize"
)

func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	jsonBody, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(jsonBody)
}

// respondWithError writes the {detail} error shape the UI expects.
func respondWithError(w http.ResponseWriter, status int, detail string) {
	respondWithJSON(w, status, models.ErrorBody{Detail: detail})
}

// respondWithBackendError maps a failed backend call onto a gateway response.
// Backend statuses and detail text are relayed; transport failures become 502.
func respondWithBackendError(w http.ResponseWriter, err error) {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		respondWithError(w, apiErr.StatusCode, apiErr.Error())
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, normalize.ErrInvalidFilename):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusBadGateway, "backend unavailable: "+err.Error())
	}
}

// statusRecorder captures the status code written by a handler for logging.
// A handler that never calls WriteHeader has implicitly answered 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
