package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/cheahjs/stable-diffusion-frontend/internal/normalize"
)

func (router *Router) imageHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename := vars["filename"]

	if err := normalize.ValidateFilename(filename); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid image filename")
		return
	}

	imageData, contentType, err := router.images.GetImage(r.Context(), filename)
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Failed to retrieve image")
		respondWithBackendError(w, err)
		return
	}

	if contentType == "" {
		contentType = http.DetectContentType(imageData)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(imageData)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(imageData)
}
