package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/cheahjs/stable-diffusion-frontend/internal/models"
)

const maxRequestBodyBytes = 1 << 20

// Backend is the subset of the backend client the gateway uses.
type Backend interface {
	ImageFetcher
	GenerateImage(ctx context.Context, req models.GenerationRequest, baseURL string) (models.GenerationResult, error)
	Health(ctx context.Context) (models.HealthStatus, error)
	Ready(ctx context.Context) (models.ReadinessStatus, error)
	ListImages(ctx context.Context, baseURL string) ([]models.ImageListEntry, error)
}

type Router struct {
	router      *mux.Router
	handler     http.Handler
	backend     Backend
	images      *ImageManager
	baseURL     string
	proxyImages bool
}

// NewRouter wires the gateway routes. With proxyImages set, image URLs handed
// to the UI point at this gateway (baseURL, or the request host when empty)
// and are served through images; otherwise they point at the backend.
// allowedOrigins lists the browser origins allowed to call the gateway; "*"
// allows any.
func NewRouter(backend Backend, images *ImageManager, baseURL string, proxyImages bool, allowedOrigins []string) *Router {
	r := mux.NewRouter()
	router := &Router{
		router:      r,
		backend:     backend,
		images:      images,
		baseURL:     strings.TrimRight(baseURL, "/"),
		proxyImages: proxyImages,
	}

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not Found")
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/generate", router.imageGenerationHandler).Methods(http.MethodPost)
	v1.HandleFunc("/health", router.healthHandler).Methods(http.MethodGet)
	v1.HandleFunc("/ready", router.readyHandler).Methods(http.MethodGet)
	v1.HandleFunc("/images", router.imageListHandler).Methods(http.MethodGet)
	v1.HandleFunc("/image/{filename}", router.imageHandler).Methods(http.MethodGet)
	v1.NotFoundHandler = notFound
	v1.MethodNotAllowedHandler = methodNotAllowed
	r.HandleFunc("/healthz", router.liveHandler).Methods(http.MethodGet)
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = methodNotAllowed

	// CORS and logging wrap the whole router so preflights and unmatched
	// routes are handled and logged too.
	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
		handlers.ExposedHeaders([]string{"X-Request-ID"}),
	)
	router.handler = requestLogger(cors(r))

	return router
}

func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.handler.ServeHTTP(w, r)
}

func (router *Router) getBaseUrl(r *http.Request) string {
	if router.baseURL != "" {
		return router.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// imageBaseURL returns the origin image URLs are derived from; empty means
// the backend's own origin.
func (router *Router) imageBaseURL(r *http.Request) string {
	if !router.proxyImages {
		return ""
	}
	return router.getBaseUrl(r)
}

func (router *Router) imageGenerationHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := convertRequest(body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := router.backend.GenerateImage(r.Context(), req, router.imageBaseURL(r))
	if err != nil {
		log.Error().Err(err).Msg("Image generation failed")
		respondWithBackendError(w, err)
		return
	}

	log.Info().
		Str("filename", result.Filename).
		Float64("generation_time", result.GenerationTime).
		Int64("seed", result.SeedUsed).
		Msg("Generated image")
	respondWithJSON(w, http.StatusOK, result)
}

func (router *Router) imageListHandler(w http.ResponseWriter, r *http.Request) {
	images, err := router.backend.ListImages(r.Context(), router.imageBaseURL(r))
	if err != nil {
		log.Error().Err(err).Msg("Listing images failed")
		respondWithBackendError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.ImageList{Images: images})
}

func (router *Router) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, err := router.backend.Health(r.Context())
	if err != nil {
		respondWithBackendError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

func (router *Router) readyHandler(w http.ResponseWriter, r *http.Request) {
	status, err := router.backend.Ready(r.Context())
	if err != nil {
		respondWithBackendError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

func (router *Router) liveHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("elapsed", time.Since(start)).
			Msg("Handled request")
	})
}
