package models

// GenerationRequest represents a Stable Diffusion image generation request
type GenerationRequest struct {
	Prompt            string   `json:"prompt" validate:"notblank,max=500"`
	NegativePrompt    *string  `json:"negative_prompt,omitempty" validate:"omitempty,max=500"`
	NumInferenceSteps *int     `json:"num_inference_steps,omitempty" validate:"omitempty,min=1,max=100"`
	GuidanceScale     *float64 `json:"guidance_scale,omitempty" validate:"omitempty,gte=0,lte=20"`
	Width             *int     `json:"width,omitempty" validate:"omitempty,oneof=512 768 1024"`
	Height            *int     `json:"height,omitempty" validate:"omitempty,oneof=512 768 1024"`
	Seed              *int64   `json:"seed,omitempty" validate:"omitempty,gte=0,lte=4294967295"`
}

// RawGenerationResult is the generation response as sent by the backend.
// Every field except success and message may be missing.
type RawGenerationResult struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	ImagePath      *string  `json:"image_path"`
	GenerationTime *float64 `json:"generation_time"`
	SeedUsed       *int64   `json:"seed_used"`
	ImageURL       *string  `json:"image_url,omitempty"`
	Filename       *string  `json:"filename,omitempty"`
}

// GenerationResult is the normalized generation response. Filename and
// ImageURL are derived from ImagePath and are empty when no image can be shown.
type GenerationResult struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	ImagePath      string  `json:"image_path"`
	GenerationTime float64 `json:"generation_time"`
	SeedUsed       int64   `json:"seed_used"`
	Filename       string  `json:"filename,omitempty"`
	ImageURL       string  `json:"image_url,omitempty"`
}

// HasImage reports whether the result carries a displayable image.
func (r GenerationResult) HasImage() bool {
	return r.ImageURL != ""
}

// RawImageEntry is a single gallery entry as listed by the backend. The
// backend reports created as a float ctime.
type RawImageEntry struct {
	Filename *string  `json:"filename,omitempty"`
	Path     *string  `json:"path,omitempty"`
	URL      *string  `json:"url,omitempty"`
	Created  *float64 `json:"created,omitempty"`
	Size     *int64   `json:"size,omitempty"`
}

// ImageListResponse wraps the /images payload.
type ImageListResponse struct {
	Images []RawImageEntry `json:"images"`
}

// ImageListEntry is a normalized gallery entry keyed by Filename.
type ImageListEntry struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Created  int64  `json:"created"`
	Size     int64  `json:"size,omitempty"`
}

// ImageList is the normalized /images payload served to the UI.
type ImageList struct {
	Images []ImageListEntry `json:"images"`
}

// HealthStatus represents the backend health check response
type HealthStatus struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	ModelLoaded bool   `json:"model_loaded"`
}

// ReadinessStatus represents the backend readiness check response
type ReadinessStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Ready reports whether the backend is able to serve generations.
func (r ReadinessStatus) Ready() bool {
	return r.Status == "ready"
}

// ErrorBody is the error payload used by the backend and the gateway.
type ErrorBody struct {
	Detail string `json:"detail"`
}
