package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cheahjs/stable-diffusion-frontend/internal/models"
)

// formRequest is what the UI posts to /api/v1/generate. It accepts the
// backend's fields plus an optional "WxH" size shorthand.
type formRequest struct {
	models.GenerationRequest
	Size *string `json:"size,omitempty"`
}

// convertRequest decodes a UI form body into a backend generation request.
// Explicit width and height take precedence over size.
func convertRequest(body []byte) (models.GenerationRequest, error) {
	var form formRequest
	if err := json.Unmarshal(body, &form); err != nil {
		return models.GenerationRequest{}, fmt.Errorf("%w: malformed JSON body: %v", models.ErrInvalidRequest, err)
	}

	req := form.GenerationRequest
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.NegativePrompt != nil && strings.TrimSpace(*req.NegativePrompt) == "" {
		req.NegativePrompt = nil
	}

	if form.Size != nil && *form.Size != "" {
		width, height, err := parseSize(*form.Size)
		if err != nil {
			return models.GenerationRequest{}, err
		}
		if req.Width == nil {
			req.Width = &width
		}
		if req.Height == nil {
			req.Height = &height
		}
	}

	return req, nil
}

func parseSize(size string) (int, int, error) {
	sizeSplit := strings.Split(strings.ToLower(size), "x")
	if len(sizeSplit) != 2 {
		return 0, 0, fmt.Errorf("%w: invalid size %q, expected WIDTHxHEIGHT", models.ErrInvalidRequest, size)
	}
	width, err := strconv.Atoi(strings.TrimSpace(sizeSplit[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid size width %q", models.ErrInvalidRequest, sizeSplit[0])
	}
	height, err := strconv.Atoi(strings.TrimSpace(sizeSplit[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid size height %q", models.ErrInvalidRequest, sizeSplit[1])
	}
	return width, height, nil
}
