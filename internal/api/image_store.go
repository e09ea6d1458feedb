package api

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cheahjs/stable-diffusion-frontend/internal/normalize"
)

// ImageStore saves downloaded images to a local directory, each next to a
// .txt sidecar holding the prompt that produced it.
type ImageStore struct {
	basePath string
}

func NewImageStore(basePath string) (*ImageStore, error) {
	if basePath == "" {
		return nil, nil // Image store is disabled
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image store directory: %w", err)
	}

	return &ImageStore{basePath: basePath}, nil
}

// StoreImageWithPrompt writes imageData under filename and, when prompt is
// not empty, the prompt sidecar. It returns the image path.
func (store *ImageStore) StoreImageWithPrompt(filename, prompt string, imageData []byte) (string, error) {
	if err := normalize.ValidateFilename(filename); err != nil {
		return "", fmt.Errorf("%w: %q", err, filename)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	imagePath := filepath.Join(store.basePath, filename)
	if err := os.WriteFile(imagePath, imageData, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	if prompt != "" {
		if err := os.WriteFile(store.promptPath(filename), []byte(prompt), 0o644); err != nil {
			return "", fmt.Errorf("failed to write prompt file: %w", err)
		}
	}

	log.Info().Str("path", imagePath).Str("format", format).Msg("Stored image")

	return imagePath, nil
}

// GetImagePath returns the path of a stored image, or "" when it does not exist.
func (store *ImageStore) GetImagePath(filename string) string {
	if normalize.ValidateFilename(filename) != nil {
		return ""
	}
	imagePath := filepath.Join(store.basePath, filename)
	if _, err := os.Stat(imagePath); err != nil {
		return ""
	}
	return imagePath
}

// GetPrompt returns the stored prompt for filename, if any.
func (store *ImageStore) GetPrompt(filename string) (string, bool) {
	if normalize.ValidateFilename(filename) != nil {
		return "", false
	}
	data, err := os.ReadFile(store.promptPath(filename))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (store *ImageStore) promptPath(filename string) string {
	ext := filepath.Ext(filename)
	if strings.EqualFold(ext, ".txt") {
		return filepath.Join(store.basePath, filename+".prompt")
	}
	return filepath.Join(store.basePath, strings.TrimSuffix(filename, ext)+".txt")
}
