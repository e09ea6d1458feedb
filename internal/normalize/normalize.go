// Package normalize turns loosely shaped backend payloads into the canonical
// records consumed by the gateway and the CLI. Nothing in this package
// returns an error: malformed input degrades to dropped fields, dropped
// entries or an empty list.
package normalize

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/cheahjs/stable-diffusion-frontend/internal/models"
)

// ImagePathPrefix is the backend route images are served from.
const ImagePathPrefix = "/api/v1/image/"

var ErrInvalidFilename = errors.New("invalid image filename")

// ExtractFilename returns the last non-empty segment of a slash or
// backslash delimited path. It reports false when no segment remains.
func ExtractFilename(pathOrFilename string) (string, bool) {
	segments := strings.Split(strings.ReplaceAll(pathOrFilename, `\`, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i], true
		}
	}
	return "", false
}

// BuildImageURL maps a filename to the URL the backend serves it from.
// The filename is concatenated as is; run it through ValidateFilename first.
func BuildImageURL(baseURL, filename string) string {
	return strings.TrimRight(baseURL, "/") + ImagePathPrefix + filename
}

// ValidateFilename rejects names that could escape the image route once
// concatenated into a URL or joined onto a directory.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return ErrInvalidFilename
	case name == "." || name == "..":
		return ErrInvalidFilename
	case strings.ContainsAny(name, `/\`):
		return ErrInvalidFilename
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return ErrInvalidFilename
	}
	return nil
}

// safeFilename extracts a filename and checks it in one step.
func safeFilename(pathOrFilename string) (string, bool) {
	name, ok := ExtractFilename(pathOrFilename)
	if !ok || ValidateFilename(name) != nil {
		return "", false
	}
	return name, true
}

// NormalizeGenerationResult derives filename and image URL from the raw
// image path. Raw image_url and filename values are discarded; when no
// filename can be derived both stay empty.
func NormalizeGenerationResult(raw models.RawGenerationResult, baseURL string) models.GenerationResult {
	result := models.GenerationResult{
		Success: raw.Success,
		Message: raw.Message,
	}
	if raw.GenerationTime != nil && *raw.GenerationTime > 0 {
		result.GenerationTime = *raw.GenerationTime
	}
	if raw.SeedUsed != nil {
		result.SeedUsed = *raw.SeedUsed
	}
	if raw.ImagePath == nil {
		return result
	}

	result.ImagePath = *raw.ImagePath
	if name, ok := safeFilename(*raw.ImagePath); ok {
		result.Filename = name
		result.ImageURL = BuildImageURL(baseURL, name)
	}
	return result
}

// NormalizeImageList converts raw gallery entries, dropping the ones without
// a usable filename, and orders them newest first. Entries created at the
// same time are ordered by filename.
func NormalizeImageList(raw []models.RawImageEntry, baseURL string) []models.ImageListEntry {
	entries := make([]models.ImageListEntry, 0, len(raw))
	for _, item := range raw {
		entry, ok := normalizeEntry(item, baseURL)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Created != entries[j].Created {
			return entries[i].Created > entries[j].Created
		}
		return entries[i].Filename < entries[j].Filename
	})
	return entries
}

// NormalizeImageListResponse normalizes a whole /images payload. A payload
// without an images field yields an empty list.
func NormalizeImageListResponse(raw models.ImageListResponse, baseURL string) models.ImageList {
	return models.ImageList{Images: NormalizeImageList(raw.Images, baseURL)}
}

func normalizeEntry(item models.RawImageEntry, baseURL string) (models.ImageListEntry, bool) {
	var name string
	var ok bool
	if item.Filename != nil && *item.Filename != "" {
		name, ok = safeFilename(*item.Filename)
	}
	// An unusable explicit filename falls back to the path.
	if !ok && item.Path != nil {
		name, ok = safeFilename(*item.Path)
	}
	if !ok {
		return models.ImageListEntry{}, false
	}

	entry := models.ImageListEntry{Filename: name}
	switch {
	case item.URL == nil || *item.URL == "":
		entry.URL = BuildImageURL(baseURL, name)
	case strings.HasPrefix(*item.URL, "/") && !strings.HasPrefix(*item.URL, "//"):
		entry.URL = strings.TrimRight(baseURL, "/") + *item.URL
	default:
		entry.URL = *item.URL
	}
	if item.Created != nil {
		entry.Created = int64(*item.Created)
	}
	if item.Size != nil && *item.Size > 0 {
		entry.Size = *item.Size
	}
	return entry, true
}
