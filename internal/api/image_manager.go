package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cheahjs/stable-diffusion-frontend/internal/cache"
	"github.com/cheahjs/stable-diffusion-frontend/internal/normalize"
)

// ImageFetcher downloads image bytes from the backend.
type ImageFetcher interface {
	FetchImage(ctx context.Context, filename string) ([]byte, string, error)
}

// ImageManager serves images from the cache and falls back to the backend on
// a miss. A background goroutine drops expired entries until Close is called.
type ImageManager struct {
	fetcher         ImageFetcher
	cache           *cache.ImageCache
	cleanupInterval time.Duration
	stop            chan struct{}
	done            chan struct{}
	closeOnce       sync.Once
}

func NewImageManager(fetcher ImageFetcher, imageCache *cache.ImageCache, cleanupInterval time.Duration) *ImageManager {
	manager := &ImageManager{
		fetcher:         fetcher,
		cache:           imageCache,
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}

	go func() {
		defer close(manager.done)
		ticker := time.NewTicker(manager.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				manager.cleanup()
			case <-manager.stop:
				return
			}
		}
	}()

	return manager
}

// GetImage returns the image bytes and content type for filename.
func (manager *ImageManager) GetImage(ctx context.Context, filename string) ([]byte, string, error) {
	if err := normalize.ValidateFilename(filename); err != nil {
		return nil, "", fmt.Errorf("%w: %q", err, filename)
	}

	data, contentType, err := manager.cache.GetImage(filename)
	switch {
	case err == nil:
		log.Debug().Str("filename", filename).Msg("Served image from cache")
		return data, contentType, nil
	case errors.Is(err, cache.ErrImageExpired):
		log.Debug().Str("filename", filename).Msg("Cached image expired")
	case !errors.Is(err, cache.ErrImageNotFound):
		return nil, "", err
	}

	data, contentType, err = manager.fetcher.FetchImage(ctx, filename)
	if err != nil {
		return nil, "", err
	}

	if err := manager.cache.StoreImage(filename, data, contentType); err != nil {
		log.Warn().Err(err).Str("filename", filename).Int("bytes", len(data)).Msg("Image not cached")
	} else {
		log.Info().Str("filename", filename).Int("bytes", len(data)).Msg("Stored image in cache")
	}
	return data, contentType, nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (manager *ImageManager) Close() {
	manager.closeOnce.Do(func() {
		close(manager.stop)
	})
	<-manager.done
}

func (manager *ImageManager) cleanup() {
	log.Debug().Msg("Cleaning up image cache")
	if removed := manager.cache.Cleanup(); removed > 0 {
		log.Debug().Int("removed", removed).Msg("Removed expired images from cache")
	}
}
