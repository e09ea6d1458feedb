package cache

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrImageNotFound = errors.New("image not found")
var ErrImageExpired = errors.New("image expired")
var ErrImageTooLarge = errors.New("image exceeds cache capacity")

// ImageCache keeps fetched image bytes in memory keyed by filename. Entries
// expire after expiryDuration and the total size is capped at maxStoreSizeMB.
type ImageCache struct {
	store          map[string]imageEntry
	expiryDuration time.Duration
	maxStoreBytes  int64
	sizeBytes      int64
	now            func() time.Time
	mu             sync.Mutex
}

type imageEntry struct {
	data        []byte
	contentType string
	expiresAt   time.Time
}

// NewImageCache creates a cache. A maxStoreSizeMB of zero or less disables the size cap.
func NewImageCache(expiryDuration time.Duration, maxStoreSizeMB int) *ImageCache {
	return &ImageCache{
		store:          make(map[string]imageEntry),
		expiryDuration: expiryDuration,
		maxStoreBytes:  int64(maxStoreSizeMB) * 1024 * 1024,
		now:            time.Now,
	}
}

// StoreImage caches data under filename, replacing any previous entry and
// evicting the entries closest to expiry until the new one fits.
func (c *ImageCache) StoreImage(filename string, data []byte, contentType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(data))
	if c.maxStoreBytes > 0 && size > c.maxStoreBytes {
		return ErrImageTooLarge
	}

	c.removeLocked(filename)
	if c.maxStoreBytes > 0 && c.sizeBytes+size > c.maxStoreBytes {
		c.evictLocked(c.sizeBytes + size - c.maxStoreBytes)
	}

	c.store[filename] = imageEntry{
		data:        data,
		contentType: contentType,
		expiresAt:   c.now().Add(c.expiryDuration),
	}
	c.sizeBytes += size
	return nil
}

// GetImage returns the cached bytes and content type for filename.
func (c *ImageCache) GetImage(filename string) ([]byte, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.store[filename]
	if !ok {
		return nil, "", ErrImageNotFound
	}

	if c.now().After(entry.expiresAt) {
		c.removeLocked(filename)
		return nil, "", ErrImageExpired
	}

	return entry.data, entry.contentType, nil
}

// Cleanup drops every expired entry and returns how many were removed.
func (c *ImageCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for filename, entry := range c.store {
		if now.After(entry.expiresAt) {
			c.removeLocked(filename)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// SizeBytes returns the total size of cached image data.
func (c *ImageCache) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sizeBytes
}

func (c *ImageCache) removeLocked(filename string) {
	if entry, ok := c.store[filename]; ok {
		c.sizeBytes -= int64(len(entry.data))
		delete(c.store, filename)
	}
}

func (c *ImageCache) evictLocked(needed int64) {
	type candidate struct {
		filename  string
		expiresAt time.Time
	}
	candidates := make([]candidate, 0, len(c.store))
	for filename, entry := range c.store {
		candidates = append(candidates, candidate{filename, entry.expiresAt})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].expiresAt.Before(candidates[j].expiresAt)
	})

	var freed int64
	for _, cand := range candidates {
		if freed >= needed {
			return
		}
		freed += int64(len(c.store[cand.filename].data))
		c.removeLocked(cand.filename)
	}
}
