package favicon

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Cache stores fetched favicons as data URLs.
type Cache interface {
	// Get returns the icon stored under key and whether there was one.
	Get(key string) (string, bool)
	// Set stores icon under key, replacing any previous value.
	Set(key string, icon string) error
}

// FileCache keeps one file per key under a directory. Writes go through a
// temporary file and a rename, so a concurrent Get never sees a partial icon.
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if needed
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".icon")
}

func (c *FileCache) Get(key string) (string, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (c *FileCache) Set(key string, icon string) error {
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache entry: %w", err)
	}
	_, werr := tmp.WriteString(icon)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Clear drops every cached icon. The directory itself is kept so the cache
// stays usable afterwards.
func (c *FileCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	var errs []error
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// cacheKey hashes the page URL so any URL maps to a safe file name.
func cacheKey(pageURL string, size int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", size, pageURL)))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
