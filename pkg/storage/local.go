package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage implements Storage using the local filesystem
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save stores a file under a per-business directory and returns its path as
// the locator.
func (s *LocalStorage) Save(ctx context.Context, businessID uuid.UUID, filename string, r io.Reader) (string, int64, error) {
	dir := filepath.Join(s.baseDir, businessID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create business directory: %w", err)
	}

	stored := fmt.Sprintf("%s_%s", uuid.New().String()[:8], sanitizeFilename(filename))
	path := filepath.Join(dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path) // Cleanup on error
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	return path, size, nil
}

// Open resolves a locator to the stored bytes. Locators are stored paths;
// if the path does not exist as given it is retried relative to the base
// directory before giving up.
func (s *LocalStorage) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	if f, err := os.Open(locator); err == nil {
		return f, nil
	}

	fallback := filepath.Join(s.baseDir, locator)
	f, err := os.Open(fallback)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Delete removes the stored bytes for a locator.
func (s *LocalStorage) Delete(ctx context.Context, locator string) error {
	if err := os.Remove(locator); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
