// Package storage provides file storage abstraction for uploaded documents.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

// ErrNotFound indicates the locator does not resolve to stored bytes.
var ErrNotFound = errors.New("storage: file not found")

// Storage defines the interface for document byte storage. The returned
// locator is opaque to callers and is persisted on the document record.
type Storage interface {
	// Save stores a file under the given business and returns its locator.
	Save(ctx context.Context, businessID uuid.UUID, filename string, r io.Reader) (locator string, size int64, err error)

	// Open resolves a locator to the stored bytes.
	Open(ctx context.Context, locator string) (io.ReadCloser, error)

	// Delete removes the stored bytes for a locator.
	Delete(ctx context.Context, locator string) error
}

// Config holds storage configuration.
type Config struct {
	// BaseDir is the root directory for local storage. Locators that do not
	// resolve as-is are retried relative to this directory.
	BaseDir string
}

// New creates a Storage implementation based on configuration.
func New(cfg *Config) (Storage, error) {
	return NewLocalStorage(cfg.BaseDir)
}
