package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
)

// FileBackend stores objects on the local file system, one subdirectory per
// content type.
type FileBackend struct {
	baseDir string
	log     *slog.Logger
}

// NewFileBackend creates the base directory and one subdirectory per content type.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, interfaces.ScriptType.String()), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &FileBackend{baseDir: baseDir, log: log}, nil
}

// Fetch returns ErrContentNotFound if no object with id exists.
func (b *FileBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	data, err := os.ReadFile(b.objectPath(id, contentType))
	if os.IsNotExist(err) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archived object: %w", err)
	}
	return data, nil
}

// Store writes data under its SHA-256 hash. Existing objects are rewritten
// with identical bytes.
func (b *FileBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := interfaces.ComputeID(data)
	path := b.objectPath(id, contentType)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return id, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return id, fmt.Errorf("failed to write archived object: %w", err)
	}

	b.log.Debug("Archived object in file backend",
		slog.String("path", path),
		slog.String("content_id", id.String()))
	return id, nil
}

func (b *FileBackend) Available(ctx context.Context) bool {
	if _, err := os.Stat(b.baseDir); err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

func (b *FileBackend) Name() string {
	return "file-" + filepath.Base(b.baseDir)
}

func (b *FileBackend) LocationURI() string {
	return "file://" + b.baseDir
}

func (b *FileBackend) objectPath(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return filepath.Join(b.baseDir, contentType.String(), id.String())
}
