package storage

import (
	"errors"
	"io"
	"mime"
	"path/filepath"
	"time"
)

// FileInfo describes a stored file.
type FileInfo struct {
	ID       string // unique file identifier
	Name     string // original filename
	Size     int64  // size in bytes
	MimeType string // MIME type
	Path     string // implementation-specific storage path
}

// ErrFileNotFound is returned when no stored file matches an ID.
var ErrFileNotFound = errors.New("file not found")

// Storage stores uploaded document files. Implementations exist for
// the local filesystem and MinIO.
type Storage interface {
	// Save stores the file and returns its metadata.
	Save(reader io.Reader, filename string) (FileInfo, error)

	// Get opens the file content.
	Get(id string) (io.ReadCloser, error)

	// Delete removes the file.
	Delete(id string) error

	// List returns all stored files.
	List() ([]FileInfo, error)

	// Exists reports whether the file is stored.
	Exists(id string) (bool, error)

	// SignedURL returns a download URL that stays valid for expiry.
	SignedURL(id string, expiry time.Duration) (string, error)
}

func getMimeType(filename string) string {
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}
