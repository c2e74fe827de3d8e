package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object. Key is what gets persisted on the
// athlete record; Location is the public URL at upload time.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores athlete photos in an object bucket. Keys are
// caller-chosen so the athlete service can namespace them per athlete.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete removes a stored photo. Callers treat failures as best-effort
	// cleanup, not as upload errors.
	Delete(ctx context.Context, key string) error

	// GetPublicURL derives the serving URL for a stored key without a
	// network round trip.
	GetPublicURL(key string) string
}
