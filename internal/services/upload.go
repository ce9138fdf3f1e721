package services

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"postnest/internal/apperrors"
	"postnest/internal/logger"
	"postnest/internal/storage"
)

// FileUpload is a file received from a client, not yet stored.
type FileUpload struct {
	Filename    string
	Body        io.Reader
	Size        int64
	ContentType string
}

// uploadFile sends f to the object store under prefix and returns the stored
// reference. Any storage failure surfaces as an upstream error.
func uploadFile(ctx context.Context, store storage.ObjectStore, prefix string, f *FileUpload) (string, error) {
	key := storage.ObjectKey(prefix, f.Filename)
	ref, err := store.Upload(ctx, storage.Object{
		Key:         key,
		Body:        f.Body,
		Size:        f.Size,
		ContentType: f.ContentType,
	})
	if err != nil {
		logger.Error("object upload failed", "key", key, "error", err)
		return "", apperrors.Upstream(err, fmt.Sprintf("File upload failed: %v", err))
	}
	if ref == "" {
		return "", apperrors.Validation("Please provide a valid file to upload.")
	}
	return ref, nil
}

func checkLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return apperrors.Validation(fmt.Sprintf("%s must be at most %d characters.", field, max))
	}
	return nil
}
