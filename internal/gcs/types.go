package gcs

import (
	"context"
	"io"
)

// StorageService provides an interface for statement blob storage.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// UploadStream writes the reader's content to the bucket under the given
	// object name and returns the resulting gs:// URI.
	UploadStream(ctx context.Context, objectName string, r io.Reader) (string, error)

	// FetchObject downloads file bytes from the given gs:// URI.
	FetchObject(ctx context.Context, gcsURI string) ([]byte, error)
}
