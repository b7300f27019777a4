package gcs

import (
	"context"
	"fmt"
	"io"
	pathpkg "path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Service is the concrete StorageService backed by Google Cloud Storage.
// It assumes Application Default Credentials are configured
// (gcloud auth application-default login).
type Service struct {
	client *storage.Client
	bucket string
}

// NewService creates a Service that writes to the given bucket.
func NewService(ctx context.Context, bucket string) (*Service, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewService: create storage client: %w", err)
	}
	return &Service{client: client, bucket: bucket}, nil
}

func (s *Service) Close() error {
	return s.client.Close()
}

// UploadStream writes the reader's content to the bucket and returns the
// object's gs:// URI.
func (s *Service) UploadStream(ctx context.Context, objectName string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("UploadStream: copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("UploadStream: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

// FetchObject downloads the file bytes from the given GCS URI.
func (s *Service) FetchObject(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := splitURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("FetchObject: %w", err)
	}

	rc, err := s.client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchObject: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchObject: reading bytes: %w", err)
	}

	return data, nil
}

// StatementObjectName builds the object name for an uploaded statement,
// scoped by user so uploads with the same filename never collide.
func StatementObjectName(userID, filename string) string {
	return fmt.Sprintf("statements/%s/%s-%s", userID, uuid.NewString(), pathpkg.Base(filename))
}

// FilenameFromURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return pathpkg.Base(parts[1])
}

func splitURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}
	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}
