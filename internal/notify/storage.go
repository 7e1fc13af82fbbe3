package notify

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
)

// GCSArchive stores rendered documents in a bucket.
type GCSArchive struct {
	bucket *storage.BucketHandle
	name   string
}

func NewGCSArchive(client *storage.Client, bucket string) (*GCSArchive, error) {
	if client == nil {
		return nil, errors.New("storage client is nil")
	}
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	return &GCSArchive{bucket: client.Bucket(bucket), name: bucket}, nil
}

// Store uploads data under objectName and returns its gs:// URL.
func (a *GCSArchive) Store(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	wc := a.bucket.Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("close writer for %s: %w", objectName, err)
	}
	return fmt.Sprintf("gs://%s/%s", a.name, objectName), nil
}
