package sink

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSWriter mirrors CSV outputs into a Google Cloud Storage bucket.
type GCSWriter struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSWriter builds a bucket mirror.
func NewGCSWriter(client *storage.Client, bucket, prefix string) (*GCSWriter, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCSWriter{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Put uploads CSV bytes under the configured prefix and returns a gs:// URI.
func (w *GCSWriter) Put(ctx context.Context, name string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("object name is required")
	}
	path := name
	if w.prefix != "" {
		path = w.prefix + "/" + name
	}

	writer := w.client.Bucket(w.bucket).Object(path).NewWriter(ctx)
	writer.ContentType = "text/csv"
	if _, err := writer.Write(data); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", w.bucket, path), nil
}
