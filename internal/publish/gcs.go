// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
)

// ObjectWriter is the subset of *storage.Writer used by GCSPublisher.
type ObjectWriter interface {
	io.WriteCloser
	CloseWithError(err error) error
}

// GCSPublisher uploads to one Cloud Storage bucket.
type GCSPublisher struct {
	Bucket string

	// NewWriter opens an object writer. NewGCSPublisher points it at the
	// storage client; tests replace it.
	NewWriter func(ctx context.Context, bucket, object, contentType string) ObjectWriter

	client *storage.Client
}

// NewGCSPublisher creates a storage client using application default
// credentials.
func NewGCSPublisher(ctx context.Context, bucket string) (*GCSPublisher, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	p := &GCSPublisher{Bucket: bucket, client: client}
	p.NewWriter = func(ctx context.Context, bucket, object, contentType string) ObjectWriter {
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
	return p, nil
}

// Close releases the storage client.
func (p *GCSPublisher) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

// Publish streams localPath into the object key. The object is only
// finalized when Close succeeds.
func (p *GCSPublisher) Publish(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	w := p.NewWriter(ctx, p.Bucket, key, contentType(localPath))
	if _, err := io.Copy(w, f); err != nil {
		_ = w.CloseWithError(err)
		return "", fmt.Errorf("writing gs://%s/%s: %w", p.Bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing gs://%s/%s: %w", p.Bucket, key, err)
	}
	return fmt.Sprintf("gs://%s/%s", p.Bucket, key), nil
}
