// Package gcs mirrors published documents into a Google Cloud Storage bucket.
package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const (
	contentType  = "text/html; charset=utf-8"
	cacheControl = "no-cache, max-age=0"
)

// Config captures the parameters required to mirror into GCS.
type Config struct {
	Bucket string
	Object string
}

// Mirror uploads each published document to a fixed object.
type Mirror struct {
	client *storage.Client
	owned  bool
	bucket string
	object string
}

// New creates a mirror over an existing client.
func New(client *storage.Client, cfg Config) (*Mirror, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if strings.TrimSpace(cfg.Object) == "" {
		return nil, fmt.Errorf("object name is required")
	}
	return &Mirror{
		client: client,
		bucket: cfg.Bucket,
		object: cfg.Object,
	}, nil
}

// Dial creates a client using Application Default Credentials and wraps it in a Mirror.
// The client is closed by Close.
func Dial(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Mirror, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	m, err := New(client, cfg)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	m.owned = true
	return m, nil
}

// Mirror uploads document and returns its gs:// URI.
func (m *Mirror) Mirror(ctx context.Context, document []byte) (string, error) {
	writer := m.client.Bucket(m.bucket).Object(m.object).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = cacheControl
	if _, err := io.Copy(writer, bytes.NewReader(document)); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", m.bucket, m.object), nil
}

// Close releases the client when the mirror created it.
func (m *Mirror) Close() error {
	if !m.owned {
		return nil
	}
	if err := m.client.Close(); err != nil {
		return fmt.Errorf("close gcs client: %w", err)
	}
	return nil
}
