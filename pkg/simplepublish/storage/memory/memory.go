package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// Backend is an in-memory implementation of the simplepublish.BlobStore
// interface
type Backend struct {
	mu        sync.RWMutex
	objects   map[string][]byte
	mimeTypes map[string]string
}

// New creates a new in-memory storage backend
func New() simplepublish.BlobStore {
	return &Backend{
		objects:   make(map[string][]byte),
		mimeTypes: make(map[string]string),
	}
}

// Upload stores content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	if _, exists := b.mimeTypes[objectKey]; !exists {
		b.mimeTypes[objectKey] = "application/octet-stream"
	}
	return nil
}

// UploadWithParams stores content with an explicit content type
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params simplepublish.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = data
	b.mimeTypes[params.ObjectKey] = params.MimeType
	return nil
}

// Download returns stored content
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, simplepublish.ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes stored content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return simplepublish.ErrObjectNotFound
	}

	delete(b.objects, objectKey)
	delete(b.mimeTypes, objectKey)
	return nil
}

// Exists reports whether content is stored under objectKey
func (b *Backend) Exists(ctx context.Context, objectKey string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.objects[objectKey]
	return exists, nil
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simplepublish.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, simplepublish.ErrObjectNotFound
	}

	return &simplepublish.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: b.mimeTypes[objectKey],
		Metadata:    map[string]string{"mime_type": b.mimeTypes[objectKey]},
	}, nil
}
