package simplepublish

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the interface for blob storage backends. Keys are either
// URL-escaped content IDs (envelopes) or fingerprinted names (assets).
type BlobStore interface {
	// Upload stores the reader's bytes under objectKey
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams stores bytes with an explicit content type and
	// access policy
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download returns the bytes stored under objectKey. Returns
	// ErrObjectNotFound when no object exists under the key.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the object. Returns ErrObjectNotFound when absent.
	Delete(ctx context.Context, objectKey string) error

	// Exists reports whether an object is stored under objectKey
	Exists(ctx context.Context, objectKey string) (bool, error)

	// GetObjectMeta retrieves metadata for a stored object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// SearchIndex defines the interface for the secondary queryable store that
// mirrors envelope projections.
type SearchIndex interface {
	// Insert upserts the document keyed by its ContentID
	Insert(ctx context.Context, doc IndexDocument) error

	// Delete removes the document for contentID. Deleting a nonexistent
	// document is a no-op, not an error.
	Delete(ctx context.Context, contentID string) error

	// Search returns documents matching the query over the projected fields
	Search(ctx context.Context, query string) ([]IndexDocument, error)
}

// AssetDirectory resolves fingerprinted asset names to public URLs. The
// pipeline registers each published asset; envelope retrieval injects the
// full listing as the envelope's "assets" field.
type AssetDirectory interface {
	// Register records a published fingerprinted name
	Register(ctx context.Context, fingerprintedName string) error

	// ResolveURL returns the public URL for a fingerprinted name
	ResolveURL(ctx context.Context, fingerprintedName string) (string, error)

	// Assets returns the known fingerprinted-name-to-URL mapping
	Assets(ctx context.Context) (map[string]string, error)
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey  string
	MimeType   string
	PublicRead bool
}
