package simplepublish

import "context"

// Service defines the main interface for the simple-publish library.
type Service interface {
	// StoreEnvelope writes the envelope verbatim to the blob store under
	// contentID and concurrently mirrors its projection into the search
	// index. The call succeeds only if both writes complete. On partial
	// failure the call fails with the first error; the write that already
	// succeeded is NOT rolled back, so the backends may diverge until the
	// caller stores or deletes the content ID again. Re-storing an existing
	// content ID overwrites it in both backends.
	StoreEnvelope(ctx context.Context, contentID string, env Envelope) error

	// RetrieveEnvelope reads the envelope for contentID from the blob
	// store and injects a live "assets" field from the asset directory.
	// Returns ErrNotFound when no envelope exists and ErrCorrupt when the
	// stored bytes fail to parse.
	RetrieveEnvelope(ctx context.Context, contentID string) (Envelope, error)

	// DeleteEnvelope concurrently removes the blob store object and the
	// index document for contentID. An already-absent object or document
	// is a no-op, so deleting twice in a row succeeds both times.
	DeleteEnvelope(ctx context.Context, contentID string) error

	// AcceptAssets fingerprints and publishes every asset in the batch
	// concurrently. A failure on any single asset fails the whole call; a
	// summary is returned only when every asset published.
	AcceptAssets(ctx context.Context, assets []Asset) (AssetSummary, error)

	// Search queries the search index over the projected envelope fields.
	Search(ctx context.Context, query string) ([]IndexDocument, error)
}
