package simplepublish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"
)

// service implements the Service interface
type service struct {
	blobStore   BlobStore
	searchIndex SearchIndex
	assetDir    AssetDirectory
	hasher      Hasher
	logger      *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithBlobStore sets the primary blob storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithSearchIndex sets the secondary search index backend
func WithSearchIndex(index SearchIndex) Option {
	return func(s *service) {
		s.searchIndex = index
	}
}

// WithAssetDirectory sets the directory used to resolve published asset
// names to public URLs
func WithAssetDirectory(dir AssetDirectory) Option {
	return func(s *service) {
		s.assetDir = dir
	}
}

// WithHasher overrides the default asset hasher
func WithHasher(h Hasher) Option {
	return func(s *service) {
		s.hasher = h
	}
}

// WithLogger sets the structured logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.searchIndex == nil {
		return nil, fmt.Errorf("search index is required")
	}
	if s.assetDir == nil {
		s.assetDir = NewNoopDirectory()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// envelopeKey escapes a content ID for use as a blob store key.
func envelopeKey(contentID string) string {
	return url.PathEscape(contentID)
}

// Envelope operations

func (s *service) StoreEnvelope(ctx context.Context, contentID string, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return &EnvelopeError{ContentID: contentID, Op: "encode", Err: err}
	}

	doc := ProjectEnvelope(contentID, env)
	key := envelopeKey(contentID)

	// Both writes always settle before the call returns; a plain Group
	// (no shared cancellation) keeps one branch's failure from aborting
	// the other mid-flight.
	var g errgroup.Group
	g.Go(func() error {
		if err := s.blobStore.Upload(ctx, key, bytes.NewReader(payload)); err != nil {
			return &EnvelopeError{ContentID: contentID, Op: "store_blob", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		if err := s.searchIndex.Insert(ctx, doc); err != nil {
			return &EnvelopeError{ContentID: contentID, Op: "store_index", Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("envelope store failed", "content_id", contentID, "error", err)
		return err
	}
	return nil
}

func (s *service) RetrieveEnvelope(ctx context.Context, contentID string) (Envelope, error) {
	rc, err := s.blobStore.Download(ctx, envelopeKey(contentID))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, &EnvelopeError{ContentID: contentID, Op: "retrieve", Err: ErrNotFound}
		}
		return nil, &EnvelopeError{ContentID: contentID, Op: "retrieve", Err: err}
	}
	defer rc.Close()

	var env Envelope
	if err := json.NewDecoder(rc).Decode(&env); err != nil {
		return nil, &EnvelopeError{ContentID: contentID, Op: "decode", Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}

	assets, err := s.assetDir.Assets(ctx)
	if err != nil {
		return nil, &EnvelopeError{ContentID: contentID, Op: "resolve_assets", Err: err}
	}
	env["assets"] = assets

	return env, nil
}

func (s *service) DeleteEnvelope(ctx context.Context, contentID string) error {
	key := envelopeKey(contentID)

	var g errgroup.Group
	g.Go(func() error {
		err := s.blobStore.Delete(ctx, key)
		if err != nil && !errors.Is(err, ErrObjectNotFound) {
			return &EnvelopeError{ContentID: contentID, Op: "delete_blob", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		// Index deletes are idempotent at the adapter level; a document
		// missing from a prior partial failure must not fail the call.
		if err := s.searchIndex.Delete(ctx, contentID); err != nil {
			return &EnvelopeError{ContentID: contentID, Op: "delete_index", Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("envelope delete failed", "content_id", contentID, "error", err)
		return err
	}
	return nil
}

func (s *service) Search(ctx context.Context, query string) ([]IndexDocument, error) {
	docs, err := s.searchIndex.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return docs, nil
}

// Asset pipeline

func (s *service) AcceptAssets(ctx context.Context, assets []Asset) (AssetSummary, error) {
	if len(assets) == 0 {
		return AssetSummary{}, nil
	}

	urls := make([]string, len(assets))

	var g errgroup.Group
	for i, asset := range assets {
		i, asset := i, asset
		g.Go(func() error {
			publicURL, err := s.publishAsset(ctx, asset)
			if err != nil {
				return err
			}
			urls[i] = publicURL
			return nil
		})
	}

	// All assets in the batch settle before the summary decision; the
	// summary is all-or-nothing.
	if err := g.Wait(); err != nil {
		s.logger.Error("asset batch failed", "count", len(assets), "error", err)
		return nil, err
	}

	summary := make(AssetSummary, len(assets))
	for i, asset := range assets {
		summary[asset.OriginalName] = urls[i]
	}
	return summary, nil
}

// publishAsset fingerprints one asset and publishes its bytes under the
// content-derived name.
func (s *service) publishAsset(ctx context.Context, asset Asset) (string, error) {
	if err := validateAssetName(asset.OriginalName); err != nil {
		return "", &AssetError{OriginalName: asset.OriginalName, Op: "validate", Err: err}
	}

	fp, err := s.hasher.Fingerprint(asset.Data)
	if err != nil {
		return "", &AssetError{OriginalName: asset.OriginalName, Op: "fingerprint", Err: err}
	}
	defer fp.Close()

	record := AssetRecord{
		OriginalName:      asset.OriginalName,
		FingerprintedName: FingerprintedName(asset.OriginalName, fp.Digest),
		ContentType:       asset.ContentType,
		Digest:            fp.Digest,
		Size:              fp.Size,
	}

	// Names are content-derived, so an object already stored under the
	// fingerprinted name holds exactly these bytes and need not be
	// re-published.
	exists, err := s.blobStore.Exists(ctx, record.FingerprintedName)
	if err != nil {
		return "", &AssetError{OriginalName: asset.OriginalName, Op: "publish", Err: err}
	}
	if !exists {
		body, err := fp.Open()
		if err != nil {
			return "", &AssetError{OriginalName: asset.OriginalName, Op: "publish", Err: err}
		}
		params := UploadParams{
			ObjectKey:  record.FingerprintedName,
			MimeType:   record.ContentType,
			PublicRead: true,
		}
		if err := s.blobStore.UploadWithParams(ctx, body, params); err != nil {
			return "", &AssetError{OriginalName: asset.OriginalName, Op: "publish", Err: err}
		}
	}

	if err := s.assetDir.Register(ctx, record.FingerprintedName); err != nil {
		return "", &AssetError{OriginalName: asset.OriginalName, Op: "register", Err: err}
	}
	publicURL, err := s.assetDir.ResolveURL(ctx, record.FingerprintedName)
	if err != nil {
		return "", &AssetError{OriginalName: asset.OriginalName, Op: "register", Err: err}
	}

	s.logger.Info("asset published",
		"original_name", record.OriginalName,
		"fingerprinted_name", record.FingerprintedName,
		"size", record.Size,
		"deduplicated", exists)

	return publicURL, nil
}
