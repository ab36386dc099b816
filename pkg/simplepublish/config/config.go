// Package config builds a simplepublish.Service from declarative server
// configuration, with defaults, functional options, and environment
// variable overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-publish/pkg/simplepublish"
	memoryindex "github.com/tendant/simple-publish/pkg/simplepublish/index/memory"
	postgresindex "github.com/tendant/simple-publish/pkg/simplepublish/index/postgres"
	sqliteindex "github.com/tendant/simple-publish/pkg/simplepublish/index/sqlite"
	fsstorage "github.com/tendant/simple-publish/pkg/simplepublish/storage/fs"
	memorystorage "github.com/tendant/simple-publish/pkg/simplepublish/storage/memory"
	s3storage "github.com/tendant/simple-publish/pkg/simplepublish/storage/s3"
	"github.com/tendant/simple-publish/pkg/simplepublish/urldir"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		Storage:     StorageConfig{Type: "memory"},
		Index:       IndexConfig{Type: "memory"},
	}
}

// ServerConfig represents server configuration for the simple-publish
// service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// APIKey guards the HTTP surface when non-empty
	APIKey string

	Storage StorageConfig
	Index   IndexConfig

	// AssetBaseURL is the public base URL assets are served from (a CDN
	// or reverse proxy). When empty, S3 storage delegates URL resolution
	// to the bucket and other backends fall back to root-relative paths.
	AssetBaseURL string
}

// StorageConfig selects and configures the blob storage backend
type StorageConfig struct {
	Type string // "memory", "fs", "s3"

	FS fsstorage.Config
	S3 s3storage.Config
}

// IndexConfig selects and configures the search index backend
type IndexConfig struct {
	Type string // "memory", "postgres", "sqlite"

	DatabaseURL string // postgres connection string
	Path        string // sqlite database path
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.Storage.Type {
	case "memory":
	case "fs":
		if c.Storage.FS.BaseDir == "" {
			return errors.New("storage base_dir is required for fs storage")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("storage type must be 'memory', 'fs', or 's3', got: %s", c.Storage.Type)
	}

	switch c.Index.Type {
	case "memory":
	case "postgres":
		if c.Index.DatabaseURL == "" {
			return errors.New("database URL is required for postgres index")
		}
	case "sqlite":
		if c.Index.Path == "" {
			return errors.New("path is required for sqlite index")
		}
	default:
		return fmt.Errorf("index type must be 'memory', 'postgres', or 'sqlite', got: %s", c.Index.Type)
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(logger *slog.Logger) (simplepublish.Service, error) {
	store, err := c.buildBlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	index, err := c.buildSearchIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to build search index: %w", err)
	}

	options := []simplepublish.Option{
		simplepublish.WithBlobStore(store),
		simplepublish.WithSearchIndex(index),
	}

	if dir := c.buildAssetDirectory(store); dir != nil {
		options = append(options, simplepublish.WithAssetDirectory(dir))
	}
	if logger != nil {
		options = append(options, simplepublish.WithLogger(logger))
	}

	return simplepublish.New(options...)
}

// buildBlobStore creates a BlobStore based on the configuration
func (c *ServerConfig) buildBlobStore() (simplepublish.BlobStore, error) {
	switch c.Storage.Type {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(c.Storage.FS)
	case "s3":
		return s3storage.New(c.Storage.S3)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}
}

// buildSearchIndex creates a SearchIndex based on the configuration
func (c *ServerConfig) buildSearchIndex() (simplepublish.SearchIndex, error) {
	switch c.Index.Type {
	case "memory":
		return memoryindex.New(), nil
	case "postgres":
		pool, err := pgxpool.New(context.Background(), c.Index.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		index := postgresindex.NewWithPool(pool)
		if err := index.Migrate(context.Background()); err != nil {
			return nil, err
		}
		return index, nil
	case "sqlite":
		return sqliteindex.Open(c.Index.Path)
	default:
		return nil, fmt.Errorf("unknown index type: %s", c.Index.Type)
	}
}

// buildAssetDirectory picks the URL resolution strategy for published
// assets. Returns nil when the service default (root-relative paths) is
// the right choice.
func (c *ServerConfig) buildAssetDirectory(store simplepublish.BlobStore) simplepublish.AssetDirectory {
	if c.AssetBaseURL != "" {
		dir, err := urldir.NewStatic(c.AssetBaseURL)
		if err != nil {
			return nil
		}
		return dir
	}
	if resolver, ok := store.(urldir.Resolver); ok {
		return urldir.NewDelegated(resolver)
	}
	return nil
}
