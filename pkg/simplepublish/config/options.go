package config

import (
	"fmt"

	fsstorage "github.com/tendant/simple-publish/pkg/simplepublish/storage/fs"
	s3storage "github.com/tendant/simple-publish/pkg/simplepublish/storage/s3"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithAPIKey guards the HTTP surface with a static API key
func WithAPIKey(key string) Option {
	return func(c *ServerConfig) error {
		c.APIKey = key
		return nil
	}
}

// WithMemoryStorage selects the in-memory blob store
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.Storage = StorageConfig{Type: "memory"}
		return nil
	}
}

// WithFilesystemStorage selects filesystem blob storage under baseDir
func WithFilesystemStorage(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.Storage = StorageConfig{
			Type: "fs",
			FS:   fsstorage.Config{BaseDir: baseDir},
		}
		return nil
	}
}

// WithS3Storage selects S3 blob storage
func WithS3Storage(cfg s3storage.Config) Option {
	return func(c *ServerConfig) error {
		if cfg.Bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		c.Storage = StorageConfig{Type: "s3", S3: cfg}
		return nil
	}
}

// WithMemoryIndex selects the in-memory search index
func WithMemoryIndex() Option {
	return func(c *ServerConfig) error {
		c.Index = IndexConfig{Type: "memory"}
		return nil
	}
}

// WithPostgresIndex selects the PostgreSQL search index
func WithPostgresIndex(databaseURL string) Option {
	return func(c *ServerConfig) error {
		if databaseURL == "" {
			return fmt.Errorf("database URL cannot be empty")
		}
		c.Index = IndexConfig{Type: "postgres", DatabaseURL: databaseURL}
		return nil
	}
}

// WithSQLiteIndex selects the SQLite FTS search index stored at path
func WithSQLiteIndex(path string) Option {
	return func(c *ServerConfig) error {
		if path == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
		c.Index = IndexConfig{Type: "sqlite", Path: path}
		return nil
	}
}

// WithAssetBaseURL sets the public base URL for published assets
func WithAssetBaseURL(baseURL string) Option {
	return func(c *ServerConfig) error {
		c.AssetBaseURL = baseURL
		return nil
	}
}
