// Package config assembles a contentstore.Storage from environment-driven
// configuration.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openlearntech/contentstore/pkg/contentstore"
	memoryrepo "github.com/openlearntech/contentstore/pkg/contentstore/repo/memory"
	postgresrepo "github.com/openlearntech/contentstore/pkg/contentstore/repo/postgres"
	sqliterepo "github.com/openlearntech/contentstore/pkg/contentstore/repo/sqlite"
	fsstorage "github.com/openlearntech/contentstore/pkg/contentstore/storage/fs"
	memorystorage "github.com/openlearntech/contentstore/pkg/contentstore/storage/memory"
	s3storage "github.com/openlearntech/contentstore/pkg/contentstore/storage/s3"
)

// Config holds the storage stack configuration.
type Config struct {
	Database DatabaseConfig
	Blob     BlobConfig
}

// DatabaseConfig selects and configures the content record repository.
type DatabaseConfig struct {
	Type string `env:"CONTENT_DB_TYPE" env-default:"sqlite"` // "memory", "sqlite", "postgres"
	URL  string `env:"CONTENT_DATABASE_URL" env-default:""`
	Path string `env:"CONTENT_SQLITE_PATH" env-default:"content.db"`
}

// BlobConfig selects and configures the file asset backend.
type BlobConfig struct {
	Type    string `env:"CONTENT_STORAGE_TYPE" env-default:"fs"` // "memory", "fs", "s3"
	RootDir string `env:"CONTENT_ROOT_DIR" env-default:"content"`
	S3      S3Config
}

// S3Config configures the S3 blob backend.
type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	Bucket          string `env:"AWS_S3_BUCKET" env-default:""`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	KeyPrefix       string `env:"AWS_S3_KEY_PREFIX" env-default:""`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

// Load reads the configuration from process environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "memory":
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("sqlite path is required when using sqlite")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database url is required when using postgres")
		}
	default:
		return fmt.Errorf("unknown database type %q", c.Database.Type)
	}

	switch c.Blob.Type {
	case "memory":
	case "fs":
		if c.Blob.RootDir == "" {
			return errors.New("content root directory is required when using fs storage")
		}
	case "s3":
		if c.Blob.S3.Bucket == "" {
			return errors.New("s3 bucket is required when using s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Blob.Type)
	}

	return nil
}

// BuildStorage constructs the repository and blob store the configuration
// names, validates the relational schema, and composes them behind the
// Storage facade. The returned close function releases the repository's
// connection handles; callers own calling it at shutdown. A schema
// validation failure is fatal: no Storage is returned.
func (c *Config) BuildStorage(ctx context.Context, opts ...contentstore.Option) (contentstore.Storage, func() error, error) {
	repository, closeRepo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := repository.EnsureSchema(ctx); err != nil {
		closeRepo()
		return nil, nil, fmt.Errorf("validate schema: %w", err)
	}

	blobStore, err := c.buildBlobStore()
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	options := append([]contentstore.Option{
		contentstore.WithRepository(repository),
		contentstore.WithBlobStore(blobStore),
	}, opts...)

	store, err := contentstore.New(options...)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}
	return store, closeRepo, nil
}

func (c *Config) buildRepository(ctx context.Context) (contentstore.Repository, func() error, error) {
	switch c.Database.Type {
	case "memory":
		return memoryrepo.New(), func() error { return nil }, nil
	case "sqlite":
		repo, err := sqliterepo.Open(c.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closePool := func() error {
			pool.Close()
			return nil
		}
		return postgresrepo.NewWithPool(pool), closePool, nil
	default:
		return nil, nil, fmt.Errorf("unknown database type %q", c.Database.Type)
	}
}

func (c *Config) buildBlobStore() (contentstore.BlobStore, error) {
	switch c.Blob.Type {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{RootDir: c.Blob.RootDir})
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.Blob.S3.Region,
			Bucket:                 c.Blob.S3.Bucket,
			AccessKeyID:            c.Blob.S3.AccessKeyID,
			SecretAccessKey:        c.Blob.S3.SecretAccessKey,
			Endpoint:               c.Blob.S3.Endpoint,
			UsePathStyle:           c.Blob.S3.UsePathStyle,
			KeyPrefix:              c.Blob.S3.KeyPrefix,
			CreateBucketIfNotExist: c.Blob.S3.CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", c.Blob.Type)
	}
}
