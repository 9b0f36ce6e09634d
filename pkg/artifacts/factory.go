package artifacts

import (
	"context"
	"fmt"
	"os"
)

// StoreType names an archive backend.
type StoreType string

const (
	StoreTypeFS  StoreType = "fs"
	StoreTypeS3  StoreType = "s3"
	StoreTypeGCS StoreType = "gcs"
)

// DefaultDir is the filesystem archive location.
const DefaultDir = "data/archive"

// Config selects and configures an archive backend.
type Config struct {
	Type     StoreType
	Dir      string
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

// ConfigFromEnv reads the archive settings:
//
//	AGIAEF_ARCHIVE_TYPE      fs (default), s3 or gcs
//	AGIAEF_ARCHIVE_DIR       filesystem directory (default data/archive)
//	AGIAEF_ARCHIVE_BUCKET    bucket for s3 and gcs
//	AGIAEF_ARCHIVE_REGION    S3 region (falls back to AWS_REGION, then us-east-1)
//	AGIAEF_ARCHIVE_ENDPOINT  custom S3 endpoint
//	AGIAEF_ARCHIVE_PREFIX    object key prefix
func ConfigFromEnv() Config {
	return Config{
		Type:     StoreType(os.Getenv("AGIAEF_ARCHIVE_TYPE")),
		Dir:      os.Getenv("AGIAEF_ARCHIVE_DIR"),
		Bucket:   os.Getenv("AGIAEF_ARCHIVE_BUCKET"),
		Region:   os.Getenv("AGIAEF_ARCHIVE_REGION"),
		Endpoint: os.Getenv("AGIAEF_ARCHIVE_ENDPOINT"),
		Prefix:   os.Getenv("AGIAEF_ARCHIVE_PREFIX"),
	}
}

// Merge fills empty fields of c from other.
func (c Config) Merge(other Config) Config {
	if c.Type == "" {
		c.Type = other.Type
	}
	if c.Dir == "" {
		c.Dir = other.Dir
	}
	if c.Bucket == "" {
		c.Bucket = other.Bucket
	}
	if c.Region == "" {
		c.Region = other.Region
	}
	if c.Endpoint == "" {
		c.Endpoint = other.Endpoint
	}
	if c.Prefix == "" {
		c.Prefix = other.Prefix
	}
	return c
}

// NewStore builds the backend cfg names.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case "", StoreTypeFS:
		dir := cfg.Dir
		if dir == "" {
			dir = DefaultDir
		}
		return NewFileStore(dir)
	case StoreTypeS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("a bucket is required for S3 archives (AGIAEF_ARCHIVE_BUCKET)")
		}
		region := cfg.Region
		if region == "" {
			region = os.Getenv("AWS_REGION")
		}
		if region == "" {
			region = "us-east-1"
		}
		return NewS3Store(ctx, S3StoreConfig{
			Bucket:   cfg.Bucket,
			Region:   region,
			Endpoint: cfg.Endpoint,
			Prefix:   cfg.Prefix,
		})
	case StoreTypeGCS:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("a bucket is required for GCS archives (AGIAEF_ARCHIVE_BUCKET)")
		}
		return newGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", cfg.Type)
	}
}

// NewStoreFromEnv is NewStore(ctx, ConfigFromEnv()).
func NewStoreFromEnv(ctx context.Context) (Store, error) {
	return NewStore(ctx, ConfigFromEnv())
}
