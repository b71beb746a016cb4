package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bowerhall/mediaqa/internal/logger"
)

const (
	DefaultBucket    = "mediaqa-staging"
	DefaultRegion    = "us-east-1"
	DefaultLinkTTL   = time.Hour
	stagingPrefix    = "media/"
	maxObjectNameLen = 80
)

// Client stages uploaded media in a bucket so the transcription service can
// fetch it by URL.
type Client struct {
	mc      *minio.Client
	bucket  string
	linkTTL time.Duration
}

// Config holds MinIO connection settings
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
	LinkTTL   time.Duration
}

// NewClient creates a new storage client
func NewClient(cfg Config) (*Client, error) {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	c := &Client{
		mc:      mc,
		bucket:  cfg.Bucket,
		linkTTL: cfg.LinkTTL,
	}

	if c.bucket == "" {
		c.bucket = DefaultBucket
	}
	if c.linkTTL <= 0 {
		c.linkTTL = DefaultLinkTTL
	}

	return c, nil
}

// Init creates the staging bucket if it doesn't exist
func (c *Client) Init(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}

	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", c.bucket, err)
		}
		logger.Info("bucket created", "bucket", c.bucket)
	}

	return nil
}

// Stage uploads data under a fresh key and returns a presigned GET URL valid
// for the configured link TTL.
func (c *Client) Stage(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := objectKey(name)

	_, err := c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", c.bucket, key, err)
	}

	u, err := c.mc.PresignedGetObject(ctx, c.bucket, key, c.linkTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", c.bucket, key, err)
	}

	logger.Debug("media staged", "bucket", c.bucket, "key", key, "size", len(data))

	return u.String(), nil
}

// DeleteExpired removes staged objects older than maxAge and returns how
// many were removed.
func (c *Client) DeleteExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	opts := minio.ListObjectsOptions{
		Prefix:    stagingPrefix,
		Recursive: true,
	}

	removed := 0
	for obj := range c.mc.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return removed, fmt.Errorf("list %s: %w", c.bucket, obj.Err)
		}

		if !obj.LastModified.Before(cutoff) {
			continue
		}

		if err := c.mc.RemoveObject(ctx, c.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return removed, fmt.Errorf("delete %s/%s: %w", c.bucket, obj.Key, err)
		}
		removed++
	}

	return removed, nil
}

// Bucket returns the staging bucket name
func (c *Client) Bucket() string {
	return c.bucket
}

// LinkTTL is how long staged URLs stay valid.
func (c *Client) LinkTTL() time.Duration {
	return c.linkTTL
}

// Healthy checks if MinIO is reachable
func (c *Client) Healthy(ctx context.Context) bool {
	_, err := c.mc.BucketExists(ctx, c.bucket)
	return err == nil
}

// objectKey builds a unique key that keeps a readable form of the file name.
func objectKey(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))

	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)

	if clean == "." || clean == "/" || clean == "" {
		clean = "upload"
	}
	if len(clean) > maxObjectNameLen {
		clean = clean[len(clean)-maxObjectNameLen:]
	}

	return stagingPrefix + uuid.NewString() + "-" + clean
}
