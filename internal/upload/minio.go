package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/prathamanvekar/video-app/internal/config"
)

// MinioDelegate hands out presigned PUT URLs for a MinIO bucket.
type MinioDelegate struct {
	client  *minio.Client
	bucket  string
	baseURL string
	ttl     time.Duration
}

// NewMinioDelegate constructs a MinIO client from cfg.
func NewMinioDelegate(cfg config.ObjectStoreConfig, ttl time.Duration) (*MinioDelegate, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: minio endpoint is required", ErrNotConfigured)
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("%w: minio access key and secret key are required", ErrNotConfigured)
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("%w: minio bucket is required", ErrNotConfigured)
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioDelegate{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: cfg.PublicBaseURL,
		ttl:     ttl,
	}, nil
}

// Authorize presigns a PUT for a fresh key under the user's prefix.
func (d *MinioDelegate) Authorize(ctx context.Context, userID string) (Credentials, error) {
	if err := requireUser(userID); err != nil {
		return Credentials{}, err
	}

	key := objectKey(userID)
	expires := time.Now().Add(d.ttl)

	u, err := d.client.PresignedPutObject(ctx, d.bucket, key, d.ttl)
	if err != nil {
		return Credentials{}, fmt.Errorf("minio presign %s: %w", key, err)
	}

	return presignedCredentials(u, key, expires, d.baseURL), nil
}
