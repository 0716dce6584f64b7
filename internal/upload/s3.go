package upload

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/prathamanvekar/video-app/internal/config"
)

// S3Delegate hands out presigned PUT URLs for an S3-compatible bucket.
type S3Delegate struct {
	presigner *s3.PresignClient
	bucket    string
	baseURL   string
	ttl       time.Duration
}

// NewS3Delegate configures a presign client targeting the provided object store.
func NewS3Delegate(ctx context.Context, cfg config.ObjectStoreConfig, ttl time.Duration) (*S3Delegate, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", ErrNotConfigured)
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Delegate{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		baseURL:   cfg.PublicBaseURL,
		ttl:       ttl,
	}, nil
}

// Authorize presigns a PUT for a fresh key under the user's prefix.
func (d *S3Delegate) Authorize(ctx context.Context, userID string) (Credentials, error) {
	if err := requireUser(userID); err != nil {
		return Credentials{}, err
	}

	key := objectKey(userID)
	expires := time.Now().Add(d.ttl)

	req, err := d.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(d.ttl))
	if err != nil {
		return Credentials{}, fmt.Errorf("s3 presign %s: %w", key, err)
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return Credentials{}, fmt.Errorf("parse presigned url: %w", err)
	}

	return presignedCredentials(u, key, expires, d.baseURL), nil
}
