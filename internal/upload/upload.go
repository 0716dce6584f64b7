// Package upload issues short-lived credentials that let a browser upload
// media directly to an external host. No video bytes pass through this
// service.
package upload

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prathamanvekar/video-app/internal/config"
)

// ErrNotConfigured indicates the selected provider lacks required settings.
var ErrNotConfigured = errors.New("upload delegate not configured")

// Credentials are handed to the client for a single direct upload.
type Credentials struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey,omitempty"`
	UploadURL string `json:"uploadUrl,omitempty"`
	FileURL   string `json:"fileUrl,omitempty"`
}

// Delegate authorizes one upload on behalf of userID.
type Delegate interface {
	Authorize(ctx context.Context, userID string) (Credentials, error)
}

// New builds the delegate selected by cfg.Provider.
func New(ctx context.Context, cfg config.UploadConfig) (Delegate, error) {
	switch cfg.Provider {
	case "", config.UploadProviderImageKit:
		return NewImageKitDelegate(cfg.ImageKit, cfg.TTL)
	case config.UploadProviderS3:
		return NewS3Delegate(ctx, cfg.ObjectStore, cfg.TTL)
	case config.UploadProviderMinio:
		return NewMinioDelegate(cfg.ObjectStore, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown upload provider %q", cfg.Provider)
	}
}

func objectKey(userID string) string {
	return fmt.Sprintf("videos/%s/%s", userID, uuid.NewString())
}

func publicURL(baseURL, key string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return key
	}
	return baseURL + "/" + key
}

// presignedCredentials maps a presigned PUT URL onto the credential shape the
// upload client expects.
func presignedCredentials(u *url.URL, key string, expires time.Time, baseURL string) Credentials {
	signature := u.Query().Get("X-Amz-Signature")
	return Credentials{
		Token:     key,
		Expire:    expires.Unix(),
		Signature: signature,
		UploadURL: u.String(),
		FileURL:   publicURL(baseURL, key),
	}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("upload: user id must be provided")
	}
	return nil
}
