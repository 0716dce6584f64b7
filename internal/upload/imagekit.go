package upload

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prathamanvekar/video-app/internal/config"
)

const (
	imageKitUploadURL = "https://upload.imagekit.io/api/v1/files/upload"
	// ImageKit refuses expiries more than an hour ahead.
	imageKitMaxTTL = 55 * time.Minute
)

// ImageKitDelegate signs client-side uploads the way ImageKit expects:
// HMAC-SHA1 of token+expire keyed by the private key.
type ImageKitDelegate struct {
	publicKey  string
	privateKey string
	endpoint   string
	ttl        time.Duration

	NowFunc   func() time.Time
	TokenFunc func() string
}

// NewImageKitDelegate validates cfg and returns a delegate.
func NewImageKitDelegate(cfg config.ImageKitConfig, ttl time.Duration) (*ImageKitDelegate, error) {
	if strings.TrimSpace(cfg.PublicKey) == "" || strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, fmt.Errorf("%w: imagekit public and private keys are required", ErrNotConfigured)
	}
	if ttl <= 0 || ttl > imageKitMaxTTL {
		ttl = imageKitMaxTTL
	}
	return &ImageKitDelegate{
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		endpoint:   cfg.URLEndpoint,
		ttl:        ttl,
	}, nil
}

// Authorize returns a token, expiry and signature for one upload.
func (d *ImageKitDelegate) Authorize(_ context.Context, userID string) (Credentials, error) {
	if err := requireUser(userID); err != nil {
		return Credentials{}, err
	}

	token := d.token()
	expire := d.now().Add(d.ttl).Unix()

	return Credentials{
		Token:     token,
		Expire:    expire,
		Signature: d.sign(token, expire),
		PublicKey: d.publicKey,
		UploadURL: imageKitUploadURL,
		FileURL:   strings.TrimSuffix(d.endpoint, "/"),
	}, nil
}

func (d *ImageKitDelegate) sign(token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(d.privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (d *ImageKitDelegate) now() time.Time {
	if d.NowFunc != nil {
		return d.NowFunc()
	}
	return time.Now()
}

func (d *ImageKitDelegate) token() string {
	if d.TokenFunc != nil {
		return d.TokenFunc()
	}
	return uuid.NewString()
}
