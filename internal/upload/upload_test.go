package upload

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prathamanvekar/video-app/internal/config"
)

func TestImageKitDelegateSignsTokenAndExpiry(t *testing.T) {
	delegate, err := NewImageKitDelegate(config.ImageKitConfig{
		PublicKey:   "public_abc",
		PrivateKey:  "private_xyz",
		URLEndpoint: "https://ik.imagekit.io/demo/",
	}, 30*time.Minute)
	if err != nil {
		t.Fatalf("NewImageKitDelegate returned error: %v", err)
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	delegate.NowFunc = func() time.Time { return now }
	delegate.TokenFunc = func() string { return "token-1" }

	creds, err := delegate.Authorize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}

	if creds.Token != "token-1" {
		t.Fatalf("expected token-1, got %q", creds.Token)
	}
	if want := now.Add(30 * time.Minute).Unix(); creds.Expire != want {
		t.Fatalf("expected expire %d, got %d", want, creds.Expire)
	}

	mac := hmac.New(sha1.New, []byte("private_xyz"))
	mac.Write([]byte("token-1" + "1714566600"))
	if want := hex.EncodeToString(mac.Sum(nil)); creds.Signature != want {
		t.Fatalf("expected signature %s, got %s", want, creds.Signature)
	}
	if creds.PublicKey != "public_abc" {
		t.Fatalf("expected public key to be returned, got %q", creds.PublicKey)
	}
	if creds.FileURL != "https://ik.imagekit.io/demo" {
		t.Fatalf("unexpected file url %q", creds.FileURL)
	}
	if strings.Contains(creds.Signature, "private_xyz") || creds.PublicKey == "private_xyz" {
		t.Fatal("private key leaked into credentials")
	}
}

func TestImageKitDelegateClampsTTL(t *testing.T) {
	delegate, err := NewImageKitDelegate(config.ImageKitConfig{PublicKey: "p", PrivateKey: "k"}, 3*time.Hour)
	if err != nil {
		t.Fatalf("NewImageKitDelegate returned error: %v", err)
	}
	now := time.Unix(1_700_000_000, 0)
	delegate.NowFunc = func() time.Time { return now }

	creds, err := delegate.Authorize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if limit := now.Add(time.Hour).Unix(); creds.Expire >= limit {
		t.Fatalf("expected expiry under one hour, got %d (limit %d)", creds.Expire, limit)
	}
}

func TestImageKitDelegateTokensAreUnique(t *testing.T) {
	delegate, err := NewImageKitDelegate(config.ImageKitConfig{PublicKey: "p", PrivateKey: "k"}, time.Minute)
	if err != nil {
		t.Fatalf("NewImageKitDelegate returned error: %v", err)
	}

	first, err := delegate.Authorize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	second, err := delegate.Authorize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("expected a fresh token per authorization")
	}
}

func TestImageKitDelegateRequiresKeysAndUser(t *testing.T) {
	if _, err := NewImageKitDelegate(config.ImageKitConfig{PublicKey: "p"}, time.Minute); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	delegate, err := NewImageKitDelegate(config.ImageKitConfig{PublicKey: "p", PrivateKey: "k"}, time.Minute)
	if err != nil {
		t.Fatalf("NewImageKitDelegate returned error: %v", err)
	}
	if _, err := delegate.Authorize(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestS3DelegatePresignsScopedKey(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")
	t.Setenv("AWS_PROFILE", "")

	delegate, err := NewS3Delegate(context.Background(), config.ObjectStoreConfig{
		Bucket:        "videos",
		Endpoint:      "http://localhost:9000",
		Region:        "us-east-1",
		AccessKey:     "test-access",
		SecretKey:     "test-secret",
		PublicBaseURL: "https://cdn.example.com/",
	}, 10*time.Minute)
	if err != nil {
		t.Fatalf("NewS3Delegate returned error: %v", err)
	}

	creds, err := delegate.Authorize(context.Background(), "user-7")
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}

	if !strings.HasPrefix(creds.Token, "videos/user-7/") {
		t.Fatalf("expected key under the user's prefix, got %q", creds.Token)
	}
	if creds.Signature == "" {
		t.Fatal("expected a signature")
	}

	u, err := url.Parse(creds.UploadURL)
	if err != nil {
		t.Fatalf("parse upload url: %v", err)
	}
	if u.Host != "localhost:9000" {
		t.Fatalf("expected custom endpoint host, got %q", u.Host)
	}
	if !strings.HasPrefix(u.Path, "/videos/videos/user-7/") {
		t.Fatalf("expected path-style bucket addressing, got %q", u.Path)
	}
	if got := u.Query().Get("X-Amz-Expires"); got != "600" {
		t.Fatalf("expected 600 second expiry, got %q", got)
	}
	if creds.FileURL != "https://cdn.example.com/"+creds.Token {
		t.Fatalf("unexpected file url %q", creds.FileURL)
	}
}

func TestMinioDelegatePresignsScopedKey(t *testing.T) {
	delegate, err := NewMinioDelegate(config.ObjectStoreConfig{
		Bucket:    "videos",
		Endpoint:  "http://localhost:9000",
		Region:    "us-east-1",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}, 5*time.Minute)
	if err != nil {
		t.Fatalf("NewMinioDelegate returned error: %v", err)
	}

	creds, err := delegate.Authorize(context.Background(), "user-9")
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}

	if !strings.HasPrefix(creds.Token, "videos/user-9/") {
		t.Fatalf("expected key under the user's prefix, got %q", creds.Token)
	}
	if creds.Signature == "" {
		t.Fatal("expected a signature")
	}
	if creds.FileURL != creds.Token {
		t.Fatalf("expected bare key without a public base url, got %q", creds.FileURL)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	delegate, err := New(context.Background(), config.UploadConfig{
		Provider: config.UploadProviderImageKit,
		TTL:      time.Minute,
		ImageKit: config.ImageKitConfig{PublicKey: "p", PrivateKey: "k"},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, ok := delegate.(*ImageKitDelegate); !ok {
		t.Fatalf("expected *ImageKitDelegate, got %T", delegate)
	}

	if _, err := New(context.Background(), config.UploadConfig{Provider: "ftp"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := New(context.Background(), config.UploadConfig{Provider: config.UploadProviderMinio}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for empty minio config, got %v", err)
	}
}
