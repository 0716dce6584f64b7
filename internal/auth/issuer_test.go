package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestIssuer(t *testing.T, revocations RevocationStore) (*Issuer, *clock) {
	t.Helper()
	issuer, err := NewIssuer(IssuerConfig{Secret: testSecret, IdleTTL: 24 * time.Hour, MaxAge: 30 * 24 * time.Hour}, revocations)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	c := &clock{now: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	issuer.NowFunc = c.Now
	return issuer, c
}

func requireReason(t *testing.T, err error, want Reason) {
	t.Helper()
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	var invalid *InvalidTokenError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidTokenError, got %T", err)
	}
	if invalid.Reason != want {
		t.Fatalf("expected reason %s got %s", want, invalid.Reason)
	}
}

func TestNewIssuerRejectsShortSecret(t *testing.T) {
	if _, err := NewIssuer(IssuerConfig{Secret: []byte("short")}, nil); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestIssuerIssueAndValidate(t *testing.T) {
	issuer, c := newTestIssuer(t, nil)

	token, err := issuer.Issue(Identity{UserID: "user-1", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token.Value == "" {
		t.Fatal("expected signed token")
	}
	if want := c.now.Add(24 * time.Hour); !token.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v got %v", want, token.ExpiresAt)
	}

	session, err := issuer.Validate(context.Background(), token.Value)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if session.UserID != "user-1" || session.Email != "a@x.com" || session.ID == "" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !session.AuthTime.Equal(c.now) {
		t.Fatalf("expected auth time %v got %v", c.now, session.AuthTime)
	}
}

func TestIssuerIssueRequiresUserID(t *testing.T) {
	issuer, _ := newTestIssuer(t, nil)
	if _, err := issuer.Issue(Identity{}); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestIssuerRejectsExpiredToken(t *testing.T) {
	issuer, c := newTestIssuer(t, nil)

	token, err := issuer.Issue(Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	c.now = c.now.Add(24*time.Hour + time.Second)
	_, err = issuer.Validate(context.Background(), token.Value)
	requireReason(t, err, ReasonExpired)
}

func TestIssuerRefreshSlidesButNeverPassesCeiling(t *testing.T) {
	issuer, c := newTestIssuer(t, nil)
	login := c.now

	token, err := issuer.Issue(Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Stay active every 20 hours: every refresh pushes expiry to now+24h.
	for step := 1; step <= 34; step++ {
		c.now = login.Add(time.Duration(step) * 20 * time.Hour)
		session, err := issuer.Validate(context.Background(), token.Value)
		if err != nil {
			t.Fatalf("step %d validate: %v", step, err)
		}
		token, err = issuer.Refresh(session)
		if err != nil {
			t.Fatalf("step %d refresh: %v", step, err)
		}
		if want := c.now.Add(24 * time.Hour); !token.ExpiresAt.Equal(want) {
			t.Fatalf("step %d: expected expiry %v got %v", step, want, token.ExpiresAt)
		}
	}

	ceiling := login.Add(30 * 24 * time.Hour)
	c.now = ceiling.Add(-20 * time.Hour)
	session, err := issuer.Validate(context.Background(), token.Value)
	if err != nil {
		t.Fatalf("validate near ceiling: %v", err)
	}
	token, err = issuer.Refresh(session)
	if err != nil {
		t.Fatalf("refresh near ceiling: %v", err)
	}
	if !token.ExpiresAt.Equal(ceiling) {
		t.Fatalf("expected expiry capped at %v got %v", ceiling, token.ExpiresAt)
	}

	c.now = ceiling
	_, err = issuer.Validate(context.Background(), token.Value)
	requireReason(t, err, ReasonExpired)

	_, err = issuer.Refresh(session)
	requireReason(t, err, ReasonExpired)
}

func TestIssuerRejectsFlippedSignatureBits(t *testing.T) {
	issuer, _ := newTestIssuer(t, nil)

	token, err := issuer.Issue(Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token.Value, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}

	for bit := 0; bit < len(sig)*8; bit++ {
		tampered := append([]byte(nil), sig...)
		tampered[bit/8] ^= 1 << (bit % 8)
		raw := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(tampered)

		_, err := issuer.Validate(context.Background(), raw)
		requireReason(t, err, ReasonSignatureMismatch)
	}
}

func TestIssuerRejectsForeignSecretAndMalformedTokens(t *testing.T) {
	issuer, c := newTestIssuer(t, nil)

	other, err := NewIssuer(IssuerConfig{Secret: []byte("ffffffffffffffffffffffffffffffff")}, nil)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	other.NowFunc = c.Now
	foreign, err := other.Issue(Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = issuer.Validate(context.Background(), foreign.Value)
	requireReason(t, err, ReasonSignatureMismatch)

	for _, raw := range []string{"", "   ", "not-a-token", "a.b", "a.b.c"} {
		_, err := issuer.Validate(context.Background(), raw)
		requireReason(t, err, ReasonMalformed)
	}
}

func TestIssuerRevoke(t *testing.T) {
	store := NewInMemoryRevocationStore()
	issuer, c := newTestIssuer(t, store)
	store.now = c.Now

	token, err := issuer.Issue(Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	session, err := issuer.Validate(context.Background(), token.Value)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	refreshed, err := issuer.Refresh(session)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if err := issuer.Revoke(context.Background(), session); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	for _, raw := range []string{token.Value, refreshed.Value} {
		_, err := issuer.Validate(context.Background(), raw)
		requireReason(t, err, ReasonRevoked)
	}
}

func TestIssuerRevokeWithoutStore(t *testing.T) {
	issuer, _ := newTestIssuer(t, nil)
	if err := issuer.Revoke(context.Background(), Session{ID: "s", UserID: "u"}); err == nil {
		t.Fatal("expected error without revocation store")
	}
}

type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Time) error { return errors.New("down") }
func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("down")
}

func TestIssuerValidateRevocationFailure(t *testing.T) {
	issuer, _ := newTestIssuer(t, failingRevocations{})
	token, err := issuer.Issue(Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = issuer.Validate(context.Background(), token.Value)
	if err == nil || errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestInMemoryRevocationStoreExpires(t *testing.T) {
	store := NewInMemoryRevocationStore()
	c := &clock{now: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)}
	store.now = c.Now

	if err := store.Revoke(context.Background(), "s1", c.now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := store.IsRevoked(context.Background(), "s1"); !revoked {
		t.Fatal("expected s1 revoked")
	}

	c.now = c.now.Add(2 * time.Hour)
	if revoked, _ := store.IsRevoked(context.Background(), "s1"); revoked {
		t.Fatal("expected revocation to lapse")
	}
	if err := store.Revoke(context.Background(), "s2", c.now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected expired entries to be collected, have %d", store.Len())
	}
}
