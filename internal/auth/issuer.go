package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultIdleTTL is the sliding window granted by each successful validation.
	DefaultIdleTTL = 24 * time.Hour
	// DefaultMaxAge is the hard ceiling measured from the original login.
	DefaultMaxAge = 30 * 24 * time.Hour

	tokenIssuer     = "videoapp"
	minSecretLength = 32
)

// ErrInvalidToken matches every *InvalidTokenError via errors.Is.
var ErrInvalidToken = errors.New("invalid session token")

// Reason classifies why a token was rejected. Callers treat all reasons alike;
// the distinction exists for logs.
type Reason string

const (
	ReasonMalformed         Reason = "malformed"
	ReasonExpired           Reason = "expired"
	ReasonSignatureMismatch Reason = "signature_mismatch"
	ReasonRevoked           Reason = "revoked"
)

// InvalidTokenError is returned by Validate and Refresh for tokens that must
// not be trusted.
type InvalidTokenError struct {
	Reason Reason
	Err    error
}

func (e *InvalidTokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid session token (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid session token (%s)", e.Reason)
}

func (e *InvalidTokenError) Unwrap() error {
	return e.Err
}

func (e *InvalidTokenError) Is(target error) bool {
	return target == ErrInvalidToken
}

// IssuerConfig controls token signing and lifetime.
type IssuerConfig struct {
	Secret  []byte
	IdleTTL time.Duration
	MaxAge  time.Duration
}

// Issuer signs and validates HS256 session tokens. Every token carries the
// original login time so refreshes can never extend past MaxAge.
type Issuer struct {
	secret      []byte
	idleTTL     time.Duration
	maxAge      time.Duration
	revocations RevocationStore
	parser      *jwt.Parser

	// NowFunc overrides the clock, mainly for tests.
	NowFunc func() time.Time
}

type sessionClaims struct {
	Email    string           `json:"email,omitempty"`
	AuthTime *jwt.NumericDate `json:"auth_time,omitempty"`
	jwt.RegisteredClaims
}

// NewIssuer constructs an Issuer. A nil revocation store disables revocation
// checks.
func NewIssuer(cfg IssuerConfig, revocations RevocationStore) (*Issuer, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("auth: session secret must be at least %d bytes", minSecretLength)
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.IdleTTL > cfg.MaxAge {
		cfg.IdleTTL = cfg.MaxAge
	}

	i := &Issuer{
		secret:      append([]byte(nil), cfg.Secret...),
		idleTTL:     cfg.IdleTTL,
		maxAge:      cfg.MaxAge,
		revocations: revocations,
	}
	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(i.now),
	)
	return i, nil
}

// Issue creates a fresh session for identity.
func (i *Issuer) Issue(identity Identity) (Token, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return Token{}, errors.New("auth: user id must be provided")
	}

	now := i.now().UTC()
	return i.sign(Session{
		ID:       uuid.NewString(),
		UserID:   identity.UserID,
		Email:    identity.Email,
		AuthTime: now,
	}, now)
}

// Refresh re-signs session with a new sliding expiry, capped at the ceiling
// established by the original login.
func (i *Issuer) Refresh(session Session) (Token, error) {
	if session.UserID == "" || session.ID == "" {
		return Token{}, &InvalidTokenError{Reason: ReasonMalformed}
	}
	now := i.now().UTC()
	if !now.Before(i.ceiling(session)) {
		return Token{}, &InvalidTokenError{Reason: ReasonExpired}
	}
	return i.sign(session, now)
}

// Validate verifies signature, expiry, the absolute ceiling and revocation.
func (i *Issuer) Validate(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, &InvalidTokenError{Reason: ReasonMalformed, Err: errors.New("empty token")}
	}

	var claims sessionClaims
	if _, err := i.parser.ParseWithClaims(raw, &claims, i.keyFunc); err != nil {
		return Session{}, classify(err)
	}

	if claims.Subject == "" || claims.ID == "" || claims.AuthTime == nil || claims.IssuedAt == nil {
		return Session{}, &InvalidTokenError{Reason: ReasonMalformed, Err: errors.New("missing session claims")}
	}

	session := Session{
		ID:        claims.ID,
		UserID:    claims.Subject,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
		AuthTime:  claims.AuthTime.Time.UTC(),
	}

	if !i.now().UTC().Before(i.ceiling(session)) {
		return Session{}, &InvalidTokenError{Reason: ReasonExpired, Err: errors.New("session exceeded maximum age")}
	}

	if i.revocations != nil {
		revoked, err := i.revocations.IsRevoked(ctx, session.ID)
		if err != nil {
			return Session{}, fmt.Errorf("check session revocation: %w", err)
		}
		if revoked {
			return Session{}, &InvalidTokenError{Reason: ReasonRevoked}
		}
	}

	return session, nil
}

// Revoke invalidates every token of session until its ceiling passes.
func (i *Issuer) Revoke(ctx context.Context, session Session) error {
	if i.revocations == nil {
		return errors.New("auth: revocation store not configured")
	}
	if session.ID == "" {
		return &InvalidTokenError{Reason: ReasonMalformed}
	}
	return i.revocations.Revoke(ctx, session.ID, i.ceiling(session))
}

func (i *Issuer) sign(session Session, now time.Time) (Token, error) {
	expires := now.Add(i.idleTTL)
	if ceiling := i.ceiling(session); expires.After(ceiling) {
		expires = ceiling
	}

	claims := sessionClaims{
		Email:    session.Email,
		AuthTime: jwt.NewNumericDate(session.AuthTime),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   session.UserID,
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign session token: %w", err)
	}

	// NumericDate truncates to seconds; report what the token actually says.
	return Token{Value: signed, ExpiresAt: claims.ExpiresAt.Time.UTC()}, nil
}

func (i *Issuer) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return i.secret, nil
}

func (i *Issuer) ceiling(session Session) time.Time {
	return session.AuthTime.Add(i.maxAge)
}

func (i *Issuer) now() time.Time {
	if i.NowFunc != nil {
		return i.NowFunc()
	}
	return time.Now()
}

func classify(err error) *InvalidTokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &InvalidTokenError{Reason: ReasonSignatureMismatch, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &InvalidTokenError{Reason: ReasonExpired, Err: err}
	default:
		return &InvalidTokenError{Reason: ReasonMalformed, Err: err}
	}
}
