package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prathamanvekar/video-app/internal/logging"
	"github.com/prathamanvekar/video-app/internal/models"
)

var (
	// ErrMissingCredentials indicates an empty email or password.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrInvalidCredentials covers both unknown accounts and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidEmail indicates the email is not a valid address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword indicates the password is outside the accepted length.
	ErrWeakPassword = errors.New("password must be between 8 and 72 characters")
	// ErrEmailTaken indicates an account already exists for the email.
	ErrEmailTaken = errors.New("account already exists")

	// ErrUserNotFound and ErrUserConflict are returned by CredentialStore
	// implementations.
	ErrUserNotFound = errors.New("user not found")
	ErrUserConflict = errors.New("user already exists")
)

const minPasswordBytes = 8

// verifyPassword is swapped in tests to observe comparisons.
var verifyPassword = VerifyPassword

// CredentialStore holds identity records.
type CredentialStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// TokenIssuer turns a verified identity into a session token.
type TokenIssuer interface {
	Issue(identity Identity) (Token, error)
}

// State is a step of the authentication flow.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// LoginResult reports where a login attempt ended.
type LoginResult struct {
	State State
	User  models.User
	Token Token
}

// Authenticator implements registration and credential login.
type Authenticator struct {
	users  CredentialStore
	issuer TokenIssuer

	// NowFunc overrides the clock used for account timestamps.
	NowFunc func() time.Time
}

// NewAuthenticator wires the credential store to the session issuer.
func NewAuthenticator(users CredentialStore, issuer TokenIssuer) *Authenticator {
	if users == nil || issuer == nil {
		panic("auth: credential store and issuer must not be nil")
	}
	return &Authenticator{users: users, issuer: issuer}
}

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies email and password and issues a session on success. Unknown
// accounts and wrong passwords are indistinguishable to the caller.
func (a *Authenticator) Login(ctx context.Context, email, password string) (LoginResult, error) {
	ctx, span := logging.StartSpan(ctx, "auth.login")
	defer span.End()
	logger := logging.FromContext(ctx)

	result := LoginResult{State: StateAnonymous}

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		result.State = StateRejected
		return result, ErrMissingCredentials
	}

	result.State = StateAuthenticating

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		result.State = StateRejected
		if errors.Is(err, ErrUserNotFound) {
			verifyPassword(password, dummyPasswordHash())
			logger.Warn("login rejected", "reason", "unknown_account")
			return result, ErrInvalidCredentials
		}
		return result, fmt.Errorf("lookup credentials: %w", err)
	}

	if !verifyPassword(password, user.PasswordHash) {
		logger.Warn("login rejected", "reason", "password_mismatch", "userId", user.ID)
		result.State = StateRejected
		return result, ErrInvalidCredentials
	}

	token, err := a.issuer.Issue(Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		result.State = StateRejected
		return result, fmt.Errorf("issue session: %w", err)
	}

	logger.Info("login succeeded", "userId", user.ID)
	return LoginResult{State: StateAuthenticated, User: user, Token: token}, nil
}

// Register creates a new identity. It does not start a session.
func (a *Authenticator) Register(ctx context.Context, email, password string) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "auth.register")
	defer span.End()

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return models.User{}, ErrInvalidEmail
	}
	if len(password) < minPasswordBytes || len(password) > maxPasswordBytes {
		return models.User{}, ErrWeakPassword
	}

	if _, err := a.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return models.User{}, fmt.Errorf("check existing account: %w", err)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := a.now()
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserConflict) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("create account: %w", err)
	}

	logging.FromContext(ctx).Info("account registered", "userId", user.ID)
	return user, nil
}

func (a *Authenticator) now() time.Time {
	if a.NowFunc != nil {
		return a.NowFunc()
	}
	return time.Now().UTC()
}
