package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/prathamanvekar/video-app/internal/auth"
	"github.com/prathamanvekar/video-app/internal/models"
	"github.com/prathamanvekar/video-app/internal/upload"
	"github.com/prathamanvekar/video-app/internal/videos"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type inMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Email]; exists {
		return auth.ErrUserConflict
	}
	s.users[user.Email] = user
	return nil
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return models.User{}, auth.ErrUserNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, auth.ErrUserNotFound
}

type inMemoryVideoStore struct {
	mu      sync.Mutex
	videos  []models.Video
	listErr error
	saveErr error
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return models.Video{}, s.saveErr
	}
	s.videos = append(s.videos, video)
	return video, nil
}

func (s *inMemoryVideoStore) ListByOwner(_ context.Context, userID string) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Video
	for _, v := range s.videos {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *inMemoryVideoStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.videos)
}

type stubLimiter struct {
	allow bool
	keys  []string
}

func (l *stubLimiter) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return l.allow
}

type stubUploader struct {
	creds  upload.Credentials
	err    error
	userID string
}

func (s *stubUploader) Authorize(_ context.Context, userID string) (upload.Credentials, error) {
	s.userID = userID
	return s.creds, s.err
}

type testEnv struct {
	router   http.Handler
	users    *inMemoryUserStore
	videos   *inMemoryVideoStore
	issuer   *auth.Issuer
	uploader *stubUploader
	limiter  *stubLimiter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	issuer, err := auth.NewIssuer(auth.IssuerConfig{Secret: []byte(testSecret)}, auth.NewInMemoryRevocationStore())
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	env := &testEnv{
		users:    newInMemoryUserStore(),
		videos:   &inMemoryVideoStore{},
		issuer:   issuer,
		uploader: &stubUploader{},
		limiter:  &stubLimiter{allow: true},
	}

	r := chi.NewRouter()
	RegisterRoutes(r, Dependencies{
		Auth:     auth.NewAuthenticator(env.users, issuer),
		Sessions: issuer,
		Users:    env.users,
		Videos:   videos.NewService(env.videos),
		Uploads:  env.uploader,
		Limiter:  env.limiter,
	})
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.9:4321"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email, password string) models.User {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", credentialsRequest{Email: email, Password: password})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp userResponse
	decodeBody(t, rec, &resp)
	return resp.User
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", credentialsRequest{Email: email, Password: password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	decodeBody(t, rec, &resp)
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d got %d: %s", status, rec.Code, rec.Body.String())
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Error != message {
		t.Fatalf("expected error %q got %q", message, resp.Error)
	}
}

var errStoreDown = errors.New("store down")
