package videos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prathamanvekar/video-app/internal/auth"
	"github.com/prathamanvekar/video-app/internal/logging"
	"github.com/prathamanvekar/video-app/internal/models"
)

// Store persists video records. It is only used through Service.
type Store interface {
	Create(ctx context.Context, video models.Video) (models.Video, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Video, error)
}

// CreateInput carries the client-supplied fields of a new video. There is no
// owner field: ownership always comes from the session.
type CreateInput struct {
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Controls     *bool
	Quality      *int
}

// Service lists and creates videos on behalf of an authenticated identity.
type Service struct {
	store Store

	NowFunc func() time.Time
	NewID   func() string
}

// NewService constructs a Service over store.
func NewService(store Store) *Service {
	if store == nil {
		panic("videos: store must not be nil")
	}
	return &Service{store: store}
}

// List returns the identity's videos, newest first. An empty library is a
// successful, empty result.
func (s *Service) List(ctx context.Context, identity auth.Identity) ([]models.Video, error) {
	if identity.UserID == "" {
		return nil, ErrUnauthorized
	}

	ctx, span := logging.StartSpan(ctx, "videos.list")
	defer span.End()

	list, err := s.store.ListByOwner(ctx, identity.UserID)
	if err != nil {
		logging.FromContext(ctx).Error("list videos failed", "userId", identity.UserID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	if list == nil {
		list = []models.Video{}
	}
	return list, nil
}

// Create validates input and stores a video owned by identity.
func (s *Service) Create(ctx context.Context, identity auth.Identity, input CreateInput) (models.Video, error) {
	if identity.UserID == "" {
		return models.Video{}, ErrUnauthorized
	}

	ctx, span := logging.StartSpan(ctx, "videos.create")
	defer span.End()

	video, err := s.build(identity, input)
	if err != nil {
		logging.FromContext(ctx).Warn("rejected video payload", "userId", identity.UserID, "error", err)
		return models.Video{}, err
	}

	stored, err := s.store.Create(ctx, video)
	if err != nil {
		logging.FromContext(ctx).Error("create video failed", "userId", identity.UserID, "error", err)
		return models.Video{}, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	logging.FromContext(ctx).Info("video created", "userId", identity.UserID, "videoId", stored.ID)
	return stored, nil
}

func (s *Service) build(identity auth.Identity, input CreateInput) (models.Video, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	videoURL := strings.TrimSpace(input.VideoURL)
	thumbnailURL := strings.TrimSpace(input.ThumbnailURL)

	if title == "" || description == "" || videoURL == "" || thumbnailURL == "" {
		return models.Video{}, ErrMissingFields
	}

	quality := models.DefaultVideoQuality
	if input.Quality != nil {
		quality = *input.Quality
		if quality < 1 || quality > 100 {
			return models.Video{}, ErrInvalidQuality
		}
	}

	controls := true
	if input.Controls != nil {
		controls = *input.Controls
	}

	now := s.now()
	return models.Video{
		ID:           s.newID(),
		UserID:       identity.UserID,
		Title:        title,
		Description:  description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Controls:     controls,
		Transformation: models.Transformation{
			Width:   models.DefaultVideoWidth,
			Height:  models.DefaultVideoHeight,
			Quality: quality,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
