package repositories

import (
	"context"

	"github.com/prathamanvekar/video-app/internal/models"
)

// VideoRepository exposes data access for video records.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) (models.Video, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Video, error)
}
