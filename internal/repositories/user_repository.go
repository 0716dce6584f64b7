package repositories

import (
	"context"

	"github.com/prathamanvekar/video-app/internal/models"
)

// UserRepository defines the data access contract for users. Lookups report
// missing accounts as auth.ErrUserNotFound and duplicate emails as
// auth.ErrUserConflict.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}
