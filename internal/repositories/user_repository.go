package repositories

import (
	"context"

	"github.com/nettrack/backend/internal/models"
)

// UserRepository defines the data access contract for user documents.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	// Save replaces the stored document for user.Username.
	Save(ctx context.Context, user models.User) error
	List(ctx context.Context) ([]models.User, error)
	// Delete removes the user and scrubs the username from every other
	// user's friends and friendRequests collections.
	Delete(ctx context.Context, username string) error
}
