package repositories

import (
	"context"
	"time"

	"github.com/nettrack/backend/internal/models"
)

// ChatRepository defines data access for the shared message collection.
type ChatRepository interface {
	Append(ctx context.Context, message models.ChatMessage) error
	// Conversation returns all messages for the key ordered ascending by
	// sent time.
	Conversation(ctx context.Context, key string) ([]models.ChatMessage, error)
	// ConversationSince returns messages for the key sent strictly after the
	// provided instant, ordered ascending.
	ConversationSince(ctx context.Context, key string, after time.Time) ([]models.ChatMessage, error)
}

// GroupRepository defines data access for group-chat entities.
type GroupRepository interface {
	Create(ctx context.Context, group models.Group) error
	Find(ctx context.Context, id string) (models.Group, error)
	ListForMember(ctx context.Context, username string) ([]models.Group, error)
}
