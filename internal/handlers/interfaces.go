package handlers

import (
	"context"
	"io"

	"github.com/nettrack/backend/internal/chat"
	"github.com/nettrack/backend/internal/feed"
	"github.com/nettrack/backend/internal/media"
	"github.com/nettrack/backend/internal/models"
)

// UserStore captures the persistence operations required by the user and auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Save(ctx context.Context, user models.User) error
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, username string) error
}

// SessionManager issues, refreshes, and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, username string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// FriendService captures the friendship state machine operations.
type FriendService interface {
	SendRequest(ctx context.Context, from, to string) error
	AcceptRequest(ctx context.Context, self, from string) error
	RejectRequest(ctx context.Context, self, from string) error
	RemoveFriend(ctx context.Context, self, other string) error
	ListFriends(ctx context.Context, self string) ([]models.User, error)
	PendingRequests(ctx context.Context, self string) ([]string, error)
}

// FeedService captures activity logging, aggregation, and engagement.
type FeedService interface {
	Record(ctx context.Context, owner string, draft feed.Draft) (models.Activity, error)
	UpdateActivity(ctx context.Context, owner, activityID string, update feed.Update) error
	DeleteActivity(ctx context.Context, owner, activityID string) error
	History(ctx context.Context, owner string) ([]models.Activity, error)
	FriendsFeed(ctx context.Context, self string) ([]feed.Entry, error)
	ToggleLike(ctx context.Context, owner, activityID, actor string) error
	PostComment(ctx context.Context, owner, activityID, actor, text string) (models.Comment, error)
	DeleteComment(ctx context.Context, owner, activityID, commentID string) error
}

// ChatService captures message sending, history reads, and group management.
type ChatService interface {
	SendGlobal(ctx context.Context, sender, text string) (models.ChatMessage, error)
	SendDirect(ctx context.Context, sender, recipient, text string) (models.ChatMessage, error)
	SendGroup(ctx context.Context, sender, groupID, text string) (models.ChatMessage, error)
	CreateGroup(ctx context.Context, creator, name string, members []string) (models.Group, error)
	History(ctx context.Context, key string) ([]models.ChatMessage, error)
	Groups(ctx context.Context, username string) ([]models.Group, error)
}

// ChatSubscriber opens live snapshot subscriptions onto conversations.
type ChatSubscriber interface {
	Subscribe(ctx context.Context, key string) (*chat.Subscription, error)
}

// MediaCatalog resolves title metadata for the discovery endpoints.
type MediaCatalog interface {
	Trending(ctx context.Context) ([]media.Title, error)
	Search(ctx context.Context, query string) ([]media.Title, error)
	Details(ctx context.Context, id int, mediaType string) (media.Details, error)
	Seasons(ctx context.Context, tvID int) ([]media.Season, error)
}

// AvatarStore persists uploaded avatar images and returns their public URLs.
type AvatarStore interface {
	Save(ctx context.Context, username, contentType string, r io.Reader) (string, error)
}
