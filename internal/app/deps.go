package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nettrack/backend/internal/auth"
	"github.com/nettrack/backend/internal/chat"
	"github.com/nettrack/backend/internal/config"
	"github.com/nettrack/backend/internal/db"
	"github.com/nettrack/backend/internal/feed"
	"github.com/nettrack/backend/internal/friends"
	"github.com/nettrack/backend/internal/handlers"
	"github.com/nettrack/backend/internal/media"
	"github.com/nettrack/backend/internal/middleware"
	"github.com/nettrack/backend/internal/repositories"
	"github.com/nettrack/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup stops the chat broker.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	users := repositories.NewPostgresUserRepository(pool)
	messages := repositories.NewPostgresChatRepository(pool)
	groups := repositories.NewPostgresGroupRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	broker := chat.NewBroker(messages, cfg.ChatPollInterval, logger)
	chatService := chat.NewService(messages, groups, broker)

	catalog := media.NewCachingCatalog(media.NewTMDBClient(cfg.TMDBAPIKey, cfg.TMDBBaseURL), cfg.CatalogCacheTTL)

	var avatars handlers.AvatarStore
	if strings.TrimSpace(cfg.ObjectStore.Bucket) != "" {
		store, err := storage.NewS3AvatarStore(ctx, cfg.ObjectStore)
		if err != nil {
			_ = broker.Shutdown(ctx)
			return handlers.Dependencies{}, nil, err
		}
		avatars = store
	} else if logger != nil {
		logger.Warn("avatar bucket not configured, uploads disabled")
	}

	deps := handlers.Dependencies{
		Users:         users,
		Sessions:      auth.NewManager(15*time.Minute, 24*time.Hour, sessionStore),
		Friends:       friends.NewManager(users),
		Feed:          feed.NewAggregator(users),
		Chat:          chatService,
		ChatStream:    broker,
		Catalog:       catalog,
		Avatars:       avatars,
		AuthLimiter:   middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		FriendLimiter: middleware.NewIPRateLimiter(30, time.Minute, 10, 10*time.Minute),
	}

	return deps, broker.Shutdown, nil
}
