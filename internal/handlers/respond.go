package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nettrack/backend/internal/chat"
	"github.com/nettrack/backend/internal/feed"
	"github.com/nettrack/backend/internal/friends"
	"github.com/nettrack/backend/internal/logging"
	"github.com/nettrack/backend/internal/media"
	"github.com/nettrack/backend/internal/repositories"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps domain sentinel errors onto the HTTP taxonomy: 404 for
// missing entities, 409 for conflicts, 400 for validation failures, 500
// otherwise.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, repositories.ErrNotFound),
		errors.Is(err, feed.ErrActivityNotFound),
		errors.Is(err, feed.ErrCommentNotFound),
		errors.Is(err, friends.ErrNoPendingRequest),
		errors.Is(err, media.ErrTitleNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, repositories.ErrConflict),
		errors.Is(err, friends.ErrAlreadyFriends),
		errors.Is(err, friends.ErrRequestPending):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, friends.ErrSelfRequest),
		errors.Is(err, feed.ErrMissingTitle),
		errors.Is(err, feed.ErrMissingPosition),
		errors.Is(err, feed.ErrInvalidMediaType),
		errors.Is(err, feed.ErrMissingEpisode),
		errors.Is(err, feed.ErrEmptyComment),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrMissingRecipient),
		errors.Is(err, chat.ErrMissingMembers),
		errors.Is(err, chat.ErrMissingGroupName),
		errors.Is(err, media.ErrUnknownMediaType):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, chat.ErrNotGroupMember):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, media.ErrCatalogUnavailable):
		status = http.StatusServiceUnavailable
		message = err.Error()
	default:
		logging.FromContext(ctx).Error("unhandled handler error", "error", err)
	}

	respondJSON(ctx, w, status, map[string]string{"error": message})
}
