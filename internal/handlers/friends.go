package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nettrack/backend/internal/logging"
)

// FriendHandler implements the friendship state machine endpoints.
type FriendHandler struct {
	Friends FriendService
	Limiter RateLimiter
}

type friendRequestBody struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type friendRespondBody struct {
	Username string `json:"username"`
	From     string `json:"from"`
}

type friendRemoveBody struct {
	Username string `json:"username"`
	Friend   string `json:"friend"`
}

// Request handles POST /api/v1/friends/request.
func (h FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "friend-request") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many friend requests"})
		return
	}

	var req friendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.From = strings.TrimSpace(req.From)
	req.To = strings.TrimSpace(req.To)
	if req.From == "" || req.To == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "from and to are required"})
		return
	}

	if err := h.Friends.SendRequest(ctx, req.From, req.To); err != nil {
		respondError(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("friend request sent", "from", req.From, "to", req.To)
	respondJSON(ctx, w, http.StatusCreated, map[string]string{"status": "request sent"})
}

// Accept handles POST /api/v1/friends/accept.
func (h FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "accepted", h.Friends.AcceptRequest)
}

// Reject handles POST /api/v1/friends/reject.
func (h FriendHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "rejected", h.Friends.RejectRequest)
}

func (h FriendHandler) respond(w http.ResponseWriter, r *http.Request, verb string, op func(ctx context.Context, self, from string) error) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req friendRespondBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.From = strings.TrimSpace(req.From)
	if req.Username == "" || req.From == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username and from are required"})
		return
	}

	if err := op(ctx, req.Username, req.From); err != nil {
		respondError(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("friend request "+verb, "username", req.Username, "from", req.From)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "request " + verb})
}

// Remove handles POST /api/v1/friends/remove.
func (h FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req friendRemoveBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Friend = strings.TrimSpace(req.Friend)
	if req.Username == "" || req.Friend == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username and friend are required"})
		return
	}

	if err := h.Friends.RemoveFriend(ctx, req.Username, req.Friend); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "friend removed"})
}

// List handles GET /api/v1/friends requests.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	friends, err := h.Friends.ListFriends(ctx, username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	profiles := make([]publicProfile, 0, len(friends))
	for _, friend := range friends {
		profiles = append(profiles, publicProfile{
			Username:       friend.Username,
			Name:           friend.Name,
			AvatarURL:      friend.AvatarURL,
			FavoriteGenres: friend.FavoriteGenres,
		})
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"friends": profiles})
}

// Requests handles GET /api/v1/friends/requests, listing pending inbound
// requests in arrival order.
func (h FriendHandler) Requests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	pending, err := h.Friends.PendingRequests(ctx, username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"requests": pending})
}
