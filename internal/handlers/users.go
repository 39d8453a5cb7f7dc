package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nettrack/backend/internal/logging"
	"github.com/nettrack/backend/internal/storage"
)

// UserHandler implements user discovery, profile, and avatar endpoints.
type UserHandler struct {
	Users   UserStore
	Avatars AvatarStore
}

// publicProfile is the discovery-listing view of a user, without the
// relationship collections or feed.
type publicProfile struct {
	Username       string   `json:"username"`
	Name           string   `json:"name"`
	AvatarURL      string   `json:"avatarUrl"`
	FavoriteGenres []string `json:"favoriteGenres"`
}

// List handles GET /api/v1/users requests, optionally filtered by a
// case-insensitive substring on username or display name.
func (h UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if h.Users == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "user store unavailable"})
		return
	}

	users, err := h.Users.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list users failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to list users"})
		return
	}

	needle := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	profiles := make([]publicProfile, 0, len(users))
	for _, user := range users {
		if needle != "" &&
			!strings.Contains(strings.ToLower(user.Username), needle) &&
			!strings.Contains(strings.ToLower(user.Name), needle) {
			continue
		}
		profiles = append(profiles, publicProfile{
			Username:       user.Username,
			Name:           user.Name,
			AvatarURL:      user.AvatarURL,
			FavoriteGenres: user.FavoriteGenres,
		})
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"users": profiles})
}

// Profile dispatches GET, PUT, and DELETE on /api/v1/users/profile.
func (h UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getProfile(w, r)
	case http.MethodPut:
		h.updateProfile(w, r)
	case http.MethodDelete:
		h.deleteProfile(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	user, err := h.Users.FindByUsername(ctx, username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, user)
}

type profileUpdateRequest struct {
	Username       string    `json:"username"`
	Name           *string   `json:"name"`
	AvatarURL      *string   `json:"avatarUrl"`
	FavoriteGenres *[]string `json:"favoriteGenres"`
}

func (h UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	user, err := h.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*req.AvatarURL)
	}
	if req.FavoriteGenres != nil {
		user.FavoriteGenres = *req.FavoriteGenres
	}

	if err := h.Users.Save(ctx, user); err != nil {
		logger.Error("profile update failed", "error", err, "username", req.Username)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, user)
}

func (h UserHandler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	if err := h.Users.Delete(ctx, username); err != nil {
		logger.Error("account deletion failed", "error", err, "username", username)
		respondError(ctx, w, err)
		return
	}

	logger.Info("account deleted", "username", username)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UploadAvatar handles POST /api/v1/users/avatar requests. The request body
// is the raw image; the content type selects the stored format.
func (h UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Avatars == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "avatar storage unavailable"})
		return
	}

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	user, err := h.Users.FindByUsername(ctx, username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	contentType := r.Header.Get("Content-Type")
	url, err := h.Avatars.Save(ctx, username, contentType, r.Body)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImageType) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		logger.Error("avatar upload failed", "error", err, "username", username)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store avatar"})
		return
	}

	user.AvatarURL = url
	if err := h.Users.Save(ctx, user); err != nil {
		logger.Error("avatar url update failed", "error", err, "username", username)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"avatarUrl": url})
}
