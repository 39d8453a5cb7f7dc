package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nettrack/backend/internal/feed"
	"github.com/nettrack/backend/internal/logging"
)

// ActivityHandler implements watch-activity logging, history, the aggregated
// friends feed, and engagement (likes/comments).
type ActivityHandler struct {
	Feed FeedService
}

type recordActivityRequest struct {
	Username string `json:"username"`
	feed.Draft
}

type updateActivityRequest struct {
	Username   string `json:"username"`
	ActivityID string `json:"activityId"`
	feed.Update
}

// Activities dispatches POST, PATCH, DELETE, and GET on /api/v1/activities.
func (h ActivityHandler) Activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.record(w, r)
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	case http.MethodGet:
		h.history(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h ActivityHandler) record(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req recordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid activity payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	activity, err := h.Feed.Record(ctx, req.Username, req.Draft)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logger.Info("activity recorded", "username", req.Username, "activityId", activity.ID)
	respondJSON(ctx, w, http.StatusCreated, activity)
}

func (h ActivityHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.ActivityID = strings.TrimSpace(req.ActivityID)
	if req.Username == "" || req.ActivityID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username and activityId are required"})
		return
	}

	if err := h.Feed.UpdateActivity(ctx, req.Username, req.ActivityID, req.Update); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h ActivityHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	username := strings.TrimSpace(query.Get("username"))
	activityID := strings.TrimSpace(query.Get("id"))
	if username == "" || activityID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username and id are required"})
		return
	}

	if err := h.Feed.DeleteActivity(ctx, username, activityID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h ActivityHandler) history(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	history, err := h.Feed.History(ctx, username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"activities": history})
}

// FriendsFeed handles GET /api/v1/activities/feed requests.
func (h ActivityHandler) FriendsFeed(w http.ResponseWriter, r *http.Request) {
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

	entries, err := h.Feed.FriendsFeed(ctx, username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"feed": entries})
}

type likeRequest struct {
	Owner      string `json:"owner"`
	ActivityID string `json:"activityId"`
	Actor      string `json:"actor"`
}

// ToggleLike handles POST /api/v1/activities/like requests.
func (h ActivityHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Owner = strings.TrimSpace(req.Owner)
	req.ActivityID = strings.TrimSpace(req.ActivityID)
	req.Actor = strings.TrimSpace(req.Actor)
	if req.Owner == "" || req.ActivityID == "" || req.Actor == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "owner, activityId and actor are required"})
		return
	}

	if err := h.Feed.ToggleLike(ctx, req.Owner, req.ActivityID, req.Actor); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "toggled"})
}

type commentRequest struct {
	Owner      string `json:"owner"`
	ActivityID string `json:"activityId"`
	Actor      string `json:"actor"`
	Text       string `json:"text"`
}

// Comments dispatches POST and DELETE on /api/v1/activities/comments.
func (h ActivityHandler) Comments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.postComment(w, r)
	case http.MethodDelete:
		h.deleteComment(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h ActivityHandler) postComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Owner = strings.TrimSpace(req.Owner)
	req.ActivityID = strings.TrimSpace(req.ActivityID)
	req.Actor = strings.TrimSpace(req.Actor)
	if req.Owner == "" || req.ActivityID == "" || req.Actor == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "owner, activityId and actor are required"})
		return
	}

	comment, err := h.Feed.PostComment(ctx, req.Owner, req.ActivityID, req.Actor, req.Text)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment)
}

func (h ActivityHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	owner := strings.TrimSpace(query.Get("owner"))
	activityID := strings.TrimSpace(query.Get("activityId"))
	commentID := strings.TrimSpace(query.Get("commentId"))
	if owner == "" || activityID == "" || commentID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "owner, activityId and commentId are required"})
		return
	}

	if err := h.Feed.DeleteComment(ctx, owner, activityID, commentID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}
