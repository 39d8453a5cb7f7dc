package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/nettrack/backend/internal/chat"
	"github.com/nettrack/backend/internal/logging"
	"github.com/nettrack/backend/internal/models"
)

// ChatHandler implements message send/history and group endpoints.
type ChatHandler struct {
	Chat ChatService
}

type sendMessageRequest struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Recipient string `json:"recipient"`
	GroupID   string `json:"groupId"`
}

// Messages dispatches POST and GET on /api/v1/chat/messages.
func (h ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.send(w, r)
	case http.MethodGet:
		h.history(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h ChatHandler) send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid chat payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Sender = strings.TrimSpace(req.Sender)
	if req.Sender == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "sender is required"})
		return
	}

	var (
		message models.ChatMessage
		err     error
	)
	switch req.Type {
	case models.MessageTypeGlobal, "":
		message, err = h.Chat.SendGlobal(ctx, req.Sender, req.Text)
	case models.MessageTypeDirect:
		message, err = h.Chat.SendDirect(ctx, req.Sender, strings.TrimSpace(req.Recipient), req.Text)
	case models.MessageTypeGroup:
		message, err = h.Chat.SendGroup(ctx, req.Sender, strings.TrimSpace(req.GroupID), req.Text)
	default:
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "type must be global, dm or group"})
		return
	}
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, message)
}

func (h ChatHandler) history(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, err := conversationKey(r.URL.Query())
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	messages, err := h.Chat.History(ctx, key)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"conversation": key, "messages": messages})
}

type createGroupRequest struct {
	Creator string   `json:"creator"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Groups dispatches POST and GET on /api/v1/chat/groups.
func (h ChatHandler) Groups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createGroup(w, r)
	case http.MethodGet:
		h.listGroups(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h ChatHandler) createGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid group payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Creator = strings.TrimSpace(req.Creator)
	if req.Creator == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "creator is required"})
		return
	}

	group, err := h.Chat.CreateGroup(ctx, req.Creator, req.Name, req.Members)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logger.Info("chat group created", "groupId", group.ID, "creator", req.Creator)
	respondJSON(ctx, w, http.StatusCreated, group)
}

func (h ChatHandler) listGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	groups, err := h.Chat.Groups(ctx, username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"groups": groups})
}

// conversationKey resolves the conversation identity from query parameters:
// type=global, type=dm&self=&with=, or type=group&groupId=.
func conversationKey(query url.Values) (string, error) {
	convType := strings.TrimSpace(query.Get("type"))
	switch convType {
	case models.MessageTypeGlobal, "":
		return chat.GlobalKey, nil
	case models.MessageTypeDirect:
		self := strings.TrimSpace(query.Get("self"))
		with := strings.TrimSpace(query.Get("with"))
		if self == "" || with == "" {
			return "", errors.New("self and with are required for dm conversations")
		}
		return chat.DirectKey(self, with), nil
	case models.MessageTypeGroup:
		groupID := strings.TrimSpace(query.Get("groupId"))
		if groupID == "" {
			return "", errors.New("groupId is required for group conversations")
		}
		return chat.GroupKey(groupID), nil
	default:
		return "", errors.New("type must be global, dm or group")
	}
}
