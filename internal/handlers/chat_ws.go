package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nettrack/backend/internal/logging"
)

// ChatStreamHandler streams conversation snapshots over a websocket.
type ChatStreamHandler struct {
	Subscriber ChatSubscriber
	Upgrader   websocket.Upgrader
}

// Stream handles GET /api/v1/chat/ws requests. The conversation is selected
// with the same query parameters as the history endpoint; every refresh of
// the subscription is written to the socket as a full message-list snapshot.
func (h ChatStreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Subscriber == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "chat stream unavailable"})
		return
	}

	key, err := conversationKey(r.URL.Query())
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub, err := h.Subscriber.Subscribe(ctx, key)
	if err != nil {
		logger.Error("chat subscription failed", "conversation", key, "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"), time.Now().Add(time.Second))
		return
	}
	defer sub.Close()

	// Reader goroutine: the client sends nothing meaningful, but reading is
	// required to observe close frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger.Info("chat stream opened", "conversation", key)

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case snapshot, ok := <-sub.Snapshots:
			if !ok {
				return
			}
			if err := conn.WriteJSON(map[string]any{"conversation": key, "messages": snapshot}); err != nil {
				logger.Warn("chat stream write failed", "conversation", key, "error", err)
				return
			}
		}
	}
}
