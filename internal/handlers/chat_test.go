package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/nettrack/backend/internal/chat"
	"github.com/nettrack/backend/internal/models"
	"github.com/nettrack/backend/internal/repositories"
)

type fakeMessageStore struct {
	mu       sync.Mutex
	messages []models.ChatMessage
}

func (s *fakeMessageStore) Append(_ context.Context, message models.ChatMessage) error {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()
	return nil
}

func (s *fakeMessageStore) Conversation(_ context.Context, key string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for _, message := range s.messages {
		if message.ConversationKey == key {
			out = append(out, message)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

type fakeGroupStore struct {
	mu     sync.Mutex
	groups map[string]models.Group
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{groups: make(map[string]models.Group)}
}

func (s *fakeGroupStore) Create(_ context.Context, group models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.ID] = group
	return nil
}

func (s *fakeGroupStore) Find(_ context.Context, id string) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	if !ok {
		return models.Group{}, repositories.ErrNotFound
	}
	return group, nil
}

func (s *fakeGroupStore) ListForMember(_ context.Context, username string) ([]models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Group
	for _, group := range s.groups {
		for _, member := range group.Members {
			if member == username {
				out = append(out, group)
				break
			}
		}
	}
	return out, nil
}

func newChatHandler() (ChatHandler, *fakeMessageStore) {
	store := &fakeMessageStore{}
	handler := ChatHandler{Chat: chat.NewService(store, newFakeGroupStore(), nil)}
	return handler, store
}

func TestChatHandlerSendGlobal(t *testing.T) {
	handler, _ := newChatHandler()

	rec := postJSON(t, handler.Messages, "/api/v1/chat/messages", sendMessageRequest{Type: "global", Sender: "alice", Text: "hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body)
	}

	var message models.ChatMessage
	if err := json.NewDecoder(rec.Body).Decode(&message); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if message.Type != models.MessageTypeGlobal || message.ConversationKey != chat.GlobalKey {
		t.Fatalf("unexpected message %+v", message)
	}
}

func TestChatHandlerSendValidation(t *testing.T) {
	handler, _ := newChatHandler()

	cases := []struct {
		name string
		req  sendMessageRequest
		want int
	}{
		{"missing sender", sendMessageRequest{Type: "global", Text: "hi"}, http.StatusBadRequest},
		{"empty text", sendMessageRequest{Type: "global", Sender: "alice", Text: "  "}, http.StatusBadRequest},
		{"dm without recipient", sendMessageRequest{Type: "dm", Sender: "alice", Text: "hi"}, http.StatusBadRequest},
		{"unknown type", sendMessageRequest{Type: "broadcast", Sender: "alice", Text: "hi"}, http.StatusBadRequest},
		{"unknown group", sendMessageRequest{Type: "group", Sender: "alice", GroupID: "missing", Text: "hi"}, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, handler.Messages, "/api/v1/chat/messages", tc.req)
			if rec.Code != tc.want {
				t.Fatalf("expected status %d got %d: %s", tc.want, rec.Code, rec.Body)
			}
		})
	}
}

func TestChatHandlerDirectHistorySharedKey(t *testing.T) {
	handler, _ := newChatHandler()

	rec := postJSON(t, handler.Messages, "/api/v1/chat/messages", sendMessageRequest{Type: "dm", Sender: "alice", Recipient: "carol", Text: "hi carol"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body)
	}

	for _, target := range []string{
		"/api/v1/chat/messages?type=dm&self=alice&with=carol",
		"/api/v1/chat/messages?type=dm&self=carol&with=alice",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		getRec := httptest.NewRecorder()
		handler.Messages(getRec, req)

		if getRec.Code != http.StatusOK {
			t.Fatalf("history %s: expected status %d got %d: %s", target, http.StatusOK, getRec.Code, getRec.Body)
		}

		var resp struct {
			Conversation string               `json:"conversation"`
			Messages     []models.ChatMessage `json:"messages"`
		}
		if err := json.NewDecoder(getRec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Conversation != chat.DirectKey("alice", "carol") {
			t.Fatalf("unexpected conversation key %q", resp.Conversation)
		}
		if len(resp.Messages) != 1 || resp.Messages[0].Text != "hi carol" {
			t.Fatalf("unexpected history %+v", resp.Messages)
		}
	}
}

func TestChatHandlerGroups(t *testing.T) {
	handler, _ := newChatHandler()

	rec := postJSON(t, handler.Groups, "/api/v1/chat/groups", createGroupRequest{Creator: "alice", Name: "movie night", Members: []string{"bob"}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body)
	}

	var group models.Group
	if err := json.NewDecoder(rec.Body).Decode(&group); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if group.ID == "" || len(group.Members) != 2 {
		t.Fatalf("unexpected group %+v", group)
	}

	// The group member can post; history carries the creation announcement
	// plus the new message.
	sendRec := postJSON(t, handler.Messages, "/api/v1/chat/messages", sendMessageRequest{Type: "group", Sender: "bob", GroupID: group.ID, Text: "what are we watching"})
	if sendRec.Code != http.StatusCreated {
		t.Fatalf("group send: expected status %d got %d: %s", http.StatusCreated, sendRec.Code, sendRec.Body)
	}

	outsiderRec := postJSON(t, handler.Messages, "/api/v1/chat/messages", sendMessageRequest{Type: "group", Sender: "mallory", GroupID: group.ID, Text: "let me in"})
	if outsiderRec.Code != http.StatusForbidden {
		t.Fatalf("outsider send: expected status %d got %d: %s", http.StatusForbidden, outsiderRec.Code, outsiderRec.Body)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/messages?type=group&groupId="+group.ID, nil)
	histRec := httptest.NewRecorder()
	handler.Messages(histRec, req)

	var histResp struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(histRec.Body).Decode(&histResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(histResp.Messages) != 2 || !histResp.Messages[0].System {
		t.Fatalf("expected announcement then message got %+v", histResp.Messages)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/chat/groups?username=bob", nil)
	listRec := httptest.NewRecorder()
	handler.Groups(listRec, req)

	var listResp struct {
		Groups []models.Group `json:"groups"`
	}
	if err := json.NewDecoder(listRec.Body).Decode(&listResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listResp.Groups) != 1 || listResp.Groups[0].ID != group.ID {
		t.Fatalf("unexpected group listing %+v", listResp.Groups)
	}
}
