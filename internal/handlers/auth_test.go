package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nettrack/backend/internal/auth"
	"github.com/nettrack/backend/internal/models"
)

func newSessionManager() *auth.Manager {
	return auth.NewManager(time.Minute, time.Hour, auth.NewInMemorySessionStore())
}

func TestAuthHandlerSignUp(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newSessionManager()}

	body, err := json.Marshal(signUpRequest{Username: "alice", Name: "Alice", Email: "alice@example.com", Password: "supersafe"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Username != "alice" {
		t.Fatalf("expected username echoed got %q", resp.Username)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}

	stored, err := store.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}
	if stored.Friends == nil || stored.FriendRequests == nil || stored.ActivityFeed == nil {
		t.Fatalf("expected empty collections to be initialized, got %+v", stored)
	}
}

func TestAuthHandlerSignUpValidation(t *testing.T) {
	store := newInMemoryUserStore()
	store.put(models.User{Username: "taken", Email: "taken@example.com"})
	handler := AuthHandler{Users: store, Sessions: newSessionManager()}

	cases := []struct {
		name string
		req  signUpRequest
		want int
	}{
		{"missing username", signUpRequest{Email: "a@example.com", Password: "supersafe"}, http.StatusBadRequest},
		{"bad email", signUpRequest{Username: "bob", Email: "not-an-email", Password: "supersafe"}, http.StatusBadRequest},
		{"short password", signUpRequest{Username: "bob", Email: "bob@example.com", Password: "short"}, http.StatusBadRequest},
		{"username taken", signUpRequest{Username: "taken", Email: "new@example.com", Password: "supersafe"}, http.StatusConflict},
		{"email taken", signUpRequest{Username: "bob", Email: "taken@example.com", Password: "supersafe"}, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := json.Marshal(tc.req)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			handler.SignUp(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected status %d got %d: %s", tc.want, rec.Code, rec.Body)
			}
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newSessionManager()}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.put(models.User{Username: "alice", Email: "alice@example.com", PasswordHash: string(hashed)})

	for _, identifier := range []string{"alice", "alice@example.com"} {
		body, err := json.Marshal(loginRequest{Identifier: identifier, Password: "password123"})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("login with %q: expected status %d got %d: %s", identifier, http.StatusOK, rec.Code, rec.Body)
		}

		var resp authResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
			t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
		}
	}
}

func TestAuthHandlerLoginRejectsBadPassword(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newSessionManager()}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.put(models.User{Username: "alice", Email: "alice@example.com", PasswordHash: string(hashed)})

	body, err := json.Marshal(loginRequest{Identifier: "alice", Password: "wrong-password"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerRefresh(t *testing.T) {
	manager := newSessionManager()
	tokens, err := manager.Issue(context.Background(), "alice")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	handler := AuthHandler{Sessions: manager}

	body, err := json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Tokens.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected a new refresh token to be issued")
	}
}

func TestAuthHandlerLogoutRevokesSession(t *testing.T) {
	manager := newSessionManager()
	tokens, err := manager.Issue(context.Background(), "alice")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	handler := AuthHandler{Sessions: manager}

	body, err := json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	// The revoked token must no longer refresh.
	body, err = json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	rec = httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerRateLimited(t *testing.T) {
	handler := AuthHandler{Users: newInMemoryUserStore(), Sessions: newSessionManager(), Limiter: denyAllLimiter{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }
