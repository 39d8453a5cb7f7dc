package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nettrack/backend/internal/feed"
	"github.com/nettrack/backend/internal/models"
)

func newActivityHandler(store *inMemoryUserStore) ActivityHandler {
	return ActivityHandler{Feed: feed.NewAggregator(store)}
}

func TestActivityHandlerRecordAndHistory(t *testing.T) {
	store := newInMemoryUserStore()
	store.put(models.User{Username: "alice"})
	handler := newActivityHandler(store)

	payload := recordActivityRequest{Username: "alice"}
	payload.Title = "Show X"
	payload.MediaType = models.MediaTypeTV
	payload.Season = 1
	payload.Episode = 3
	payload.TimestampLeftOff = "12:00"

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Activities(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("record: expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body)
	}

	var activity models.Activity
	if err := json.NewDecoder(rec.Body).Decode(&activity); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if activity.ID == "" || activity.TimestampPosted.IsZero() {
		t.Fatalf("expected server-assigned fields got %+v", activity)
	}
	if activity.Likes == nil || activity.Comments == nil {
		t.Fatalf("expected empty engagement collections got %+v", activity)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/activities?username=alice", nil)
	rec = httptest.NewRecorder()
	handler.Activities(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}

	var histResp struct {
		Activities []models.Activity `json:"activities"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&histResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(histResp.Activities) != 1 || histResp.Activities[0].Title != "Show X" {
		t.Fatalf("unexpected history %+v", histResp.Activities)
	}
}

func TestActivityHandlerRecordValidation(t *testing.T) {
	store := newInMemoryUserStore()
	store.put(models.User{Username: "alice"})
	handler := newActivityHandler(store)

	payload := recordActivityRequest{Username: "alice"}
	payload.MediaType = models.MediaTypeMovie
	payload.TimestampLeftOff = "12:00"

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Activities(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d: %s", http.StatusBadRequest, rec.Code, rec.Body)
	}
}

func TestActivityHandlerFriendsFeed(t *testing.T) {
	store := newInMemoryUserStore()
	store.put(models.User{Username: "alice", Name: "Alice", Friends: []string{"bob"}})
	store.put(models.User{Username: "bob", Name: "Bob", Friends: []string{"alice"}, ActivityFeed: []models.Activity{
		{ID: "a-1", Title: "Show X", TimestampLeftOff: "12:00", Likes: []string{}, Comments: []models.Comment{}},
	}})
	handler := newActivityHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities/feed?username=alice", nil)
	rec := httptest.NewRecorder()
	handler.FriendsFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}

	var resp struct {
		Feed []feed.Entry `json:"feed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Feed) != 1 {
		t.Fatalf("expected one entry got %+v", resp.Feed)
	}
	entry := resp.Feed[0]
	if entry.Title != "Show X" || entry.Owner != "bob" || entry.OwnerName != "Bob" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if len(entry.Likes) != 0 || len(entry.Comments) != 0 {
		t.Fatalf("expected zero engagement got %+v", entry)
	}
}

func TestActivityHandlerLikeAndComments(t *testing.T) {
	store := newInMemoryUserStore()
	store.put(models.User{Username: "bob", ActivityFeed: []models.Activity{
		{ID: "a-1", Title: "Show X", Likes: []string{}, Comments: []models.Comment{}},
	}})
	handler := newActivityHandler(store)

	rec := postJSON(t, handler.ToggleLike, "/api/v1/activities/like", likeRequest{Owner: "bob", ActivityID: "a-1", Actor: "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("like: expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}

	bob, _ := store.FindByUsername(context.Background(), "bob")
	if len(bob.ActivityFeed[0].Likes) != 1 || bob.ActivityFeed[0].Likes[0] != "alice" {
		t.Fatalf("expected alice's like got %+v", bob.ActivityFeed[0].Likes)
	}

	rec = postJSON(t, handler.Comments, "/api/v1/activities/comments", commentRequest{Owner: "bob", ActivityID: "a-1", Actor: "alice", Text: "great episode"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment: expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body)
	}

	var comment models.Comment
	if err := json.NewDecoder(rec.Body).Decode(&comment); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if comment.ID == "" || comment.Text != "great episode" {
		t.Fatalf("unexpected comment %+v", comment)
	}

	rec = postJSON(t, handler.Comments, "/api/v1/activities/comments", commentRequest{Owner: "bob", ActivityID: "a-1", Actor: "alice", Text: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("whitespace comment: expected status %d got %d: %s", http.StatusBadRequest, rec.Code, rec.Body)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/activities/comments?owner=bob&activityId=a-1&commentId="+comment.ID, nil)
	deleteRec := httptest.NewRecorder()
	handler.Comments(deleteRec, req)
	if deleteRec.Code != http.StatusOK {
		t.Fatalf("delete comment: expected status %d got %d: %s", http.StatusOK, deleteRec.Code, deleteRec.Body)
	}

	bob, _ = store.FindByUsername(context.Background(), "bob")
	if len(bob.ActivityFeed[0].Comments) != 0 {
		t.Fatalf("expected comment removed got %+v", bob.ActivityFeed[0].Comments)
	}
}

func TestActivityHandlerDeleteUnknownActivity(t *testing.T) {
	store := newInMemoryUserStore()
	store.put(models.User{Username: "alice"})
	handler := newActivityHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/activities?username=alice&id=missing", nil)
	rec := httptest.NewRecorder()
	handler.Activities(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d: %s", http.StatusNotFound, rec.Code, rec.Body)
	}
}
