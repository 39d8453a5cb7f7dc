package friends

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nettrack/backend/internal/models"
	"github.com/nettrack/backend/internal/repositories"
)

type inMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newInMemoryUserStore(usernames ...string) *inMemoryUserStore {
	store := &inMemoryUserStore{users: make(map[string]models.User)}
	for _, username := range usernames {
		store.users[username] = models.User{Username: username}
	}
	return store
}

func (s *inMemoryUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) Save(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; !ok {
		return repositories.ErrNotFound
	}
	s.users[user.Username] = user
	return nil
}

func (s *inMemoryUserStore) get(t *testing.T, username string) models.User {
	t.Helper()
	user, err := s.FindByUsername(context.Background(), username)
	if err != nil {
		t.Fatalf("get %s: %v", username, err)
	}
	return user
}

func TestSendRequest(t *testing.T) {
	store := newInMemoryUserStore("alice", "bob")
	manager := NewManager(store)

	if err := manager.SendRequest(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("send request: %v", err)
	}

	bob := store.get(t, "bob")
	if len(bob.FriendRequests) != 1 || bob.FriendRequests[0] != "alice" {
		t.Fatalf("expected pending request from alice got %v", bob.FriendRequests)
	}
}

func TestSendRequestTwiceKeepsOneEntry(t *testing.T) {
	store := newInMemoryUserStore("alice", "bob")
	manager := NewManager(store)

	if err := manager.SendRequest(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := manager.SendRequest(context.Background(), "alice", "bob"); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("expected pending error got %v", err)
	}

	bob := store.get(t, "bob")
	if len(bob.FriendRequests) != 1 {
		t.Fatalf("expected exactly one request got %v", bob.FriendRequests)
	}
}

func TestSendRequestFailures(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(*inMemoryUserStore)
		from    string
		to      string
		wantErr error
	}{
		{"unknownTarget", func(*inMemoryUserStore) {}, "alice", "nobody", repositories.ErrNotFound},
		{"self", func(*inMemoryUserStore) {}, "alice", "alice", ErrSelfRequest},
		{"alreadyFriends", func(s *inMemoryUserStore) {
			bob := s.users["bob"]
			bob.Friends = []string{"alice"}
			s.users["bob"] = bob
		}, "alice", "bob", ErrAlreadyFriends},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newInMemoryUserStore("alice", "bob")
			tc.prepare(store)
			manager := NewManager(store)

			if err := manager.SendRequest(context.Background(), tc.from, tc.to); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAcceptRequestSymmetric(t *testing.T) {
	store := newInMemoryUserStore("alice", "bob")
	manager := NewManager(store)

	if err := manager.SendRequest(context.Background(), "bob", "alice"); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := manager.AcceptRequest(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	alice := store.get(t, "alice")
	bob := store.get(t, "bob")

	if !contains(alice.Friends, "bob") {
		t.Fatalf("alice should list bob got %v", alice.Friends)
	}
	if !contains(bob.Friends, "alice") {
		t.Fatalf("bob should list alice got %v", bob.Friends)
	}
	if contains(alice.FriendRequests, "bob") {
		t.Fatalf("request should have been cleared got %v", alice.FriendRequests)
	}
}

func TestAcceptRequestWithoutPending(t *testing.T) {
	store := newInMemoryUserStore("alice", "bob")
	manager := NewManager(store)

	if err := manager.AcceptRequest(context.Background(), "alice", "bob"); !errors.Is(err, ErrNoPendingRequest) {
		t.Fatalf("expected no pending request got %v", err)
	}
}

func TestRejectRequest(t *testing.T) {
	store := newInMemoryUserStore("alice", "bob")
	manager := NewManager(store)

	if err := manager.SendRequest(context.Background(), "bob", "alice"); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := manager.RejectRequest(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("reject request: %v", err)
	}

	alice := store.get(t, "alice")
	bob := store.get(t, "bob")

	if len(alice.FriendRequests) != 0 {
		t.Fatalf("expected cleared requests got %v", alice.FriendRequests)
	}
	if len(alice.Friends) != 0 || len(bob.Friends) != 0 {
		t.Fatal("reject must not create a friendship")
	}
}

func TestRemoveFriendSymmetric(t *testing.T) {
	store := newInMemoryUserStore("alice", "bob")
	manager := NewManager(store)

	if err := manager.SendRequest(context.Background(), "bob", "alice"); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := manager.AcceptRequest(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("accept request: %v", err)
	}
	if err := manager.RemoveFriend(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("remove friend: %v", err)
	}

	alice := store.get(t, "alice")
	bob := store.get(t, "bob")

	if contains(alice.Friends, "bob") || contains(bob.Friends, "alice") {
		t.Fatalf("expected both lists empty got alice=%v bob=%v", alice.Friends, bob.Friends)
	}
}

func TestListFriendsSkipsDanglingReferences(t *testing.T) {
	store := newInMemoryUserStore("alice", "bob")
	alice := store.users["alice"]
	alice.Friends = []string{"bob", "ghost"}
	store.users["alice"] = alice

	manager := NewManager(store)

	friends, err := manager.ListFriends(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if len(friends) != 1 || friends[0].Username != "bob" {
		t.Fatalf("expected only bob got %+v", friends)
	}
}

func TestPendingRequestsOrder(t *testing.T) {
	store := newInMemoryUserStore("alice", "bob", "carol")
	manager := NewManager(store)
	manager.NowFunc = func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }

	if err := manager.SendRequest(context.Background(), "bob", "alice"); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := manager.SendRequest(context.Background(), "carol", "alice"); err != nil {
		t.Fatalf("send request: %v", err)
	}

	pending, err := manager.PendingRequests(context.Background(), "alice")
	if err != nil {
		t.Fatalf("pending requests: %v", err)
	}
	if len(pending) != 2 || pending[0] != "bob" || pending[1] != "carol" {
		t.Fatalf("expected [bob carol] got %v", pending)
	}
}
