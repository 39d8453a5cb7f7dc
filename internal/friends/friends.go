// Package friends implements the friend-request/friendship state machine.
//
// Friendships are symmetric and stored on both user documents. Accepting or
// removing a friendship writes the two documents independently; a failure
// between the writes leaves an asymmetric pair, which is surfaced to the
// caller as an error but not rolled back.
package friends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nettrack/backend/internal/models"
)

var (
	// ErrAlreadyFriends indicates the two users are already connected.
	ErrAlreadyFriends = errors.New("already friends")
	// ErrRequestPending indicates an identical friend request is already waiting.
	ErrRequestPending = errors.New("friend request already sent")
	// ErrSelfRequest indicates a user tried to befriend themselves.
	ErrSelfRequest = errors.New("cannot send a friend request to yourself")
	// ErrNoPendingRequest indicates there is no request from that user to act on.
	ErrNoPendingRequest = errors.New("no pending friend request")
)

// UserStore captures the document operations the manager needs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Save(ctx context.Context, user models.User) error
}

// Manager mutates the relationship lists on user documents.
type Manager struct {
	store UserStore

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

// NewManager constructs a Manager over the provided store.
func NewManager(store UserStore) *Manager {
	if store == nil {
		panic("friends: user store must not be nil")
	}
	return &Manager{store: store}
}

// SendRequest appends from to to's pending request list. It fails when the
// target is unknown, the two are already friends, or an identical request is
// already pending.
func (m *Manager) SendRequest(ctx context.Context, from, to string) error {
	if from == to {
		return ErrSelfRequest
	}

	target, err := m.store.FindByUsername(ctx, to)
	if err != nil {
		return fmt.Errorf("find target user: %w", err)
	}

	if contains(target.Friends, from) {
		return ErrAlreadyFriends
	}
	if contains(target.FriendRequests, from) {
		return ErrRequestPending
	}

	target.FriendRequests = append(target.FriendRequests, from)
	target.UpdatedAt = m.now()

	if err := m.store.Save(ctx, target); err != nil {
		return fmt.Errorf("save target user: %w", err)
	}

	return nil
}

// AcceptRequest adds each user to the other's friends set and clears the
// pending request. The receiver's document is written first so the pending
// entry disappears even if the second write fails.
func (m *Manager) AcceptRequest(ctx context.Context, self, from string) error {
	me, err := m.store.FindByUsername(ctx, self)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	if !contains(me.FriendRequests, from) {
		return ErrNoPendingRequest
	}

	requester, err := m.store.FindByUsername(ctx, from)
	if err != nil {
		return fmt.Errorf("find requester: %w", err)
	}

	now := m.now()

	me.Friends = appendUnique(me.Friends, from)
	me.FriendRequests = remove(me.FriendRequests, from)
	me.UpdatedAt = now
	if err := m.store.Save(ctx, me); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	requester.Friends = appendUnique(requester.Friends, self)
	requester.UpdatedAt = now
	if err := m.store.Save(ctx, requester); err != nil {
		return fmt.Errorf("save requester: %w", err)
	}

	return nil
}

// RejectRequest removes from from self's pending request list. It has no
// effect on the requester's document.
func (m *Manager) RejectRequest(ctx context.Context, self, from string) error {
	me, err := m.store.FindByUsername(ctx, self)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	if !contains(me.FriendRequests, from) {
		return ErrNoPendingRequest
	}

	me.FriendRequests = remove(me.FriendRequests, from)
	me.UpdatedAt = m.now()

	if err := m.store.Save(ctx, me); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	return nil
}

// RemoveFriend removes each user from the other's friends set.
func (m *Manager) RemoveFriend(ctx context.Context, self, other string) error {
	me, err := m.store.FindByUsername(ctx, self)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	friend, err := m.store.FindByUsername(ctx, other)
	if err != nil {
		return fmt.Errorf("find friend: %w", err)
	}

	now := m.now()

	me.Friends = remove(me.Friends, other)
	me.UpdatedAt = now
	if err := m.store.Save(ctx, me); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	friend.Friends = remove(friend.Friends, self)
	friend.UpdatedAt = now
	if err := m.store.Save(ctx, friend); err != nil {
		return fmt.Errorf("save friend: %w", err)
	}

	return nil
}

// ListFriends resolves self's friend usernames to full user documents.
// Dangling references (half-removed friendships, deleted accounts) are
// skipped rather than failing the listing.
func (m *Manager) ListFriends(ctx context.Context, self string) ([]models.User, error) {
	me, err := m.store.FindByUsername(ctx, self)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	friends := make([]models.User, 0, len(me.Friends))
	for _, username := range me.Friends {
		friend, err := m.store.FindByUsername(ctx, username)
		if err != nil {
			continue
		}
		friends = append(friends, friend)
	}

	return friends, nil
}

// PendingRequests returns the ordered inbound request usernames for self.
func (m *Manager) PendingRequests(ctx context.Context, self string) ([]string, error) {
	me, err := m.store.FindByUsername(ctx, self)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return me.FriendRequests, nil
}

func (m *Manager) now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Now().UTC()
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func appendUnique(values []string, target string) []string {
	if contains(values, target) {
		return values
	}
	return append(values, target)
}

func remove(values []string, target string) []string {
	out := values[:0]
	for _, v := range values {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
