package handlers

import (
	"context"
	"sort"
	"sync"

	"github.com/nettrack/backend/internal/models"
	"github.com/nettrack/backend/internal/repositories"
)

// inMemoryUserStore backs handler tests with a map keyed by username.
type inMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return repositories.ErrConflict
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.Username] = user
	return nil
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

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
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

func (s *inMemoryUserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *inMemoryUserStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.users, username)
	for name, user := range s.users {
		user.Friends = removeElement(user.Friends, username)
		user.FriendRequests = removeElement(user.FriendRequests, username)
		s.users[name] = user
	}
	return nil
}

func removeElement(list []string, value string) []string {
	out := list[:0]
	for _, item := range list {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}

func (s *inMemoryUserStore) put(user models.User) {
	s.mu.Lock()
	s.users[user.Username] = user
	s.mu.Unlock()
}
