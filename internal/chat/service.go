// Package chat implements the shared message collection, group entities and
// the near-real-time conversation synchronizer.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nettrack/backend/internal/models"
)

var (
	// ErrEmptyMessage indicates the message text was empty or whitespace.
	ErrEmptyMessage = errors.New("message text must not be empty")
	// ErrMissingRecipient indicates a direct message without a counterpart.
	ErrMissingRecipient = errors.New("direct message requires a recipient")
	// ErrNotGroupMember indicates the sender does not belong to the group.
	ErrNotGroupMember = errors.New("sender is not a group member")
	// ErrMissingMembers indicates a group was created without other members.
	ErrMissingMembers = errors.New("group requires at least one other member")
	// ErrMissingGroupName indicates a group was created without a name.
	ErrMissingGroupName = errors.New("group name is required")
)

// MessageStore captures persistence for the shared message collection.
type MessageStore interface {
	Append(ctx context.Context, message models.ChatMessage) error
	Conversation(ctx context.Context, key string) ([]models.ChatMessage, error)
}

// GroupStore captures persistence for group entities.
type GroupStore interface {
	Create(ctx context.Context, group models.Group) error
	Find(ctx context.Context, id string) (models.Group, error)
	ListForMember(ctx context.Context, username string) ([]models.Group, error)
}

// Notifier wakes live subscriptions after a local write so senders see their
// own message without waiting for the next poll tick.
type Notifier interface {
	Notify(conversationKey string)
}

// Service validates and appends chat messages and manages group entities.
type Service struct {
	messages MessageStore
	groups   GroupStore
	notifier Notifier

	// NowFunc and IDFunc override the clock and id source in tests.
	NowFunc func() time.Time
	IDFunc  func() string
}

// NewService constructs a chat service. The notifier may be nil.
func NewService(messages MessageStore, groups GroupStore, notifier Notifier) *Service {
	if messages == nil || groups == nil {
		panic("chat: message and group stores must not be nil")
	}
	return &Service{messages: messages, groups: groups, notifier: notifier}
}

// SendGlobal appends a message to the global conversation.
func (s *Service) SendGlobal(ctx context.Context, sender, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	message := models.ChatMessage{
		ID:              s.newID(),
		Type:            models.MessageTypeGlobal,
		ConversationKey: GlobalKey,
		Sender:          sender,
		Text:            text,
		SentAt:          s.now(),
	}

	return s.append(ctx, message)
}

// SendDirect appends a message to the two-party conversation between sender
// and recipient. Either side resolves to the same conversation key.
func (s *Service) SendDirect(ctx context.Context, sender, recipient, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	if strings.TrimSpace(recipient) == "" || recipient == sender {
		return models.ChatMessage{}, ErrMissingRecipient
	}

	participants := []string{sender, recipient}
	sort.Strings(participants)

	message := models.ChatMessage{
		ID:              s.newID(),
		Type:            models.MessageTypeDirect,
		ConversationKey: DirectKey(sender, recipient),
		Sender:          sender,
		Text:            text,
		Participants:    participants,
		SentAt:          s.now(),
	}

	return s.append(ctx, message)
}

// SendGroup appends a message to a group conversation after verifying the
// sender's membership.
func (s *Service) SendGroup(ctx context.Context, sender, groupID, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	group, err := s.groups.Find(ctx, groupID)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("find group: %w", err)
	}

	member := false
	for _, username := range group.Members {
		if username == sender {
			member = true
			break
		}
	}
	if !member {
		return models.ChatMessage{}, ErrNotGroupMember
	}

	message := models.ChatMessage{
		ID:              s.newID(),
		Type:            models.MessageTypeGroup,
		ConversationKey: GroupKey(group.ID),
		GroupID:         group.ID,
		Sender:          sender,
		Text:            text,
		Participants:    group.Members,
		SentAt:          s.now(),
	}

	return s.append(ctx, message)
}

// CreateGroup stores a group entity and writes the synthetic "group created"
// system message carrying the canonical participant list. The creator is
// always a member; duplicates are collapsed and the list is sorted.
func (s *Service) CreateGroup(ctx context.Context, creator, name string, members []string) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, ErrMissingGroupName
	}

	unique := map[string]struct{}{creator: {}}
	for _, username := range members {
		username = strings.TrimSpace(username)
		if username != "" {
			unique[username] = struct{}{}
		}
	}
	if len(unique) < 2 {
		return models.Group{}, ErrMissingMembers
	}

	canonical := make([]string, 0, len(unique))
	for username := range unique {
		canonical = append(canonical, username)
	}
	sort.Strings(canonical)

	group := models.Group{
		ID:        s.newID(),
		Name:      name,
		Members:   canonical,
		CreatedBy: creator,
		CreatedAt: s.now(),
	}

	if err := s.groups.Create(ctx, group); err != nil {
		return models.Group{}, fmt.Errorf("create group: %w", err)
	}

	announcement := models.ChatMessage{
		ID:              s.newID(),
		Type:            models.MessageTypeGroup,
		ConversationKey: GroupKey(group.ID),
		GroupID:         group.ID,
		Sender:          creator,
		Text:            fmt.Sprintf("%s created the group %q", creator, name),
		Participants:    canonical,
		System:          true,
		SentAt:          group.CreatedAt,
	}

	if _, err := s.append(ctx, announcement); err != nil {
		return models.Group{}, err
	}

	return group, nil
}

// History returns the message list for a conversation key, ordered ascending
// by sent time.
func (s *Service) History(ctx context.Context, key string) ([]models.ChatMessage, error) {
	messages, err := s.messages.Conversation(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return messages, nil
}

// Groups lists the groups the username belongs to.
func (s *Service) Groups(ctx context.Context, username string) ([]models.Group, error) {
	groups, err := s.groups.ListForMember(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *Service) append(ctx context.Context, message models.ChatMessage) (models.ChatMessage, error) {
	if err := s.messages.Append(ctx, message); err != nil {
		return models.ChatMessage{}, fmt.Errorf("append message: %w", err)
	}
	if s.notifier != nil {
		s.notifier.Notify(message.ConversationKey)
	}
	return message, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.IDFunc != nil {
		return s.IDFunc()
	}
	return uuid.NewString()
}
