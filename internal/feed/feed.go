// Package feed implements the activity log, the friends-feed aggregation and
// the like/comment engagement layer on top of user documents.
package feed

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
	// ErrActivityNotFound indicates the activity id is not on the owner's feed.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrCommentNotFound indicates the comment id is not on the activity.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrEmptyComment indicates the comment text was empty or whitespace.
	ErrEmptyComment = errors.New("comment text must not be empty")
	// ErrMissingTitle indicates the activity draft has no title.
	ErrMissingTitle = errors.New("activity title is required")
	// ErrMissingPosition indicates the activity draft has no left-off position.
	ErrMissingPosition = errors.New("left-off position is required")
	// ErrInvalidMediaType indicates an unsupported media type.
	ErrInvalidMediaType = errors.New("media type must be movie or tv")
	// ErrMissingEpisode indicates a tv activity without season/episode numbers.
	ErrMissingEpisode = errors.New("season and episode are required for tv activities")
)

// UserStore captures the document operations the aggregator needs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Save(ctx context.Context, user models.User) error
}

// Draft is the caller-supplied part of a new activity. The id, posted
// timestamp and engagement collections are assigned server-side.
type Draft struct {
	Title            string `json:"title"`
	MediaType        string `json:"mediaType"`
	Season           int    `json:"season"`
	Episode          int    `json:"episode"`
	TimestampLeftOff string `json:"timestampLeftOff"`
}

// Entry is a friend's activity tagged with the friend's display metadata for
// the aggregated feed view.
type Entry struct {
	models.Activity
	Owner       string `json:"owner"`
	OwnerName   string `json:"ownerName"`
	OwnerAvatar string `json:"ownerAvatar"`
}

// Update carries the mutable fields of an existing activity. Nil fields are
// left unchanged.
type Update struct {
	TimestampLeftOff *string `json:"timestampLeftOff"`
	Season           *int    `json:"season"`
	Episode          *int    `json:"episode"`
}

// Aggregator reads and mutates activity feeds stored on user documents.
type Aggregator struct {
	store UserStore

	// NowFunc and IDFunc override the clock and id source in tests.
	NowFunc func() time.Time
	IDFunc  func() string
}

// NewAggregator constructs an Aggregator over the provided store.
func NewAggregator(store UserStore) *Aggregator {
	if store == nil {
		panic("feed: user store must not be nil")
	}
	return &Aggregator{store: store}
}

// Record validates the draft and appends it to the owner's feed with a fresh
// id, a server-assigned posted timestamp and empty engagement collections.
func (a *Aggregator) Record(ctx context.Context, owner string, draft Draft) (models.Activity, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return models.Activity{}, ErrMissingTitle
	}
	if strings.TrimSpace(draft.TimestampLeftOff) == "" {
		return models.Activity{}, ErrMissingPosition
	}

	switch draft.MediaType {
	case models.MediaTypeMovie:
	case models.MediaTypeTV:
		if draft.Season <= 0 || draft.Episode <= 0 {
			return models.Activity{}, ErrMissingEpisode
		}
	default:
		return models.Activity{}, ErrInvalidMediaType
	}

	user, err := a.store.FindByUsername(ctx, owner)
	if err != nil {
		return models.Activity{}, fmt.Errorf("find owner: %w", err)
	}

	now := a.now()
	activity := models.Activity{
		ID:               a.newID(),
		Title:            draft.Title,
		MediaType:        draft.MediaType,
		TimestampLeftOff: draft.TimestampLeftOff,
		TimestampPosted:  now,
		Likes:            []string{},
		Comments:         []models.Comment{},
	}
	if draft.MediaType == models.MediaTypeTV {
		activity.Season = draft.Season
		activity.Episode = draft.Episode
	}

	user.ActivityFeed = append(user.ActivityFeed, activity)
	user.UpdatedAt = now

	if err := a.store.Save(ctx, user); err != nil {
		return models.Activity{}, fmt.Errorf("save owner: %w", err)
	}

	return activity, nil
}

// UpdateActivity merges the provided fields into one of the owner's entries.
func (a *Aggregator) UpdateActivity(ctx context.Context, owner, activityID string, update Update) error {
	user, err := a.store.FindByUsername(ctx, owner)
	if err != nil {
		return fmt.Errorf("find owner: %w", err)
	}

	idx := indexOf(user.ActivityFeed, activityID)
	if idx < 0 {
		return ErrActivityNotFound
	}

	if update.TimestampLeftOff != nil {
		user.ActivityFeed[idx].TimestampLeftOff = *update.TimestampLeftOff
	}
	if update.Season != nil {
		user.ActivityFeed[idx].Season = *update.Season
	}
	if update.Episode != nil {
		user.ActivityFeed[idx].Episode = *update.Episode
	}
	user.UpdatedAt = a.now()

	if err := a.store.Save(ctx, user); err != nil {
		return fmt.Errorf("save owner: %w", err)
	}

	return nil
}

// DeleteActivity removes one entry from the owner's feed.
func (a *Aggregator) DeleteActivity(ctx context.Context, owner, activityID string) error {
	user, err := a.store.FindByUsername(ctx, owner)
	if err != nil {
		return fmt.Errorf("find owner: %w", err)
	}

	idx := indexOf(user.ActivityFeed, activityID)
	if idx < 0 {
		return ErrActivityNotFound
	}

	user.ActivityFeed = append(user.ActivityFeed[:idx], user.ActivityFeed[idx+1:]...)
	user.UpdatedAt = a.now()

	if err := a.store.Save(ctx, user); err != nil {
		return fmt.Errorf("save owner: %w", err)
	}

	return nil
}

// History returns the owner's own entries sorted descending by posted time.
// Note the asymmetry with FriendsFeed, which keeps encounter order.
func (a *Aggregator) History(ctx context.Context, owner string) ([]models.Activity, error) {
	user, err := a.store.FindByUsername(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("find owner: %w", err)
	}

	history := make([]models.Activity, len(user.ActivityFeed))
	copy(history, user.ActivityFeed)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].TimestampPosted.After(history[j].TimestampPosted)
	})

	return history, nil
}

// FriendsFeed flattens every friend's activity entries into one list, tagging
// each entry with the friend's identity, deduplicating by (activity id,
// owner) and leaving the ordering as encountered. Friends whose documents no
// longer resolve are skipped.
func (a *Aggregator) FriendsFeed(ctx context.Context, self string) ([]Entry, error) {
	user, err := a.store.FindByUsername(ctx, self)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	type entryKey struct {
		id    string
		owner string
	}

	seen := make(map[entryKey]struct{})
	entries := make([]Entry, 0)
	for _, username := range user.Friends {
		friend, err := a.store.FindByUsername(ctx, username)
		if err != nil {
			continue
		}
		for _, activity := range friend.ActivityFeed {
			key := entryKey{id: activity.ID, owner: friend.Username}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			if activity.Likes == nil {
				activity.Likes = []string{}
			}
			if activity.Comments == nil {
				activity.Comments = []models.Comment{}
			}

			entries = append(entries, Entry{
				Activity:    activity,
				Owner:       friend.Username,
				OwnerName:   friend.Name,
				OwnerAvatar: friend.AvatarURL,
			})
		}
	}

	return entries, nil
}

// ToggleLike adds actor to the activity's like set, or removes them when
// already present. Applying it twice restores the original set.
func (a *Aggregator) ToggleLike(ctx context.Context, owner, activityID, actor string) error {
	user, err := a.store.FindByUsername(ctx, owner)
	if err != nil {
		return fmt.Errorf("find owner: %w", err)
	}

	idx := indexOf(user.ActivityFeed, activityID)
	if idx < 0 {
		return ErrActivityNotFound
	}

	likes := user.ActivityFeed[idx].Likes
	liked := false
	for _, username := range likes {
		if username == actor {
			liked = true
			break
		}
	}

	if liked {
		kept := likes[:0]
		for _, username := range likes {
			if username != actor {
				kept = append(kept, username)
			}
		}
		user.ActivityFeed[idx].Likes = kept
	} else {
		user.ActivityFeed[idx].Likes = append(likes, actor)
	}
	user.UpdatedAt = a.now()

	if err := a.store.Save(ctx, user); err != nil {
		return fmt.Errorf("save owner: %w", err)
	}

	return nil
}

// PostComment appends a comment from actor to the activity. Empty or
// whitespace-only text is rejected and the comment list is left unchanged.
func (a *Aggregator) PostComment(ctx context.Context, owner, activityID, actor, text string) (models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Comment{}, ErrEmptyComment
	}

	user, err := a.store.FindByUsername(ctx, owner)
	if err != nil {
		return models.Comment{}, fmt.Errorf("find owner: %w", err)
	}

	idx := indexOf(user.ActivityFeed, activityID)
	if idx < 0 {
		return models.Comment{}, ErrActivityNotFound
	}

	comment := models.Comment{
		ID:        a.newID(),
		Username:  actor,
		Text:      text,
		Timestamp: a.now(),
	}

	user.ActivityFeed[idx].Comments = append(user.ActivityFeed[idx].Comments, comment)
	user.UpdatedAt = comment.Timestamp

	if err := a.store.Save(ctx, user); err != nil {
		return models.Comment{}, fmt.Errorf("save owner: %w", err)
	}

	return comment, nil
}

// DeleteComment removes a comment by its stable id.
func (a *Aggregator) DeleteComment(ctx context.Context, owner, activityID, commentID string) error {
	user, err := a.store.FindByUsername(ctx, owner)
	if err != nil {
		return fmt.Errorf("find owner: %w", err)
	}

	idx := indexOf(user.ActivityFeed, activityID)
	if idx < 0 {
		return ErrActivityNotFound
	}

	comments := user.ActivityFeed[idx].Comments
	found := false
	kept := comments[:0]
	for _, comment := range comments {
		if comment.ID == commentID {
			found = true
			continue
		}
		kept = append(kept, comment)
	}
	if !found {
		return ErrCommentNotFound
	}

	user.ActivityFeed[idx].Comments = kept
	user.UpdatedAt = a.now()

	if err := a.store.Save(ctx, user); err != nil {
		return fmt.Errorf("save owner: %w", err)
	}

	return nil
}

func (a *Aggregator) now() time.Time {
	if a.NowFunc != nil {
		return a.NowFunc()
	}
	return time.Now().UTC()
}

func (a *Aggregator) newID() string {
	if a.IDFunc != nil {
		return a.IDFunc()
	}
	return uuid.NewString()
}

func indexOf(feed []models.Activity, activityID string) int {
	for i := range feed {
		if feed[i].ID == activityID {
			return i
		}
	}
	return -1
}
