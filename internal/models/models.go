package models

import "time"

// User is the account document stored per username. The relationship and
// feed collections live on the document itself rather than in join tables,
// so every profile read returns the full social state in one fetch.
type User struct {
	Username       string     `json:"username"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	AvatarURL      string     `json:"avatarUrl"`
	FavoriteGenres []string   `json:"favoriteGenres"`
	Friends        []string   `json:"friends"`
	FriendRequests []string   `json:"friendRequests"`
	ActivityFeed   []Activity `json:"activityFeed"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Media types recorded on activities.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// Activity is one logged watch entry on a user's feed.
type Activity struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	MediaType        string    `json:"mediaType"`
	Season           int       `json:"season,omitempty"`
	Episode          int       `json:"episode,omitempty"`
	TimestampLeftOff string    `json:"timestampLeftOff"`
	TimestampPosted  time.Time `json:"timestampPosted"`
	Likes            []string  `json:"likes"`
	Comments         []Comment `json:"comments"`
}

// Comment is an engagement entry attached to an activity. Comments carry a
// stable id so deletion survives concurrent edits.
type Comment struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat message types.
const (
	MessageTypeGlobal = "global"
	MessageTypeDirect = "dm"
	MessageTypeGroup  = "group"
)

// ChatMessage is one record in the shared message collection.
type ChatMessage struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	ConversationKey string    `json:"conversationKey"`
	GroupID         string    `json:"groupId,omitempty"`
	Sender          string    `json:"sender"`
	Text            string    `json:"text"`
	Participants    []string  `json:"participants,omitempty"`
	System          bool      `json:"system,omitempty"`
	SentAt          time.Time `json:"sentAt"`
}

// Group is the explicit group-chat entity referenced by group messages.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
