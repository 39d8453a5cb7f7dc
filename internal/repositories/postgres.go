package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nettrack/backend/internal/db"
	"github.com/nettrack/backend/internal/models"
)

// PostgresUserRepository stores one document-style row per username, with the
// relationship and feed collections held in JSONB columns.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `username, name, email, password_hash, avatar_url, favorite_genres, friends, friend_requests, activity_feed, created_at, updated_at`

// Create persists a new user document.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	genres, friends, requests, feed, err := marshalUserCollections(user)
	if err != nil {
		return err
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.Username, user.Name, user.Email, user.PasswordHash, user.AvatarURL,
		genres, friends, requests, feed, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByUsername fetches a user document by its key.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE username = $1
    `, username)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by username: %w", err)
	}

	return user, nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE email = $1
    `, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}

	return user, nil
}

// Save replaces the stored document for user.Username.
func (r *PostgresUserRepository) Save(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	genres, friends, requests, feed, err := marshalUserCollections(user)
	if err != nil {
		return err
	}

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET name = $2, email = $3, password_hash = $4, avatar_url = $5,
            favorite_genres = $6, friends = $7, friend_requests = $8,
            activity_feed = $9, updated_at = $10
        WHERE username = $1
    `, user.Username, user.Name, user.Email, user.PasswordHash, user.AvatarURL,
		genres, friends, requests, feed, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns every user document, ordered by username for stable discovery
// listings.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+userColumns+`
        FROM users
        ORDER BY username
    `)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Delete removes the user document and scrubs the username from every other
// user's friends and friendRequests arrays. The scrub and the delete are two
// statements; a failure between them leaves stale references that the next
// delete attempt cleans up.
func (r *PostgresUserRepository) Delete(ctx context.Context, username string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        UPDATE users
        SET friends = friends - $1,
            friend_requests = friend_requests - $1,
            updated_at = $2
        WHERE username <> $1
          AND (friends ? $1 OR friend_requests ? $1)
    `, username, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("scrub user references: %w", err)
	}

	tag, err := conn.Exec(ctx, `
        DELETE FROM users
        WHERE username = $1
    `, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func marshalUserCollections(user models.User) (genres, friends, requests, feed []byte, err error) {
	if genres, err = marshalList(user.FavoriteGenres); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal favorite genres: %w", err)
	}
	if friends, err = marshalList(user.Friends); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal friends: %w", err)
	}
	if requests, err = marshalList(user.FriendRequests); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal friend requests: %w", err)
	}
	if user.ActivityFeed == nil {
		user.ActivityFeed = []models.Activity{}
	}
	if feed, err = json.Marshal(user.ActivityFeed); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal activity feed: %w", err)
	}
	return genres, friends, requests, feed, nil
}

func marshalList(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user     models.User
		genres   []byte
		friends  []byte
		requests []byte
		feed     []byte
	)

	if err := row.Scan(&user.Username, &user.Name, &user.Email, &user.PasswordHash,
		&user.AvatarURL, &genres, &friends, &requests, &feed,
		&user.CreatedAt, &user.UpdatedAt); err != nil {
		return models.User{}, err
	}

	if err := json.Unmarshal(genres, &user.FavoriteGenres); err != nil {
		return models.User{}, fmt.Errorf("unmarshal favorite genres: %w", err)
	}
	if err := json.Unmarshal(friends, &user.Friends); err != nil {
		return models.User{}, fmt.Errorf("unmarshal friends: %w", err)
	}
	if err := json.Unmarshal(requests, &user.FriendRequests); err != nil {
		return models.User{}, fmt.Errorf("unmarshal friend requests: %w", err)
	}
	if err := json.Unmarshal(feed, &user.ActivityFeed); err != nil {
		return models.User{}, fmt.Errorf("unmarshal activity feed: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()

	return user, nil
}

// PostgresChatRepository provides PostgreSQL-backed persistence for chat messages.
type PostgresChatRepository struct {
	pool db.Pool
}

// NewPostgresChatRepository constructs a chat repository backed by PostgreSQL.
func NewPostgresChatRepository(pool db.Pool) *PostgresChatRepository {
	return &PostgresChatRepository{pool: pool}
}

// Append stores a new message record.
func (r *PostgresChatRepository) Append(ctx context.Context, message models.ChatMessage) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	participants, err := marshalList(message.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO chat_messages (id, type, conversation_key, group_id, sender, body, participants, system, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, message.ID, message.Type, message.ConversationKey, message.GroupID,
		message.Sender, message.Text, participants, message.System, message.SentAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert chat message: %w", err)
	}

	return nil
}

// Conversation returns the full message history for a conversation key.
func (r *PostgresChatRepository) Conversation(ctx context.Context, key string) ([]models.ChatMessage, error) {
	return r.query(ctx, `
        SELECT id, type, conversation_key, group_id, sender, body, participants, system, sent_at
        FROM chat_messages
        WHERE conversation_key = $1
        ORDER BY sent_at ASC
    `, key)
}

// ConversationSince returns messages sent strictly after the provided instant.
func (r *PostgresChatRepository) ConversationSince(ctx context.Context, key string, after time.Time) ([]models.ChatMessage, error) {
	return r.query(ctx, `
        SELECT id, type, conversation_key, group_id, sender, body, participants, system, sent_at
        FROM chat_messages
        WHERE conversation_key = $1 AND sent_at > $2
        ORDER BY sent_at ASC
    `, key, after.UTC())
}

func (r *PostgresChatRepository) query(ctx context.Context, sql string, args ...any) ([]models.ChatMessage, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var (
			message      models.ChatMessage
			participants []byte
		)
		if err := rows.Scan(&message.ID, &message.Type, &message.ConversationKey,
			&message.GroupID, &message.Sender, &message.Text, &participants,
			&message.System, &message.SentAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if err := json.Unmarshal(participants, &message.Participants); err != nil {
			return nil, fmt.Errorf("unmarshal participants: %w", err)
		}
		message.SentAt = message.SentAt.UTC()
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	return messages, nil
}

// PostgresGroupRepository provides PostgreSQL-backed persistence for chat groups.
type PostgresGroupRepository struct {
	pool db.Pool
}

// NewPostgresGroupRepository constructs a group repository backed by PostgreSQL.
func NewPostgresGroupRepository(pool db.Pool) *PostgresGroupRepository {
	return &PostgresGroupRepository{pool: pool}
}

// Create stores a new group entity.
func (r *PostgresGroupRepository) Create(ctx context.Context, group models.Group) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	members, err := marshalList(group.Members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO chat_groups (id, name, members, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, group.ID, group.Name, members, group.CreatedBy, group.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert chat group: %w", err)
	}

	return nil
}

// Find loads one group by id.
func (r *PostgresGroupRepository) Find(ctx context.Context, id string) (models.Group, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Group{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, name, members, created_by, created_at
        FROM chat_groups
        WHERE id = $1
    `, id)

	var (
		group   models.Group
		members []byte
	)
	if err := row.Scan(&group.ID, &group.Name, &members, &group.CreatedBy, &group.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Group{}, ErrNotFound
		}
		return models.Group{}, fmt.Errorf("select chat group: %w", err)
	}
	if err := json.Unmarshal(members, &group.Members); err != nil {
		return models.Group{}, fmt.Errorf("unmarshal members: %w", err)
	}
	group.CreatedAt = group.CreatedAt.UTC()

	return group, nil
}

// ListForMember returns groups the username belongs to.
func (r *PostgresGroupRepository) ListForMember(ctx context.Context, username string) ([]models.Group, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, name, members, created_by, created_at
        FROM chat_groups
        WHERE members ? $1
        ORDER BY created_at DESC
    `, username)
	if err != nil {
		return nil, fmt.Errorf("query chat groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var (
			group   models.Group
			members []byte
		)
		if err := rows.Scan(&group.ID, &group.Name, &members, &group.CreatedBy, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat group: %w", err)
		}
		if err := json.Unmarshal(members, &group.Members); err != nil {
			return nil, fmt.Errorf("unmarshal members: %w", err)
		}
		group.CreatedAt = group.CreatedAt.UTC()
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat groups: %w", err)
	}

	return groups, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ ChatRepository = (*PostgresChatRepository)(nil)
var _ GroupRepository = (*PostgresGroupRepository)(nil)
