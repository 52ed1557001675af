package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/chatnote/internal/importer"
)

// ErrNotFound is returned when a conversation id has no row.
var ErrNotFound = errors.New("conversation not found")

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Conversation is a normalized conversation after the store has given it an
// identity and timestamps.
type Conversation struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Source    importer.Source `json:"source"`
	Tags      []string        `json:"tags"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SaveConversation inserts a normalized conversation with a fresh UUID.
func (s *Store) SaveConversation(ctx context.Context, c importer.Conversation, tags []string) (*Conversation, error) {
	if tags == nil {
		tags = []string{}
	}

	saved := Conversation{
		ID:      uuid.New(),
		Title:   c.Title,
		Content: c.Content,
		Source:  c.Source,
		Tags:    tags,
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, title, content, source, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at`,
		saved.ID, saved.Title, saved.Content, string(saved.Source), saved.Tags,
	).Scan(&saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return &saved, nil
}

// GetConversation fetches a conversation by id.
func (s *Store) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, content, source, tags, created_at, updated_at
		FROM conversations WHERE id = $1`, id)

	c, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

// ListConversations returns the most recently created conversations first.
func (s *Store) ListConversations(ctx context.Context, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, title, content, source, tags, created_at, updated_at
		FROM conversations
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

func scanConversation(row pgx.Row) (*Conversation, error) {
	var (
		c      Conversation
		source string
	)
	if err := row.Scan(&c.ID, &c.Title, &c.Content, &source, &c.Tags, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Source = importer.Source(source)
	return &c, nil
}
