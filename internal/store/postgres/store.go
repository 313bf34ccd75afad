package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ai-gateway/chatstream-go/internal/store"
)

const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// Store implements store.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// wrap maps pgx errors onto store sentinels. onFK is used for foreign key
// violations, which mean a missing parent on insert and existing children on
// delete.
func wrap(err error, onFK error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, store.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", msg, pgErr.Detail, onFK)
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", msg, store.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func execExpectOne(tag pgconn.CommandTag, err error, format string, args ...any) error {
	if err != nil {
		return wrap(err, store.ErrConflict, format, args...)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), store.ErrNotFound)
	}
	return nil
}

// --- Assistants ---

func scanAssistant(row scannable) (store.Assistant, error) {
	var a store.Assistant
	err := row.Scan(&a.ID, &a.Name, &a.SystemPrompt, &a.DefaultModel, &a.CreatedAt)
	return a, err
}

func (s *Store) CreateAssistant(ctx context.Context, a *store.Assistant) (*store.Assistant, error) {
	created, err := scanAssistant(s.pool.QueryRow(ctx,
		`INSERT INTO assistants (id, name, system_prompt, default_model)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, system_prompt, default_model, created_at`,
		newID(a.ID), a.Name, a.SystemPrompt, a.DefaultModel))
	if err != nil {
		return nil, wrap(err, store.ErrInvalid, "create assistant")
	}
	return &created, nil
}

func (s *Store) GetAssistant(ctx context.Context, id string) (*store.Assistant, error) {
	a, err := scanAssistant(s.pool.QueryRow(ctx,
		`SELECT id, name, system_prompt, default_model, created_at
		 FROM assistants WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(err, store.ErrInvalid, "get assistant %s", id)
	}
	return &a, nil
}

func (s *Store) ListAssistants(ctx context.Context) ([]store.Assistant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, system_prompt, default_model, created_at
		 FROM assistants ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list assistants: %w", err)
	}
	defer rows.Close()

	result := []store.Assistant{}
	for rows.Next() {
		a, err := scanAssistant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assistant: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) DeleteAssistant(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM assistants WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete assistant %s", id)
}

// --- Conversations ---

func scanConversation(row scannable) (store.Conversation, error) {
	var c store.Conversation
	err := row.Scan(&c.ID, &c.AssistantID, &c.Title, &c.CreatedAt)
	return c, err
}

func (s *Store) CreateConversation(ctx context.Context, c *store.Conversation) (*store.Conversation, error) {
	created, err := scanConversation(s.pool.QueryRow(ctx,
		`INSERT INTO conversations (id, assistant_id, title)
		 VALUES ($1, $2, $3)
		 RETURNING id, assistant_id, title, created_at`,
		newID(c.ID), c.AssistantID, c.Title))
	if err != nil {
		return nil, wrap(err, store.ErrInvalid, "create conversation")
	}
	return &created, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*store.Conversation, error) {
	c, err := scanConversation(s.pool.QueryRow(ctx,
		`SELECT id, assistant_id, title, created_at FROM conversations WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(err, store.ErrInvalid, "get conversation %s", id)
	}
	return &c, nil
}

func (s *Store) ListConversations(ctx context.Context, assistantID string) ([]store.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, assistant_id, title, created_at
		 FROM conversations WHERE assistant_id = $1 ORDER BY created_at DESC`, assistantID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	result := []store.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete conversation %s", id)
}

// --- Messages ---

func scanMessage(row scannable) (store.Message, error) {
	var m store.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt)
	return m, err
}

func (s *Store) CreateMessage(ctx context.Context, m *store.Message) (*store.Message, error) {
	created, err := scanMessage(s.pool.QueryRow(ctx,
		`INSERT INTO messages (id, conversation_id, role, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, conversation_id, role, content, created_at`,
		newID(m.ID), m.ConversationID, string(m.Role), m.Content))
	if err != nil {
		return nil, wrap(err, store.ErrInvalid, "create message")
	}
	return &created, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]store.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC, id ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	result := []store.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
