// Package store defines the persistence boundary for assistants,
// conversations and their messages. The streaming path never calls it.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ai-gateway/chatstream-go/internal/provider"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate id or a delete blocked by dependents.
	ErrConflict = errors.New("conflict")
	// ErrInvalid indicates a reference to a missing parent or a bad field.
	ErrInvalid = errors.New("invalid")
)

type Assistant struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name" binding:"required"`
	SystemPrompt string    `json:"system_prompt" yaml:"system_prompt"`
	DefaultModel string    `json:"default_model" yaml:"default_model"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}

type Conversation struct {
	ID          string    `json:"id"`
	AssistantID string    `json:"assistant_id" binding:"required"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
}

type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Role           provider.Role `json:"role" binding:"required,oneof=system user assistant"`
	Content        string        `json:"content" binding:"required"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Store persists assistants, conversations and messages. Deletes are
// restricted: an assistant with conversations, or a conversation with
// messages, cannot be removed.
type Store interface {
	CreateAssistant(ctx context.Context, a *Assistant) (*Assistant, error)
	GetAssistant(ctx context.Context, id string) (*Assistant, error)
	ListAssistants(ctx context.Context) ([]Assistant, error)
	DeleteAssistant(ctx context.Context, id string) error

	CreateConversation(ctx context.Context, c *Conversation) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, assistantID string) ([]Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	CreateMessage(ctx context.Context, m *Message) (*Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
}
