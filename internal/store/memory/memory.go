// Package memory is an in-process store.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ai-gateway/chatstream-go/internal/store"
)

// Store keeps everything in maps guarded by one mutex.
type Store struct {
	mu            sync.RWMutex
	now           func() time.Time
	assistants    map[string]store.Assistant
	conversations map[string]store.Conversation
	messages      map[string][]store.Message
	messageIDs    map[string]struct{}
}

func New() *Store {
	return &Store{
		now:           time.Now,
		assistants:    make(map[string]store.Assistant),
		conversations: make(map[string]store.Conversation),
		messages:      make(map[string][]store.Message),
		messageIDs:    make(map[string]struct{}),
	}
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *Store) CreateAssistant(_ context.Context, a *store.Assistant) (*store.Assistant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := *a
	created.ID = newID(a.ID)
	if _, ok := s.assistants[created.ID]; ok {
		return nil, fmt.Errorf("create assistant %s: %w", created.ID, store.ErrConflict)
	}
	created.CreatedAt = s.now().UTC()
	s.assistants[created.ID] = created
	return &created, nil
}

func (s *Store) GetAssistant(_ context.Context, id string) (*store.Assistant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assistants[id]
	if !ok {
		return nil, fmt.Errorf("get assistant %s: %w", id, store.ErrNotFound)
	}
	return &a, nil
}

func (s *Store) ListAssistants(_ context.Context) ([]store.Assistant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Assistant, 0, len(s.assistants))
	for _, a := range s.assistants {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteAssistant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assistants[id]; !ok {
		return fmt.Errorf("delete assistant %s: %w", id, store.ErrNotFound)
	}
	for _, c := range s.conversations {
		if c.AssistantID == id {
			return fmt.Errorf("delete assistant %s: has conversations: %w", id, store.ErrConflict)
		}
	}
	delete(s.assistants, id)
	return nil
}

func (s *Store) CreateConversation(_ context.Context, c *store.Conversation) (*store.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assistants[c.AssistantID]; !ok {
		return nil, fmt.Errorf("create conversation: assistant %s: %w", c.AssistantID, store.ErrInvalid)
	}
	created := *c
	created.ID = newID(c.ID)
	if _, ok := s.conversations[created.ID]; ok {
		return nil, fmt.Errorf("create conversation %s: %w", created.ID, store.ErrConflict)
	}
	created.CreatedAt = s.now().UTC()
	s.conversations[created.ID] = created
	return &created, nil
}

func (s *Store) GetConversation(_ context.Context, id string) (*store.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("get conversation %s: %w", id, store.ErrNotFound)
	}
	return &c, nil
}

func (s *Store) ListConversations(_ context.Context, assistantID string) ([]store.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Conversation
	for _, c := range s.conversations {
		if c.AssistantID == assistantID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return fmt.Errorf("delete conversation %s: %w", id, store.ErrNotFound)
	}
	if len(s.messages[id]) > 0 {
		return fmt.Errorf("delete conversation %s: has messages: %w", id, store.ErrConflict)
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *Store) CreateMessage(_ context.Context, m *store.Message) (*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[m.ConversationID]; !ok {
		return nil, fmt.Errorf("create message: conversation %s: %w", m.ConversationID, store.ErrInvalid)
	}
	created := *m
	created.ID = newID(m.ID)
	if _, ok := s.messageIDs[created.ID]; ok {
		return nil, fmt.Errorf("create message %s: %w", created.ID, store.ErrConflict)
	}
	created.CreatedAt = s.now().UTC()
	s.messageIDs[created.ID] = struct{}{}
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], created)
	return &created, nil
}

func (s *Store) ListMessages(_ context.Context, conversationID string) ([]store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("list messages %s: %w", conversationID, store.ErrNotFound)
	}
	return append([]store.Message{}, s.messages[conversationID]...), nil
}
