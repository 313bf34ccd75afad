package provider

import (
	"context"
	"strings"
)

// Role tags the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Request bounds.
const (
	MaxMessages      = 50
	MaxContentLength = 25000
)

// Message represents a chat message.
type Message struct {
	Role    Role   `json:"role" binding:"required,oneof=system user assistant"`
	Content string `json:"content" binding:"required,min=1,max=25000"`
}

// ChatRequest is the body of a streaming chat call. Order is conversation
// order.
type ChatRequest struct {
	Messages []Message `json:"messages" binding:"required,min=1,max=50,dive"`
}

// Chunk is one fragment of a streamed reply. A chunk carrying Err is the
// last one on its channel.
type Chunk struct {
	Text string
	Err  error
}

// Provider handles LLM operations.
type Provider interface {
	// Model is the model identifier in use, known before streaming starts.
	Model() string
	// Stream starts generation for turn. The returned channel is closed by
	// the provider once the reply is complete, after a failure chunk, or when
	// ctx is cancelled.
	Stream(ctx context.Context, turn Turn) (<-chan Chunk, error)
}

// Collect drains ch and returns the concatenated text.
func Collect(ch <-chan Chunk) (string, error) {
	var b strings.Builder
	for c := range ch {
		if c.Err != nil {
			return b.String(), c.Err
		}
		b.WriteString(c.Text)
	}
	return b.String(), nil
}

// Send delivers c on ch unless ctx is done first.
func Send(ctx context.Context, ch chan<- Chunk, c Chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
