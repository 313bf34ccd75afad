package client

import (
	"sync"

	"github.com/ai-gateway/chatstream-go/internal/provider"
)

// State is the lifecycle of a transcript entry.
type State string

const (
	StateComplete  State = "complete"
	StateStreaming State = "streaming"
	StateError     State = "error"
	StateCancelled State = "cancelled"
)

// Entry is one displayed message.
type Entry struct {
	Role    provider.Role
	Content string
	State   State
}

// Transcript is the client-side conversation. Readers may inspect it while a
// Send is applying events.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
	model   string
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a complete message and returns its index.
func (t *Transcript) Append(role provider.Role, content string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{Role: role, Content: content, State: StateComplete})
	return len(t.entries) - 1
}

func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Entry(nil), t.entries...)
}

func (t *Transcript) Entry(i int) Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[i]
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Model is the model id reported by the last stream.
func (t *Transcript) Model() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.model
}

// Messages returns the request payload. Failed and empty entries are left out.
func (t *Transcript) Messages() []provider.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]provider.Message, 0, len(t.entries))
	for _, e := range t.entries {
		if e.State == StateError || e.Content == "" {
			continue
		}
		out = append(out, provider.Message{Role: e.Role, Content: e.Content})
	}
	return out
}

// begin appends the assistant placeholder for a send.
func (t *Transcript) begin() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{Role: provider.RoleAssistant, State: StateStreaming})
	return len(t.entries) - 1
}

func (t *Transcript) setModel(model string) {
	t.mu.Lock()
	t.model = model
	t.mu.Unlock()
}

func (t *Transcript) appendToken(i int, token string) {
	t.mu.Lock()
	t.entries[i].Content += token
	t.mu.Unlock()
}

func (t *Transcript) finish(i int, s State) {
	t.mu.Lock()
	t.entries[i].State = s
	t.mu.Unlock()
}

func (t *Transcript) fail(i int, msg string) {
	t.mu.Lock()
	t.entries[i].Content = "Error: " + msg
	t.entries[i].State = StateError
	t.mu.Unlock()
}
