package guardrails

import (
	"fmt"
	"strings"

	"github.com/ai-gateway/chatstream-go/internal/provider"
)

// Guardrails performs request checks that binding tags cannot express.
type Guardrails struct {
	banned []string
}

func New(banned []string) *Guardrails {
	g := &Guardrails{}
	for _, w := range banned {
		if w = strings.TrimSpace(w); w != "" {
			g.banned = append(g.banned, strings.ToLower(w))
		}
	}
	return g
}

// CheckRequest returns a *ValidationError if req has no user message or a
// user message contains a banned term.
func (g *Guardrails) CheckRequest(req *provider.ChatRequest) error {
	var details []FieldError
	if _, ok := provider.LastUserIndex(req.Messages); !ok {
		details = append(details, FieldError{
			Field:   "messages",
			Rule:    "user_message",
			Message: "must contain at least one user message",
		})
	}
	for i, m := range req.Messages {
		if m.Role != provider.RoleUser {
			continue
		}
		if err := g.CheckInput(m.Content); err != nil {
			details = append(details, FieldError{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Rule:    "guardrails",
				Message: err.Error(),
			})
		}
	}
	if len(details) > 0 {
		return Invalid(details...)
	}
	return nil
}

// CheckInput returns an error if input contains banned words.
func (g *Guardrails) CheckInput(input string) error {
	lower := strings.ToLower(input)
	for _, w := range g.banned {
		if strings.Contains(lower, w) {
			return fmt.Errorf("input violates guardrails")
		}
	}
	return nil
}
