// Package gemini adapts the Gemini chat API to provider.Provider.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/ai-gateway/chatstream-go/internal/provider"
)

// Config holds the client settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Provider streams replies from a Gemini model.
type Provider struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{client: client, model: cfg.Model}, nil
}

func (p *Provider) Model() string { return p.model }

func (p *Provider) Stream(ctx context.Context, turn provider.Turn) (<-chan provider.Chunk, error) {
	chat, err := p.client.Chats.Create(ctx, p.model, generationConfig(turn), History(turn.History))
	if err != nil {
		return nil, fmt.Errorf("start gemini chat: %w", err)
	}

	ch := make(chan provider.Chunk)
	go func() {
		defer close(ch)
		for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: turn.Current}) {
			if err != nil {
				provider.Send(ctx, ch, provider.Chunk{Err: fmt.Errorf("gemini stream: %w", err)})
				return
			}
			if resp == nil {
				continue
			}
			if !provider.Send(ctx, ch, provider.Chunk{Text: resp.Text()}) {
				return
			}
		}
	}()
	return ch, nil
}

func generationConfig(turn provider.Turn) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if turn.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(turn.System, genai.RoleUser)
	}
	return cfg
}

// Role maps an application role onto the Gemini chat role.
func Role(r provider.Role) genai.Role {
	if r == provider.RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}

// History converts prior messages into Gemini chat contents.
func History(msgs []provider.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, genai.NewContentFromText(m.Content, Role(m.Role)))
	}
	return out
}
