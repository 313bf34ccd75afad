// Package langchain adapts langchaingo models (OpenAI, Anthropic, Ollama)
// to provider.Provider.
package langchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ai-gateway/chatstream-go/internal/provider"
)

// Supported backends.
const (
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
	BackendOllama    = "ollama"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Model   string
	APIKey  string
	BaseURL string
}

// Provider streams replies from a langchaingo model.
type Provider struct {
	llm       llms.Model
	modelName string
}

// New builds the backend named by cfg.Backend.
func New(cfg Config) (*Provider, error) {
	var model llms.Model
	var err error

	switch cfg.Backend {
	case BackendOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case BackendAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case BackendOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err = ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM backend: %s", cfg.Backend)
	}

	return Wrap(model, cfg.Model), nil
}

// Wrap adapts an already constructed model.
func Wrap(model llms.Model, name string) *Provider {
	return &Provider{llm: model, modelName: name}
}

func (p *Provider) Model() string { return p.modelName }

func (p *Provider) Stream(ctx context.Context, turn provider.Turn) (<-chan provider.Chunk, error) {
	messages := Messages(turn)
	ch := make(chan provider.Chunk)

	go func() {
		defer close(ch)
		streamed := false
		resp, err := p.llm.GenerateContent(ctx, messages,
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				streamed = true
				if !provider.Send(ctx, ch, provider.Chunk{Text: string(chunk)}) {
					return ctx.Err()
				}
				return nil
			}),
		)
		if err != nil {
			if ctx.Err() == nil {
				provider.Send(ctx, ch, provider.Chunk{Err: fmt.Errorf("generate: %w", err)})
			}
			return
		}
		// Backends that ignore the streaming callback still return the full reply.
		if !streamed && resp != nil && len(resp.Choices) > 0 {
			provider.Send(ctx, ch, provider.Chunk{Text: resp.Choices[0].Content})
		}
	}()
	return ch, nil
}

// Messages converts a turn into langchaingo message contents: the system
// instruction, the history, then the current user input.
func Messages(turn provider.Turn) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(turn.History)+2)
	if turn.System != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, turn.System))
	}
	for _, m := range turn.History {
		out = append(out, llms.TextParts(messageType(m.Role), m.Content))
	}
	out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, turn.Current))
	return out
}

func messageType(r provider.Role) llms.ChatMessageType {
	if r == provider.RoleAssistant {
		return llms.ChatMessageTypeAI
	}
	return llms.ChatMessageTypeHuman
}
