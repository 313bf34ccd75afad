package echo

import (
	"context"
	"strings"

	"github.com/ai-gateway/chatstream-go/internal/provider"
)

const model = "echo"

// Provider responds by echoing the current turn, one word per fragment.
type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) Model() string { return model }

func (p *Provider) Stream(ctx context.Context, turn provider.Turn) (<-chan provider.Chunk, error) {
	ch := make(chan provider.Chunk)
	go func() {
		defer close(ch)
		for _, frag := range fragments("Echo: " + turn.Current) {
			if !provider.Send(ctx, ch, provider.Chunk{Text: frag}) {
				return
			}
		}
	}()
	return ch, nil
}

// fragments splits s after each space so the pieces concatenate back to s.
func fragments(s string) []string {
	var out []string
	for s != "" {
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:i+1])
		s = s[i+1:]
	}
	return out
}
