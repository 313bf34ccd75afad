package echo

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/ai-gateway/chatstream-go/internal/provider"
)

func TestEchoStream(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New()
	ch, err := p.Stream(context.Background(), provider.Turn{Current: "hello there  world"})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	var frags []string
	for c := range ch {
		if c.Err != nil {
			t.Fatalf("unexpected error chunk: %v", c.Err)
		}
		frags = append(frags, c.Text)
	}
	if len(frags) < 3 {
		t.Fatalf("expected several fragments, got %q", frags)
	}
	var got string
	for _, f := range frags {
		got += f
	}
	if got != "Echo: hello there  world" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestEchoStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := New().Stream(ctx, provider.Turn{Current: "a b c d e f"})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	<-ch
	cancel()
	for range ch {
	}
}

func TestModel(t *testing.T) {
	if New().Model() != "echo" {
		t.Fatalf("unexpected model %q", New().Model())
	}
}
