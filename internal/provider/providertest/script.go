// Package providertest provides a scripted provider.Provider for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/ai-gateway/chatstream-go/internal/provider"
)

// Script replays Fragments in order. When Err is set it is delivered after
// FailAfter fragments. When Block is set the stream stays open after the
// fragments until ctx is cancelled.
type Script struct {
	ModelID   string
	Fragments []string
	Err       error
	FailAfter int
	StartErr  error
	Block     bool
	Panic     any

	mu    sync.Mutex
	turns []provider.Turn
}

func (s *Script) Model() string { return s.ModelID }

func (s *Script) Stream(ctx context.Context, turn provider.Turn) (<-chan provider.Chunk, error) {
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()

	if s.Panic != nil {
		panic(s.Panic)
	}
	if s.StartErr != nil {
		return nil, s.StartErr
	}

	ch := make(chan provider.Chunk)
	go func() {
		defer close(ch)
		for i, f := range s.Fragments {
			if s.Err != nil && i == s.FailAfter {
				provider.Send(ctx, ch, provider.Chunk{Err: s.Err})
				return
			}
			if !provider.Send(ctx, ch, provider.Chunk{Text: f}) {
				return
			}
		}
		if s.Err != nil && s.FailAfter >= len(s.Fragments) {
			provider.Send(ctx, ch, provider.Chunk{Err: s.Err})
			return
		}
		if s.Block {
			<-ctx.Done()
		}
	}()
	return ch, nil
}

// Turns returns every turn the script was asked to stream.
func (s *Script) Turns() []provider.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]provider.Turn(nil), s.turns...)
}
