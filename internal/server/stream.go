package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/ai-gateway/chatstream-go/internal/guardrails"
	"github.com/ai-gateway/chatstream-go/internal/metrics"
	"github.com/ai-gateway/chatstream-go/internal/observability"
	"github.com/ai-gateway/chatstream-go/internal/provider"
	"github.com/ai-gateway/chatstream-go/internal/sse"
)

const fallbackErrorMessage = "stream failed"

// chatStream validates the conversation and streams the reply as frames.
// Configuration and validation failures are answered with plain JSON before
// any stream is opened.
func (s *Server) chatStream(c *gin.Context) {
	log := loggerFrom(c, s.log)

	prov, err := s.provider()
	if err != nil {
		log.Error("chat stream unavailable", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured"})
		return
	}

	if s.cfg.MaxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)
	}
	var req provider.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, guardrails.FromBinding(err))
		return
	}
	if err := s.guards.CheckRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, guardrails.FromBinding(err))
		return
	}

	ctx, span := observability.StartStreamSpan(c.Request.Context(), prov.Model(), len(req.Messages))
	defer span.End()

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	s.usage.StreamOpened(ctx)
	err = relay(ctx, sse.NewWriter(c.Writer), prov, provider.SplitTurn(req.Messages), s.usage)
	s.usage.StreamClosed(ctx, err)
	if err != nil {
		span.RecordError(err)
		log.Warn("stream closed with error", "model", prov.Model(), "error", err)
		return
	}
	log.Debug("stream closed", "model", prov.Model())
}

// relay writes meta, the token frames and exactly one terminal frame. Any
// failure, including a panic while starting the provider, becomes an error
// frame. A fragment ending inside a UTF-8 sequence is held back until the
// sequence completes.
func relay(ctx context.Context, w *sse.Writer, p provider.Provider, turn provider.Turn, usage *metrics.Usage) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var pending []byte
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
		if len(pending) > 0 {
			_ = w.Send(sse.Token(string(pending)))
		}
		if err != nil {
			_ = w.Send(sse.Error(errorMessage(err)))
			return
		}
		err = w.Send(sse.Done())
	}()

	if model := p.Model(); model != "" {
		if err := w.Send(sse.Meta(model)); err != nil {
			return err
		}
	}

	chunks, err := p.Stream(ctx, turn)
	if err != nil {
		return err
	}
	if chunks == nil {
		return errors.New("provider returned no stream")
	}
	for chunk := range chunks {
		if chunk.Err != nil {
			return chunk.Err
		}
		var text []byte
		text, pending = splitIncomplete(append(pending, chunk.Text...))
		if len(text) == 0 {
			continue
		}
		if err := w.Send(sse.Token(string(text))); err != nil {
			pending = nil
			return err
		}
		usage.AddFragment(ctx, string(text))
	}
	return ctx.Err()
}

// splitIncomplete cuts b before a trailing incomplete UTF-8 sequence. rest
// does not alias b.
func splitIncomplete(b []byte) (complete, rest []byte) {
	for i := len(b) - 1; i >= 0 && i > len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			break
		}
		return b[:i], append([]byte(nil), b[i:]...)
	}
	return b, nil
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackErrorMessage
}
