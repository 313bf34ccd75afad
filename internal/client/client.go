// Package client consumes the chat stream endpoint and applies its events
// to a Transcript.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ai-gateway/chatstream-go/internal/provider"
	"github.com/ai-gateway/chatstream-go/internal/sse"
)

const (
	streamPath      = "/api/chat/stream"
	defaultReadSize = 4 << 10
	maxErrorBody    = 64 << 10
)

// ErrIncomplete means the response ended without a done or error event.
var ErrIncomplete = errors.New("stream ended before completion")

// StreamError carries an error event sent by the server.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string { return e.Message }

// ResponseError is a non-streamed rejection such as a validation failure.
type ResponseError struct {
	Status  int
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Observer is called after each event has been applied.
type Observer func(sse.Event)

type Client struct {
	endpoint string
	http     *http.Client
	readSize int
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithReadSize sets the size of each body read.
func WithReadSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.readSize = n
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSuffix(baseURL, "/") + streamPath,
		http:     &http.Client{},
		readSize: defaultReadSize,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send streams the assistant reply to the conversation in t. One assistant
// entry is appended before the request goes out and updated in place.
//
// Cancelling ctx aborts the read, keeps whatever content had arrived and
// marks the entry cancelled; the returned error then matches
// context.Canceled. Any other failure replaces the entry content with an
// error indicator.
func (c *Client) Send(ctx context.Context, t *Transcript, observe Observer) error {
	msgs := t.Messages()
	idx := t.begin()

	err := c.stream(ctx, msgs, t, idx, observe)
	switch {
	case err == nil:
		t.finish(idx, StateComplete)
		return nil
	case errors.Is(ctx.Err(), context.Canceled):
		t.finish(idx, StateCancelled)
		return fmt.Errorf("send: %w", context.Canceled)
	default:
		t.fail(idx, err.Error())
		return err
	}
}

func (c *Client) stream(ctx context.Context, msgs []provider.Message, t *Transcript, idx int, observe Observer) error {
	body, err := json.Marshal(provider.ChatRequest{Messages: msgs})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	var dec sse.Decoder
	buf := make([]byte, c.readSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			_, _ = dec.Write(buf[:n])
			done, err := apply(ctx, &dec, t, idx, observe)
			if err != nil || done {
				return err
			}
		}
		if errors.Is(rerr, io.EOF) {
			return ErrIncomplete
		}
		if rerr != nil {
			return fmt.Errorf("read stream: %w", rerr)
		}
	}
}

// apply drains complete records from dec in arrival order. done is true
// once a terminal event has been handled.
func apply(ctx context.Context, dec *sse.Decoder, t *Transcript, idx int, observe Observer) (done bool, err error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		ev, ok, err := dec.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		switch ev.Type {
		case sse.EventMeta:
			t.setModel(ev.Model)
		case sse.EventToken:
			t.appendToken(idx, ev.Token)
		case sse.EventError:
			err = &StreamError{Message: ev.Message}
		}
		if observe != nil {
			observe(ev)
		}
		if err != nil {
			return false, err
		}
		if ev.Type == sse.EventDone {
			return true, nil
		}
	}
}

func responseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(resp.StatusCode)
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &ResponseError{Status: resp.StatusCode, Message: msg}
}
