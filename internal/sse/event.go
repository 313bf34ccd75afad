package sse

import (
	"errors"
	"fmt"
)

// EventType discriminates stream events.
type EventType string

const (
	EventMeta  EventType = "meta"
	EventToken EventType = "token"
	EventError EventType = "error"
	EventDone  EventType = "done"
)

// Event is one record exchanged during a conversation turn.
type Event struct {
	Type    EventType `json:"type"`
	Model   string    `json:"model,omitempty"`
	Token   string    `json:"token,omitempty"`
	Message string    `json:"message,omitempty"`
}

func Meta(model string) Event { return Event{Type: EventMeta, Model: model} }

func Token(text string) Event { return Event{Type: EventToken, Token: text} }

func Error(msg string) Event { return Event{Type: EventError, Message: msg} }

func Done() Event { return Event{Type: EventDone} }

// Terminal reports whether no event may follow e on the same stream.
func (e Event) Terminal() bool {
	return e.Type == EventError || e.Type == EventDone
}

func (t EventType) valid() bool {
	switch t {
	case EventMeta, EventToken, EventError, EventDone:
		return true
	}
	return false
}

// ErrClosed is returned when sending after a terminal event.
var ErrClosed = errors.New("sse: stream already terminated")

// DecodeError reports a record whose payload could not be decoded.
type DecodeError struct {
	Record string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("sse: malformed record %q: %v", truncate(e.Record, 64), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
