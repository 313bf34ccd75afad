package sse

import (
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Writer emits frames onto an open response, flushing after each one.
// Once a terminal event has been sent the stream is closed for writes.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	f      http.Flusher
	closed bool
}

func NewWriter(w io.Writer) *Writer {
	f, _ := w.(http.Flusher)
	return &Writer{w: w, f: f}
}

// Send writes one frame.
func (w *Writer) Send(e Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if e.Terminal() {
		w.closed = true
	}
	frame, err := Encode(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(frame); err != nil {
		return fmt.Errorf("write %s frame: %w", e.Type, err)
	}
	if w.f != nil {
		w.f.Flush()
	}
	return nil
}

// Closed reports whether a terminal event has been sent.
func (w *Writer) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
