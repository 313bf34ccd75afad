package metrics

import (
	"context"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "chatstream"

// Usage counts streamed turns and fragments. Counters are mirrored into
// OpenTelemetry instruments of the global meter provider.
type Usage struct {
	mu        sync.Mutex
	opened    int64
	completed int64
	failed    int64
	fragments int64
	chars     int64

	streams  metric.Int64Counter
	tokens   metric.Int64Counter
	failures metric.Int64Counter
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	StreamsOpened    int64 `json:"streams_opened"`
	StreamsCompleted int64 `json:"streams_completed"`
	StreamsFailed    int64 `json:"streams_failed"`
	Fragments        int64 `json:"fragments"`
	Characters       int64 `json:"characters"`
}

func New() *Usage {
	m := otel.Meter(meterName)
	u := &Usage{}
	// instrument creation only fails on invalid names; the noop fallback keeps counting local
	u.streams, _ = m.Int64Counter("chatstream.streams", metric.WithDescription("Streams opened"))
	u.tokens, _ = m.Int64Counter("chatstream.fragments", metric.WithDescription("Token fragments sent"))
	u.failures, _ = m.Int64Counter("chatstream.failures", metric.WithDescription("Streams ended with an error frame"))
	return u
}

func (u *Usage) StreamOpened(ctx context.Context) {
	u.mu.Lock()
	u.opened++
	u.mu.Unlock()
	if u.streams != nil {
		u.streams.Add(ctx, 1)
	}
}

// StreamClosed records the terminal outcome of a stream.
func (u *Usage) StreamClosed(ctx context.Context, err error) {
	u.mu.Lock()
	if err != nil {
		u.failed++
	} else {
		u.completed++
	}
	u.mu.Unlock()
	if err != nil && u.failures != nil {
		u.failures.Add(ctx, 1)
	}
}

func (u *Usage) AddFragment(ctx context.Context, text string) {
	u.mu.Lock()
	u.fragments++
	u.chars += int64(utf8.RuneCountInString(text))
	u.mu.Unlock()
	if u.tokens != nil {
		u.tokens.Add(ctx, 1)
	}
}

func (u *Usage) Snapshot() Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Snapshot{
		StreamsOpened:    u.opened,
		StreamsCompleted: u.completed,
		StreamsFailed:    u.failed,
		Fragments:        u.fragments,
		Characters:       u.chars,
	}
}
