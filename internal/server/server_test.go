package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-gateway/chatstream-go/internal/config"
	"github.com/ai-gateway/chatstream-go/internal/metrics"
	"github.com/ai-gateway/chatstream-go/internal/provider"
	"github.com/ai-gateway/chatstream-go/internal/provider/providertest"
	"github.com/ai-gateway/chatstream-go/internal/routing"
	"github.com/ai-gateway/chatstream-go/internal/sse"
	"github.com/ai-gateway/chatstream-go/internal/store/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		MaxBodyBytes: 8 << 20,
		Provider:     config.Provider{Name: "scripted", APIKey: "test-key"},
	}
}

func newTestServer(t *testing.T, p provider.Provider, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	rt := routing.New()
	if p != nil {
		rt.Register("scripted", p)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, rt, memory.New(), logger)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postChat(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, s, http.MethodPost, "/api/chat/stream", body)
}

func decodeStream(t *testing.T, rec *httptest.ResponseRecorder) []sse.Event {
	t.Helper()
	events, rest, err := sse.Decode(rec.Body.Bytes())
	require.NoError(t, err)
	require.Empty(t, rest, "response ended mid-frame")
	assertWellFormed(t, events)
	return events
}

// assertWellFormed checks: optional meta first, tokens, then exactly one
// terminal event in last position.
func assertWellFormed(t *testing.T, events []sse.Event) {
	t.Helper()
	require.NotEmpty(t, events)
	for i, e := range events {
		switch {
		case e.Type == sse.EventMeta:
			assert.Equal(t, 0, i, "meta must be first")
		case e.Terminal():
			assert.Equal(t, len(events)-1, i, "terminal event must be last")
		case e.Type == sse.EventToken:
			assert.NotEmpty(t, e.Token, "empty token frame")
		}
	}
	assert.True(t, events[len(events)-1].Terminal(), "missing terminal event")
}

const hiBody = `{"messages":[{"role":"user","content":"hi"}]}`

func TestStreamHappyPath(t *testing.T) {
	p := &providertest.Script{ModelID: "gemini-test", Fragments: []string{"Hel", "lo"}}
	s := newTestServer(t, p, nil)

	rec := postChat(t, s, hiBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, no-transform", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))

	events := decodeStream(t, rec)
	assert.Equal(t, []sse.Event{
		sse.Meta("gemini-test"),
		sse.Token("Hel"),
		sse.Token("lo"),
		sse.Done(),
	}, events)

	turns := p.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "hi", turns[0].Current)
}

func TestStreamSystemInstructionIsSeparate(t *testing.T) {
	p := &providertest.Script{ModelID: "m", Fragments: []string{"ok"}}
	s := newTestServer(t, p, nil)

	rec := postChat(t, s, `{"messages":[{"role":"system","content":"be brief"},{"role":"user","content":"question"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	turns := p.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "be brief", turns[0].System)
	assert.Empty(t, turns[0].History)
	assert.Equal(t, "question", turns[0].Current)
}

func TestStreamProviderFailsMidStream(t *testing.T) {
	p := &providertest.Script{
		ModelID:   "m",
		Fragments: []string{"Hel", "lo"},
		Err:       errors.New("quota exceeded"),
		FailAfter: 1,
	}
	s := newTestServer(t, p, nil)

	events := decodeStream(t, postChat(t, s, hiBody))
	assert.Equal(t, []sse.Event{
		sse.Meta("m"),
		sse.Token("Hel"),
		sse.Error("quota exceeded"),
	}, events)

	usage := s.usage.Snapshot()
	assert.Equal(t, metrics.Snapshot{StreamsOpened: 1, StreamsFailed: 1, Fragments: 1, Characters: 3}, usage)
}

func TestStreamStartFailure(t *testing.T) {
	p := &providertest.Script{ModelID: "m", StartErr: errors.New("dial tcp: connection refused")}
	events := decodeStream(t, postChat(t, newTestServer(t, p, nil), hiBody))
	assert.Equal(t, []sse.Event{sse.Meta("m"), sse.Error("dial tcp: connection refused")}, events)
}

func TestStreamPanicBecomesErrorFrame(t *testing.T) {
	p := &providertest.Script{ModelID: "m", Panic: "boom"}
	rec := postChat(t, newTestServer(t, p, nil), hiBody)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decodeStream(t, rec)
	assert.Equal(t, sse.Error("provider panic: boom"), events[len(events)-1])
}

func TestStreamEmptyErrorMessageFallback(t *testing.T) {
	p := &providertest.Script{Err: errors.New("")}
	events := decodeStream(t, postChat(t, newTestServer(t, p, nil), hiBody))
	assert.Equal(t, []sse.Event{sse.Error("stream failed")}, events, "no meta without a model id")
}

func TestStreamSuppressesEmptyFragments(t *testing.T) {
	p := &providertest.Script{ModelID: "m", Fragments: []string{"", "a", "", "b", ""}}
	events := decodeStream(t, postChat(t, newTestServer(t, p, nil), hiBody))
	assert.Equal(t, []sse.Event{sse.Meta("m"), sse.Token("a"), sse.Token("b"), sse.Done()}, events)
}

func TestStreamReconstructsArbitraryFragmentation(t *testing.T) {
	reply := "Grüße, 世界! Streaming works."
	var frags []string
	for i := 0; i < len(reply); i += 3 {
		end := min(i+3, len(reply))
		frags = append(frags, reply[i:end])
	}
	p := &providertest.Script{ModelID: "m", Fragments: frags}
	events := decodeStream(t, postChat(t, newTestServer(t, p, nil), hiBody))
	assert.Equal(t, reply, tokens(events))
}

func messagesBody(n int, content string) string {
	msgs := make([]provider.Message, n)
	for i := range msgs {
		msgs[i] = provider.Message{Role: provider.RoleUser, Content: content}
	}
	b, _ := json.Marshal(provider.ChatRequest{Messages: msgs})
	return string(b)
}

func TestStreamRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero messages", `{"messages":[]}`},
		{"fifty one messages", messagesBody(51, "x")},
		{"oversized content", messagesBody(1, strings.Repeat("x", 25001))},
		{"unknown role", `{"messages":[{"role":"tool","content":"x"}]}`},
		{"no user message", `{"messages":[{"role":"assistant","content":"x"}]}`},
		{"malformed json", `{"messages":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &providertest.Script{ModelID: "m", Fragments: []string{"x"}}
			s := newTestServer(t, p, nil)

			rec := postChat(t, s, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEqual(t, "text/event-stream", rec.Header().Get("Content-Type"))

			var body struct {
				Error   string           `json:"error"`
				Details []map[string]any `json:"details"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "invalid request", body.Error)
			assert.NotEmpty(t, body.Details)
			assert.Empty(t, p.Turns(), "provider must not be called")
			assert.Zero(t, s.usage.Snapshot().StreamsOpened)
		})
	}
}

func TestStreamAcceptsBoundarySizes(t *testing.T) {
	p := &providertest.Script{ModelID: "m", Fragments: []string{"ok"}}
	s := newTestServer(t, p, nil)

	rec := postChat(t, s, messagesBody(50, strings.Repeat("ü", 25000)))
	require.Equal(t, http.StatusOK, rec.Code)
	decodeStream(t, rec)
}

func TestStreamRequiresConfiguration(t *testing.T) {
	t.Run("missing credential", func(t *testing.T) {
		cfg := testConfig()
		cfg.Provider.APIKey = ""
		cfg.Provider.Name = "gemini"
		p := &providertest.Script{ModelID: "m"}
		rec := postChat(t, newTestServer(t, p, cfg), hiBody)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"server misconfigured"}`, rec.Body.String())
	})

	t.Run("unregistered provider", func(t *testing.T) {
		rec := postChat(t, newTestServer(t, nil, nil), `{"messages":[]}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, "configuration is checked before the body")
	})
}

func TestModelsAndUsage(t *testing.T) {
	p := &providertest.Script{ModelID: "m-1", Fragments: []string{"a"}}
	s := newTestServer(t, p, nil)

	rec := do(t, s, http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"models":[{"provider":"scripted","model":"m-1"}]}`, rec.Body.String())

	postChat(t, s, hiBody)
	rec = do(t, s, http.MethodGet, "/api/usage", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.StreamsCompleted)
	assert.Equal(t, int64(1), snap.Fragments)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = do(t, s, http.MethodGet, "/healthz", "")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func tokens(events []sse.Event) string {
	var b strings.Builder
	for _, e := range events {
		b.WriteString(e.Token)
	}
	return b.String()
}

func TestStreamJoinsSplitCharacters(t *testing.T) {
	tests := []struct {
		name  string
		frags []string
		want  string
	}{
		{"two byte rune", []string{"h\xc3", "\xa9llo"}, "héllo"},
		{"four byte rune one byte at a time", []string{"a", "\xf0", "\x9f", "\x98", "\x80", "b"}, "a😀b"},
		{"split at end of fragment and start of next", []string{"世\xe7", "\x95\x8c!"}, "世界!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &providertest.Script{ModelID: "m", Fragments: tt.frags}
			events := decodeStream(t, postChat(t, newTestServer(t, p, nil), hiBody))
			assert.Equal(t, tt.want, tokens(events))
			assert.Equal(t, sse.Done(), events[len(events)-1])
		})
	}
}

func TestStreamFlushesHeldBytesBeforeError(t *testing.T) {
	p := &providertest.Script{
		ModelID:   "m",
		Fragments: []string{"ok\xc3"},
		Err:       errors.New("quota exceeded"),
		FailAfter: 1,
	}
	events := decodeStream(t, postChat(t, newTestServer(t, p, nil), hiBody))
	require.Len(t, events, 4)
	assert.Equal(t, sse.Token("ok"), events[1])
	assert.Equal(t, sse.EventToken, events[2].Type)
	assert.Equal(t, sse.Error("quota exceeded"), events[3])
}

func TestSplitIncomplete(t *testing.T) {
	tests := []struct {
		in, complete, rest string
	}{
		{"", "", ""},
		{"abc", "abc", ""},
		{"h\xc3", "h", "\xc3"},
		{"\xe4\xb8", "", "\xe4\xb8"},
		{"x\xf0\x9f\x98", "x", "\xf0\x9f\x98"},
		{"é", "é", ""},
		{"bad\xff", "bad\xff", ""},
	}
	for _, tt := range tests {
		complete, rest := splitIncomplete([]byte(tt.in))
		assert.Equal(t, tt.complete, string(complete), "%q", tt.in)
		assert.Equal(t, tt.rest, string(rest), "%q", tt.in)
	}
}
