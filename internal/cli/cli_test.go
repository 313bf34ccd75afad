package cli

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-gateway/chatstream-go/internal/config"
	"github.com/ai-gateway/chatstream-go/internal/provider/echo"
	"github.com/ai-gateway/chatstream-go/internal/routing"
	"github.com/ai-gateway/chatstream-go/internal/server"
)

func echoGateway(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Provider: config.Provider{Name: "echo"}}
	rt := routing.New()
	rt.Register("echo", echo.New())
	ts := httptest.NewServer(server.New(cfg, rt, nil, slog.New(slog.NewTextHandler(io.Discard, nil))).Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAsk(t *testing.T) {
	url := echoGateway(t)
	out, err := execute(t, "", "--url", url, "ask", "hello there")
	require.NoError(t, err)
	assert.Equal(t, "Echo: hello there\n", out)
}

func TestREPL(t *testing.T) {
	url := echoGateway(t)
	out, err := execute(t, "first\n\n/reset\nsecond\n/exit\n", "--url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Echo: first\n")
	assert.Contains(t, out, "conversation cleared")
	assert.Contains(t, out, "Echo: second\n")
}

func TestAskServerDown(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	out, err := execute(t, "", "--url", url, "ask", "hi")
	require.Error(t, err)
	assert.Contains(t, out, "Error: request failed")
}
