package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/server"
)

func TestHTTPHandlerServesHealth(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Client: crm.NewClient(offlineDoer{}, nil),
	})
	require.NoError(t, err)
	defer func() { _ = sc.Shutdown() }()

	ts := httptest.NewServer(newHTTPHandler(mcpserver.NewMCPServer("inboxcrm", "test"), sc, true))
	defer ts.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestRunServeRejectsUnknownTransport(t *testing.T) {
	err := runServe(context.Background(), serveOptions{transport: "sse"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type")
}
