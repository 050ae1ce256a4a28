package crm_tools

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/server"
)

type call struct {
	Method   string
	Endpoint string
	Body     any
}

type route struct {
	method   string
	prefix   string
	response string
	err      error
}

// fakeCRM answers executor calls from routes matched on method and
// endpoint prefix.
type fakeCRM struct {
	mu     sync.Mutex
	calls  []call
	routes []route
}

func (f *fakeCRM) on(method, prefix, response string) *fakeCRM {
	f.routes = append(f.routes, route{method: method, prefix: prefix, response: response})
	return f
}

func (f *fakeCRM) fail(method, prefix string, err error) *fakeCRM {
	f.routes = append(f.routes, route{method: method, prefix: prefix, err: err})
	return f
}

func (f *fakeCRM) Do(_ context.Context, method, endpoint string, body any, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: method, Endpoint: endpoint, Body: body})
	f.mu.Unlock()

	for _, r := range f.routes {
		if r.method != method || !strings.HasPrefix(endpoint, r.prefix) {
			continue
		}
		if r.err != nil {
			return r.err
		}
		if out == nil || r.response == "" {
			return nil
		}
		return json.Unmarshal([]byte(r.response), out)
	}
	return nil
}

func (f *fakeCRM) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func newTestContext(t *testing.T, doer crm.Doer) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Client: crm.NewClient(doer, nil),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

// newTestClient starts an in-process MCP client against a server with the
// CRM tools registered.
func newTestClient(t *testing.T, sc *server.ServerContext, readOnly bool) *client.Client {
	t.Helper()
	s := mcpserver.NewMCPServer("test-server", "1.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterCRMTools(s, sc, readOnly))

	c, err := client.NewInProcessClient(s)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "test-client", Version: "1.0.0"}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)
	return c
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}
