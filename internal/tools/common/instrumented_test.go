package common

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/crm/api"
	"github.com/teemow/inboxcrm/internal/instrumentation"
	"github.com/teemow/inboxcrm/internal/server"
)

type nopDoer struct{}

func (nopDoer) Do(context.Context, string, string, any, any) error { return nil }

func newServerContext(t *testing.T, metrics *instrumentation.Metrics) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Client:  crm.NewClient(nopDoer{}, nil),
		Metrics: metrics,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestInstrumentedToolHandler(t *testing.T) {
	tests := []struct {
		name      string
		handler   ToolHandler
		wantErr   bool
		wantIsErr bool
	}{
		{
			name: "success",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText("ok"), nil
			},
		},
		{
			name: "error result",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultError("nope"), nil
			},
			wantIsErr: true,
		},
		{
			name: "go error",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, errors.New("boom")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := InstrumentedToolHandler("crm_search", true, newServerContext(t, nil), tt.handler)
			result, err := wrapped(context.Background(), mcp.CallToolRequest{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIsErr, result.IsError)
		})
	}
}

func TestInstrumentedToolHandler_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	metrics, err := instrumentation.NewMetrics(meter)
	require.NoError(t, err)

	sc := newServerContext(t, metrics)
	ok := InstrumentedToolHandler("crm_search", true, sc, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})
	failing := InstrumentedToolHandler("crm_log_email", false, sc, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("nope"), nil
	})

	_, _ = ok(context.Background(), mcp.CallToolRequest{})
	_, _ = ok(context.Background(), mcp.CallToolRequest{})
	_, _ = failing(context.Background(), mcp.CallToolRequest{})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_invocations_total" {
				continue
			}
			sum, isSum := m.Data.(metricdata.Sum[int64])
			require.True(t, isSum)
			for _, dp := range sum.DataPoints {
				tool, _ := dp.Attributes.Value("tool")
				status, _ := dp.Attributes.Value("status")
				counts[tool.AsString()+"/"+status.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), counts["crm_search/success"])
	assert.Equal(t, int64(1), counts["crm_log_email/error"])
}

func TestErrorResult(t *testing.T) {
	res := ErrorResult("search", api.ErrNotAuthenticated)
	assert.True(t, res.IsError)
	assert.Equal(t, ReauthMessage, textOf(t, res))

	res = ErrorResult("search", &api.AuthExpiredError{Err: errors.New("401")})
	assert.Equal(t, ReauthMessage, textOf(t, res))

	res = ErrorResult("search", errors.New("bad query"))
	assert.Equal(t, "Failed to search: bad query", textOf(t, res))
}

func TestJSONResult(t *testing.T) {
	res, err := JSONResult(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, textOf(t, res))
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}
