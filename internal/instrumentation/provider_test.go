package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(metrics, tracing string) Config {
	cfg := DefaultConfig()
	cfg.ServiceVersion = "1.0.0"
	cfg.MetricsExporter = metrics
	cfg.TracingExporter = tracing
	return cfg
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name           string
		config         Config
		wantPrometheus bool
	}{
		{
			name:           "prometheus metrics without tracing",
			config:         testConfig(ExporterPrometheus, ExporterNone),
			wantPrometheus: true,
		},
		{
			name:   "stdout metrics and traces",
			config: testConfig(ExporterStdout, ExporterStdout),
		},
		{
			name:   "no exporters",
			config: testConfig(ExporterNone, ExporterNone),
		},
		{
			name:   "empty exporter names",
			config: testConfig("", ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			provider, err := NewProvider(ctx, tt.config)
			require.NoError(t, err)

			assert.True(t, provider.Enabled())
			assert.NotNil(t, provider.Metrics())
			assert.Equal(t, tt.wantPrometheus, provider.ServesPrometheus())
			assert.NotNil(t, provider.Tracer("test"))

			provider.Metrics().RecordToolInvocation(ctx, "crm_search", StatusSuccess, time.Millisecond)
			assert.NoError(t, provider.Shutdown(ctx))
		})
	}
}

func TestNewProviderRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		errContains string
	}{
		{
			name:        "unknown metrics exporter",
			config:      testConfig("invalid", ExporterNone),
			errContains: "invalid metrics exporter",
		},
		{
			name:        "unknown tracing exporter",
			config:      testConfig(ExporterPrometheus, "invalid"),
			errContains: "invalid tracing exporter",
		},
		{
			name:        "otlp tracing without endpoint",
			config:      testConfig(ExporterNone, ExporterOTLP),
			errContains: "OTLP endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestDisabledProvider(t *testing.T) {
	cfg := testConfig("invalid", "invalid")
	cfg.Enabled = false

	provider, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err, "a disabled provider ignores exporter settings")

	assert.False(t, provider.Enabled())
	assert.Nil(t, provider.Metrics())
	assert.False(t, provider.ServesPrometheus())
	assert.NotNil(t, provider.Tracer("test"))

	// nil recorder must be safe to use
	provider.Metrics().RecordAPICall(context.Background(), "GET", 200, time.Millisecond)
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestProviderNilReceiver(t *testing.T) {
	var provider *Provider

	assert.False(t, provider.Enabled())
	assert.Nil(t, provider.Metrics())
	assert.False(t, provider.ServesPrometheus())
	assert.NotNil(t, provider.Tracer("test"))
	assert.NoError(t, provider.Shutdown(context.Background()))
}
