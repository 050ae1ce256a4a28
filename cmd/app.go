package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/teemow/inboxcrm/internal/config"
	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/crm/api"
	"github.com/teemow/inboxcrm/internal/crm/auth"
	"github.com/teemow/inboxcrm/internal/crm/session"
	"github.com/teemow/inboxcrm/internal/instrumentation"
	"github.com/teemow/inboxcrm/internal/logging"
	"github.com/teemow/inboxcrm/internal/mailitem"
)

// app wires the CRM components from configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *session.FileStore
	flow     *auth.Flow
	executor *api.Executor
	client   *crm.Client
}

// loadConfig reads configuration and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.LogFormat = flags.logFormat
	}
	return cfg, nil
}

// newApp loads configuration and builds the CRM stack.
func newApp(metrics *instrumentation.Metrics) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return buildApp(cfg, metrics)
}

// buildApp builds the CRM stack from cfg. Logs go to stderr so stdout stays
// free for command output and the stdio MCP transport. metrics may be nil.
func buildApp(cfg *config.Config, metrics *instrumentation.Metrics) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	cipher, err := cfg.SessionCipher()
	if err != nil {
		return nil, err
	}
	store := session.NewFileStore(cfg.SessionFile, cipher, logger)

	flow, err := auth.NewFlow(cfg.AuthConfig(), store, logger)
	if err != nil {
		return nil, err
	}
	flow.SetMetrics(metrics)

	executor := api.NewExecutor(store, flow, api.Options{
		APIVersion:     cfg.APIVersion,
		ValidityWindow: cfg.ValidityWindow,
		Logger:         logger,
		Metrics:        metrics,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		flow:     flow,
		executor: executor,
		client:   crm.NewClient(executor, logger),
	}, nil
}

// googleAuth returns Gmail access, or nil when no Google client is configured.
func (a *app) googleAuth() (*mailitem.GoogleAuth, error) {
	if a.cfg.GoogleClientID == "" {
		return nil, nil
	}
	return mailitem.NewGoogleAuth(a.cfg.GoogleConfig())
}

// opener returns the loopback opener that prints the sign-in URL to w.
func (a *app) opener(redirectURI string, w io.Writer) auth.Opener {
	return &auth.LoopbackOpener{
		RedirectURI: redirectURI,
		Launch:      auth.PrintLauncher(w),
		Logger:      a.logger,
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
