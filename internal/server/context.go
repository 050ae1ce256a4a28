package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/crm/api"
	"github.com/teemow/inboxcrm/internal/crm/auth"
	"github.com/teemow/inboxcrm/internal/instrumentation"
	"github.com/teemow/inboxcrm/internal/mailitem"
)

// Options holds the dependencies of a ServerContext.
type Options struct {
	Client   *crm.Client
	Flow     *auth.Flow
	Executor *api.Executor
	// Google is optional; without it mail items must be passed explicitly.
	Google  *mailitem.GoogleAuth
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	client   *crm.Client
	flow     *auth.Flow
	executor *api.Executor
	google   *mailitem.GoogleAuth
	gmailSvc *gmail.Service
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Client == nil {
		return nil, errors.New("crm client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		client:   opts.Client,
		flow:     opts.Flow,
		executor: opts.Executor,
		google:   opts.Google,
		metrics:  opts.Metrics,
		logger:   logger,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// CRM returns the domain client.
func (sc *ServerContext) CRM() *crm.Client {
	return sc.client
}

// Flow returns the auth flow, or nil when the server runs without one.
func (sc *ServerContext) Flow() *auth.Flow {
	return sc.flow
}

// Executor returns the request executor, or nil.
func (sc *ServerContext) Executor() *api.Executor {
	return sc.executor
}

// Metrics returns the metrics recorder. It may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// AuthState reports the CRM session state.
func (sc *ServerContext) AuthState() auth.State {
	if sc.flow == nil {
		return auth.Unauthenticated
	}
	return sc.flow.State()
}

// GmailConfigured reports whether mail items can be read from Gmail.
func (sc *ServerContext) GmailConfigured() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.google != nil || sc.gmailSvc != nil
}

// GmailService returns the Gmail client, creating and caching it on first use.
func (sc *ServerContext) GmailService() (*gmail.Service, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.gmailSvc != nil {
		return sc.gmailSvc, nil
	}
	if sc.google == nil {
		return nil, errors.New("gmail access is not configured, set google_client_id")
	}

	svc, err := sc.google.Service(sc.ctx)
	if err != nil {
		return nil, err
	}
	sc.gmailSvc = svc
	return svc, nil
}

// SetGmailService sets the Gmail client.
func (sc *ServerContext) SetGmailService(svc *gmail.Service) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailSvc = svc
}

// MailSource returns the source for a Gmail message id.
func (sc *ServerContext) MailSource(messageID string) (mailitem.Source, error) {
	svc, err := sc.GmailService()
	if err != nil {
		return nil, fmt.Errorf("cannot read message %s: %w", messageID, err)
	}
	return mailitem.NewGmailSource(svc, messageID), nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
