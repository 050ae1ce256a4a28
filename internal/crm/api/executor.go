package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/inboxcrm/internal/crm/auth"
	"github.com/teemow/inboxcrm/internal/crm/session"
	"github.com/teemow/inboxcrm/internal/instrumentation"
	"github.com/teemow/inboxcrm/internal/logging"
)

const (
	// DefaultAPIVersion is the data API version used for relative endpoints.
	DefaultAPIVersion = "v59.0"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 32 << 20
)

// Refresher renews the persisted session.
type Refresher interface {
	Refresh(ctx context.Context) (*session.Session, error)
}

// Options configures an Executor. Zero values select defaults.
type Options struct {
	APIVersion     string
	ValidityWindow time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
	Metrics        *instrumentation.Metrics
}

// Executor performs authenticated data API calls.
type Executor struct {
	store     session.Store
	refresher Refresher
	version   string
	window    time.Duration
	client    *http.Client
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
	now       func() time.Time

	mu     sync.Mutex
	cached *session.Session
}

// NewExecutor creates an Executor reading credentials from store.
// refresher may be nil, in which case expired sessions are terminal.
func NewExecutor(store session.Store, refresher Refresher, opts Options) *Executor {
	e := &Executor{
		store:     store,
		refresher: refresher,
		version:   opts.APIVersion,
		window:    opts.ValidityWindow,
		client:    opts.HTTPClient,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		now:       time.Now,
	}
	if e.version == "" {
		e.version = DefaultAPIVersion
	}
	if e.window <= 0 {
		e.window = session.DefaultValidityWindow
	}
	if e.client == nil {
		e.client = http.DefaultClient
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "crm_api")
	return e
}

// APIVersion returns the data API version used for relative endpoints.
func (e *Executor) APIVersion() string {
	return e.version
}

// Session returns a copy of the credentials the next call would use, or nil.
func (e *Executor) Session() *session.Session {
	return e.credentials().Clone()
}

// Reset drops the in-memory session so the next call reads the store again.
func (e *Executor) Reset() {
	e.mu.Lock()
	e.cached = nil
	e.mu.Unlock()
}

// Call performs a request and returns the decoded record. A 204 or empty
// response yields an empty record.
func (e *Executor) Call(ctx context.Context, method, endpoint string, body any) (Record, error) {
	var r Record
	if err := e.Do(ctx, method, endpoint, body, &r); err != nil {
		return nil, err
	}
	if r == nil {
		r = Record{}
	}
	return r, nil
}

// Do performs a request and decodes a JSON response into out, which may be
// nil to discard it. body, when non-nil, is sent as JSON.
//
// endpoint may be an absolute URL, a path starting with /services/, or a path
// relative to /services/data/{version}/.
func (e *Executor) Do(ctx context.Context, method, endpoint string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	s := e.credentials()
	if !s.HasCredentials() {
		return ErrNotAuthenticated
	}

	// An expired session is renewed up front; that renewal is the call's one
	// refresh cycle.
	refreshed := false
	if session.IsExpired(s, e.now(), e.window) {
		e.logger.Debug("Session expired, refreshing before request", logging.Method(method), logging.Endpoint(endpoint))
		var err error
		if s, err = e.renew(ctx); err != nil {
			return err
		}
		refreshed = true
	}

	status, respBody, err := e.attempt(ctx, s, method, endpoint, payload, 1)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		if refreshed {
			return e.expire(fmt.Errorf("renewed session rejected with status %d", status), true)
		}
		if s, err = e.renew(ctx); err != nil {
			return err
		}
		status, respBody, err = e.attempt(ctx, s, method, endpoint, payload, 2)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return e.expire(fmt.Errorf("renewed session rejected with status %d", status), true)
		}
	}

	if status < 200 || status > 299 {
		return newError(method, endpoint, status, respBody)
	}
	if status == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response from %s %s: %w", method, logging.StripQuery(endpoint), err)
	}
	return nil
}

// credentials returns the cached session, reading through to the store once.
func (e *Executor) credentials() *session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cached == nil {
		e.cached = e.store.Load()
	}
	return e.cached.Clone()
}

// renew runs one refresh and writes the result through to the cache.
func (e *Executor) renew(ctx context.Context) (*session.Session, error) {
	if e.refresher == nil {
		return nil, e.expire(auth.ErrNoRefreshToken, true)
	}

	s, err := e.refresher.Refresh(ctx)
	if err != nil {
		// A transport failure leaves the refresh token in place for a later try.
		clearStore := errors.Is(err, auth.ErrNoRefreshToken)
		return nil, e.expire(err, clearStore)
	}
	if !s.HasCredentials() {
		return nil, e.expire(errors.New("refresh returned no credentials"), true)
	}

	e.mu.Lock()
	e.cached = s.Clone()
	e.mu.Unlock()
	return s, nil
}

// expire drops the cache and, when clearStore is set, the persisted session.
func (e *Executor) expire(cause error, clearStore bool) error {
	e.Reset()
	if clearStore {
		if err := e.store.Clear(); err != nil {
			e.logger.Warn("Failed to clear expired session", logging.Err(err))
		}
	}
	e.logger.Warn("Authentication expired", logging.Err(cause))
	return &AuthExpiredError{Err: cause}
}

// attempt sends a single request.
func (e *Executor) attempt(ctx context.Context, s *session.Session, method, endpoint string, payload []byte, n int) (int, []byte, error) {
	target := e.resolve(s, endpoint)
	requestID := uuid.NewString()

	ctx, span := instrumentation.StartAPISpan(ctx, method, logging.StripQuery(endpoint), n)
	defer span.End()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		// url.Error repeats the full URL, query included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		e.metrics.RecordAPICall(ctx, method, 0, duration)
		instrumentation.SetSpanError(span, err)
		e.logger.Warn("CRM API request failed",
			logging.Method(method), logging.Endpoint(endpoint), logging.RequestID(requestID),
			slog.Int("attempt", n), logging.Err(err))
		return 0, nil, fmt.Errorf("%s %s: %w", method, logging.StripQuery(endpoint), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	e.metrics.RecordAPICall(ctx, method, resp.StatusCode, duration)
	instrumentation.SetSpanStatusCode(span, resp.StatusCode)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return 0, nil, fmt.Errorf("failed to read response from %s %s: %w", method, logging.StripQuery(endpoint), err)
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 400 {
		level = slog.LevelInfo
		instrumentation.SetSpanError(span, fmt.Errorf("status %d", resp.StatusCode))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	e.logger.Log(ctx, level, "CRM API call",
		logging.Method(method),
		logging.Endpoint(endpoint),
		logging.RequestID(requestID),
		slog.Int("attempt", n),
		slog.Int("http_status", resp.StatusCode),
		slog.Duration(logging.KeyDuration, duration))

	return resp.StatusCode, body, nil
}

// resolve turns endpoint into an absolute URL on the session's instance.
func (e *Executor) resolve(s *session.Session, endpoint string) string {
	if strings.HasPrefix(endpoint, "https://") || strings.HasPrefix(endpoint, "http://") {
		return endpoint
	}
	base := strings.TrimRight(s.InstanceURL, "/")
	if strings.HasPrefix(endpoint, "/services/") {
		return base + endpoint
	}
	return base + "/services/data/" + e.version + "/" + strings.TrimLeft(endpoint, "/")
}
