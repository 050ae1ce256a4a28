package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/teemow/inboxcrm/internal/crm/session"
	"github.com/teemow/inboxcrm/internal/instrumentation"
	"github.com/teemow/inboxcrm/internal/logging"
)

const (
	// DefaultPollInterval is how often an open authorization window is checked.
	DefaultPollInterval = time.Second

	// DefaultTimeout bounds a whole interactive authorization.
	DefaultTimeout = 5 * time.Minute

	// refreshTimeout bounds a shared refresh once it no longer follows the
	// caller's context.
	refreshTimeout = 30 * time.Second

	authorizePath = "/services/oauth2/authorize"
	tokenPath     = "/services/oauth2/token"
)

// Config describes the OAuth client registered with the CRM.
type Config struct {
	// LoginURL is the login service base, e.g. https://login.salesforce.com.
	LoginURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	PollInterval time.Duration
	Timeout      time.Duration
}

// Flow runs authorizations and refreshes, writing sessions to a Store.
type Flow struct {
	cfg      Config
	oauth    *oauth2.Config
	redirect *url.URL
	store    session.Store
	logger   *slog.Logger

	httpClient *http.Client
	metrics    *instrumentation.Metrics
	now        func() time.Time

	refreshGroup singleflight.Group

	mu       sync.Mutex
	awaiting bool
}

// NewFlow creates a Flow. A nil logger uses slog.Default().
func NewFlow(cfg Config, store session.Store, logger *slog.Logger) (*Flow, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client id is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	redirect, err := url.Parse(cfg.RedirectURI)
	if err != nil || redirect.Scheme == "" || redirect.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI %q", cfg.RedirectURI)
	}
	if _, err := url.ParseRequestURI(cfg.LoginURL); err != nil {
		return nil, fmt.Errorf("invalid login URL %q: %w", cfg.LoginURL, err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	base := strings.TrimRight(cfg.LoginURL, "/")
	return &Flow{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + authorizePath,
				TokenURL:  base + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		redirect: redirect,
		store:    store,
		logger:   logger.With("component", "crm_auth"),
		now:      time.Now,
	}, nil
}

// SetHTTPClient sets the client used for token endpoint calls.
func (f *Flow) SetHTTPClient(c *http.Client) {
	f.httpClient = c
}

// SetMetrics sets the recorder for OAuth metrics. nil disables recording.
func (f *Flow) SetMetrics(m *instrumentation.Metrics) {
	f.metrics = m
}

// State reports where the flow is in the authorization state machine.
// Authenticated means the store holds credentials; they may still need a
// refresh before use.
func (f *Flow) State() State {
	f.mu.Lock()
	awaiting := f.awaiting
	f.mu.Unlock()

	if awaiting {
		return AwaitingAuthorization
	}
	if f.store.Load().HasCredentials() {
		return Authenticated
	}
	return Unauthenticated
}

// BeginAuthorization opens an authorization window through opener and waits
// for it to reach the redirect URI. On success the code is exchanged and the
// resulting session is persisted and returned.
func (f *Flow) BeginAuthorization(ctx context.Context, opener Opener) (*session.Session, error) {
	f.mu.Lock()
	if f.awaiting {
		f.mu.Unlock()
		return nil, fmt.Errorf("an authorization is already in progress")
	}
	f.awaiting = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.awaiting = false
		f.mu.Unlock()
	}()

	s, err := f.authorize(ctx, opener)
	f.metrics.RecordOAuthAuth(ctx, authResult(err))
	if err != nil {
		f.logger.Warn("Authorization failed", logging.Operation("authorize"), logging.Err(err))
		return nil, err
	}

	f.logger.Info("Authorization completed", logging.Operation("authorize"), logging.Status(logging.StatusSuccess))
	return s, nil
}

func (f *Flow) authorize(ctx context.Context, opener Opener) (*session.Session, error) {
	verifier, err := generateCodeVerifier()
	if err != nil {
		return nil, err
	}
	state := uuid.NewString()

	authURL := f.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	interaction, err := opener.Open(ctx, authURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open authorization window: %w", err)
	}
	defer func() { _ = interaction.Close() }()

	code, err := WaitForCode(ctx, interaction, f.redirect, state, f.cfg.PollInterval)
	if err != nil {
		return nil, err
	}
	return f.ExchangeCodeForToken(ctx, code, verifier)
}

// parseRedirect extracts the authorization code from the redirect location.
func parseRedirect(loc *url.URL, state string) (string, error) {
	params := loc.Query()
	if len(params) == 0 && loc.Fragment != "" {
		params, _ = url.ParseQuery(loc.Fragment)
	}

	if code := params.Get("error"); code != "" {
		return "", &DeniedError{Code: code, Description: params.Get("error_description")}
	}
	if params.Get("state") != state {
		return "", ErrStateMismatch
	}
	code := params.Get("code")
	if code == "" {
		return "", &DeniedError{Code: "missing_code", Description: "redirect carried no authorization code"}
	}
	return code, nil
}

// ExchangeCodeForToken redeems an authorization code and persists the
// resulting session. verifier is the PKCE code verifier, if one was used.
func (f *Flow) ExchangeCodeForToken(ctx context.Context, code, verifier string) (*session.Session, error) {
	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", verifier))
	}

	tok, err := f.oauth.Exchange(f.oauthContext(ctx), code, opts...)
	if err != nil {
		return nil, exchangeError(err)
	}

	s, err := f.sessionFromToken(tok, nil)
	if err != nil {
		return nil, &TokenExchangeError{Status: http.StatusOK, Err: err}
	}
	if err := f.store.Save(s); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return s.Clone(), nil
}

// Refresh exchanges the persisted refresh token for a new access token.
// Concurrent callers share one in-flight refresh.
//
// When the login service rejects the refresh token the persisted session is
// cleared and the error wraps ErrRefreshExpired. A transport failure or an
// unusable response leaves the session in place, so a later call can retry,
// and returns a plain wrapped error. The executor treats both as terminal for
// the request at hand.
//
// The shared refresh is detached from ctx cancellation so one caller giving
// up does not fail the others; each caller still returns ctx.Err() as soon
// as its own ctx is done.
func (f *Flow) Refresh(ctx context.Context) (*session.Session, error) {
	ch := f.refreshGroup.DoChan("refresh", func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return f.refresh(rctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			f.logger.Debug("Joined in-flight token refresh", logging.Operation("refresh"))
		}
		return res.Val.(*session.Session).Clone(), nil
	}
}

func (f *Flow) refresh(ctx context.Context) (*session.Session, error) {
	current := f.store.Load()
	if current == nil || current.RefreshToken == "" {
		f.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, ErrNoRefreshToken
	}

	src := f.oauth.TokenSource(f.oauthContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			f.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultExpired)
			if clearErr := f.store.Clear(); clearErr != nil {
				f.logger.Warn("Failed to clear rejected session", logging.Err(clearErr))
			}
			f.logger.Warn("Refresh token rejected, session cleared",
				logging.Operation("refresh"),
				slog.Int(logging.KeyStatus, retrieveStatus(re)))
			return nil, fmt.Errorf("%w: %w", ErrRefreshExpired, err)
		}
		f.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	updated, err := f.sessionFromToken(tok, current)
	if err != nil {
		f.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if err := f.store.Save(updated); err != nil {
		f.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("failed to persist refreshed session: %w", err)
	}

	f.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	f.logger.Info("Access token refreshed",
		logging.Operation("refresh"),
		slog.String("access_token", logging.SanitizeToken(updated.AccessToken)))
	return updated, nil
}

// Logout forgets the persisted session.
func (f *Flow) Logout() error {
	if err := f.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	f.logger.Info("Logged out", logging.Operation("logout"))
	return nil
}

// sessionFromToken builds a session from a token response. prev, when set,
// supplies the fields a refresh response may leave out.
func (f *Flow) sessionFromToken(tok *oauth2.Token, prev *session.Session) (*session.Session, error) {
	s := &session.Session{}
	if prev != nil {
		s = prev.Clone()
	}

	s.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		s.RefreshToken = tok.RefreshToken
	}
	if v := extraString(tok, "instance_url"); v != "" {
		s.InstanceURL = v
	}
	if v := extraString(tok, "signature"); v != "" {
		s.Signature = v
	}
	if v := extraString(tok, "issued_at"); v != "" {
		s.IssuedAt = v
	} else {
		s.IssuedAt = session.FormatIssuedAt(f.now())
	}

	if s.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}
	if s.InstanceURL == "" {
		return nil, fmt.Errorf("token response has no instance_url")
	}
	return s, nil
}

func (f *Flow) oauthContext(ctx context.Context) context.Context {
	if f.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	}
	return ctx
}

func extraString(tok *oauth2.Token, key string) string {
	switch v := tok.Extra(key).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return &TokenExchangeError{Status: retrieveStatus(re), Body: string(re.Body), Err: err}
	}
	return &TokenExchangeError{Err: err}
}

func retrieveStatus(re *oauth2.RetrieveError) int {
	if re.Response == nil {
		return 0
	}
	return re.Response.StatusCode
}

func authResult(err error) string {
	var denied *DeniedError
	switch {
	case err == nil:
		return instrumentation.OAuthResultSuccess
	case errors.Is(err, ErrAuthCancelled):
		return instrumentation.OAuthResultCancelled
	case errors.As(err, &denied):
		return instrumentation.OAuthResultDenied
	default:
		return instrumentation.OAuthResultFailure
	}
}
