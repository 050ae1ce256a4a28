package mailitem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxcrm/internal/crm/auth"
)

// ErrNoGoogleToken is returned when no Gmail token has been stored yet.
var ErrNoGoogleToken = errors.New("no Google OAuth token found, run 'inboxcrm gmail-login' first")

// DefaultGoogleRedirectURI is the loopback address used by gmail-login.
const DefaultGoogleRedirectURI = "http://127.0.0.1:8086/callback"

// GoogleConfig configures read-only Gmail access.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// TokenPath defaults to DefaultTokenPath().
	TokenPath string
}

// GoogleAuth stores and refreshes the Gmail token.
type GoogleAuth struct {
	oauth      *oauth2.Config
	redirect   *url.URL
	tokenPath  string
	httpClient *http.Client
}

// NewGoogleAuth validates cfg and prepares the OAuth configuration.
func NewGoogleAuth(cfg GoogleConfig) (*GoogleAuth, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google client id is required")
	}
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = DefaultGoogleRedirectURI
	}
	redirect, err := url.Parse(cfg.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("invalid google redirect URI %q", cfg.RedirectURI)
	}
	if cfg.TokenPath == "" {
		cfg.TokenPath = DefaultTokenPath()
	}

	return &GoogleAuth{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{gmail.GmailReadonlyScope},
		},
		redirect:  redirect,
		tokenPath: cfg.TokenPath,
	}, nil
}

// SetEndpoint overrides the Google OAuth endpoint.
func (g *GoogleAuth) SetEndpoint(ep oauth2.Endpoint) {
	g.oauth.Endpoint = ep
}

// SetHTTPClient sets the client used for token requests.
func (g *GoogleAuth) SetHTTPClient(c *http.Client) {
	g.httpClient = c
}

// TokenPath returns where the token is stored.
func (g *GoogleAuth) TokenPath() string {
	return g.tokenPath
}

// HasToken checks if a token has been stored.
func (g *GoogleAuth) HasToken() bool {
	_, err := os.Stat(g.tokenPath)
	return err == nil
}

// Login runs the authorization code flow through opener and stores the
// resulting token.
func (g *GoogleAuth) Login(ctx context.Context, opener auth.Opener) error {
	state := uuid.NewString()
	authURL := g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))

	ctx, cancel := context.WithTimeout(ctx, auth.DefaultTimeout)
	defer cancel()

	interaction, err := opener.Open(ctx, authURL)
	if err != nil {
		return fmt.Errorf("failed to open authorization window: %w", err)
	}
	defer func() { _ = interaction.Close() }()

	code, err := auth.WaitForCode(ctx, interaction, g.redirect, state, auth.DefaultPollInterval)
	if err != nil {
		return err
	}

	tok, err := g.oauth.Exchange(g.oauthContext(ctx), code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return g.saveToken(tok)
}

// TokenSource returns a refreshing token source for the stored token.
func (g *GoogleAuth) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := g.loadToken()
	if err != nil {
		return nil, err
	}
	return g.oauth.TokenSource(g.oauthContext(ctx), tok), nil
}

// Service returns a Gmail client authenticated with the stored token.
func (g *GoogleAuth) Service(ctx context.Context) (*gmail.Service, error) {
	ts, err := g.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return svc, nil
}

// Logout removes the stored token.
func (g *GoogleAuth) Logout() error {
	if err := os.Remove(g.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

func (g *GoogleAuth) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(g.tokenPath)
	if os.IsNotExist(err) {
		return nil, ErrNoGoogleToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", g.tokenPath, err)
	}
	return &tok, nil
}

func (g *GoogleAuth) saveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(g.tokenPath), 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if err := os.WriteFile(g.tokenPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (g *GoogleAuth) oauthContext(ctx context.Context) context.Context {
	if g.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
}

// DefaultTokenPath is google.token under the user cache directory.
func DefaultTokenPath() string {
	return filepath.Join(userCacheDir(), "inboxcrm", "google.token")
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
