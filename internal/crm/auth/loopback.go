package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const callbackPage = `<!DOCTYPE html>
<html><head><title>inboxcrm</title></head>
<body><p>Authorization received. You can close this window and return to the terminal.</p></body>
</html>`

// LoopbackOpener captures the redirect on a local listener bound to the
// redirect URI's host and port. The authorization URL is handed to Launch,
// which typically opens a browser or prints the URL.
type LoopbackOpener struct {
	RedirectURI string
	Launch      func(authURL string) error
	Logger      *slog.Logger
}

// PrintLauncher returns a Launch function that writes the URL to w.
func PrintLauncher(w io.Writer) func(string) error {
	return func(authURL string) error {
		_, err := fmt.Fprintf(w, "Open the following URL in your browser to sign in:\n\n%s\n\n", authURL)
		return err
	}
}

// Open starts the listener and launches authURL.
func (o *LoopbackOpener) Open(ctx context.Context, authURL string) (Interaction, error) {
	redirect, err := url.Parse(o.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI %q", o.RedirectURI)
	}
	if redirect.Scheme != "http" {
		return nil, fmt.Errorf("loopback redirect URI must use http, got %q", redirect.Scheme)
	}

	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	li := &loopbackInteraction{redirect: redirect}

	path := redirect.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		li.capture(r.URL)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, callbackPage)
	})

	li.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := li.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Loopback redirect listener stopped", "error", err)
		}
	}()

	launch := o.Launch
	if launch == nil {
		launch = func(string) error { return nil }
	}
	if err := launch(authURL); err != nil {
		_ = li.Close()
		return nil, fmt.Errorf("failed to launch authorization URL: %w", err)
	}
	return li, nil
}

type loopbackInteraction struct {
	redirect *url.URL
	srv      *http.Server

	mu       sync.Mutex
	location *url.URL
	closed   bool
}

func (l *loopbackInteraction) capture(u *url.URL) {
	loc := *l.redirect
	loc.RawQuery = u.RawQuery

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.location == nil {
		l.location = &loc
	}
}

func (l *loopbackInteraction) Location() (*url.URL, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.location == nil {
		return nil, ErrLocationUnavailable
	}
	loc := *l.location
	return &loc, nil
}

func (l *loopbackInteraction) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *loopbackInteraction) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.srv.Shutdown(ctx)
}
