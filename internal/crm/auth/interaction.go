package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Interaction is an open external authorization window.
type Interaction interface {
	// Location returns the window's current location. It fails with
	// ErrLocationUnavailable, or any other error, while the location cannot be
	// read; callers treat that as "not done yet".
	Location() (*url.URL, error)

	// Closed reports whether the user closed the window.
	Closed() bool

	// Close releases the window. It is safe to call more than once.
	Close() error
}

// Opener opens an authorization window at authURL.
type Opener interface {
	Open(ctx context.Context, authURL string) (Interaction, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, authURL string) (Interaction, error)

// Open calls f(ctx, authURL).
func (f OpenerFunc) Open(ctx context.Context, authURL string) (Interaction, error) {
	return f(ctx, authURL)
}

// WaitForCode polls interaction every interval until its location reaches
// redirect, then returns the authorization code carried there. A location
// that cannot be read means the window is still on the remote domain and is
// not treated as cancellation.
func WaitForCode(ctx context.Context, interaction Interaction, redirect *url.URL, state string, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if loc, err := interaction.Location(); err == nil && sameEndpoint(loc, redirect) {
			return parseRedirect(loc, state)
		}
		if interaction.Closed() {
			return "", ErrAuthCancelled
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for authorization: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func sameEndpoint(loc, redirect *url.URL) bool {
	if loc == nil || redirect == nil {
		return false
	}
	return strings.EqualFold(loc.Scheme, redirect.Scheme) &&
		strings.EqualFold(loc.Host, redirect.Host) &&
		strings.TrimRight(loc.Path, "/") == strings.TrimRight(redirect.Path, "/")
}
