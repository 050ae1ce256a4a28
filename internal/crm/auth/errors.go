package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthCancelled is returned when the authorization window closes before
	// the redirect is observed.
	ErrAuthCancelled = errors.New("authorization cancelled")

	// ErrNoRefreshToken is returned by Refresh when no persisted session
	// carries a refresh token.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrRefreshExpired is returned when the remote rejects the refresh token.
	// The persisted session has been cleared and a full authorization is needed.
	ErrRefreshExpired = errors.New("refresh token expired or revoked")

	// ErrStateMismatch is returned when the redirect carries a state value
	// that this flow did not issue.
	ErrStateMismatch = errors.New("authorization state mismatch")

	// ErrLocationUnavailable is returned by Interaction.Location while the
	// window's location cannot be read yet.
	ErrLocationUnavailable = errors.New("interaction location unavailable")
)

// DeniedError reports that the remote refused the authorization request.
type DeniedError struct {
	Code        string
	Description string
}

func (e *DeniedError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("authorization denied: %s", e.Code)
	}
	return fmt.Sprintf("authorization denied: %s: %s", e.Code, e.Description)
}

// TokenExchangeError reports a failed authorization-code grant.
// Status is zero when no HTTP response was received.
type TokenExchangeError struct {
	Status int
	Body   string
	Err    error
}

func (e *TokenExchangeError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed with status %d: %v", e.Status, e.Err)
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}
