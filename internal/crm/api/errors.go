package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/teemow/inboxcrm/internal/crm/auth"
	"github.com/teemow/inboxcrm/internal/logging"
)

var (
	// ErrNotAuthenticated is returned when no session with credentials is available.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAuthExpired is returned when the session could not be renewed, or the
	// renewed session was still rejected. The user must sign in again.
	ErrAuthExpired = errors.New("authentication expired")
)

// AuthExpiredError wraps the cause of a terminal authentication failure.
// errors.Is(err, ErrAuthExpired) reports true for it.
type AuthExpiredError struct {
	Err error
}

func (e *AuthExpiredError) Error() string {
	if e.Err == nil {
		return ErrAuthExpired.Error()
	}
	return fmt.Sprintf("%s: %v", ErrAuthExpired, e.Err)
}

func (e *AuthExpiredError) Is(target error) bool {
	return target == ErrAuthExpired
}

func (e *AuthExpiredError) Unwrap() error {
	return e.Err
}

// ErrorMessage is one entry of the remote's error array.
type ErrorMessage struct {
	Message   string   `json:"message"`
	ErrorCode string   `json:"errorCode"`
	Fields    []string `json:"fields,omitempty"`
}

// Error is a non-success response from the data API. The message omits the
// endpoint's query string and masks email addresses echoed by the remote;
// Endpoint keeps the full value.
type Error struct {
	Method   string
	Endpoint string
	Status   int
	Body     string
	Messages []ErrorMessage
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CRM API call %s %s failed with status %d", e.Method, logging.StripQuery(e.Endpoint), e.Status)
	if len(e.Messages) > 0 {
		for i, m := range e.Messages {
			if i == 0 {
				sb.WriteString(": ")
			} else {
				sb.WriteString("; ")
			}
			if m.ErrorCode != "" {
				sb.WriteString(m.ErrorCode)
				sb.WriteString(": ")
			}
			sb.WriteString(m.Message)
		}
	} else if e.Body != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Body)
	}
	return logging.RedactEmails(sb.String())
}

// HasCode reports whether any of the remote messages carries code.
func (e *Error) HasCode(code string) bool {
	for _, m := range e.Messages {
		if m.ErrorCode == code {
			return true
		}
	}
	return false
}

func newError(method, endpoint string, status int, body []byte) *Error {
	e := &Error{
		Method:   method,
		Endpoint: endpoint,
		Status:   status,
		Body:     strings.TrimSpace(string(body)),
	}
	var msgs []ErrorMessage
	if err := json.Unmarshal(body, &msgs); err == nil {
		e.Messages = msgs
	} else {
		var single ErrorMessage
		if err := json.Unmarshal(body, &single); err == nil && single.Message != "" {
			e.Messages = []ErrorMessage{single}
		}
	}
	return e
}

// IsReauthRequired reports whether err means the user has to sign in again.
func IsReauthRequired(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrAuthExpired) ||
		errors.Is(err, auth.ErrRefreshExpired) ||
		errors.Is(err, auth.ErrNoRefreshToken)
}

// IsNotFound reports whether err is a 404 from the data API.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == 404
}
