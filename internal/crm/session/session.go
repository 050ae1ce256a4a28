package session

import (
	"strconv"
	"strings"
	"time"
)

// DefaultValidityWindow is how long an access token is considered usable
// after the remote issued it.
const DefaultValidityWindow = 2 * time.Hour

// Session is the persisted authentication state.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	InstanceURL  string `json:"instance_url"`
	// IssuedAt is the remote's issuance timestamp, milliseconds since the
	// Unix epoch encoded as a decimal string.
	IssuedAt  string `json:"issued_at"`
	Signature string `json:"signature"`
}

// Clone returns a copy of s. A nil session clones to nil.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// HasCredentials reports whether s carries an access token and an instance URL.
func (s *Session) HasCredentials() bool {
	return s != nil && s.AccessToken != "" && s.InstanceURL != ""
}

// Usable reports whether s has credentials and was issued within window of now.
func (s *Session) Usable(now time.Time, window time.Duration) bool {
	return s.HasCredentials() && !IsExpired(s, now, window)
}

// IssuedTime parses IssuedAt. It accepts millisecond epoch strings and RFC 3339.
func (s *Session) IssuedTime() (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	return ParseIssuedAt(s.IssuedAt)
}

// IsExpired reports whether s must no longer be used. A session without a
// parseable issuance time is treated as expired.
func IsExpired(s *Session, now time.Time, window time.Duration) bool {
	issued, ok := s.IssuedTime()
	if !ok {
		return true
	}
	if window <= 0 {
		window = DefaultValidityWindow
	}
	return now.Sub(issued) > window
}

// FormatIssuedAt renders t the way the remote reports issuance times.
func FormatIssuedAt(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseIssuedAt parses an issuance timestamp.
func ParseIssuedAt(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		if ms <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	return time.Time{}, false
}
