package mailitem

import (
	"context"
	"errors"

	"github.com/teemow/inboxcrm/internal/crm"
)

// ErrNoMessage is returned when a source has no message to offer.
var ErrNoMessage = errors.New("no current mail item")

// Source yields the current mail item.
type Source interface {
	Current(ctx context.Context) (crm.EmailData, error)
}

// StaticSource returns a fixed mail item.
type StaticSource struct {
	Email crm.EmailData
}

// Current returns s.Email, or ErrNoMessage when it has neither subject,
// sender nor body.
func (s StaticSource) Current(context.Context) (crm.EmailData, error) {
	if s.Email.Subject == "" && s.Email.From == "" && s.Email.Body == "" {
		return crm.EmailData{}, ErrNoMessage
	}
	return s.Email, nil
}
