package cmd

import (
	"context"

	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/mailitem"
)

// lazyGmailSource creates the Gmail service when the message is first read.
type lazyGmailSource struct {
	auth      *mailitem.GoogleAuth
	messageID string
}

func (l *lazyGmailSource) Current(ctx context.Context) (crm.EmailData, error) {
	svc, err := l.auth.Service(ctx)
	if err != nil {
		return crm.EmailData{}, err
	}
	return mailitem.NewGmailSource(svc, l.messageID).Current(ctx)
}
