package mailitem

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxcrm/internal/crm"
)

// GmailSource reads one Gmail message.
type GmailSource struct {
	svc       *gmail.UsersService
	messageID string
}

// NewGmailSource creates a source for messageID in the authenticated mailbox.
func NewGmailSource(svc *gmail.Service, messageID string) *GmailSource {
	return &GmailSource{svc: svc.Users, messageID: messageID}
}

// Current fetches the message and converts it.
func (g *GmailSource) Current(ctx context.Context) (crm.EmailData, error) {
	if g.messageID == "" {
		return crm.EmailData{}, ErrNoMessage
	}
	msg, err := g.svc.Messages.Get("me", g.messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return crm.EmailData{}, fmt.Errorf("failed to get message %s: %w", g.messageID, err)
	}
	return FromGmailMessage(msg)
}

// FromGmailMessage converts a message fetched in "full" format.
func FromGmailMessage(m *gmail.Message) (crm.EmailData, error) {
	if m == nil || m.Payload == nil {
		return crm.EmailData{}, ErrNoMessage
	}

	email := crm.EmailData{
		Subject:  headerValue(m.Payload, "Subject"),
		Incoming: !hasLabel(m, "SENT"),
	}

	if from, err := mail.ParseAddress(headerValue(m.Payload, "From")); err == nil {
		email.From = from.Address
		email.FromName = from.Name
	} else {
		email.From = strings.TrimSpace(headerValue(m.Payload, "From"))
	}
	email.To = addressList(headerValue(m.Payload, "To"))
	email.CC = addressList(headerValue(m.Payload, "Cc"))

	switch {
	case m.InternalDate > 0:
		email.Date = time.UnixMilli(m.InternalDate).UTC()
	default:
		if d, err := mail.ParseDate(headerValue(m.Payload, "Date")); err == nil {
			email.Date = d.UTC()
		}
	}

	text, err := partBody(m.Payload, "text/plain")
	if err != nil {
		return crm.EmailData{}, err
	}
	html, err := partBody(m.Payload, "text/html")
	if err != nil {
		return crm.EmailData{}, err
	}
	email.Body = text
	email.HTMLBody = html
	if email.Body == "" {
		email.Body = m.Snippet
	}
	return email, nil
}

func headerValue(part *gmail.MessagePart, name string) string {
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func hasLabel(m *gmail.Message, label string) bool {
	for _, l := range m.LabelIds {
		if l == label {
			return true
		}
	}
	return false
}

// addressList parses a header address list, keeping only the addresses.
func addressList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	list, err := mail.ParseAddressList(v)
	if err != nil {
		var out []string
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				out = append(out, a)
			}
		}
		return out
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Address)
	}
	return out
}

// partBody returns the first decoded body of mimeType in the part tree.
func partBody(root *gmail.MessagePart, mimeType string) (string, error) {
	var data string
	walkParts(root, func(p *gmail.MessagePart) {
		if data == "" && p.MimeType == mimeType && p.Filename == "" && p.Body != nil && p.Body.Data != "" {
			data = p.Body.Data
		}
	})
	if data == "" {
		return "", nil
	}

	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail sometimes omits padding
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return "", fmt.Errorf("failed to decode %s body: %w", mimeType, err)
		}
	}
	return string(decoded), nil
}

func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, sub := range part.Parts {
		walkParts(sub, fn)
	}
}
