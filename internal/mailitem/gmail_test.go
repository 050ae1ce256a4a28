package mailitem

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxcrm/internal/crm"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func sampleMessage() *gmail.Message {
	return &gmail.Message{
		Id:           "msg-1",
		InternalDate: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC).UnixMilli(),
		LabelIds:     []string{"INBOX", "UNREAD"},
		Snippet:      "snippet",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Quarterly review"},
				{Name: "From", Value: "Jane Doe <jane@example.com>"},
				{Name: "To", Value: "me@corp.test, Bob <bob@corp.test>"},
				{Name: "cc", Value: "carol@corp.test"},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("plain body")}},
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<p>html body</p>")}},
				{MimeType: "text/plain", Filename: "notes.txt", Body: &gmail.MessagePartBody{Data: b64("attachment")}},
			},
		},
	}
}

func TestFromGmailMessage(t *testing.T) {
	email, err := FromGmailMessage(sampleMessage())
	require.NoError(t, err)

	assert.Equal(t, "Quarterly review", email.Subject)
	assert.Equal(t, "jane@example.com", email.From)
	assert.Equal(t, "Jane Doe", email.FromName)
	assert.Equal(t, []string{"me@corp.test", "bob@corp.test"}, email.To)
	assert.Equal(t, []string{"carol@corp.test"}, email.CC)
	assert.Equal(t, "plain body", email.Body)
	assert.Equal(t, "<p>html body</p>", email.HTMLBody)
	assert.True(t, email.Incoming)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), email.Date)
}

func TestFromGmailMessage_Variants(t *testing.T) {
	tests := []struct {
		name   string
		modify func(m *gmail.Message)
		check  func(t *testing.T, e crm.EmailData)
	}{
		{
			name:   "sent message is outgoing",
			modify: func(m *gmail.Message) { m.LabelIds = []string{"SENT"} },
			check:  func(t *testing.T, e crm.EmailData) { assert.False(t, e.Incoming) },
		},
		{
			name: "date header used without internal date",
			modify: func(m *gmail.Message) {
				m.InternalDate = 0
				m.Payload.Headers = append(m.Payload.Headers, &gmail.MessagePartHeader{Name: "Date", Value: "Tue, 5 Mar 2024 14:00:00 +0100"})
			},
			check: func(t *testing.T, e crm.EmailData) {
				assert.Equal(t, time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC), e.Date)
			},
		},
		{
			name: "snippet used without text part",
			modify: func(m *gmail.Message) {
				m.Payload.Parts = m.Payload.Parts[1:2]
			},
			check: func(t *testing.T, e crm.EmailData) {
				assert.Equal(t, "snippet", e.Body)
				assert.Equal(t, "<p>html body</p>", e.HTMLBody)
			},
		},
		{
			name: "unpadded body",
			modify: func(m *gmail.Message) {
				m.Payload.Parts[0].Body.Data = base64.RawURLEncoding.EncodeToString([]byte("ab"))
			},
			check: func(t *testing.T, e crm.EmailData) { assert.Equal(t, "ab", e.Body) },
		},
		{
			name: "unparseable sender kept verbatim",
			modify: func(m *gmail.Message) {
				m.Payload.Headers[1].Value = " not an address "
			},
			check: func(t *testing.T, e crm.EmailData) {
				assert.Equal(t, "not an address", e.From)
				assert.Empty(t, e.FromName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sampleMessage()
			tt.modify(m)
			email, err := FromGmailMessage(m)
			require.NoError(t, err)
			tt.check(t, email)
		})
	}
}

func TestFromGmailMessage_Errors(t *testing.T) {
	_, err := FromGmailMessage(nil)
	assert.ErrorIs(t, err, ErrNoMessage)

	m := sampleMessage()
	m.Payload.Parts[0].Body.Data = "!!!"
	_, err = FromGmailMessage(m)
	assert.ErrorContains(t, err, "failed to decode text/plain body")
}

func TestAddressList(t *testing.T) {
	assert.Nil(t, addressList("  "))
	assert.Equal(t, []string{"a@x.test", "b@y.test"}, addressList("a@x.test, B <b@y.test>"))
	assert.Equal(t, []string{"a@x", "weird <"}, addressList("a@x, weird <"))
}

func TestGmailSource_Current(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/users/me/messages/msg-1") {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sampleMessage())
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	email, err := NewGmailSource(svc, "msg-1").Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly review", email.Subject)

	_, err = NewGmailSource(svc, "missing").Current(ctx)
	assert.ErrorContains(t, err, "failed to get message missing")

	_, err = NewGmailSource(svc, "").Current(ctx)
	assert.ErrorIs(t, err, ErrNoMessage)
}

func TestStaticSource(t *testing.T) {
	_, err := StaticSource{}.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoMessage)

	email, err := StaticSource{Email: crm.EmailData{Subject: "hi"}}.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hi", email.Subject)
}
