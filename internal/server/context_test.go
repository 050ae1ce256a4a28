package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/crm/api"
	"github.com/teemow/inboxcrm/internal/crm/auth"
	"github.com/teemow/inboxcrm/internal/crm/session"
)

func newTestServerContext(t *testing.T) *ServerContext {
	t.Helper()
	store := session.NewMemoryStore(nil)
	flow, err := auth.NewFlow(auth.Config{
		LoginURL:    "https://login.example.test",
		ClientID:    "client",
		RedirectURI: "http://127.0.0.1:8787/oauth/callback",
	}, store, nil)
	require.NoError(t, err)
	exec := api.NewExecutor(store, flow, api.Options{})

	sc, err := NewServerContext(context.Background(), Options{
		Client:   crm.NewClient(exec, nil),
		Flow:     flow,
		Executor: exec,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext_RequiresClient(t *testing.T) {
	_, err := NewServerContext(context.Background(), Options{})
	assert.ErrorContains(t, err, "crm client is required")
}

func TestServerContext_Accessors(t *testing.T) {
	sc := newTestServerContext(t)

	assert.NotNil(t, sc.CRM())
	assert.NotNil(t, sc.Flow())
	assert.NotNil(t, sc.Executor())
	assert.NotNil(t, sc.Logger())
	assert.Nil(t, sc.Metrics())
	assert.Equal(t, auth.Unauthenticated, sc.AuthState())
}

func TestServerContext_GmailNotConfigured(t *testing.T) {
	sc := newTestServerContext(t)

	_, err := sc.GmailService()
	assert.ErrorContains(t, err, "gmail access is not configured")

	_, err = sc.MailSource("msg-1")
	assert.ErrorContains(t, err, "cannot read message msg-1")
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestServerContext(t)
	assert.False(t, sc.IsShutdown())

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())
}

func TestHealthChecker_NotReady(t *testing.T) {
	sc := newTestServerContext(t)
	h := NewHealthChecker(sc)
	h.SetReady(false)
	assert.False(t, h.IsReady())

	rec := httptestRecorder(h.ReadinessHandler())
	assert.Equal(t, 503, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"not ready"`)

	h.SetReady(true)
	require.NoError(t, sc.Shutdown())
	rec = httptestRecorder(h.ReadinessHandler())
	assert.Equal(t, 503, rec.Code)
	assert.Contains(t, rec.Body.String(), "shutting down")
}

func httptestRecorder(h http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	return rec
}
