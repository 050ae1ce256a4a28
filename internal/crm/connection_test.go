package crm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxcrm/internal/crm/api"
)

func TestTestConnection(t *testing.T) {
	userinfo := endpointIs("GET", userInfoEndpoint)

	t.Run("success", func(t *testing.T) {
		doer := (&fakeDoer{}).
			on(userinfo, `{"user_id":"005A","organization_id":"00DA","name":"Ada","email":"ada@x.com","preferred_username":"ada@x.com.crm"}`).
			on(selecting("Organization"), `{"totalSize":1,"done":true,"records":[{"Id":"00DA","Name":"Acme","OrganizationType":"Enterprise Edition","InstanceName":"NA1","IsSandbox":false}]}`)

		res := NewClient(doer, nil).TestConnection(context.Background())
		require.True(t, res.Success)
		assert.Empty(t, res.Error)
		assert.Equal(t, "Ada", res.User.Name)
		assert.Equal(t, &OrganizationInfo{ID: "00DA", Name: "Acme", Type: "Enterprise Edition", InstanceName: "NA1"}, res.Organization)
	})

	t.Run("not authenticated", func(t *testing.T) {
		doer := (&fakeDoer{}).fail(userinfo, api.ErrNotAuthenticated)

		res := NewClient(doer, nil).TestConnection(context.Background())
		assert.False(t, res.Success)
		assert.Equal(t, api.ErrNotAuthenticated.Error(), res.Error)
		assert.Len(t, doer.Calls(), 1)
	})

	t.Run("organization lookup fails", func(t *testing.T) {
		doer := (&fakeDoer{}).
			on(userinfo, `{"user_id":"005A","name":"Ada"}`).
			fail(selecting("Organization"), &api.Error{Status: 403, Body: "insufficient access"})

		res := NewClient(doer, nil).TestConnection(context.Background())
		assert.False(t, res.Success)
		assert.NotNil(t, res.User)
		assert.Contains(t, res.Error, "403")
	})
}
