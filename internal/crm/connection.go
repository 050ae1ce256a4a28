package crm

import (
	"context"
	"net/http"

	"github.com/teemow/inboxcrm/internal/crm/query"
	"github.com/teemow/inboxcrm/internal/logging"
)

const userInfoEndpoint = "/services/oauth2/userinfo"

// TestConnection checks the current credentials by reading the user and the
// organization. Failures are reported in the result, never returned.
func (c *Client) TestConnection(ctx context.Context) *ConnectionResult {
	var user UserInfo
	if err := c.doer.Do(ctx, http.MethodGet, userInfoEndpoint, nil, &user); err != nil {
		c.logger.Warn("Connection test failed", logging.Operation("test_connection"), logging.Err(err))
		return &ConnectionResult{Error: err.Error()}
	}

	orgs, err := c.Query(ctx, query.Query{
		Object: ObjectOrganization,
		Fields: []string{"Id", "Name", "OrganizationType", "InstanceName", "IsSandbox"},
		Limit:  1,
	})
	if err != nil {
		c.logger.Warn("Connection test failed", logging.Operation("test_connection"), logging.Err(err))
		return &ConnectionResult{User: &user, Error: err.Error()}
	}

	res := &ConnectionResult{Success: true, User: &user}
	if len(orgs) > 0 {
		o := orgs[0]
		res.Organization = &OrganizationInfo{
			ID:           o.ID(),
			Name:         o.String("Name"),
			Type:         o.String("OrganizationType"),
			InstanceName: o.String("InstanceName"),
			IsSandbox:    o.Bool("IsSandbox"),
		}
	}
	c.logger.Info("Connection test succeeded",
		logging.Operation("test_connection"),
		logging.UserHash(user.Email))
	return res
}
