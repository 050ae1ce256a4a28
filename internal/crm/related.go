package crm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/inboxcrm/internal/crm/api"
	"github.com/teemow/inboxcrm/internal/crm/query"
	"github.com/teemow/inboxcrm/internal/logging"
)

// openOpportunityLimit caps the opportunities returned per lookup.
const openOpportunityLimit = 10

var (
	relatedContactFields     = []string{"Id", "Name", "FirstName", "LastName", "Email", "Phone", "Title", "AccountId", "Account.Name"}
	relatedLeadFields        = []string{"Id", "Name", "FirstName", "LastName", "Email", "Phone", "Title", "Company", "Status"}
	relatedAccountFields     = []string{"Id", "Name", "Industry", "Website", "Phone", "Type"}
	relatedOpportunityFields = []string{"Id", "Name", "StageName", "Amount", "CloseDate", "AccountId", "Probability"}
)

// FindRelatedRecords looks up the contacts, leads, accounts and open
// opportunities linked to emails. It does not fail: a lookup that errors is
// logged, recorded in Warnings, and its group left empty.
func (c *Client) FindRelatedRecords(ctx context.Context, emails []string) *RelatedRecords {
	res := &RelatedRecords{
		Contacts:      []api.Record{},
		Leads:         []api.Record{},
		Accounts:      []api.Record{},
		Opportunities: []api.Record{},
	}

	addresses := normalizeAddresses(emails)
	if len(addresses) == 0 {
		return res
	}

	logger := c.logger.With(logging.Operation("find_related"), logging.AddressCount(addresses))

	contacts, err := c.Query(ctx, query.Query{
		Object: ObjectContact,
		Fields: relatedContactFields,
		Where:  query.In("Email", addresses...),
	})
	if err != nil {
		res.warn(logger, "contacts", err)
	} else {
		res.Contacts = contacts
	}

	if accountIDs := accountIDs(res.Contacts); len(accountIDs) > 0 {
		accounts, err := c.Query(ctx, query.Query{
			Object: ObjectAccount,
			Fields: relatedAccountFields,
			Where:  query.In("Id", accountIDs...),
		})
		if err != nil {
			res.warn(logger, "accounts", err)
		} else {
			res.Accounts = accounts
		}

		opportunities, err := c.Query(ctx, query.Query{
			Object:  ObjectOpportunity,
			Fields:  relatedOpportunityFields,
			Where:   query.And(query.In("AccountId", accountIDs...), query.Eq("IsClosed", false)),
			OrderBy: []query.OrderBy{query.Asc("CloseDate")},
			Limit:   openOpportunityLimit,
		})
		if err != nil {
			res.warn(logger, "opportunities", err)
		} else {
			res.Opportunities = opportunities
		}
	}

	leads, err := c.Query(ctx, query.Query{
		Object: ObjectLead,
		Fields: relatedLeadFields,
		Where:  query.And(query.In("Email", addresses...), query.Eq("IsConverted", false)),
	})
	if err != nil {
		res.warn(logger, "leads", err)
	} else {
		res.Leads = leads
	}

	logger.Debug("Related records resolved",
		"contacts", len(res.Contacts),
		"leads", len(res.Leads),
		"accounts", len(res.Accounts),
		"opportunities", len(res.Opportunities),
		"warnings", len(res.Warnings))
	return res
}

func (r *RelatedRecords) warn(logger *slog.Logger, group string, err error) {
	logger.Warn("Related records lookup failed", "group", group, logging.Err(err))
	r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %v", group, err))
}

// normalizeAddresses trims, drops empties and removes case-insensitive duplicates.
func normalizeAddresses(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		key := strings.ToLower(e)
		if e == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// accountIDs returns the distinct AccountId values of contacts, in first-seen order.
func accountIDs(contacts []api.Record) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range contacts {
		id := c.String("AccountId")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
