package crm

import (
	"context"
	"net/http"
	"strings"

	"github.com/teemow/inboxcrm/internal/crm/api"
	"github.com/teemow/inboxcrm/internal/crm/query"
	"github.com/teemow/inboxcrm/internal/logging"
)

// DefaultSearchTypes are searched when Search is given no types.
var DefaultSearchTypes = []string{ObjectContact, ObjectLead}

// searchLimit caps the hits the remote returns per search.
const searchLimit = 50

// searchFields is the projection requested per object type. Types not listed
// get query.DefaultSearchFields.
var searchFields = map[string][]string{
	ObjectContact:     {"Id", "Name", "Email", "Title", "Account.Name"},
	ObjectLead:        {"Id", "Name", "Email", "Title", "Company"},
	ObjectAccount:     {"Id", "Name", "Industry"},
	ObjectOpportunity: {"Id", "Name", "StageName", "Account.Name"},
	ObjectUser:        {"Id", "Name", "Email", "Title", "CompanyName"},
}

type searchResponse struct {
	SearchRecords []api.Record `json:"searchRecords"`
}

// Search runs a full-text search over types and flattens the hits: records of
// each type in the order returned, types in the order requested.
func (c *Client) Search(ctx context.Context, term string, types []string) ([]SearchResult, error) {
	types = canonicalTypes(types)
	if len(types) == 0 {
		types = DefaultSearchTypes
	}

	returning := make([]query.Returning, 0, len(types))
	for _, t := range types {
		fields, ok := searchFields[t]
		if !ok {
			fields = query.DefaultSearchFields
		}
		returning = append(returning, query.Returning{Object: t, Fields: fields})
	}

	encoded, err := query.BuildSearchReturning(term, returning, searchLimit)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := c.doer.Do(ctx, http.MethodGet, "search/?q="+encoded, nil, &resp); err != nil {
		return nil, err
	}

	byType := make(map[string][]api.Record, len(types))
	for _, r := range resp.SearchRecords {
		key := strings.ToLower(r.Type())
		byType[key] = append(byType[key], r)
	}

	results := make([]SearchResult, 0, len(resp.SearchRecords))
	for _, t := range types {
		for _, r := range byType[strings.ToLower(t)] {
			results = append(results, toSearchResult(t, r))
		}
	}

	c.logger.Debug("Search completed",
		logging.Operation("search"),
		"types", types,
		"results", len(results))
	return results, nil
}

// canonicalTypes trims types, spells known object names the way the remote
// reports them and drops case-insensitive duplicates.
func canonicalTypes(types []string) []string {
	seen := make(map[string]bool, len(types))
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		for known := range searchFields {
			if strings.EqualFold(t, known) {
				t = known
				break
			}
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// SearchContacts searches contacts only.
func (c *Client) SearchContacts(ctx context.Context, term string) ([]SearchResult, error) {
	return c.Search(ctx, term, []string{ObjectContact})
}

// SearchLeads searches leads only.
func (c *Client) SearchLeads(ctx context.Context, term string) ([]SearchResult, error) {
	return c.Search(ctx, term, []string{ObjectLead})
}

func toSearchResult(objectType string, r api.Record) SearchResult {
	res := SearchResult{
		ID:    r.ID(),
		Type:  objectType,
		Name:  r.String("Name"),
		Email: r.String("Email"),
		Title: r.String("Title"),
	}
	switch {
	case r.String("Company") != "":
		res.Company = r.String("Company")
	case r.String("Account.Name") != "":
		res.Company = r.String("Account.Name")
	case r.String("CompanyName") != "":
		res.Company = r.String("CompanyName")
	}
	return res
}
