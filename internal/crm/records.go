package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/teemow/inboxcrm/internal/crm/api"
	"github.com/teemow/inboxcrm/internal/crm/query"
	"github.com/teemow/inboxcrm/internal/logging"
)

// CreateContact creates a contact. Empty fields are not sent.
func (c *Client) CreateContact(ctx context.Context, in ContactInput) (*CreateResult, error) {
	if strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("last name is required")
	}
	fields := map[string]any{}
	setIfPresent(fields, "FirstName", in.FirstName)
	setIfPresent(fields, "LastName", in.LastName)
	setIfPresent(fields, "Email", in.Email)
	setIfPresent(fields, "Phone", in.Phone)
	setIfPresent(fields, "Title", in.Title)
	setIfPresent(fields, "AccountId", in.AccountID)

	res, err := c.create(ctx, ObjectContact, fields)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Contact created", logging.Operation("create_contact"), logging.RecordID(res.ID))
	return res, nil
}

// CreateLead creates a lead. Empty fields are not sent.
func (c *Client) CreateLead(ctx context.Context, in LeadInput) (*CreateResult, error) {
	if strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("last name is required")
	}
	if strings.TrimSpace(in.Company) == "" {
		return nil, fmt.Errorf("company is required")
	}
	fields := map[string]any{}
	setIfPresent(fields, "FirstName", in.FirstName)
	setIfPresent(fields, "LastName", in.LastName)
	setIfPresent(fields, "Email", in.Email)
	setIfPresent(fields, "Company", in.Company)
	setIfPresent(fields, "Phone", in.Phone)
	setIfPresent(fields, "Title", in.Title)

	res, err := c.create(ctx, ObjectLead, fields)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Lead created", logging.Operation("create_lead"), logging.RecordID(res.ID))
	return res, nil
}

// GetRecord fetches one record. With no fields the remote returns all of them.
func (c *Client) GetRecord(ctx context.Context, objectType, id string, fields []string) (api.Record, error) {
	endpoint, err := recordEndpoint(objectType, id)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if err := query.ValidateField(f); err != nil {
			return nil, err
		}
	}
	if len(fields) > 0 {
		endpoint += "?fields=" + url.QueryEscape(strings.Join(fields, ","))
	}

	var rec api.Record
	if err := c.doer.Do(ctx, http.MethodGet, endpoint, nil, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = api.Record{}
	}
	return rec, nil
}

// UpdateRecord changes fields on a record.
func (c *Client) UpdateRecord(ctx context.Context, objectType, id string, fields map[string]any) error {
	endpoint, err := recordEndpoint(objectType, id)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}
	for name := range fields {
		if err := query.ValidateField(name); err != nil {
			return err
		}
	}
	if err := c.doer.Do(ctx, http.MethodPatch, endpoint, fields, nil); err != nil {
		return fmt.Errorf("failed to update %s %s: %w", objectType, id, err)
	}
	c.logger.Info("Record updated", logging.Operation("update_record"), logging.Object(objectType), logging.RecordID(id))
	return nil
}

// DeleteRecord deletes a record.
func (c *Client) DeleteRecord(ctx context.Context, objectType, id string) error {
	endpoint, err := recordEndpoint(objectType, id)
	if err != nil {
		return err
	}
	if err := c.doer.Do(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", objectType, id, err)
	}
	c.logger.Info("Record deleted", logging.Operation("delete_record"), logging.Object(objectType), logging.RecordID(id))
	return nil
}

func recordEndpoint(objectType, id string) (string, error) {
	if err := query.ValidateObject(objectType); err != nil {
		return "", err
	}
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("record id is required")
	}
	return "sobjects/" + objectType + "/" + url.PathEscape(id), nil
}

func setIfPresent(fields map[string]any, name, value string) {
	if v := strings.TrimSpace(value); v != "" {
		fields[name] = v
	}
}
