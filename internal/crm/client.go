package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/inboxcrm/internal/crm/api"
	"github.com/teemow/inboxcrm/internal/crm/query"
)

// ErrUnknownRelation is returned when a related record's type cannot be
// classified as a person or an entity.
var ErrUnknownRelation = errors.New("unknown related record type")

// Client runs CRM operations over a Doer.
type Client struct {
	doer   Doer
	logger *slog.Logger
	now    func() time.Time
}

// NewClient creates a Client. A nil logger uses slog.Default().
func NewClient(doer Doer, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		doer:   doer,
		logger: logger.With("component", "crm"),
		now:    time.Now,
	}
}

type queryResponse struct {
	TotalSize      int          `json:"totalSize"`
	Done           bool         `json:"done"`
	NextRecordsURL string       `json:"nextRecordsUrl"`
	Records        []api.Record `json:"records"`
}

// Query runs q and returns every record, following result pages.
func (c *Client) Query(ctx context.Context, q query.Query) ([]api.Record, error) {
	encoded, err := q.Encode()
	if err != nil {
		return nil, err
	}
	return c.queryEncoded(ctx, encoded)
}

func (c *Client) queryEncoded(ctx context.Context, encoded string) ([]api.Record, error) {
	endpoint := "query/?q=" + encoded
	records := []api.Record{}
	for endpoint != "" {
		var page queryResponse
		if err := c.doer.Do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if page.Done || page.NextRecordsURL == "" {
			break
		}
		endpoint = page.NextRecordsURL
	}
	return records, nil
}

func (c *Client) create(ctx context.Context, objectType string, fields map[string]any) (*CreateResult, error) {
	if err := query.ValidateObject(objectType); err != nil {
		return nil, err
	}
	var res CreateResult
	if err := c.doer.Do(ctx, http.MethodPost, "sobjects/"+objectType, fields, &res); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", objectType, err)
	}
	if !res.Success && res.ID == "" {
		return &res, fmt.Errorf("failed to create %s: remote reported no id", objectType)
	}
	return &res, nil
}
