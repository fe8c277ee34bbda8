package airtable

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/elliotlrichardson/airsync/internal/table"
)

// Record is a single Airtable record.
type Record struct {
	ID          string         `json:"id,omitempty"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

type updateRequest struct {
	Fields   map[string]any `json:"fields"`
	Typecast bool           `json:"typecast"`
}

type createRequest struct {
	Records  []Record `json:"records"`
	Typecast bool     `json:"typecast"`
}

type createResponse struct {
	Records []Record `json:"records"`
}

// ListRecords returns every record in the table, following the offset cursor
// until the API stops returning one.
func (c *Client) ListRecords(ctx context.Context) ([]Record, error) {
	var records []Record
	offset := ""

	for {
		query := url.Values{}
		query.Set("pageSize", strconv.Itoa(pageSize))
		if offset != "" {
			query.Set("offset", offset)
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL()+"?"+query.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}
		records = append(records, page.Records...)

		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// UpdateRecord patches the given fields of one record. Fields not present in
// the map are left untouched.
func (c *Client) UpdateRecord(ctx context.Context, id string, fields map[string]any, typecast bool) error {
	endpoint := c.tableURL() + "/" + url.PathEscape(id)
	body := updateRequest{Fields: fields, Typecast: typecast}
	if err := c.do(ctx, http.MethodPatch, endpoint, body, nil); err != nil {
		return fmt.Errorf("failed to update record %s: %w", id, err)
	}
	return nil
}

// InsertRecords creates one record per row of t, in chunks of
// MaxRecordsPerRequest. Null cells are left out of the payload.
// It returns the number of records created before any failure.
func (c *Client) InsertRecords(ctx context.Context, t *table.Table, typecast bool) (int, error) {
	rows := t.Rows()
	inserted := 0

	for start := 0; start < len(rows); start += MaxRecordsPerRequest {
		end := min(start+MaxRecordsPerRequest, len(rows))

		body := createRequest{Typecast: typecast}
		for _, row := range rows[start:end] {
			body.Records = append(body.Records, Record{Fields: row.Fields(nil)})
		}

		var resp createResponse
		if err := c.do(ctx, http.MethodPost, c.tableURL(), body, &resp); err != nil {
			return inserted, fmt.Errorf("failed to insert records %d-%d: %w", start, end-1, err)
		}
		inserted += len(resp.Records)
	}

	return inserted, nil
}
