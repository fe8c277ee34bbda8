// Package airtable implements the record source and sink adapters on top of
// the Airtable REST API.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elliotlrichardson/airsync/internal/config"
)

const (
	// MaxRecordsPerRequest is the API limit for records per create call.
	MaxRecordsPerRequest = 10

	pageSize = 100
)

// Client talks to one Airtable table.
type Client struct {
	http      *http.Client
	endpoint  string
	baseKey   string
	tableName string
	apiKey    string
}

// NewClient creates a client for the configured base and table.
func NewClient(cfg *config.AirtableConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &Client{
		http:      &http.Client{Timeout: timeout},
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		baseKey:   cfg.BaseKey,
		tableName: cfg.TableName,
		apiKey:    cfg.APIKey,
	}
}

// TableName returns the name of the table the client writes to.
func (c *Client) TableName() string {
	return c.tableName
}

func (c *Client) tableURL() string {
	return c.endpoint + "/" + url.PathEscape(c.baseKey) + "/" + url.PathEscape(c.tableName)
}

// do sends a JSON request and decodes a JSON response into out.
// Numbers are decoded as json.Number so integral values stay integers.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", method, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("airtable %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read airtable response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, method, redact(endpoint), data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode airtable response: %w", err)
	}
	return nil
}

// redact drops the query string so cursors and filters stay out of error text.
func redact(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
