package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elliotlrichardson/airsync/internal/config"
	"github.com/elliotlrichardson/airsync/internal/table"
)

// fakeAPI records requests and serves canned responses for one table.
type fakeAPI struct {
	t        *testing.T
	mu       sync.Mutex
	requests []capturedRequest
	handler  func(w http.ResponseWriter, r *http.Request, body []byte)
}

type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

func newFakeAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte)) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{t: t, handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)

	client := NewClient(&config.AirtableConfig{
		APIKey:         "key123",
		BaseKey:        "appBase",
		TableName:      "Form Responses",
		Endpoint:       srv.URL + "/v0/",
		TimeoutSeconds: 5,
	})
	return api, client
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	captured := capturedRequest{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
	}
	if len(body) > 0 {
		require.NoError(f.t, json.Unmarshal(body, &captured.Body))
	}
	f.mu.Lock()
	f.requests = append(f.requests, captured)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	f.handler(w, r, body)
}

func TestListRecords_FollowsOffset(t *testing.T) {
	api, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		switch r.URL.Query().Get("offset") {
		case "":
			io.WriteString(w, `{"records":[{"id":"rec1","createdTime":"2024-01-01T00:00:00.000Z","fields":{"response_id":"A1","age":30}}],"offset":"itr2"}`)
		case "itr2":
			io.WriteString(w, `{"records":[{"id":"rec2","createdTime":"2024-01-02T00:00:00.000Z","fields":{"response_id":"A2","score":1.5}}]}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	records, err := client.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec1", records[0].ID)
	assert.Equal(t, json.Number("30"), records[0].Fields["age"])
	assert.Equal(t, json.Number("1.5"), records[1].Fields["score"])

	require.Len(t, api.requests, 2)
	assert.Equal(t, "/v0/appBase/Form%20Responses", api.requests[0].Path)
	assert.Equal(t, "Bearer key123", api.requests[0].Auth)
	assert.Contains(t, api.requests[0].Query, "pageSize=100")
	assert.NotContains(t, api.requests[0].Query, "offset")
	assert.Contains(t, api.requests[1].Query, "offset=itr2")
}

func TestListRecords_APIError(t *testing.T) {
	_, client := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"type":"AUTHENTICATION_REQUIRED","message":"Authentication required"}}`)
	})

	_, err := client.ListRecords(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "AUTHENTICATION_REQUIRED", apiErr.Type)
	assert.Equal(t, "Authentication required", apiErr.Message)
	assert.Equal(t, http.MethodGet, apiErr.Method)
	assert.NotContains(t, apiErr.Endpoint, "?")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateRecord(t *testing.T) {
	api, client := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		io.WriteString(w, `{"id":"rec1","fields":{}}`)
	})

	err := client.UpdateRecord(context.Background(), "rec1", map[string]any{"age": int64(31), "name": "Ann"}, true)
	require.NoError(t, err)

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/v0/appBase/Form%20Responses/rec1", req.Path)
	assert.Equal(t, true, req.Body["typecast"])
	assert.Equal(t, map[string]any{"age": float64(31), "name": "Ann"}, req.Body["fields"])
}

func TestUpdateRecord_NotFound(t *testing.T) {
	_, client := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"NOT_FOUND"}`)
	})

	err := client.UpdateRecord(context.Background(), "recX", map[string]any{"a": "b"}, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "recX")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Type)
}

func TestInsertRecords_ChunksByTen(t *testing.T) {
	api, client := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request, body []byte) {
		var req createRequest
		require.NoError(t, json.Unmarshal(body, &req))
		resp := createResponse{}
		for i := range req.Records {
			resp.Records = append(resp.Records, Record{ID: "rec" + strconv.Itoa(i)})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	tbl := table.New("response_id", "age")
	for i := 0; i < 23; i++ {
		tbl.Append(table.RowOf("response_id", "N"+strconv.Itoa(i), "age", i))
	}
	tbl.Append(table.RowOf("response_id", "N23", "age", nil))

	inserted, err := client.InsertRecords(context.Background(), tbl, false)
	require.NoError(t, err)
	assert.Equal(t, 24, inserted)

	require.Len(t, api.requests, 3)
	sizes := []int{}
	for _, req := range api.requests {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, false, req.Body["typecast"])
		sizes = append(sizes, len(req.Body["records"].([]any)))
	}
	assert.Equal(t, []int{10, 10, 4}, sizes)

	last := api.requests[2].Body["records"].([]any)
	lastFields := last[3].(map[string]any)["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"response_id": "N23"}, lastFields)
}

func TestInsertRecords_Empty(t *testing.T) {
	api, client := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	inserted, err := client.InsertRecords(context.Background(), table.New("a"), false)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Empty(t, api.requests)
}

func TestInsertRecords_StopsOnFailure(t *testing.T) {
	calls := 0
	_, client := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request, body []byte) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			io.WriteString(w, `{"error":{"type":"INVALID_VALUE_FOR_COLUMN","message":"Field \"age\" cannot accept the provided value"}}`)
			return
		}
		var req createRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.NoError(t, json.NewEncoder(w).Encode(createResponse{Records: req.Records}))
	})

	tbl := table.New("k")
	for i := 0; i < 15; i++ {
		tbl.Append(table.RowOf("k", i))
	}

	inserted, err := client.InsertRecords(context.Background(), tbl, false)
	require.Error(t, err)
	assert.Equal(t, 10, inserted)
	assert.Contains(t, err.Error(), "INVALID_VALUE_FOR_COLUMN")
}

func TestAPIErrorIs(t *testing.T) {
	assert.ErrorIs(t, &APIError{StatusCode: http.StatusTooManyRequests}, ErrRateLimited)
	assert.ErrorIs(t, &APIError{StatusCode: http.StatusForbidden}, ErrUnauthorized)
	assert.False(t, errors.Is(&APIError{StatusCode: http.StatusBadRequest}, ErrNotFound))
}

func TestParseAPIError_UnparseableBody(t *testing.T) {
	apiErr := parseAPIError(http.StatusBadGateway, http.MethodGet, "/v0/x", []byte("<html>"))
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "status 502")
}
