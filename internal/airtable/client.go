// Package airtable reads records from the Airtable REST API.
package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gdg-garage/badge-api/internal/config"
	"github.com/gdg-garage/badge-api/internal/metrics"
	"github.com/gdg-garage/badge-api/internal/records"
	"golang.org/x/oauth2"
)

const DefaultAPIURL = "https://api.airtable.com/v0"

// APIError is a non-2xx answer from Airtable.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Type
	if e.Message != "" {
		if msg != "" {
			msg += ": "
		}
		msg += e.Message
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("airtable: %d %s", e.StatusCode, msg)
}

type Client struct {
	apiURL     string
	baseID     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient builds a client authenticated with the personal access token in
// cfg. ctx may carry an *http.Client under oauth2.HTTPClient to replace the
// underlying transport.
func NewClient(ctx context.Context, cfg *config.Config) *Client {
	apiURL := cfg.AirtableAPIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AirtableAPIKey})
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		baseID:     cfg.AirtableBaseID,
		timeout:    cfg.UpstreamTimeout,
		httpClient: oauth2.NewClient(ctx, ts),
	}
}

type recordJSON struct {
	ID          string         `json:"id"`
	CreatedTime time.Time      `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

func (r recordJSON) toRecord() records.Record {
	return records.Record{ID: r.ID, CreatedTime: r.CreatedTime, Fields: r.Fields}
}

type listResponse struct {
	Records []recordJSON `json:"records"`
	Offset  string       `json:"offset"`
}

// Select lists the records of table matching q, following pagination until
// the result is exhausted or q.MaxRecords rows have been read.
func (c *Client) Select(ctx context.Context, table string, q records.Query) ([]records.Record, error) {
	params := url.Values{}
	if formula := q.Filter.Formula(); formula != "" {
		params.Set("filterByFormula", formula)
	}
	if q.MaxRecords > 0 {
		params.Set("maxRecords", strconv.Itoa(q.MaxRecords))
	}
	for i, s := range q.Sort {
		params.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		params.Set(fmt.Sprintf("sort[%d][direction]", i), string(s.Direction))
	}

	var out []records.Record
	for {
		var page listResponse
		if err := c.get(ctx, "select", c.tableURL(table), params, &page); err != nil {
			return nil, err
		}
		for _, r := range page.Records {
			out = append(out, r.toRecord())
		}
		if page.Offset == "" || (q.MaxRecords > 0 && len(out) >= q.MaxRecords) {
			break
		}
		params.Set("offset", page.Offset)
	}

	if q.MaxRecords > 0 && len(out) > q.MaxRecords {
		out = out[:q.MaxRecords]
	}
	return out, nil
}

// Find fetches one record by id. Unknown and malformed ids both yield
// records.ErrNotFound.
func (c *Client) Find(ctx context.Context, table, id string) (records.Record, error) {
	var rec recordJSON
	err := c.get(ctx, "find", c.tableURL(table)+"/"+url.PathEscape(id), nil, &rec)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) &&
			(apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusUnprocessableEntity) {
			return records.Record{}, fmt.Errorf("%w: %s", records.ErrNotFound, apiErr.Error())
		}
		return records.Record{}, err
	}
	return rec.toRecord(), nil
}

func (c *Client) tableURL(table string) string {
	return c.apiURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
}

func (c *Client) get(ctx context.Context, op, endpoint string, params url.Values, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("airtable %s request failed: %w", op, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequests.WithLabelValues(op, statusClass(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read airtable response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode airtable response: %w", err)
	}
	return nil
}

// decodeError handles both error shapes Airtable returns:
// {"error":"NOT_FOUND"} and {"error":{"type":"...","message":"..."}}.
func decodeError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return apiErr
	}

	var code string
	if err := json.Unmarshal(envelope.Error, &code); err == nil {
		apiErr.Type = code
		return apiErr
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		apiErr.Type = detail.Type
		apiErr.Message = detail.Message
	}
	return apiErr
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
