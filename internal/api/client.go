package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Client talks to the Cetus API. It performs no retries: every failed
// request surfaces as one of the error types in errors.go.
type Client struct {
	restyClient *resty.Client
	host        string
}

// NewClient builds a client for the given host. The host may include a
// scheme (used by tests to point at a local server); otherwise https is
// assumed.
func NewClient(host, apiKey string, timeout time.Duration) *Client {
	baseURL := host
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Token "+apiKey).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{restyClient: client, host: host}
}

// fetchPage performs one bounded round-trip against the query endpoint.
// pitID keeps the server's snapshot consistent across pages; empty on the
// first request.
func (c *Client) fetchPage(ctx context.Context, query string, index Index, media Media, pitID string) (*Page, error) {
	body := map[string]any{
		"query": query,
		"index": index,
		"media": media,
	}
	if pitID != "" {
		body["pit_id"] = pitID
	}

	log.Debug().Str("query", query).Str("index", string(index)).Msg("fetching page")

	var page Page
	resp, err := c.restyClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&page).
		Post("/api/query/")
	if err != nil {
		return nil, &ConnectionError{Host: c.host, Err: err}
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	log.Debug().Int("records", len(page.Records)).Str("pit_id", page.PitID).Msg("page received")
	return &page, nil
}

// ListAlerts returns alert definitions owned by or shared with the caller,
// optionally filtered by type (raw, terms, structured).
func (c *Client) ListAlerts(ctx context.Context, owned, shared bool, alertType string) ([]Alert, error) {
	params := map[string]string{"length": "1000"}
	if owned {
		params["owned"] = "true"
	}
	if shared {
		params["shared"] = "true"
	}
	if alertType != "" {
		params["type_filter"] = alertType
	}

	var result struct {
		Data []Alert `json:"data"`
	}
	resp, err := c.restyClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&result).
		Get("/alerts/api/unified/")
	if err != nil {
		return nil, &ConnectionError{Host: c.host, Err: err}
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// GetAlert fetches one alert definition. Returns nil without error when
// the alert does not exist.
func (c *Client) GetAlert(ctx context.Context, id int) (*Alert, error) {
	var alert Alert
	resp, err := c.restyClient.R().
		SetContext(ctx).
		SetResult(&alert).
		Get(fmt.Sprintf("/alerts/api/unified/%d/", id))
	if err != nil {
		return nil, &ConnectionError{Host: c.host, Err: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return &alert, nil
}

// GetAlertResults returns stored results for an alert, optionally limited
// to those after the given ISO 8601 timestamp.
func (c *Client) GetAlertResults(ctx context.Context, id int, since string) ([]Record, error) {
	req := c.restyClient.R().SetContext(ctx)
	if since != "" {
		req.SetQueryParam("since", since)
	}

	var result struct {
		Data []Record `json:"data"`
	}
	resp, err := req.
		SetResult(&result).
		Get("/api/alert_results/" + strconv.Itoa(id))
	if err != nil {
		return nil, &ConnectionError{Host: c.host, Err: err}
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// checkStatus is the single place HTTP status codes become domain errors.
func checkStatus(resp *resty.Response) error {
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return &AuthenticationError{Message: "invalid API key"}
	case resp.StatusCode() == http.StatusForbidden:
		return &AuthorizationError{Message: "access denied - check your permissions"}
	case resp.IsError():
		return &APIError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 500)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
