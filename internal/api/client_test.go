package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusServer(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 5*time.Second)
}

func TestStatusCodeMapping(t *testing.T) {
	ctx := context.Background()

	t.Run("401 is an authentication failure", func(t *testing.T) {
		client := statusServer(t, http.StatusUnauthorized, `{"detail":"bad token"}`)
		_, err := client.Query(ctx, "host:*", IndexDNS, MediaNVMe, 0, nil)
		var authErr *AuthenticationError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("403 is an authorization failure", func(t *testing.T) {
		client := statusServer(t, http.StatusForbidden, `{"detail":"no access"}`)
		_, err := client.Query(ctx, "host:*", IndexDNS, MediaNVMe, 0, nil)
		var authzErr *AuthorizationError
		require.ErrorAs(t, err, &authzErr)
	})

	t.Run("other 4xx/5xx carry status and truncated body", func(t *testing.T) {
		longBody := strings.Repeat("x", 600)
		client := statusServer(t, http.StatusBadGateway, longBody)
		_, err := client.Query(ctx, "host:*", IndexDNS, MediaNVMe, 0, nil)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.Len(t, apiErr.Body, 500)
	})
}

func TestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, "test-key", time.Second)
	_, err := client.Query(context.Background(), "host:*", IndexDNS, MediaNVMe, 0, nil)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestListAlerts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/alerts/api/unified/", r.URL.Path)
		require.Equal(t, "Token test-key", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("owned"))
		assert.Equal(t, "true", q.Get("shared"))
		assert.Equal(t, "raw", q.Get("type_filter"))
		assert.Equal(t, "1000", q.Get("length"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": 1, "alert_type": "raw", "title": "first", "query_preview": "host:a", "owned": true},
				{"id": 2, "alert_type": "raw", "title": "second", "query_preview": "host:b", "shared_by": "alice"},
			},
		})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "test-key", 5*time.Second)
	alerts, err := client.ListAlerts(context.Background(), true, true, "raw")
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, 1, alerts[0].ID)
	assert.True(t, alerts[0].Owned)
	assert.Equal(t, "alice", alerts[1].SharedBy)
}

func TestGetAlert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/alerts/api/unified/42/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":         42,
			"alert_type": "terms",
			"title":      "suspicious hosts",
			"query":      "host:*.evil.example",
		})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "test-key", 5*time.Second)
	alert, err := client.GetAlert(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, 42, alert.ID)
	assert.Equal(t, "host:*.evil.example", alert.SearchQuery())
}

func TestGetAlertNotFound(t *testing.T) {
	client := statusServer(t, http.StatusNotFound, "")
	alert, err := client.GetAlert(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestGetAlertResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/alert_results/7", r.URL.Path)
		assert.Equal(t, "2025-01-01T00:00:00Z", r.URL.Query().Get("since"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"uuid": "r-1", "timestamp": "2025-01-02T00:00:00Z"},
			},
		})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "test-key", 5*time.Second)
	records, err := client.GetAlertResults(context.Background(), 7, "2025-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r-1", records[0].UUID())
}

func TestAlertSearchQueryPrefersFullQuery(t *testing.T) {
	a := Alert{Query: "host:full", QueryPreview: "host:preview"}
	assert.Equal(t, "host:full", a.SearchQuery())

	a = Alert{QueryPreview: "host:preview"}
	assert.Equal(t, "host:preview", a.SearchQuery())
}

func TestIndexTimestampField(t *testing.T) {
	assert.Equal(t, "dns_timestamp", IndexDNS.TimestampField())
	assert.Equal(t, "certstream_timestamp", IndexCertstream.TimestampField())
	assert.Equal(t, "timestamp", IndexAlerting.TimestampField())
}

func TestRecordTimestampFallback(t *testing.T) {
	r := Record{"uuid": "u", "dns_timestamp": "2025-01-01T00:00:00Z"}
	assert.Equal(t, "2025-01-01T00:00:00Z", r.Timestamp(IndexDNS))

	// Alerting records sometimes carry only the plain field.
	r = Record{"uuid": "u", "timestamp": "2025-01-02T00:00:00Z"}
	assert.Equal(t, "2025-01-02T00:00:00Z", r.Timestamp(IndexAlerting))
	assert.Equal(t, "2025-01-02T00:00:00Z", r.Timestamp(IndexDNS), "plain timestamp is the fallback for every index")
}

func TestParseIndexAndMedia(t *testing.T) {
	for _, s := range []string{"dns", "certstream", "alerting"} {
		idx, err := ParseIndex(s)
		require.NoError(t, err)
		assert.Equal(t, Index(s), idx)
	}
	_, err := ParseIndex("passive_dns")
	assert.Error(t, err)

	_, err = ParseMedia("nvme")
	require.NoError(t, err)
	_, err = ParseMedia("tape")
	assert.Error(t, err)
}
