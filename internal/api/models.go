package api

import "fmt"

// PageSize is the fixed number of records the server returns per page.
// A page with fewer records is the last page.
const PageSize = 10000

// Index is the logical dataset a query runs against.
type Index string

const (
	IndexDNS        Index = "dns"
	IndexCertstream Index = "certstream"
	IndexAlerting   Index = "alerting"
)

func ParseIndex(s string) (Index, error) {
	switch Index(s) {
	case IndexDNS, IndexCertstream, IndexAlerting:
		return Index(s), nil
	}
	return "", fmt.Errorf("invalid index %q (must be dns, certstream or alerting)", s)
}

// TimestampField returns the name of the timestamp field records of this
// index carry. The alerting index uses a plain "timestamp" field instead
// of the usual "{index}_timestamp".
func (i Index) TimestampField() string {
	if i == IndexAlerting {
		return "timestamp"
	}
	return string(i) + "_timestamp"
}

// Media selects the server-side storage tier: nvme for fast results,
// all for complete coverage.
type Media string

const (
	MediaNVMe Media = "nvme"
	MediaAll  Media = "all"
)

func ParseMedia(s string) (Media, error) {
	switch Media(s) {
	case MediaNVMe, MediaAll:
		return Media(s), nil
	}
	return "", fmt.Errorf("invalid media %q (must be nvme or all)", s)
}

// Record is one search result. The schema varies per index, so records
// stay opaque; only the uuid and timestamp fields are ever interpreted.
type Record map[string]any

func (r Record) UUID() string {
	s, _ := r["uuid"].(string)
	return s
}

// Timestamp returns the record's timestamp for the given index, falling
// back to the plain "timestamp" field when the index-specific one is
// missing (alerting records vary between the two).
func (r Record) Timestamp(index Index) string {
	if s, ok := r[index.TimestampField()].(string); ok && s != "" {
		return s
	}
	s, _ := r["timestamp"].(string)
	return s
}

// Page is the response of one query request.
type Page struct {
	Records []Record `json:"data"`
	PitID   string   `json:"pit_id"`
}

// Cursor is a resumption point: the timestamp of the last record consumed
// plus its uuid, which disambiguates records sharing that timestamp.
type Cursor struct {
	LastUUID      string
	LastTimestamp string
}

// QueryResult aggregates a complete bulk query.
type QueryResult struct {
	Records       []Record
	TotalFetched  int
	LastUUID      string
	LastTimestamp string
	PagesFetched  int
}

// Alert is a server-side alert definition. The list endpoint returns
// query_preview, the detail endpoint returns the full query.
type Alert struct {
	ID           int    `json:"id"`
	AlertType    string `json:"alert_type"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Query        string `json:"query"`
	QueryPreview string `json:"query_preview"`
	Owned        bool   `json:"owned"`
	SharedBy     string `json:"shared_by"`
}

// SearchQuery returns the query text to replay for a backtest.
func (a Alert) SearchQuery() string {
	if a.Query != "" {
		return a.Query
	}
	return a.QueryPreview
}
