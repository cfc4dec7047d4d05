package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cetus-cli/internal/api"
)

func sampleRecords() []api.Record {
	return []api.Record{
		{"uuid": uuid.NewString(), "dns_timestamp": "2025-01-01T00:00:00Z", "host": "a.example.com", "A": "192.0.2.1"},
		{"uuid": uuid.NewString(), "dns_timestamp": "2025-01-01T00:00:01Z", "host": "b.example.com", "A": "192.0.2.2"},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "jsonl", "csv", "table"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestJSONOutput(t *testing.T) {
	records := sampleRecords()
	var buf bytes.Buffer
	require.NoError(t, WriteAll(FormatJSON, records, &buf))

	var decoded []api.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, records[0].UUID(), decoded[0].UUID())
}

func TestJSONOutputEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAll(FormatJSON, nil, &buf))
	assert.Equal(t, "[]\n", buf.String())
}

func TestJSONLOutput(t *testing.T) {
	records := sampleRecords()
	var buf bytes.Buffer
	require.NoError(t, WriteAll(FormatJSONL, records, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	for i, line := range lines {
		var decoded api.Record
		require.NoError(t, json.Unmarshal([]byte(line), &decoded))
		assert.Equal(t, records[i].UUID(), decoded.UUID())
	}
}

func TestCSVOutput(t *testing.T) {
	records := sampleRecords()
	var buf bytes.Buffer
	require.NoError(t, WriteAll(FormatCSV, records, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two records")

	assert.Equal(t, []string{"uuid", "dns_timestamp", "A", "host"}, rows[0],
		"uuid first, then timestamps, then remaining columns sorted")
	assert.Equal(t, records[0].UUID(), rows[1][0])
	assert.Equal(t, "a.example.com", rows[1][3])
}

func TestCSVStreamsPerRecord(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(FormatCSV, &buf)
	require.NoError(t, err)

	require.NoError(t, w.Write(sampleRecords()[0]))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"),
		"header and first row flushed before Close")
	require.NoError(t, w.Close())
}

func TestTableOutput(t *testing.T) {
	records := sampleRecords()
	var buf bytes.Buffer
	require.NoError(t, WriteAll(FormatTable, records, &buf))

	out := buf.String()
	assert.Contains(t, out, "UUID")
	assert.Contains(t, out, "a.example.com")
	assert.Contains(t, out, "b.example.com")
}

func TestTableOutputEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAll(FormatTable, nil, &buf))
	assert.Empty(t, buf.String())
}
