// Package output renders query records as json, jsonl, csv or a table.
// Every writer doubles as a streaming sink: Write may be called per
// record as results arrive, Close finalizes the output.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"cetus-cli/internal/api"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatJSONL, FormatCSV, FormatTable:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid format %q (must be json, jsonl, csv or table)", s)
}

// Writer renders records one at a time. Close must be called once after
// the last record; table output is only rendered then.
type Writer interface {
	Write(api.Record) error
	Close() error
}

func NewWriter(format Format, w io.Writer) (Writer, error) {
	switch format {
	case FormatJSON:
		return &jsonWriter{w: w}, nil
	case FormatJSONL:
		return &jsonlWriter{enc: json.NewEncoder(w)}, nil
	case FormatCSV:
		return &csvWriter{w: csv.NewWriter(w)}, nil
	case FormatTable:
		return &tableWriter{w: w}, nil
	}
	return nil, fmt.Errorf("invalid format %q", format)
}

// WriteAll renders a complete record set in one call.
func WriteAll(format Format, records []api.Record, w io.Writer) error {
	out, err := NewWriter(format, w)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := out.Write(r); err != nil {
			return err
		}
	}
	return out.Close()
}

// columns derives a stable column order from a record: uuid first, then
// timestamp fields, then everything else alphabetically.
func columns(r api.Record) []string {
	var ts, rest []string
	for k := range r {
		switch {
		case k == "uuid":
		case k == "timestamp", strings.HasSuffix(k, "_timestamp"):
			ts = append(ts, k)
		default:
			rest = append(rest, k)
		}
	}
	sort.Strings(ts)
	sort.Strings(rest)

	var cols []string
	if _, ok := r["uuid"]; ok {
		cols = append(cols, "uuid")
	}
	cols = append(cols, ts...)
	return append(cols, rest...)
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

type jsonWriter struct {
	w     io.Writer
	wrote bool
}

func (j *jsonWriter) Write(r api.Record) error {
	sep := "[\n"
	if j.wrote {
		sep = ",\n"
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(j.w, "%s  %s", sep, data); err != nil {
		return err
	}
	j.wrote = true
	return nil
}

func (j *jsonWriter) Close() error {
	if !j.wrote {
		_, err := io.WriteString(j.w, "[]\n")
		return err
	}
	_, err := io.WriteString(j.w, "\n]\n")
	return err
}

type jsonlWriter struct {
	enc *json.Encoder
}

func (j *jsonlWriter) Write(r api.Record) error { return j.enc.Encode(r) }
func (j *jsonlWriter) Close() error             { return nil }

type csvWriter struct {
	w    *csv.Writer
	cols []string
}

func (c *csvWriter) Write(r api.Record) error {
	if c.cols == nil {
		// Header comes from the first record; later records with extra
		// fields lose them, same as any fixed-column rendering.
		c.cols = columns(r)
		if err := c.w.Write(c.cols); err != nil {
			return err
		}
	}
	row := make([]string, len(c.cols))
	for i, col := range c.cols {
		row[i] = cell(r[col])
	}
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	return c.w.Error()
}

type tableWriter struct {
	w       io.Writer
	records []api.Record
}

func (t *tableWriter) Write(r api.Record) error {
	t.records = append(t.records, r)
	return nil
}

func (t *tableWriter) Close() error {
	if len(t.records) == 0 {
		return nil
	}
	cols := columns(t.records[0])

	tw := table.NewWriter()
	tw.SetOutputMirror(t.w)
	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	tw.AppendHeader(header)
	for _, r := range t.records {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[i] = cell(r[c])
		}
		tw.AppendRow(row)
	}
	tw.Render()
	return nil
}
