package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Sink consumes one record. A non-nil error aborts the whole run.
type Sink func(Record) error

// Query executes a search and returns all matching records in memory.
//
// When resume is set, its timestamp becomes the inclusive lower bound of
// the time filter and records up to and including its uuid are skipped.
// Otherwise sinceDays bounds the lookback; sinceDays <= 0 queries full
// history.
func (c *Client) Query(ctx context.Context, search string, index Index, media Media, sinceDays int, resume *Cursor) (*QueryResult, error) {
	result := &QueryResult{}
	cursor, pages, err := c.paginate(ctx, search, index, media, sinceDays, resume, func(r Record) error {
		result.Records = append(result.Records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.TotalFetched = len(result.Records)
	result.PagesFetched = pages
	if cursor != nil {
		result.LastUUID = cursor.LastUUID
		result.LastTimestamp = cursor.LastTimestamp
	}
	return result, nil
}

// QueryStream executes a search, handing each record to sink the moment
// it arrives. Returns the final cursor, or nil if nothing was emitted.
// Records already handed to the sink stay valid if the run fails partway;
// the cursor is only returned on natural termination, so an aborted run
// never advances a saved marker.
func (c *Client) QueryStream(ctx context.Context, search string, index Index, media Media, sinceDays int, resume *Cursor, sink Sink) (*Cursor, error) {
	cursor, _, err := c.paginate(ctx, search, index, media, sinceDays, resume, sink)
	return cursor, err
}

// paginate drives the page fetch loop shared by bulk and streaming mode.
//
// The server cannot express a strictly-exclusive lower bound with stable
// tie-breaking, so every page transition rewrites the time filter to an
// inclusive ">= last emitted timestamp" and the next page may re-include
// the boundary record. Duplicates are therefore skipped by uuid identity,
// not by timestamp: the loop seeks the skip target in each page and only
// emits what follows it. Ordering within and across pages is trusted to
// be stable for a given filter and pit_id; this component imposes none of
// its own.
func (c *Client) paginate(ctx context.Context, search string, index Index, media Media, sinceDays int, resume *Cursor, sink Sink) (*Cursor, int, error) {
	field := index.TimestampField()
	fullQuery := "(" + search + ")" + timeFilter(field, sinceDays, resume)

	var (
		cursor   *Cursor
		pitID    string
		skipUUID string
		seeking  bool
		pages    int
	)
	if resume != nil {
		// Seeking state: the supplied marker's record must be located
		// before anything is emitted.
		skipUUID = resume.LastUUID
		seeking = true
	}

	for {
		page, err := c.fetchPage(ctx, fullQuery, index, media, pitID)
		if err != nil {
			return nil, pages, err
		}
		pages++

		records := page.Records
		if len(records) == 0 {
			break
		}
		// End-of-stream is judged on the raw page length, before any
		// skip trimming shortens it.
		lastPage := len(records) < PageSize

		if skipUUID != "" {
			found := -1
			for i, r := range records {
				if r.UUID() == skipUUID {
					found = i
					break
				}
			}
			if found >= 0 {
				// The skip target itself was consumed by the prior run
				// (or prior page); emission resumes after it.
				records = records[found+1:]
				skipUUID = ""
				seeking = false
			} else if seeking {
				// Still looking for the supplied marker: everything on
				// this page is at or before it (boundary ties can push
				// the marker past a page boundary). Nothing is new.
				if lastPage {
					return cursor, pages, nil
				}
				pitID = page.PitID
				continue
			} else {
				// Rolling dedup after a page transition: the server
				// chose not to re-include the boundary record, so the
				// whole page is new.
				skipUUID = ""
			}
		}

		for _, r := range records {
			if err := sink(r); err != nil {
				return nil, pages, err
			}
			cursor = &Cursor{LastUUID: r.UUID(), LastTimestamp: r.Timestamp(index)}
		}

		if lastPage {
			break
		}

		pitID = page.PitID
		if cursor != nil {
			// The rewritten inclusive bound re-includes the last
			// emitted record on the next page; make it the new skip
			// target.
			skipUUID = cursor.LastUUID
			fullQuery = "(" + search + ")" + rangeClause(field, cursor.LastTimestamp)
			log.Debug().Str("last_uuid", cursor.LastUUID).Str("last_timestamp", cursor.LastTimestamp).Msg("advancing cursor")
		}
	}

	return cursor, pages, nil
}

// timeFilter builds the Lucene clause bounding the query in time. A
// resume cursor wins over sinceDays; its bound is inclusive on purpose,
// the duplicate it admits is skipped by uuid.
func timeFilter(field string, sinceDays int, resume *Cursor) string {
	switch {
	case resume != nil:
		return rangeClause(field, resume.LastTimestamp)
	case sinceDays > 0:
		since := time.Now().AddDate(0, 0, -sinceDays).Truncate(time.Second)
		return rangeClause(field, since.Format("2006-01-02T15:04:05"))
	default:
		return ""
	}
}

func rangeClause(field, ts string) string {
	return fmt.Sprintf(" AND %s:[%s TO *]", field, ts)
}
