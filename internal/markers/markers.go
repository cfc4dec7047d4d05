// Package markers persists per-query resumption cursors so repeated
// queries only fetch records newer than the last run.
//
// Each marker is one JSON file under the data directory, named
// {index}_{hash}.json where hash is derived from "{index}:{query}".
// The store favors availability: a file that fails to parse is treated
// as if no marker existed, which only costs a full re-query.
package markers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Marker is the resumption point for one (query, index) pair.
type Marker struct {
	Query         string `json:"query"`
	Index         string `json:"index"`
	LastTimestamp string `json:"last_timestamp"`
	LastUUID      string `json:"last_uuid"`
	UpdatedAt     string `json:"updated_at"`
}

// Store keeps markers as one file per (query, index) key. Concurrent
// writers to the same key are not coordinated: last writer wins.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns the XDG data location for markers,
// ~/.local/share/cetus/markers unless XDG_DATA_HOME overrides it.
func DefaultDir() (string, error) {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "cetus", "markers"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "cetus", "markers"), nil
}

func queryHash(query, index string) string {
	sum := sha256.Sum256([]byte(index + ":" + query))
	return hex.EncodeToString(sum[:])[:16]
}

func (s *Store) path(query, index string) string {
	return filepath.Join(s.dir, index+"_"+queryHash(query, index)+".json")
}

// Get returns the marker for the given query and index, or nil when none
// is stored or the stored file is unreadable.
func (s *Store) Get(query, index string) *Marker {
	m := readMarker(s.path(query, index))
	return m
}

// Save writes the marker for the given key, replacing any prior value.
// The write goes through a temp file and rename so a crash never leaves
// a half-written marker behind.
func (s *Store) Save(query, index, lastTimestamp, lastUUID string) (*Marker, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}

	m := &Marker{
		Query:         query,
		Index:         index,
		LastTimestamp: lastTimestamp,
		LastUUID:      lastUUID,
		UpdatedAt:     time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, ".marker-*")
	if err != nil {
		return nil, err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := os.Rename(tmp.Name(), s.path(query, index)); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	return m, nil
}

// Delete removes the marker for the given key. Reports whether one
// existed.
func (s *Store) Delete(query, index string) bool {
	err := os.Remove(s.path(query, index))
	return err == nil
}

// ListAll returns every readable marker, most recently updated first.
func (s *Store) ListAll() []Marker {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil
	}

	var out []Marker
	for _, p := range paths {
		if m := readMarker(p); m != nil {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}

// Clear deletes all markers, or only those of one index when index is
// non-empty. Returns the number deleted.
func (s *Store) Clear(index string) int {
	pattern := "*.json"
	if index != "" {
		pattern = index + "_*.json"
	}
	paths, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return 0
	}

	count := 0
	for _, p := range paths {
		if strings.HasPrefix(filepath.Base(p), ".") {
			continue
		}
		if os.Remove(p) == nil {
			count++
		}
	}
	return count
}

func readMarker(path string) *Marker {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	if m.LastTimestamp == "" || m.LastUUID == "" {
		// Parsed but missing required fields, treat as corrupted.
		return nil
	}
	return &m
}
