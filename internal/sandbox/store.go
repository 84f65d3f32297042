// Package sandbox runs a local, in-memory rendition of the hospital
// backend: the full REST surface the admin client consumes, with bearer
// auth, per-resource envelope shapes, multipart uploads, and a
// deterministic synthetic-data seeder. It exists for developer
// on-boarding, CLI demos, and integration tests; nothing here persists
// across restarts.
package sandbox

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// record is a schemaless backend row. The sandbox mirrors the real
// backend's behavior of passing entity payloads through unchanged.
type record map[string]any

func (r record) id() string {
	s, _ := r["id"].(string)
	return s
}

func (r record) str(key string) string {
	s, _ := r[key].(string)
	return s
}

// collection is a thread-safe ordered set of records.
type collection struct {
	mu    sync.RWMutex
	rows  []record
	index map[string]int
}

func newCollection() *collection {
	return &collection{index: make(map[string]int)}
}

// insert assigns an id when absent and appends the record.
func (c *collection) insert(r record) record {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.id() == "" {
		r["id"] = uuid.New().String()
	}
	c.index[r.id()] = len(c.rows)
	c.rows = append(c.rows, r)
	return r
}

// get returns a copy of the record with the given id.
func (c *collection) get(id string) (record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return cloneRecord(c.rows[i]), true
}

// merge applies the non-nil fields of patch onto an existing record,
// mirroring the backend's partial-update semantics.
func (c *collection) merge(id string, patch record) (record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		c.rows[i][k] = v
	}
	return cloneRecord(c.rows[i]), true
}

// remove deletes the record with the given id.
func (c *collection) remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.rows = append(c.rows[:i], c.rows[i+1:]...)
	c.index = make(map[string]int, len(c.rows))
	for j, r := range c.rows {
		c.index[r.id()] = j
	}
	return true
}

// filter returns copies of all records accepted by keep, in order. A nil
// keep accepts everything.
func (c *collection) filter(keep func(record) bool) []record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]record, 0, len(c.rows))
	for _, r := range c.rows {
		if keep == nil || keep(r) {
			out = append(out, cloneRecord(r))
		}
	}
	return out
}

func (c *collection) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rows)
}

func cloneRecord(r record) record {
	out := make(record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// matchQuery implements the backend's list filtering: case-insensitive
// substring search across the named fields, and facet equality after
// dash/space normalization.
func matchQuery(r record, searchFields []string, search string, facets map[string]string) bool {
	if search != "" {
		needle := strings.ToLower(search)
		hit := false
		for _, f := range searchFields {
			if strings.Contains(strings.ToLower(r.str(f)), needle) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for field, want := range facets {
		if want == "" {
			continue
		}
		if normalizeFacet(r.str(field)) != normalizeFacet(want) {
			return false
		}
	}
	return true
}

func normalizeFacet(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", " ")))
}
