package health

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Entry is one key/value pair of a Snapshot.
type Entry struct {
	Key   string
	Value any
}

// Snapshot is an immutable, key-sorted view of the registry as of one
// refresh. Values are shared with the registry, so callers must not mutate
// map or slice values they read from it.
type Snapshot struct {
	entries     []Entry
	index       map[string]int
	refreshedAt time.Time
	generation  uint64
	invalidated bool
}

func newSnapshot(values map[string]any, refreshedAt time.Time, generation uint64, invalidated bool) *Snapshot {
	keys := slices.Sorted(maps.Keys(values))

	s := &Snapshot{
		entries:     make([]Entry, len(keys)),
		index:       make(map[string]int, len(keys)),
		refreshedAt: refreshedAt,
		generation:  generation,
		invalidated: invalidated,
	}
	for i, k := range keys {
		s.entries[i] = Entry{Key: k, Value: values[k]}
		s.index[k] = i
	}
	return s
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Get returns the value stored under key.
func (s *Snapshot) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return s.entries[i].Value, true
}

// Value returns the value stored under key, or nil.
func (s *Snapshot) Value(key string) any {
	v, _ := s.Get(key)
	return v
}

// Keys returns the keys in sorted order.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the sorted entries.
func (s *Snapshot) Entries() []Entry {
	if s == nil {
		return nil
	}
	return slices.Clone(s.entries)
}

// Map returns the entries as a fresh map.
func (s *Snapshot) Map() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	m := make(map[string]any, len(s.entries))
	for _, e := range s.entries {
		m[e.Key] = e.Value
	}
	return m
}

// RefreshedAt is the healthTimestamp this snapshot was published with.
func (s *Snapshot) RefreshedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.refreshedAt
}

// Generation increases by one for every published snapshot.
func (s *Snapshot) Generation() uint64 {
	if s == nil {
		return 0
	}
	return s.generation
}

// Invalidated reports whether the snapshot was published by a reset rather
// than by a refresh, in which case a lazy scheduler recomputes on next read.
func (s *Snapshot) Invalidated() bool {
	return s == nil || s.invalidated
}

// MarshalJSON writes the snapshot as a JSON object with keys in sorted order.
// Top-level time.Time values are written with FormatTimestamp. A value that
// cannot be encoded is written as its fmt representation.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s.entriesOrNil() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(encodeValue(e.Value))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Snapshot) entriesOrNil() []Entry {
	if s == nil {
		return nil
	}
	return s.entries
}

func encodeValue(v any) []byte {
	switch t := v.(type) {
	case time.Time:
		v = FormatTimestamp(t)
	case *time.Time:
		if t != nil {
			v = FormatTimestamp(*t)
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprint(v))
	}
	return data
}
