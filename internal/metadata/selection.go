package metadata

import (
	"encoding/json"
	"sort"
)

// Selection is a set of visible column keys. It is a value: every operation
// returns a new Selection and leaves the receiver untouched.
type Selection struct {
	keys map[ColumnKey]struct{}
}

// NewSelection builds a selection from keys. Duplicates are ignored.
func NewSelection(keys ...ColumnKey) Selection {
	s := Selection{keys: make(map[ColumnKey]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

// Has reports whether key is selected.
func (s Selection) Has(key ColumnKey) bool {
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of selected keys.
func (s Selection) Len() int {
	return len(s.keys)
}

// With returns a copy with key selected.
func (s Selection) With(key ColumnKey) Selection {
	out := s.clone()
	out.keys[key] = struct{}{}
	return out
}

// Without returns a copy with key removed.
func (s Selection) Without(key ColumnKey) Selection {
	out := s.clone()
	delete(out.keys, key)
	return out
}

// Toggle returns a copy with key flipped.
func (s Selection) Toggle(key ColumnKey) Selection {
	if s.Has(key) {
		return s.Without(key)
	}
	return s.With(key)
}

// Keys returns the selected keys sorted alphabetically.
// Use Registry.VisibleColumns for display order.
func (s Selection) Keys() []ColumnKey {
	out := make([]ColumnKey, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal reports whether both selections hold the same keys.
func (s Selection) Equal(other Selection) bool {
	if s.Len() != other.Len() {
		return false
	}
	for k := range s.keys {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

func (s Selection) clone() Selection {
	out := Selection{keys: make(map[ColumnKey]struct{}, len(s.keys)+1)}
	for k := range s.keys {
		out.keys[k] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the selection as a sorted array of keys.
func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

// UnmarshalJSON decodes an array of keys.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var keys []ColumnKey
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewSelection(keys...)
	return nil
}
