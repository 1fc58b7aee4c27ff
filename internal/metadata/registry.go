// Package metadata describes the columns of the requirement report.
// The registry is built once at startup and never mutated afterwards.
package metadata

import (
	"fmt"
	"sort"

	"nedlog/internal/core/apperror"
)

// ColumnKey is the stable identifier of a report column.
type ColumnKey string

// Alignment of a column's cells.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignRight  Alignment = "right"
	AlignCenter Alignment = "center"
)

// ColumnDef describes one report column.
type ColumnDef struct {
	Key            ColumnKey `json:"key"`
	Label          string    `json:"label"`
	Field          string    `json:"field"`
	Align          Alignment `json:"align"`
	DefaultVisible bool      `json:"defaultVisible"`
}

// Registry is the ordered set of report columns.
// Column order defines both header order and per-row cell order.
type Registry struct {
	columns []ColumnDef
	index   map[ColumnKey]int
	presets map[string]Selection
}

// NewRegistry validates the columns and presets and builds a registry.
func NewRegistry(columns []ColumnDef, presets map[string][]ColumnKey) (*Registry, error) {
	r := &Registry{
		columns: make([]ColumnDef, 0, len(columns)),
		index:   make(map[ColumnKey]int, len(columns)),
		presets: make(map[string]Selection, len(presets)),
	}

	for _, col := range columns {
		if col.Key == "" {
			return nil, fmt.Errorf("column with label %q has no key", col.Label)
		}
		if col.Label == "" {
			return nil, fmt.Errorf("column %q has no label", col.Key)
		}
		if _, dup := r.index[col.Key]; dup {
			return nil, fmt.Errorf("duplicate column key %q", col.Key)
		}
		if col.Align == "" {
			col.Align = AlignLeft
		}
		r.index[col.Key] = len(r.columns)
		r.columns = append(r.columns, col)
	}

	for name, keys := range presets {
		for _, k := range keys {
			if !r.Has(k) {
				return nil, fmt.Errorf("preset %q references unknown column %q", name, k)
			}
		}
		r.presets[name] = NewSelection(keys...)
	}

	return r, nil
}

// Columns returns all column definitions in registry order.
func (r *Registry) Columns() []ColumnDef {
	out := make([]ColumnDef, len(r.columns))
	copy(out, r.columns)
	return out
}

// Get returns the definition of a column.
func (r *Registry) Get(key ColumnKey) (ColumnDef, bool) {
	i, ok := r.index[key]
	if !ok {
		return ColumnDef{}, false
	}
	return r.columns[i], true
}

// Has reports whether key is a registered column.
func (r *Registry) Has(key ColumnKey) bool {
	_, ok := r.index[key]
	return ok
}

// DefaultSelection returns the columns visible by default.
func (r *Registry) DefaultSelection() Selection {
	keys := make([]ColumnKey, 0, len(r.columns))
	for _, col := range r.columns {
		if col.DefaultVisible {
			keys = append(keys, col.Key)
		}
	}
	return NewSelection(keys...)
}

// VisibleColumns returns, in registry order, the columns present in sel.
func (r *Registry) VisibleColumns(sel Selection) []ColumnDef {
	out := make([]ColumnDef, 0, sel.Len())
	for _, col := range r.columns {
		if sel.Has(col.Key) {
			out = append(out, col)
		}
	}
	return out
}

// ParseSelection converts raw keys into a Selection, rejecting unknown keys.
func (r *Registry) ParseSelection(keys []string) (Selection, error) {
	out := make([]ColumnKey, 0, len(keys))
	var unknown []string
	for _, k := range keys {
		key := ColumnKey(k)
		if !r.Has(key) {
			unknown = append(unknown, k)
			continue
		}
		out = append(out, key)
	}
	if len(unknown) > 0 {
		return Selection{}, apperror.NewValidation("unknown column").WithDetail("columns", unknown)
	}
	return NewSelection(out...), nil
}

// Preset returns a named selection.
func (r *Registry) Preset(name string) (Selection, bool) {
	s, ok := r.presets[name]
	return s, ok
}

// PresetNames returns preset names sorted alphabetically.
func (r *Registry) PresetNames() []string {
	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
