// Package reports renders consolidated materials into grouped report rows
// and projects them through a column selection and an optional row filter.
package reports

import (
	"nedlog/internal/core/types"
	"nedlog/internal/domain/analysis"
	"nedlog/internal/metadata"
)

// RowKind discriminates report rows.
type RowKind string

const (
	RowDetail    RowKind = "detail"
	RowTotal     RowKind = "total"
	RowSeparator RowKind = "separator"
)

// Tone is a display hint for a cell (badge color, emphasis).
type Tone string

const (
	ToneNone     Tone = ""
	ToneInfo     Tone = "info"
	ToneShortage Tone = "shortage"
	ToneOK       Tone = "sufficient"
	ToneStrong   Tone = "strong"
)

// Placeholder is shown in cells that do not apply to a row.
const Placeholder = "-"

// Cell is the displayed text of one column in one row.
type Cell struct {
	Text string `json:"text"`
	Tone Tone   `json:"tone,omitempty"`
}

// Row is one rendered report row. Separator rows carry no cells.
type Row struct {
	Kind     RowKind                     `json:"kind"`
	Group    int                         `json:"group"`
	ItemCode string                      `json:"item_code,omitempty"`
	Order    string                      `json:"order,omitempty"`
	Needed   types.Quantity              `json:"needed"`
	Cells    map[metadata.ColumnKey]Cell `json:"cells,omitempty"`
}

// Group holds the rollup facts of one item code.
// Detail and separator rows refer to their group by index.
type Group struct {
	ItemCode  string          `json:"item_code"`
	ItemName  string          `json:"item_name"`
	Status    analysis.Status `json:"status"`
	Needed    types.Quantity  `json:"needed"`
	Available types.Quantity  `json:"available"`
	Shortage  types.Quantity  `json:"shortage"`
	Orders    []string        `json:"orders"`
}

// Report is the full rendering of an analysis: every row with cells for
// every rendered column. It does not depend on the current selection.
type Report struct {
	Groups []Group `json:"groups"`
	Rows   []Row   `json:"rows"`
}

// TotalRows counts total rows.
func (r *Report) TotalRows() int {
	n := 0
	for _, row := range r.Rows {
		if row.Kind == RowTotal {
			n++
		}
	}
	return n
}

// DetailRows returns the detail rows of an item code.
func (r *Report) DetailRows(itemCode string) []Row {
	var out []Row
	for _, row := range r.Rows {
		if row.Kind == RowDetail && row.ItemCode == itemCode {
			out = append(out, row)
		}
	}
	return out
}
