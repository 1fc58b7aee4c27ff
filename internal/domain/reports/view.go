package reports

import (
	"nedlog/internal/domain/analysis"
	"nedlog/internal/metadata"
)

// ViewRow is a row as currently displayed: cells follow View.Columns.
type ViewRow struct {
	Kind     RowKind         `json:"kind"`
	ItemCode string          `json:"item_code,omitempty"`
	Status   analysis.Status `json:"status,omitempty"`
	Cells    []Cell          `json:"cells,omitempty"`
}

// View is the projection of a report through visible columns and a row filter.
type View struct {
	Columns []metadata.ColumnDef `json:"columns"`
	Rows    []ViewRow            `json:"rows"`
	Filter  string               `json:"filter,omitempty"`
}

// Project selects the visible columns and rows of an already rendered report.
// Nothing is recomputed: cells are taken as rendered. Row grouping and order
// are preserved. A separator row is kept only when its group's total row is.
func Project(report *Report, columns []metadata.ColumnDef, filter *RowFilter) (*View, error) {
	view := &View{
		Columns: columns,
		Rows:    make([]ViewRow, 0, len(report.Rows)),
		Filter:  filter.Expression(),
	}

	totalVisible := make(map[int]bool, len(report.Groups))
	for _, row := range report.Rows {
		if row.Kind == RowSeparator {
			if !totalVisible[row.Group] {
				continue
			}
			view.Rows = append(view.Rows, ViewRow{Kind: RowSeparator, ItemCode: row.ItemCode})
			continue
		}

		group := report.Groups[row.Group]
		ok, err := filter.Match(row, group)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if row.Kind == RowTotal {
			totalVisible[row.Group] = true
		}

		cells := make([]Cell, len(columns))
		for i, col := range columns {
			cell, found := row.Cells[col.Key]
			if !found {
				cell = Cell{Text: Placeholder}
			}
			cells[i] = cell
		}

		view.Rows = append(view.Rows, ViewRow{
			Kind:     row.Kind,
			ItemCode: row.ItemCode,
			Status:   group.Status,
			Cells:    cells,
		})
	}

	return view, nil
}

// Headers returns the labels of the visible columns.
func (v *View) Headers() []string {
	out := make([]string, len(v.Columns))
	for i, col := range v.Columns {
		out[i] = col.Label
	}
	return out
}

// ColumnKeys returns the keys of the visible columns.
func (v *View) ColumnKeys() []string {
	out := make([]string, len(v.Columns))
	for i, col := range v.Columns {
		out[i] = string(col.Key)
	}
	return out
}

// ContentRows counts visible detail and total rows.
func (v *View) ContentRows() int {
	n := 0
	for _, row := range v.Rows {
		if row.Kind != RowSeparator {
			n++
		}
	}
	return n
}
