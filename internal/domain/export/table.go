// Package export turns the currently displayed report into printable and
// transferable forms: print HTML, xlsx, and the payloads of the remote
// PDF, email and spreadsheet operations.
package export

import (
	"strings"

	"nedlog/internal/core/apperror"
	"nedlog/internal/domain/reports"
)

// RowTypeKey carries the row kind in remote row mappings.
const RowTypeKey = "_type"

// TableRow is one visible row. Values maps column label to displayed text;
// Cells holds the same texts in header order.
type TableRow struct {
	Kind   reports.RowKind   `json:"kind"`
	Values map[string]string `json:"values"`
	Cells  []string          `json:"cells"`
}

// Table is the faithful projection of what the user currently sees.
type Table struct {
	Headers []string   `json:"headers"`
	Keys    []string   `json:"keys"`
	Rows    []TableRow `json:"rows"`
}

// ExtractVisible copies the displayed text of every visible cell.
// Separator rows are skipped. Empty cells export as the placeholder.
// It fails with EMPTY_TABLE when no row or no column is visible.
func ExtractVisible(view *reports.View) (*Table, error) {
	if view == nil || len(view.Columns) == 0 {
		return nil, apperror.NewEmptyTable()
	}

	headers := view.Headers()
	table := &Table{
		Headers: headers,
		Keys:    view.ColumnKeys(),
		Rows:    make([]TableRow, 0, len(view.Rows)),
	}

	for _, row := range view.Rows {
		if row.Kind == reports.RowSeparator {
			continue
		}
		tr := TableRow{
			Kind:   row.Kind,
			Values: make(map[string]string, len(headers)),
			Cells:  make([]string, len(headers)),
		}
		for i, label := range headers {
			text := ""
			if i < len(row.Cells) {
				text = strings.TrimSpace(row.Cells[i].Text)
			}
			if text == "" {
				text = reports.Placeholder
			}
			tr.Values[label] = text
			tr.Cells[i] = text
		}
		table.Rows = append(table.Rows, tr)
	}

	if len(table.Rows) == 0 {
		return nil, apperror.NewEmptyTable()
	}
	return table, nil
}

// Records returns the rows as label -> text mappings tagged with their kind.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]string, len(row.Values)+1)
		for k, v := range row.Values {
			rec[k] = v
		}
		rec[RowTypeKey] = string(row.Kind)
		out[i] = rec
	}
	return out
}

// Matrix returns the header row followed by every row's cells.
func (t *Table) Matrix() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Headers...))
	for _, row := range t.Rows {
		out = append(out, append([]string(nil), row.Cells...))
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}
