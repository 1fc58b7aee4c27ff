package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nedlog/internal/core/apperror"
	appctx "nedlog/internal/core/context"
	"nedlog/internal/core/types"
	"nedlog/internal/domain/analysis"
	"nedlog/internal/domain/reports"
	"nedlog/internal/metadata"
)

func q(s string) types.Quantity { return types.MustQuantity(s) }

func sampleView(t *testing.T, sel metadata.Selection, filter string) *reports.View {
	t.Helper()
	lines := []analysis.RawMaterialLine{
		{ItemCode: "RAW-001", ItemName: "Steel", Needed: q("5"), Order: "SO-1", Available: q("10"), Supplier: "Acme"},
		{ItemCode: "RAW-001", ItemName: "Steel", Needed: q("3"), Order: "SO-2", Available: q("10")},
		{ItemCode: "RAW-002", ItemName: "Bolt", Needed: q("20"), Order: "SO-1", Available: q("4")},
	}
	materials, _ := analysis.Consolidate(lines)
	reg := metadata.DefaultRegistry()
	report := reports.RenderRows(materials, lines, reg.Columns())

	f, err := reports.CompileRowFilter(filter)
	require.NoError(t, err)
	view, err := reports.Project(report, reg.VisibleColumns(sel), f)
	require.NoError(t, err)
	return view
}

func TestExtractVisible_SkipsSeparators(t *testing.T) {
	reg := metadata.DefaultRegistry()
	table, err := ExtractVisible(sampleView(t, reg.DefaultSelection(), ""))
	require.NoError(t, err)

	require.Equal(t, 5, table.Len())
	for _, row := range table.Rows {
		assert.NotEqual(t, reports.RowSeparator, row.Kind)
		assert.Len(t, row.Cells, len(table.Headers))
	}
	assert.Equal(t, "TOTAL (2 orders)", table.Rows[2].Values["Order Number"])
	assert.Equal(t, "SO-2", table.Rows[1].Values["Order Number"])
}

func TestExtractVisible_HiddenSupplierNeverExported(t *testing.T) {
	reg := metadata.DefaultRegistry()
	sel := reg.DefaultSelection().Without(metadata.ColSupplier)

	table, err := ExtractVisible(sampleView(t, sel, ""))
	require.NoError(t, err)

	assert.NotContains(t, table.Headers, "Supplier")
	assert.NotContains(t, table.Keys, string(metadata.ColSupplier))
	for _, rec := range table.Records() {
		_, found := rec["Supplier"]
		assert.False(t, found)
		_, found = rec[string(metadata.ColSupplier)]
		assert.False(t, found)
	}
}

func TestExtractVisible_CopiesDisplayedText(t *testing.T) {
	reg := metadata.DefaultRegistry()
	view := sampleView(t, reg.DefaultSelection(), "")
	table, err := ExtractVisible(view)
	require.NoError(t, err)

	contentRow := 0
	for _, row := range view.Rows {
		if row.Kind == reports.RowSeparator {
			continue
		}
		for i, cell := range row.Cells {
			assert.Equal(t, cell.Text, table.Rows[contentRow].Cells[i])
		}
		contentRow++
	}
}

func TestExtractVisible_EmptyTable(t *testing.T) {
	reg := metadata.DefaultRegistry()

	_, err := ExtractVisible(sampleView(t, reg.DefaultSelection(), `item_code == "NONE"`))
	assert.True(t, apperror.HasCode(err, apperror.CodeEmptyTable))

	_, err = ExtractVisible(nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeEmptyTable))
}

func TestExtractVisible_NoColumnIsEmptyTable(t *testing.T) {
	reg := metadata.DefaultRegistry()
	sel, err := reg.ParseSelection([]string{})
	require.NoError(t, err)

	view := sampleView(t, sel, "")
	require.NotEmpty(t, view.Rows)

	_, err = ExtractVisible(view)
	assert.True(t, apperror.HasCode(err, apperror.CodeEmptyTable))
}

func TestTable_RecordsAndMatrix(t *testing.T) {
	sel := metadata.NewSelection(metadata.ColItemCode, metadata.ColStatus)
	table, err := ExtractVisible(sampleView(t, sel, `kind == "total"`))
	require.NoError(t, err)

	recs := table.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, map[string]string{"Item Code": "RAW-001", "Status": "SUFFICIENT", "_type": "total"}, recs[0])

	m := table.Matrix()
	assert.Equal(t, [][]string{
		{"Item Code", "Status"},
		{"RAW-001", "SUFFICIENT"},
		{"RAW-002", "SHORTAGE"},
	}, m)
}

func TestWritePrintHTML(t *testing.T) {
	reg := metadata.DefaultRegistry()
	table, err := ExtractVisible(sampleView(t, reg.DefaultSelection(), ""))
	require.NoError(t, err)

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u1", Email: "jane@example.com", FullName: "Jane Roe"})
	meta := NewMeta(ctx, time.Date(2026, 3, 4, 9, 5, 7, 0, time.UTC))

	var buf bytes.Buffer
	require.NoError(t, WritePrintHTML(&buf, table, meta, ""))
	html := buf.String()

	assert.Contains(t, html, "<title>"+DefaultTitle+"</title>")
	assert.Contains(t, html, "04/03/2026")
	assert.Contains(t, html, "09:05:07")
	assert.Contains(t, html, "Jane Roe")
	assert.Contains(t, html, `<tr class="total-row">`)
	assert.Contains(t, html, "Total: 5 rows")
	assert.Equal(t, len(table.Headers), strings.Count(html, "<th>"))
}

func TestWritePrintHTML_SingleRowHasNoSummary(t *testing.T) {
	reg := metadata.DefaultRegistry()
	table, err := ExtractVisible(sampleView(t, reg.DefaultSelection(), `kind == "total" && status == "shortage"`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePrintHTML(&buf, table, Meta{GeneratedBy: "x"}, "Custom"))
	assert.NotContains(t, buf.String(), "print-summary\">")
	assert.Contains(t, buf.String(), "<h1>Custom</h1>")
}

func TestWriteXLSX(t *testing.T) {
	reg := metadata.DefaultRegistry()
	table, err := ExtractVisible(sampleView(t, reg.DefaultSelection(), ""))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, table, Meta{GeneratedAt: time.Now(), GeneratedBy: "Jane"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(xlsxSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Item Code", header)

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3+table.Len())
	assert.Equal(t, "TOTAL (2 orders)", rows[5][8])
}

func TestWriters_RejectEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, apperror.HasCode(WriteXLSX(&buf, &Table{}, Meta{}), apperror.CodeEmptyTable))
	assert.True(t, apperror.HasCode(WritePrintHTML(&buf, nil, Meta{}, ""), apperror.CodeEmptyTable))
}
