package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"nedlog/internal/core/apperror"
	"nedlog/internal/domain/reports"
)

// XLSXContentType is the MIME type of generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const xlsxSheet = "Requirements"

func errEmpty() error {
	return apperror.NewEmptyTable()
}

// WriteXLSX writes the table as a single-sheet workbook: a metadata line,
// a styled header row, then one row per table row. Total rows are bold.
func WriteXLSX(w io.Writer, table *Table, meta Meta) error {
	if table == nil || table.Len() == 0 {
		return errEmpty()
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4A90E2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#F8F9FA"}},
	})
	if err != nil {
		return fmt.Errorf("create total style: %w", err)
	}

	info := fmt.Sprintf("%s - %s %s - %s", DefaultTitle, meta.Date(), meta.Time(), meta.GeneratedBy)
	if err := f.SetCellValue(xlsxSheet, "A1", info); err != nil {
		return err
	}

	const headerRow = 3
	for i, h := range table.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(xlsxSheet, cell, cell, headerStyle); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(xlsxSheet, col, col, 18); err != nil {
			return err
		}
	}

	for r, row := range table.Rows {
		rowNo := headerRow + 1 + r
		for i, text := range row.Cells {
			cell, err := excelize.CoordinatesToCellName(i+1, rowNo)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(xlsxSheet, cell, text); err != nil {
				return err
			}
		}
		if row.Kind == reports.RowTotal && len(row.Cells) > 0 {
			first, _ := excelize.CoordinatesToCellName(1, rowNo)
			last, _ := excelize.CoordinatesToCellName(len(row.Cells), rowNo)
			if err := f.SetCellStyle(xlsxSheet, first, last, totalStyle); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
