package reports

import (
	"fmt"
	"strings"

	"nedlog/internal/core/types"
	"nedlog/internal/domain/analysis"
	"nedlog/internal/metadata"
)

// Status cell texts.
const (
	StatusTextDetail     = "DETAIL"
	StatusTextShortage   = "SHORTAGE"
	StatusTextSufficient = "SUFFICIENT"
)

// SupplierFallback is shown when no supplier is known.
const SupplierFallback = "Not defined"

type cellRule struct {
	total  func(m *analysis.ConsolidatedMaterial) Cell
	detail func(l *analysis.RawMaterialLine, m *analysis.ConsolidatedMaterial) Cell
}

func placeholder(*analysis.RawMaterialLine, *analysis.ConsolidatedMaterial) Cell {
	return Cell{Text: Placeholder}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func statusCell(st analysis.Status) Cell {
	if st == analysis.StatusShortage {
		return Cell{Text: StatusTextShortage, Tone: ToneShortage}
	}
	return Cell{Text: StatusTextSufficient, Tone: ToneOK}
}

func warehouseNames(ws []analysis.WarehouseStock) string {
	names := make([]string, 0, len(ws))
	for _, w := range ws {
		names = append(names, w.Warehouse)
	}
	return strings.Join(names, ", ")
}

func warehouseQuantities(ws []analysis.WarehouseStock) string {
	parts := make([]string, 0, len(ws))
	for _, w := range ws {
		parts = append(parts, fmt.Sprintf("%s: %s", w.Warehouse, types.FormatQuantity(w.ActualQty)))
	}
	return strings.Join(parts, "; ")
}

// cellRules maps every known column to its derivation for total and detail rows.
var cellRules = map[metadata.ColumnKey]cellRule{
	metadata.ColItemCode: {
		total:  func(m *analysis.ConsolidatedMaterial) Cell { return Cell{Text: m.ItemCode, Tone: ToneStrong} },
		detail: func(l *analysis.RawMaterialLine, _ *analysis.ConsolidatedMaterial) Cell { return Cell{Text: l.ItemCode} },
	},
	metadata.ColDescription: {
		total: func(m *analysis.ConsolidatedMaterial) Cell { return Cell{Text: m.ItemName} },
		detail: func(l *analysis.RawMaterialLine, m *analysis.ConsolidatedMaterial) Cell {
			if l.ItemName == "" {
				return Cell{Text: m.ItemName}
			}
			return Cell{Text: l.ItemName}
		},
	},
	metadata.ColQtyRequired: {
		total: func(m *analysis.ConsolidatedMaterial) Cell {
			return Cell{Text: types.FormatQuantity(m.TotalNeeded), Tone: ToneStrong}
		},
		detail: func(l *analysis.RawMaterialLine, _ *analysis.ConsolidatedMaterial) Cell {
			return Cell{Text: types.FormatQuantity(l.Needed)}
		},
	},
	metadata.ColStockAvailable: {
		total: func(m *analysis.ConsolidatedMaterial) Cell {
			return Cell{Text: types.FormatQuantity(m.TotalAvailable), Tone: ToneStrong}
		},
		detail: placeholder,
	},
	metadata.ColShortage: {
		total: func(m *analysis.ConsolidatedMaterial) Cell {
			tone := ToneOK
			if m.Shortage().IsPositive() {
				tone = ToneShortage
			}
			return Cell{Text: types.FormatQuantity(m.Shortage()), Tone: tone}
		},
		detail: placeholder,
	},
	metadata.ColWarehousesList: {
		total: func(m *analysis.ConsolidatedMaterial) Cell {
			if len(m.Warehouses) == 0 {
				return Cell{Text: Placeholder}
			}
			return Cell{Text: warehouseNames(m.Warehouses)}
		},
		detail: placeholder,
	},
	metadata.ColWarehousesQty: {
		total: func(m *analysis.ConsolidatedMaterial) Cell {
			if len(m.Warehouses) == 0 {
				return Cell{Text: Placeholder}
			}
			return Cell{Text: warehouseQuantities(m.Warehouses)}
		},
		detail: placeholder,
	},
	metadata.ColSupplier: {
		total: func(m *analysis.ConsolidatedMaterial) Cell {
			if m.Supplier == "" {
				return Cell{Text: SupplierFallback}
			}
			return Cell{Text: m.Supplier}
		},
		detail: func(l *analysis.RawMaterialLine, m *analysis.ConsolidatedMaterial) Cell {
			switch {
			case l.Supplier != "":
				return Cell{Text: l.Supplier}
			case m.Supplier != "":
				return Cell{Text: m.Supplier}
			default:
				return Cell{Text: SupplierFallback}
			}
		},
	},
	metadata.ColOrderNumber: {
		total: func(m *analysis.ConsolidatedMaterial) Cell {
			return Cell{Text: fmt.Sprintf("TOTAL (%d orders)", len(m.Orders)), Tone: ToneStrong}
		},
		detail: func(l *analysis.RawMaterialLine, _ *analysis.ConsolidatedMaterial) Cell {
			return Cell{Text: l.Order, Tone: ToneStrong}
		},
	},
	metadata.ColStatus: {
		total: func(m *analysis.ConsolidatedMaterial) Cell { return statusCell(m.Status()) },
		detail: func(*analysis.RawMaterialLine, *analysis.ConsolidatedMaterial) Cell {
			return Cell{Text: StatusTextDetail, Tone: ToneInfo}
		},
	},
	metadata.ColItemGroup: {
		total:  func(m *analysis.ConsolidatedMaterial) Cell { return Cell{Text: orDash(m.ItemGroup)} },
		detail: func(l *analysis.RawMaterialLine, m *analysis.ConsolidatedMaterial) Cell { return Cell{Text: orDash(firstNonEmpty(l.ItemGroup, m.ItemGroup))} },
	},
	metadata.ColBrand: {
		total:  func(m *analysis.ConsolidatedMaterial) Cell { return Cell{Text: orDash(m.Brand)} },
		detail: func(l *analysis.RawMaterialLine, m *analysis.ConsolidatedMaterial) Cell { return Cell{Text: orDash(firstNonEmpty(l.Brand, m.Brand))} },
	},
	metadata.ColWeight: {
		total: func(m *analysis.ConsolidatedMaterial) Cell { return Cell{Text: orDash(m.WeightPerUnit)} },
		detail: func(l *analysis.RawMaterialLine, m *analysis.ConsolidatedMaterial) Cell {
			return Cell{Text: orDash(firstNonEmpty(l.WeightPerUnit, m.WeightPerUnit))}
		},
	},
	metadata.ColUOM: {
		total:  func(m *analysis.ConsolidatedMaterial) Cell { return Cell{Text: orDash(m.UOM)} },
		detail: func(l *analysis.RawMaterialLine, m *analysis.ConsolidatedMaterial) Cell { return Cell{Text: orDash(firstNonEmpty(l.UOM, m.UOM))} },
	},
	metadata.ColDifference: {
		total: func(m *analysis.ConsolidatedMaterial) Cell {
			tone := ToneOK
			if m.Difference().IsNegative() {
				tone = ToneShortage
			}
			return Cell{Text: types.FormatSigned(m.Difference()), Tone: tone}
		},
		detail: placeholder,
	},
	metadata.ColCustomerPO: {
		total:  func(*analysis.ConsolidatedMaterial) Cell { return Cell{Text: Placeholder} },
		detail: func(l *analysis.RawMaterialLine, _ *analysis.ConsolidatedMaterial) Cell { return Cell{Text: orDash(l.CustomerPONo)} },
	},
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// RenderRows renders materials and their contributing lines into grouped rows.
// Groups follow the order of materials. Each group holds its detail rows in
// input order, then the total row, then a separator. Lines whose item code is
// not part of materials are ignored. Columns without a derivation rule render
// the placeholder.
func RenderRows(materials *analysis.Materials, lines []analysis.RawMaterialLine, columns []metadata.ColumnDef) *Report {
	byCode := make(map[string][]int, materials.Len())
	for i := range lines {
		code := lines[i].ItemCode
		byCode[code] = append(byCode[code], i)
	}

	report := &Report{
		Groups: make([]Group, 0, materials.Len()),
		Rows:   make([]Row, 0, len(lines)+2*materials.Len()),
	}

	for gi, m := range materials.All() {
		report.Groups = append(report.Groups, Group{
			ItemCode:  m.ItemCode,
			ItemName:  m.ItemName,
			Status:    m.Status(),
			Needed:    m.TotalNeeded,
			Available: m.TotalAvailable,
			Shortage:  m.Shortage(),
			Orders:    append(make([]string, 0, len(m.Orders)), m.Orders...),
		})

		for _, li := range byCode[m.ItemCode] {
			l := &lines[li]
			report.Rows = append(report.Rows, Row{
				Kind:     RowDetail,
				Group:    gi,
				ItemCode: m.ItemCode,
				Order:    l.Order,
				Needed:   l.Needed,
				Cells:    detailCells(l, m, columns),
			})
		}

		report.Rows = append(report.Rows,
			Row{
				Kind:     RowTotal,
				Group:    gi,
				ItemCode: m.ItemCode,
				Needed:   m.TotalNeeded,
				Cells:    totalCells(m, columns),
			},
			Row{Kind: RowSeparator, Group: gi, ItemCode: m.ItemCode},
		)
	}

	return report
}

func totalCells(m *analysis.ConsolidatedMaterial, columns []metadata.ColumnDef) map[metadata.ColumnKey]Cell {
	cells := make(map[metadata.ColumnKey]Cell, len(columns))
	for _, col := range columns {
		rule, ok := cellRules[col.Key]
		if !ok {
			cells[col.Key] = Cell{Text: Placeholder}
			continue
		}
		cells[col.Key] = rule.total(m)
	}
	return cells
}

func detailCells(l *analysis.RawMaterialLine, m *analysis.ConsolidatedMaterial, columns []metadata.ColumnDef) map[metadata.ColumnKey]Cell {
	cells := make(map[metadata.ColumnKey]Cell, len(columns))
	for _, col := range columns {
		rule, ok := cellRules[col.Key]
		if !ok {
			cells[col.Key] = Cell{Text: Placeholder}
			continue
		}
		cells[col.Key] = rule.detail(l, m)
	}
	return cells
}
