package analysis

import (
	"slices"

	"nedlog/internal/core/types"
)

// StockDivergence records two different available-stock snapshots for one item code.
type StockDivergence struct {
	ItemCode string         `json:"item_code"`
	Kept     types.Quantity `json:"kept"`
	Ignored  types.Quantity `json:"ignored"`
	Source   string         `json:"source"`
}

// Consolidate merges lines into one material per item code.
//
// The first line of an item code sets its name, unit, supplier and available snapshot.
// Needed quantities are summed; available stock is not, since it belongs to the item and
// not to the order. A later line carrying a different snapshot keeps the first value and
// is reported as a divergence.
func Consolidate(lines []RawMaterialLine) (*Materials, []StockDivergence) {
	materials := NewMaterials()
	var divergences []StockDivergence

	for _, line := range lines {
		c, created := materials.getOrCreate(line.ItemCode)
		if created {
			c.ItemName = line.ItemName
			c.UOM = line.UOM
			c.TotalAvailable = line.Available
			c.Warehouses = line.Warehouses
			c.Supplier = line.Supplier
			c.ItemGroup = line.ItemGroup
			c.Brand = line.Brand
			c.WeightPerUnit = line.WeightPerUnit
		} else if !line.Available.Equal(c.TotalAvailable) {
			divergences = append(divergences, StockDivergence{
				ItemCode: line.ItemCode,
				Kept:     c.TotalAvailable,
				Ignored:  line.Available,
				Source:   line.Order,
			})
		}

		if c.Supplier == "" {
			c.Supplier = line.Supplier
		}
		c.TotalNeeded = c.TotalNeeded.Add(line.Needed)
		c.addOrder(line.Order)
	}

	return materials, divergences
}

// Merge combines already-consolidated results, e.g. one per sales order.
//
// Needed quantities are summed and contributing orders are united in first-seen order.
// Available stock is last-write-wins: the snapshot of the last part naming an item code
// is kept together with its warehouse breakdown, and every overwrite of a different
// value is reported as a divergence.
func Merge(parts ...*Materials) (*Materials, []StockDivergence) {
	merged := NewMaterials()
	var divergences []StockDivergence

	for _, part := range parts {
		if part == nil {
			continue
		}
		for _, src := range part.All() {
			c, created := merged.getOrCreate(src.ItemCode)
			if created {
				*c = *src
				c.Orders = slices.Clone(src.Orders)
				c.Warehouses = slices.Clone(src.Warehouses)
				continue
			}

			c.TotalNeeded = c.TotalNeeded.Add(src.TotalNeeded)
			for _, o := range src.Orders {
				c.addOrder(o)
			}
			if !src.TotalAvailable.Equal(c.TotalAvailable) {
				divergences = append(divergences, StockDivergence{
					ItemCode: src.ItemCode,
					Kept:     src.TotalAvailable,
					Ignored:  c.TotalAvailable,
					Source:   firstOrder(src),
				})
				c.TotalAvailable = src.TotalAvailable
				c.Warehouses = slices.Clone(src.Warehouses)
			}
			if c.Supplier == "" {
				c.Supplier = src.Supplier
			}
		}
	}

	return merged, divergences
}

// AttachStock copies what only the ERP total rows know onto the materials:
// the warehouse breakdown, the supplier to display and the customer-provided flag.
// A total whose available quantity differs from the consolidated snapshot is reported.
func AttachStock(materials *Materials, totals []Requirement) []StockDivergence {
	var divergences []StockDivergence

	for _, t := range totals {
		c, ok := materials.Get(t.ItemCode)
		if !ok {
			continue
		}
		if len(t.Warehouses) > 0 {
			c.Warehouses = t.Warehouses
		}
		if s := supplierDisplay(t.SupplierName, t.DefaultSupplier); s != "" {
			c.Supplier = s
		}
		c.CustomerProvided = bool(t.IsCustomerProvidedItem)
		c.CustomerProvidedClient = t.CustomerProvidedClient
		if !t.AvailableQty.Equal(c.TotalAvailable) {
			divergences = append(divergences, StockDivergence{
				ItemCode: t.ItemCode,
				Kept:     c.TotalAvailable,
				Ignored:  t.AvailableQty,
				Source:   "stock analysis",
			})
		}
	}

	return divergences
}

func supplierDisplay(name, code string) string {
	if name != "" {
		return name
	}
	return code
}

func firstOrder(m *ConsolidatedMaterial) string {
	if len(m.Orders) == 0 {
		return ""
	}
	return m.Orders[0]
}
