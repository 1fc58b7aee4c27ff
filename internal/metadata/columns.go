package metadata

// Report column keys.
const (
	ColItemCode       ColumnKey = "item-code"
	ColDescription    ColumnKey = "description"
	ColQtyRequired    ColumnKey = "qty-required"
	ColStockAvailable ColumnKey = "stock-available"
	ColShortage       ColumnKey = "shortage"
	ColWarehousesList ColumnKey = "warehouses-list"
	ColWarehousesQty  ColumnKey = "warehouses-qty"
	ColSupplier       ColumnKey = "supplier"
	ColOrderNumber    ColumnKey = "order-number"
	ColStatus         ColumnKey = "status"
	ColItemGroup      ColumnKey = "item-group"
	ColBrand          ColumnKey = "brand"
	ColWeight         ColumnKey = "weight"
	ColUOM            ColumnKey = "uom"
	ColDifference     ColumnKey = "difference"
	ColCustomerPO     ColumnKey = "customer-po"
)

// Preset names.
const (
	PresetDefault = "default"
	PresetSimple  = "simple"
)

// RequirementColumns is the column set of the requirement report, in display order.
var RequirementColumns = []ColumnDef{
	{Key: ColItemCode, Label: "Item Code", Field: "item_code", DefaultVisible: true},
	{Key: ColDescription, Label: "Description", Field: "item_name", DefaultVisible: true},
	{Key: ColQtyRequired, Label: "Qty Required", Field: "required_qty", Align: AlignRight, DefaultVisible: true},
	{Key: ColStockAvailable, Label: "Stock Available", Field: "available_qty", Align: AlignRight, DefaultVisible: true},
	{Key: ColShortage, Label: "Shortage", Field: "shortage_qty", Align: AlignRight, DefaultVisible: true},
	{Key: ColWarehousesList, Label: "Locations", Field: "warehouses_list", DefaultVisible: true},
	{Key: ColWarehousesQty, Label: "Qty per Location", Field: "warehouses_qty", DefaultVisible: true},
	{Key: ColSupplier, Label: "Supplier", Field: "supplier_name", DefaultVisible: true},
	{Key: ColOrderNumber, Label: "Order Number", Field: "sales_order", DefaultVisible: true},
	{Key: ColStatus, Label: "Status", Field: "status", Align: AlignCenter, DefaultVisible: true},
	{Key: ColItemGroup, Label: "Item Group", Field: "item_group"},
	{Key: ColBrand, Label: "Brand", Field: "brand"},
	{Key: ColWeight, Label: "Weight", Field: "weight_per_unit", Align: AlignRight},
	{Key: ColUOM, Label: "UOM", Field: "uom"},
	{Key: ColDifference, Label: "Difference", Field: "difference", Align: AlignRight},
	{Key: ColCustomerPO, Label: "Customer PO", Field: "customer_po_no"},
}

// RequirementPresets are the named selections offered to users.
// "simple" is the fixed column set of the single-order quick analysis.
var RequirementPresets = map[string][]ColumnKey{
	PresetDefault: {
		ColItemCode, ColDescription, ColQtyRequired, ColStockAvailable, ColShortage,
		ColWarehousesList, ColWarehousesQty, ColSupplier, ColOrderNumber, ColStatus,
	},
	PresetSimple: {
		ColItemCode, ColDescription, ColQtyRequired, ColStockAvailable, ColUOM, ColDifference, ColStatus,
	},
}

// DefaultRegistry builds the requirement report registry.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(RequirementColumns, RequirementPresets)
	if err != nil {
		panic(err)
	}
	return r
}
