package analysis

import (
	"bytes"
	"fmt"

	"nedlog/internal/core/types"
)

// Flag decodes the booleans Frappe sends as true/false, 0/1 or null.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1", `"1"`:
		*f = true
	case "false", "0", `"0"`, "null", `""`:
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", data)
	}
	return nil
}

// --- get_sales_orders_with_items ---

// SalesOrderItem is one submitted line of a sales order, with the BOM resolved by the ERP.
type SalesOrderItem struct {
	SalesOrder   string         `json:"sales_order,omitempty"`
	ItemCode     string         `json:"item_code" validate:"required"`
	ItemName     string         `json:"item_name,omitempty"`
	Description  string         `json:"description,omitempty"`
	Qty          types.Quantity `json:"qty"`
	DeliveredQty types.Quantity `json:"delivered_qty"`
	PendingQty   types.Quantity `json:"pending_qty"`
	Warehouse    string         `json:"warehouse,omitempty"`
	BOMNo        string         `json:"bom_no,omitempty"`
	StockUOM     string         `json:"stock_uom,omitempty"`
}

// SalesOrder is a sales order header with its items.
// Items is omitted, never null, when the order has no pending line.
type SalesOrder struct {
	Name            string           `json:"name" validate:"required"`
	Customer        string           `json:"customer,omitempty"`
	TransactionDate string           `json:"transaction_date,omitempty"`
	Status          string           `json:"status,omitempty"`
	Company         string           `json:"company,omitempty"`
	PONo            string           `json:"po_no,omitempty"`
	Items           []SalesOrderItem `json:"items,omitempty" validate:"dive"`
}

// OrderItemsPayload is the result of the fetch step and the input of BOM explosion.
type OrderItemsPayload struct {
	Orders []SalesOrder `json:"orders" validate:"dive"`
}

// --- analyze_bom_requirements ---

// OrderShare is one order's pending quantity of a finished good.
type OrderShare struct {
	SalesOrder   string         `json:"sales_order"`
	Customer     string         `json:"customer,omitempty"`
	CustomerPONo string         `json:"customer_po_no,omitempty"`
	Qty          types.Quantity `json:"qty"`
}

// FinishedGood is a finished item consolidated across orders.
type FinishedGood struct {
	ItemCode    string         `json:"item_code" validate:"required"`
	ItemName    string         `json:"item_name,omitempty"`
	Description string         `json:"description,omitempty"`
	BOMNo       string         `json:"bom_no,omitempty"`
	Warehouse   string         `json:"warehouse,omitempty"`
	StockUOM    string         `json:"stock_uom,omitempty"`
	TotalQty    types.Quantity `json:"total_qty"`
	SalesOrders []OrderShare   `json:"sales_orders,omitempty"`
}

// BOMLine is one raw material needed by one finished good of one order.
// Keys the ERP reads by subscript are always sent, even when empty.
type BOMLine struct {
	ItemCode        string         `json:"item_code" validate:"required"`
	ItemName        string         `json:"item_name"`
	StockUOM        string         `json:"stock_uom"`
	RequiredQty     types.Quantity `json:"required_qty"`
	SalesOrder      string         `json:"sales_order" validate:"required"`
	Customer        string         `json:"customer"`
	CustomerPONo    string         `json:"customer_po_no"`
	FinishedGood    string         `json:"finished_good,omitempty"`
	BOMNo           string         `json:"bom_no,omitempty"`
	DefaultSupplier string         `json:"default_supplier,omitempty"`
}

// ConsolidatedOrderPayload is the result of BOM explosion.
type ConsolidatedOrderPayload struct {
	ConsolidatedItems   []FinishedGood `json:"consolidated_items" validate:"dive"`
	RawMaterialsByOrder []BOMLine      `json:"raw_materials_by_order" validate:"required,dive"`
}

// --- calculate_stock_requirements ---

// RequirementKind discriminates the rows of a stock analysis.
type RequirementKind string

const (
	RequirementDetail RequirementKind = "detail"
	RequirementTotal  RequirementKind = "total"
)

// WarehouseStock is the stock of one item in one warehouse.
type WarehouseStock struct {
	Warehouse    string         `json:"warehouse"`
	ActualQty    types.Quantity `json:"actual_qty"`
	ProjectedQty types.Quantity `json:"projected_qty"`
}

// Requirement is a row of the stock analysis. Detail rows carry one order's need,
// total rows carry the per-item rollup and the warehouse breakdown.
type Requirement struct {
	Type     RequirementKind `json:"type" validate:"required,oneof=detail total"`
	ItemCode string          `json:"item_code" validate:"required"`
	ItemName string          `json:"item_name"`
	StockUOM string          `json:"stock_uom"`

	// detail
	RequiredQty  types.Quantity `json:"required_qty"`
	SalesOrder   string         `json:"sales_order,omitempty" validate:"required_if=Type detail"`
	CustomerPONo string         `json:"customer_po_no,omitempty"`
	Customer     string         `json:"customer,omitempty"`

	// total
	TotalRequiredQty types.Quantity `json:"total_required_qty"`
	AvailableQty     types.Quantity `json:"available_qty"`
	ShortageQty      types.Quantity `json:"shortage_qty"`
	HasShortage      Flag           `json:"has_shortage"`
	OrdersCount      int            `json:"orders_count,omitempty"`

	DefaultSupplier            string           `json:"default_supplier,omitempty"`
	SupplierName               string           `json:"supplier_name,omitempty"`
	IsCustomerProvidedItem     Flag             `json:"is_customer_provided_item"`
	CustomerProvidedClient     string           `json:"customer_provided_client,omitempty"`
	CustomerProvidedClientName string           `json:"customer_provided_client_name,omitempty"`
	ActualQty                  types.Quantity   `json:"actual_qty"`
	ProjectedQty               types.Quantity   `json:"projected_qty"`
	Warehouses                 []WarehouseStock `json:"warehouses,omitempty"`

	ItemGroup     string `json:"item_group,omitempty"`
	Brand         string `json:"brand,omitempty"`
	WeightPerUnit string `json:"weight_per_unit,omitempty"`
}

// StockStats are the counters computed by the ERP.
type StockStats struct {
	TotalSalesOrders        int `json:"total_sales_orders"`
	TotalFinishedGoods      int `json:"total_finished_goods"`
	TotalRawMaterialsUnique int `json:"total_raw_materials_unique"`
	TotalRawMaterialsLines  int `json:"total_raw_materials_lines"`
	ItemsWithShortage       int `json:"items_with_shortage"`
}

// StockAnalysisPayload is the result of the stock computation step.
type StockAnalysisPayload struct {
	ConsolidatedItems        []FinishedGood `json:"consolidated_items" validate:"dive"`
	RawMaterialsRequirements []Requirement  `json:"raw_materials_requirements" validate:"required,dive"`
	Stats                    StockStats     `json:"stats"`
}

// Details returns the detail rows in payload order.
func (p *StockAnalysisPayload) Details() []Requirement {
	return p.byKind(RequirementDetail)
}

// Totals returns the total rows in payload order.
func (p *StockAnalysisPayload) Totals() []Requirement {
	return p.byKind(RequirementTotal)
}

func (p *StockAnalysisPayload) byKind(kind RequirementKind) []Requirement {
	out := make([]Requirement, 0, len(p.RawMaterialsRequirements))
	for _, r := range p.RawMaterialsRequirements {
		if r.Type == kind {
			out = append(out, r)
		}
	}
	return out
}

// Lines converts the detail rows into raw material lines.
// The available snapshot of a line is the projected quantity of its item.
func (p *StockAnalysisPayload) Lines() []RawMaterialLine {
	details := p.Details()
	lines := make([]RawMaterialLine, 0, len(details))
	for _, d := range details {
		lines = append(lines, RawMaterialLine{
			ItemCode:      d.ItemCode,
			ItemName:      d.ItemName,
			UOM:           d.StockUOM,
			Needed:        d.RequiredQty,
			Order:         d.SalesOrder,
			CustomerPONo:  d.CustomerPONo,
			Supplier:      supplierDisplay(d.SupplierName, d.DefaultSupplier),
			Available:     d.ProjectedQty,
			ItemGroup:     d.ItemGroup,
			Brand:         d.Brand,
			WeightPerUnit: d.WeightPerUnit,
		})
	}
	return lines
}

// MaterialRequestResult is a Material Request created by the grouping step.
type MaterialRequestResult struct {
	Name                   string `json:"name" validate:"required"`
	MaterialRequestType    string `json:"material_request_type"`
	ProviderType           string `json:"provider_type,omitempty"`
	ProviderCode           string `json:"provider_code,omitempty"`
	ProviderName           string `json:"provider_name,omitempty"`
	Supplier               string `json:"supplier,omitempty"`
	CustomerProvidedClient string `json:"customer_provided_client,omitempty"`
	Warehouse              string `json:"warehouse,omitempty"`
	ItemsCount             int    `json:"items_count"`
	Status                 string `json:"status,omitempty"`
}

// --- get_sales_order_bom_info ---

// BinStock is one Bin record of a raw material.
type BinStock struct {
	Warehouse    string         `json:"warehouse"`
	ActualQty    types.Quantity `json:"actual_qty"`
	ReservedQty  types.Quantity `json:"reserved_qty"`
	ProjectedQty types.Quantity `json:"projected_qty"`
}

// BOMRawMaterial is a raw material of a default BOM, scaled to the ordered quantity.
type BOMRawMaterial struct {
	ItemCode       string         `json:"item_code" validate:"required"`
	ItemName       string         `json:"item_name,omitempty"`
	QtyPerUnit     types.Quantity `json:"qty_per_unit"`
	TotalQty       types.Quantity `json:"total_qty"`
	UOM            string         `json:"uom,omitempty"`
	StockInfo      []BinStock     `json:"stock_info,omitempty"`
	TotalAvailable types.Quantity `json:"total_available"`
}

// BOMItem is a sales order item and its default BOM, if any.
type BOMItem struct {
	ItemCode     string           `json:"item_code" validate:"required"`
	ItemName     string           `json:"item_name,omitempty"`
	Qty          types.Quantity   `json:"qty"`
	HasBOM       Flag             `json:"has_bom"`
	BOMName      string           `json:"bom_name,omitempty"`
	RawMaterials []BOMRawMaterial `json:"raw_materials" validate:"dive"`
}

// BOMInfo is the per-order answer of get_sales_order_bom_info.
type BOMInfo struct {
	Success    Flag      `json:"success"`
	Error      string    `json:"error,omitempty"`
	SalesOrder string    `json:"sales_order"`
	Customer   string    `json:"customer,omitempty"`
	Items      []BOMItem `json:"bom_info" validate:"dive"`
}

// Lines flattens the BOM info into raw material lines of the order.
func (b *BOMInfo) Lines() []RawMaterialLine {
	var lines []RawMaterialLine
	for _, item := range b.Items {
		if !item.HasBOM {
			continue
		}
		for _, rm := range item.RawMaterials {
			warehouses := make([]WarehouseStock, 0, len(rm.StockInfo))
			for _, bin := range rm.StockInfo {
				warehouses = append(warehouses, WarehouseStock{
					Warehouse:    bin.Warehouse,
					ActualQty:    bin.ActualQty,
					ProjectedQty: bin.ProjectedQty,
				})
			}
			lines = append(lines, RawMaterialLine{
				ItemCode:     rm.ItemCode,
				ItemName:     rm.ItemName,
				UOM:          rm.UOM,
				Needed:       rm.TotalQty,
				Order:        b.SalesOrder,
				BOM:          item.BOMName,
				FinishedGood: item.ItemCode,
				Available:    rm.TotalAvailable,
				Warehouses:   warehouses,
			})
		}
	}
	return lines
}

// FileRef points at a file generated by the ERP.
type FileRef struct {
	FileURL  string `json:"file_url" validate:"required"`
	FileName string `json:"file_name,omitempty"`
}
