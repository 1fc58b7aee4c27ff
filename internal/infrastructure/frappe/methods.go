package frappe

import (
	"context"
	"encoding/json"
	"strings"

	"nedlog/internal/core/apperror"
	"nedlog/internal/domain/analysis"
	"nedlog/internal/domain/export"
)

// Remote methods, relative to the app.
const (
	MethodGetSalesOrdersWithItems       = "production_analysis.get_sales_orders_with_items"
	MethodAnalyzeBOMRequirements        = "production_analysis.analyze_bom_requirements"
	MethodCalculateStockRequirements    = "production_analysis.calculate_stock_requirements"
	MethodCreateGroupedMaterialRequests = "production_analysis.create_grouped_material_requests"
	MethodGenerateRequirementsPDF       = "production_analysis.generate_material_requirements_pdf"
	MethodSendRequirementsEmail         = "production_analysis.send_material_requirements_email"
	MethodExportBOMAnalysis             = "api.export_bom_analysis"
	MethodGetSalesOrderBOMInfo          = "api.get_sales_order_bom_info"
)

var (
	_ analysis.Gateway = (*Client)(nil)
	_ export.Backend   = (*Client)(nil)
)

// FetchOrderItems implements analysis.Gateway.
func (c *Client) FetchOrderItems(ctx context.Context, orderIDs []string) (*analysis.OrderItemsPayload, error) {
	var orders []analysis.SalesOrder
	args := map[string]any{"sales_order_names": orderIDs}
	if err := c.call(ctx, MethodGetSalesOrdersWithItems, args, &orders); err != nil {
		return nil, err
	}
	payload := &analysis.OrderItemsPayload{Orders: orders}
	if err := c.checkPayload(MethodGetSalesOrdersWithItems, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ExplodeBOMs implements analysis.Gateway.
func (c *Client) ExplodeBOMs(ctx context.Context, items *analysis.OrderItemsPayload) (*analysis.ConsolidatedOrderPayload, error) {
	orders := []analysis.SalesOrder{}
	if items != nil && items.Orders != nil {
		orders = items.Orders
	}
	var out analysis.ConsolidatedOrderPayload
	if err := c.call(ctx, MethodAnalyzeBOMRequirements, map[string]any{"sales_orders_data": orders}, &out); err != nil {
		return nil, err
	}
	if err := c.checkPayload(MethodAnalyzeBOMRequirements, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ComputeStockRequirements implements analysis.Gateway.
func (c *Client) ComputeStockRequirements(ctx context.Context, consolidated *analysis.ConsolidatedOrderPayload) (*analysis.StockAnalysisPayload, error) {
	var out analysis.StockAnalysisPayload
	args := map[string]any{"consolidated_data": consolidated}
	if err := c.call(ctx, MethodCalculateStockRequirements, args, &out); err != nil {
		return nil, err
	}
	if err := c.checkPayload(MethodCalculateStockRequirements, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateGroupedMaterialRequests implements analysis.Gateway.
func (c *Client) CreateGroupedMaterialRequests(ctx context.Context, stock *analysis.StockAnalysisPayload) ([]analysis.MaterialRequestResult, error) {
	var out struct {
		Results []analysis.MaterialRequestResult `validate:"dive"`
	}
	args := map[string]any{"analysis_data": stock}
	if err := c.call(ctx, MethodCreateGroupedMaterialRequests, args, &out.Results); err != nil {
		return nil, err
	}
	if err := c.checkPayload(MethodCreateGroupedMaterialRequests, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []analysis.MaterialRequestResult{}
	}
	return out.Results, nil
}

// FetchBOMInfo implements analysis.Gateway. An answer with success=false is a
// remote failure carrying the server's error text.
func (c *Client) FetchBOMInfo(ctx context.Context, orderID string) (*analysis.BOMInfo, error) {
	var out analysis.BOMInfo
	if err := c.call(ctx, MethodGetSalesOrderBOMInfo, map[string]any{"sales_order": orderID}, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, apperror.NewRemoteFailure(c.app+"."+MethodGetSalesOrderBOMInfo, out.Error, nil).
			WithDetail("sales_order", orderID)
	}
	if err := c.checkPayload(MethodGetSalesOrderBOMInfo, &out); err != nil {
		return nil, err
	}
	if out.SalesOrder == "" {
		out.SalesOrder = orderID
	}
	return &out, nil
}

// GenerateRequirementsPDF implements export.Backend.
func (c *Client) GenerateRequirementsPDF(ctx context.Context, req export.PDFRequest) (*analysis.FileRef, error) {
	var ref analysis.FileRef
	if err := c.call(ctx, MethodGenerateRequirementsPDF, req, &ref); err != nil {
		return nil, err
	}
	if err := c.checkPayload(MethodGenerateRequirementsPDF, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// SendRequirementsEmail implements export.Backend.
func (c *Client) SendRequirementsEmail(ctx context.Context, req export.EmailRequest) (bool, error) {
	args := map[string]any{
		"recipients":      req.RecipientList(),
		"subject":         req.Subject,
		"message":         req.Message,
		"attach_pdf":      req.AttachPDF,
		"table_data":      req.Rows,
		"visible_columns": req.VisibleColumns,
		"meta_info":       req.Meta,
	}
	var out struct {
		Success analysis.Flag `json:"success"`
		Message string        `json:"message"`
	}
	if err := c.call(ctx, MethodSendRequirementsEmail, args, &out); err != nil {
		return false, err
	}
	return bool(out.Success), nil
}

// ExportSpreadsheet implements export.Backend. The matrix travels as a JSON string.
func (c *Client) ExportSpreadsheet(ctx context.Context, req export.SpreadsheetRequest) (*analysis.FileRef, error) {
	data, err := json.Marshal(req.Data)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	filename := req.Filename
	if !strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		filename += ".xlsx"
	}

	var ref analysis.FileRef
	args := map[string]any{"data": string(data), "filename": filename}
	if err := c.call(ctx, MethodExportBOMAnalysis, args, &ref); err != nil {
		return nil, err
	}
	if err := c.checkPayload(MethodExportBOMAnalysis, &ref); err != nil {
		return nil, err
	}
	if ref.FileName == "" {
		ref.FileName = filename
	}
	return &ref, nil
}
