package frappe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nedlog/internal/core/apperror"
	"nedlog/internal/core/types"
	"nedlog/internal/domain/analysis"
	"nedlog/internal/domain/export"
)

// recorder captures the last request seen by a test site.
type recorder struct {
	path string
	auth string
	body string
	args map[string]any
}

func newSite(t *testing.T, status int, body string) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			rec.body = string(raw)
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &rec.args)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "key", APISecret: "secret"})
	require.NoError(t, err)
	return c, rec
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "not a url"})
	assert.Error(t, err)
	_, err = NewClient(Config{})
	assert.Error(t, err)
}

func TestFetchOrderItems(t *testing.T) {
	c, rec := newSite(t, http.StatusOK, `{"message": [
		{"name": "SO-1", "customer": "ACME", "po_no": "PO-9", "items": [
			{"sales_order": "SO-1", "item_code": "FG-1", "qty": 4, "delivered_qty": 1, "pending_qty": 3, "bom_no": "BOM-FG-1"}
		]}
	]}`)

	payload, err := c.FetchOrderItems(context.Background(), []string{"SO-1"})
	require.NoError(t, err)

	assert.Equal(t, "/api/method/custom_nedlog.production_analysis.get_sales_orders_with_items", rec.path)
	assert.Equal(t, "token key:secret", rec.auth)
	assert.Equal(t, []any{"SO-1"}, rec.args["sales_order_names"])

	require.Len(t, payload.Orders, 1)
	assert.Equal(t, "PO-9", payload.Orders[0].PONo)
	assert.True(t, types.MustQuantity("3").Equal(payload.Orders[0].Items[0].PendingQty))
}

func TestFetchOrderItems_EmptyList(t *testing.T) {
	c, _ := newSite(t, http.StatusOK, `{"message": []}`)

	payload, err := c.FetchOrderItems(context.Background(), []string{"SO-1"})
	require.NoError(t, err)
	assert.Empty(t, payload.Orders)
}

func TestCall_EmptyResponse(t *testing.T) {
	for name, body := range map[string]string{
		"null":   `{"message": null}`,
		"absent": `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, _ := newSite(t, http.StatusOK, body)
			_, err := c.FetchOrderItems(context.Background(), []string{"SO-1"})
			require.Error(t, err)
			assert.True(t, apperror.IsEmptyResponse(err))

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, "custom_nedlog."+MethodGetSalesOrdersWithItems, appErr.Details["method"])
		})
	}
}

func TestCall_ServerMessages(t *testing.T) {
	c, _ := newSite(t, http.StatusExpectationFailed, `{
		"exc_type": "ValidationError",
		"exception": "frappe.exceptions.ValidationError: ignored",
		"_server_messages": "[\"{\\\"message\\\": \\\"Sales Order SO-9 not found\\\"}\"]"
	}`)

	_, err := c.ExplodeBOMs(context.Background(), &analysis.OrderItemsPayload{})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeRemoteFailure))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "Sales Order SO-9 not found", appErr.Message)
	assert.Equal(t, http.StatusExpectationFailed, appErr.Details["status"])
}

func TestCall_ExceptionText(t *testing.T) {
	c, _ := newSite(t, http.StatusInternalServerError,
		`{"exception": "frappe.exceptions.ValidationError: Erreur lors du calcul des stocks: boom"}`)

	_, err := c.ComputeStockRequirements(context.Background(), &analysis.ConsolidatedOrderPayload{})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeRemoteFailure, appErr.Code)
	assert.Equal(t, "Erreur lors du calcul des stocks: boom", appErr.Message)
}

func TestCall_NonJSONFailureUsesFallback(t *testing.T) {
	c, _ := newSite(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := c.FetchOrderItems(context.Background(), []string{"SO-1"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeRemoteFailure, appErr.Code)
	assert.NotEmpty(t, appErr.Message)
}

func TestCall_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: url})
	require.NoError(t, err)

	_, err = c.FetchOrderItems(context.Background(), []string{"SO-1"})
	assert.True(t, apperror.HasCode(err, apperror.CodeRemoteFailure))
}

func TestComputeStockRequirements_MissingRequiredIsEmpty(t *testing.T) {
	c, _ := newSite(t, http.StatusOK, `{"message": {"consolidated_items": []}}`)

	_, err := c.ComputeStockRequirements(context.Background(), &analysis.ConsolidatedOrderPayload{})
	assert.True(t, apperror.IsEmptyResponse(err))
}

func TestExplodeBOMs_OmitsMissingItems(t *testing.T) {
	fetchSite, _ := newSite(t, http.StatusOK, `{"message": [
		{"name": "SO-1", "items": [{"item_code": "FG-1", "pending_qty": 2, "bom_no": "BOM-FG-1"}]},
		{"name": "SO-2", "status": "Draft"}
	]}`)
	items, err := fetchSite.FetchOrderItems(context.Background(), []string{"SO-1", "SO-2"})
	require.NoError(t, err)

	c, rec := newSite(t, http.StatusOK, `{"message": {"consolidated_items": [], "raw_materials_by_order": []}}`)
	_, err = c.ExplodeBOMs(context.Background(), items)
	require.NoError(t, err)

	assert.NotContains(t, rec.body, `"items":null`)
	orders := rec.args["sales_orders_data"].([]any)
	require.Len(t, orders, 2)
	assert.Contains(t, orders[0], "items")
	assert.NotContains(t, orders[1], "items")
}

func TestComputeStockRequirements_SendsIndexedKeys(t *testing.T) {
	c, rec := newSite(t, http.StatusOK, `{"message": {"consolidated_items": [], "raw_materials_requirements": []}}`)

	_, err := c.ComputeStockRequirements(context.Background(), &analysis.ConsolidatedOrderPayload{
		RawMaterialsByOrder: []analysis.BOMLine{{ItemCode: "RAW-001", SalesOrder: "SO-1"}},
	})
	require.NoError(t, err)

	lines := rec.args["consolidated_data"].(map[string]any)["raw_materials_by_order"].([]any)
	line := lines[0].(map[string]any)
	for _, key := range []string{"item_name", "stock_uom", "required_qty", "sales_order", "customer", "customer_po_no"} {
		assert.Contains(t, line, key)
	}
}

func TestCreateGroupedMaterialRequests_SendsIndexedKeys(t *testing.T) {
	c, rec := newSite(t, http.StatusOK, `{"message": []}`)

	_, err := c.CreateGroupedMaterialRequests(context.Background(), &analysis.StockAnalysisPayload{
		RawMaterialsRequirements: []analysis.Requirement{
			{Type: analysis.RequirementTotal, ItemCode: "RAW-002", ShortageQty: types.MustQuantity("16"), HasShortage: true},
		},
	})
	require.NoError(t, err)

	rows := rec.args["analysis_data"].(map[string]any)["raw_materials_requirements"].([]any)
	row := rows[0].(map[string]any)
	for _, key := range []string{"item_code", "item_name", "stock_uom", "shortage_qty"} {
		assert.Contains(t, row, key)
	}
}

func TestComputeStockRequirements(t *testing.T) {
	c, rec := newSite(t, http.StatusOK, `{"message": {
		"consolidated_items": [],
		"raw_materials_requirements": [
			{"type": "detail", "item_code": "RAW-001", "required_qty": 5, "sales_order": "SO-1", "projected_qty": 10},
			{"type": "total", "item_code": "RAW-001", "total_required_qty": 5, "available_qty": 10, "has_shortage": 0,
			 "warehouses": [{"warehouse": "Stores", "actual_qty": 10, "projected_qty": 10}]}
		],
		"stats": {"total_sales_orders": 1}
	}}`)

	stock, err := c.ComputeStockRequirements(context.Background(), &analysis.ConsolidatedOrderPayload{
		RawMaterialsByOrder: []analysis.BOMLine{{ItemCode: "RAW-001", SalesOrder: "SO-1"}},
	})
	require.NoError(t, err)

	assert.Contains(t, rec.args, "consolidated_data")
	assert.Len(t, stock.Details(), 1)
	require.Len(t, stock.Totals(), 1)
	assert.False(t, bool(stock.Totals()[0].HasShortage))
	assert.Equal(t, 1, stock.Stats.TotalSalesOrders)
}

func TestCreateGroupedMaterialRequests(t *testing.T) {
	c, rec := newSite(t, http.StatusOK, `{"message": [
		{"name": "MAT-MR-0001", "material_request_type": "Purchase", "provider_type": "supplier", "items_count": 2, "status": "Draft"}
	]}`)

	results, err := c.CreateGroupedMaterialRequests(context.Background(), &analysis.StockAnalysisPayload{})
	require.NoError(t, err)
	assert.Contains(t, rec.args, "analysis_data")
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].ItemsCount)

	c, _ = newSite(t, http.StatusOK, `{"message": []}`)
	results, err = c.CreateGroupedMaterialRequests(context.Background(), &analysis.StockAnalysisPayload{})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFetchBOMInfo(t *testing.T) {
	c, rec := newSite(t, http.StatusOK, `{"message": {
		"success": true, "customer": "ACME",
		"bom_info": [{"item_code": "FG-1", "qty": 2, "has_bom": true, "bom_name": "BOM-1",
			"raw_materials": [{"item_code": "RAW-001", "total_qty": 6, "uom": "Kg", "total_available": 4,
				"stock_info": [{"warehouse": "Stores", "actual_qty": 4, "projected_qty": 4}]}]}]
	}}`)

	info, err := c.FetchBOMInfo(context.Background(), "SO-1")
	require.NoError(t, err)
	assert.Equal(t, "/api/method/custom_nedlog."+MethodGetSalesOrderBOMInfo, rec.path)
	assert.Equal(t, "SO-1", rec.args["sales_order"])
	assert.Equal(t, "SO-1", info.SalesOrder)

	lines := info.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "SO-1", lines[0].Order)
}

func TestFetchBOMInfo_Failure(t *testing.T) {
	c, _ := newSite(t, http.StatusOK, `{"message": {"success": false, "error": "Sales Order SO-404 not found"}}`)

	_, err := c.FetchBOMInfo(context.Background(), "SO-404")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeRemoteFailure, appErr.Code)
	assert.Equal(t, "Sales Order SO-404 not found", appErr.Message)
}

func TestGenerateRequirementsPDF(t *testing.T) {
	c, rec := newSite(t, http.StatusOK, `{"message": {"file_url": "/files/req.pdf"}}`)

	ref, err := c.GenerateRequirementsPDF(context.Background(), export.PDFRequest{
		Rows:           []map[string]string{{"Item Code": "RAW-001", "_type": "total"}},
		VisibleColumns: []string{"item-code"},
		Meta:           map[string]string{"generated_by": "ops"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/files/req.pdf", ref.FileURL)
	assert.Contains(t, rec.args, "table_data")
	assert.Equal(t, []any{"item-code"}, rec.args["visible_columns"])
	assert.Equal(t, map[string]any{"generated_by": "ops"}, rec.args["meta_info"])
}

func TestGenerateRequirementsPDF_MissingFileURL(t *testing.T) {
	c, _ := newSite(t, http.StatusOK, `{"message": {}}`)

	_, err := c.GenerateRequirementsPDF(context.Background(), export.PDFRequest{})
	assert.True(t, apperror.IsEmptyResponse(err))
}

func TestSendRequirementsEmail(t *testing.T) {
	c, rec := newSite(t, http.StatusOK, `{"message": {"success": true}}`)

	ok, err := c.SendRequirementsEmail(context.Background(), export.EmailRequest{
		Recipients: []string{"a@example.com", "b@example.com"},
		Subject:    "Report",
		AttachPDF:  true,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a@example.com, b@example.com", rec.args["recipients"])
	assert.Equal(t, true, rec.args["attach_pdf"])
}

func TestExportSpreadsheet(t *testing.T) {
	c, rec := newSite(t, http.StatusOK, `{"message": {"file_url": "/files/bom.xlsx"}}`)

	ref, err := c.ExportSpreadsheet(context.Background(), export.SpreadsheetRequest{
		Data:     [][]string{{"Item Code"}, {"RAW-001"}},
		Filename: "bom",
	})
	require.NoError(t, err)
	assert.Equal(t, "bom.xlsx", rec.args["filename"])
	assert.Equal(t, `[["Item Code"],["RAW-001"]]`, rec.args["data"])
	assert.Equal(t, "bom.xlsx", ref.FileName)
}

func TestPing(t *testing.T) {
	c, rec := newSite(t, http.StatusOK, `{"message": "pong"}`)
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "/api/method/ping", rec.path)

	c, _ = newSite(t, http.StatusServiceUnavailable, `{}`)
	assert.Error(t, c.Ping(context.Background()))
}
