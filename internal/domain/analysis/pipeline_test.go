package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nedlog/internal/core/apperror"
)

// fakeGateway records calls and returns canned payloads.
type fakeGateway struct {
	items        *OrderItemsPayload
	consolidated *ConsolidatedOrderPayload
	stock        *StockAnalysisPayload
	requests     []MaterialRequestResult
	bomInfo      map[string]*BOMInfo

	fetchErr error

	calls []string
}

func (f *fakeGateway) FetchOrderItems(_ context.Context, ids []string) (*OrderItemsPayload, error) {
	f.calls = append(f.calls, "fetch")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.items, nil
}

func (f *fakeGateway) ExplodeBOMs(_ context.Context, _ *OrderItemsPayload) (*ConsolidatedOrderPayload, error) {
	f.calls = append(f.calls, "explode")
	return f.consolidated, nil
}

func (f *fakeGateway) ComputeStockRequirements(_ context.Context, _ *ConsolidatedOrderPayload) (*StockAnalysisPayload, error) {
	f.calls = append(f.calls, "compute")
	return f.stock, nil
}

func (f *fakeGateway) CreateGroupedMaterialRequests(_ context.Context, _ *StockAnalysisPayload) ([]MaterialRequestResult, error) {
	f.calls = append(f.calls, "create")
	return f.requests, nil
}

func (f *fakeGateway) FetchBOMInfo(_ context.Context, orderID string) (*BOMInfo, error) {
	f.calls = append(f.calls, "bom:"+orderID)
	info, ok := f.bomInfo[orderID]
	if !ok {
		return nil, apperror.NewEmptyResponse("get_sales_order_bom_info")
	}
	return info, nil
}

func sampleStock() *StockAnalysisPayload {
	return &StockAnalysisPayload{
		RawMaterialsRequirements: []Requirement{
			{Type: RequirementDetail, ItemCode: "RAW-001", ItemName: "Steel", StockUOM: "Kg", RequiredQty: q("5"), SalesOrder: "SO-1", ProjectedQty: q("10")},
			{Type: RequirementDetail, ItemCode: "RAW-002", ItemName: "Bolt", StockUOM: "Nos", RequiredQty: q("20"), SalesOrder: "SO-1", ProjectedQty: q("4")},
			{Type: RequirementDetail, ItemCode: "RAW-001", ItemName: "Steel", StockUOM: "Kg", RequiredQty: q("3"), SalesOrder: "SO-2", ProjectedQty: q("10")},
			{Type: RequirementTotal, ItemCode: "RAW-001", TotalRequiredQty: q("8"), AvailableQty: q("10"), OrdersCount: 2,
				Warehouses: []WarehouseStock{{Warehouse: "Stores", ActualQty: q("10"), ProjectedQty: q("10")}}},
			{Type: RequirementTotal, ItemCode: "RAW-002", TotalRequiredQty: q("20"), AvailableQty: q("4"), ShortageQty: q("16"), HasShortage: true, OrdersCount: 1, SupplierName: "Bolts Inc"},
		},
		Stats: StockStats{TotalSalesOrders: 2, TotalFinishedGoods: 2, ItemsWithShortage: 1},
	}
}

func TestAnalyze_RunsStagesInOrder(t *testing.T) {
	gw := &fakeGateway{
		items:        &OrderItemsPayload{Orders: []SalesOrder{{Name: "SO-1"}, {Name: "SO-2"}}},
		consolidated: &ConsolidatedOrderPayload{RawMaterialsByOrder: []BOMLine{}},
		stock:        sampleStock(),
	}

	result, err := NewAnalyzer(gw).Analyze(context.Background(), []string{"SO-1", " SO-2 ", "SO-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch", "explode", "compute"}, gw.calls)
	assert.Equal(t, []string{"SO-1", "SO-2"}, result.OrderIDs)
	assert.Equal(t, []string{"RAW-001", "RAW-002"}, result.Materials.Codes())
	assert.Equal(t, 1, result.Stats.Sufficient)
	assert.Equal(t, 1, result.Stats.Short)
	assert.Len(t, result.Lines, 3)

	raw2, _ := result.Materials.Get("RAW-002")
	assert.Equal(t, "Bolts Inc", raw2.Supplier)
	raw1, _ := result.Materials.Get("RAW-001")
	assert.Len(t, raw1.Warehouses, 1)
}

func TestAnalyze_EmptyResponseAbortsBeforeConsolidation(t *testing.T) {
	gw := &fakeGateway{fetchErr: apperror.NewEmptyResponse("get_sales_orders_with_items")}

	result, err := NewAnalyzer(gw).Analyze(context.Background(), []string{"SO-1"})

	assert.Nil(t, result)
	assert.True(t, apperror.IsEmptyResponse(err))
	assert.Equal(t, []string{"fetch"}, gw.calls)
}

func TestAnalyze_NoSelectionNeverCallsGateway(t *testing.T) {
	gw := &fakeGateway{}

	_, err := NewAnalyzer(gw).Analyze(context.Background(), []string{"", "  "})

	assert.True(t, apperror.HasCode(err, apperror.CodeNoSelection))
	assert.Empty(t, gw.calls)
}

func TestCreateMaterialRequests_FullChain(t *testing.T) {
	gw := &fakeGateway{
		items:        &OrderItemsPayload{},
		consolidated: &ConsolidatedOrderPayload{RawMaterialsByOrder: []BOMLine{}},
		stock:        sampleStock(),
		requests:     []MaterialRequestResult{{Name: "MAT-MR-0001", MaterialRequestType: "Purchase", ItemsCount: 1}},
	}

	results, err := NewAnalyzer(gw).CreateMaterialRequests(context.Background(), []string{"SO-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch", "explode", "compute", "create"}, gw.calls)
	assert.Equal(t, "MAT-MR-0001", results[0].Name)
}

func TestCreateMaterialRequestsFrom_RequiresStock(t *testing.T) {
	_, err := NewAnalyzer(&fakeGateway{}).CreateMaterialRequestsFrom(context.Background(), nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestQuickAnalyze_MergesOrders(t *testing.T) {
	gw := &fakeGateway{bomInfo: map[string]*BOMInfo{
		"SO-1": {Success: true, SalesOrder: "SO-1", Items: []BOMItem{{
			ItemCode: "FG-1", HasBOM: true, BOMName: "BOM-FG-1",
			RawMaterials: []BOMRawMaterial{{ItemCode: "RAW-001", ItemName: "Steel", UOM: "Kg", TotalQty: q("5"), TotalAvailable: q("10")}},
		}}},
		"SO-2": {Success: true, SalesOrder: "SO-2", Items: []BOMItem{
			{ItemCode: "FG-2", HasBOM: false},
			{ItemCode: "FG-1", HasBOM: true, BOMName: "BOM-FG-1",
				RawMaterials: []BOMRawMaterial{{ItemCode: "RAW-001", ItemName: "Steel", UOM: "Kg", TotalQty: q("3"), TotalAvailable: q("10")}}},
		}},
	}}

	result, err := NewAnalyzer(gw).QuickAnalyze(context.Background(), []string{"SO-1", "SO-2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"bom:SO-1", "bom:SO-2"}, gw.calls)
	m, _ := result.Materials.Get("RAW-001")
	assert.True(t, m.TotalNeeded.Equal(q("8")))
	assert.Equal(t, []string{"SO-1", "SO-2"}, m.Orders)
	assert.Empty(t, result.Divergences)
	assert.Equal(t, 2, result.Stats.FinishedGoods)
	assert.Equal(t, ModeQuick, result.Mode)
}

func TestQuickAnalyze_StopsOnFirstFailure(t *testing.T) {
	gw := &fakeGateway{bomInfo: map[string]*BOMInfo{}}

	_, err := NewAnalyzer(gw).QuickAnalyze(context.Background(), []string{"SO-1", "SO-2"})

	assert.True(t, apperror.IsEmptyResponse(err))
	assert.Equal(t, []string{"bom:SO-1"}, gw.calls)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeFull, m)

	m, err = ParseMode("Quick")
	require.NoError(t, err)
	assert.Equal(t, ModeQuick, m)

	_, err = ParseMode("fast")
	assert.Error(t, err)
}
