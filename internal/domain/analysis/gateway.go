package analysis

import (
	"context"
)

// Gateway is the contract the pipeline needs from the ERP.
//
// Every operation fails with an EMPTY_RESPONSE AppError when the remote method returns
// no payload, and with REMOTE_FAILURE on transport or server errors. An explicit empty
// list is a success. Implementations do not retry.
type Gateway interface {
	// FetchOrderItems loads the submitted sales orders with their items and BOMs.
	FetchOrderItems(ctx context.Context, orderIDs []string) (*OrderItemsPayload, error)

	// ExplodeBOMs expands every pending item into raw material lines per order.
	ExplodeBOMs(ctx context.Context, items *OrderItemsPayload) (*ConsolidatedOrderPayload, error)

	// ComputeStockRequirements attaches stock, supplier and shortage information.
	ComputeStockRequirements(ctx context.Context, consolidated *ConsolidatedOrderPayload) (*StockAnalysisPayload, error)

	// CreateGroupedMaterialRequests creates one Material Request per provider for items in shortage.
	CreateGroupedMaterialRequests(ctx context.Context, stock *StockAnalysisPayload) ([]MaterialRequestResult, error)

	// FetchBOMInfo loads the default BOM raw materials of one order with their stock.
	FetchBOMInfo(ctx context.Context, orderID string) (*BOMInfo, error)
}
