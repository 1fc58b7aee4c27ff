package analysis

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nedlog/internal/core/apperror"
	"nedlog/pkg/logger"
)

// Mode selects how an analysis is computed.
type Mode string

const (
	// ModeFull runs fetch -> explode -> compute stock on the ERP.
	ModeFull Mode = "full"
	// ModeQuick reads the default BOM of each order and consolidates locally.
	ModeQuick Mode = "quick"
)

// ParseMode maps a request value to a Mode. Empty means ModeFull.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeQuick:
		return ModeQuick, nil
	default:
		return "", apperror.NewValidation("unknown analysis mode").WithDetail("mode", s)
	}
}

// Stats summarizes an analysis.
type Stats struct {
	SalesOrders        int `json:"sales_orders"`
	FinishedGoods      int `json:"finished_goods"`
	RawMaterialsUnique int `json:"raw_materials_unique"`
	RawMaterialsLines  int `json:"raw_materials_lines"`
	ItemsWithShortage  int `json:"items_with_shortage"`
	Sufficient         int `json:"sufficient"`
	Short              int `json:"short"`
}

// Result is everything an analysis produced.
type Result struct {
	OrderIDs      []string              `json:"order_ids"`
	Mode          Mode                  `json:"mode"`
	FinishedGoods []FinishedGood        `json:"finished_goods,omitempty"`
	Lines         []RawMaterialLine     `json:"lines"`
	Materials     *Materials            `json:"materials"`
	Stats         Stats                 `json:"stats"`
	Divergences   []StockDivergence     `json:"divergences,omitempty"`
	Stock         *StockAnalysisPayload `json:"stock,omitempty"`
}

// NormalizeOrderIDs trims identifiers, drops blanks and duplicates, and keeps order.
// It returns a NO_SELECTION error when nothing is left.
func NormalizeOrderIDs(orderIDs []string) ([]string, error) {
	seen := make(map[string]struct{}, len(orderIDs))
	out := make([]string, 0, len(orderIDs))
	for _, raw := range orderIDs {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, apperror.NewNoSelection()
	}
	return out, nil
}

// stage is one typed step of the pipeline.
type stage[In, Out any] struct {
	name string
	run  func(context.Context, In) (Out, error)
}

func runStage[In, Out any](ctx context.Context, tracer trace.Tracer, s stage[In, Out], in In) (Out, error) {
	ctx, span := tracer.Start(ctx, "analysis."+s.name)
	defer span.End()

	out, err := s.run(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var zero Out
		return zero, fmt.Errorf("%s: %w", s.name, err)
	}
	return out, nil
}

// Analyzer runs the analysis pipeline against a Gateway.
// Stages run strictly one after another; there is no fan-out and no retry.
type Analyzer struct {
	gateway Gateway
	tracer  trace.Tracer
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(gateway Gateway) *Analyzer {
	return &Analyzer{
		gateway: gateway,
		tracer:  otel.Tracer("nedlog/analysis"),
	}
}

// Run dispatches to Analyze or QuickAnalyze.
func (a *Analyzer) Run(ctx context.Context, orderIDs []string, mode Mode) (*Result, error) {
	if mode == ModeQuick {
		return a.QuickAnalyze(ctx, orderIDs)
	}
	return a.Analyze(ctx, orderIDs)
}

// Analyze fetches order items, explodes BOMs, computes stock requirements and
// consolidates the detail lines. Any stage failure aborts the chain before consolidation.
func (a *Analyzer) Analyze(ctx context.Context, orderIDs []string) (*Result, error) {
	ids, err := NormalizeOrderIDs(orderIDs)
	if err != nil {
		return nil, err
	}

	ctx, span := a.tracer.Start(ctx, "analysis.Analyze", trace.WithAttributes(attribute.Int("orders", len(ids))))
	defer span.End()

	stock, err := a.fetchStock(ctx, ids)
	if err != nil {
		return nil, a.fail(ctx, span, "analysis failed", err)
	}

	lines := stock.Lines()
	materials, divergences := Consolidate(lines)
	divergences = append(divergences, AttachStock(materials, stock.Totals())...)
	a.warnDivergences(ctx, divergences)

	result := &Result{
		OrderIDs:      ids,
		Mode:          ModeFull,
		FinishedGoods: stock.ConsolidatedItems,
		Lines:         lines,
		Materials:     materials,
		Divergences:   divergences,
		Stock:         stock,
		Stats: Stats{
			SalesOrders:        stock.Stats.TotalSalesOrders,
			FinishedGoods:      stock.Stats.TotalFinishedGoods,
			RawMaterialsUnique: materials.Len(),
			RawMaterialsLines:  len(lines),
			ItemsWithShortage:  stock.Stats.ItemsWithShortage,
			Sufficient:         materials.SufficientCount(),
			Short:              materials.ShortCount(),
		},
	}

	logger.Info(ctx, "analysis completed",
		"orders", len(ids),
		"materials", materials.Len(),
		"short", result.Stats.Short,
	)
	return result, nil
}

// QuickAnalyze reads the default BOM of each order, consolidates each order on its own
// and merges the per-order results.
func (a *Analyzer) QuickAnalyze(ctx context.Context, orderIDs []string) (*Result, error) {
	ids, err := NormalizeOrderIDs(orderIDs)
	if err != nil {
		return nil, err
	}

	ctx, span := a.tracer.Start(ctx, "analysis.QuickAnalyze", trace.WithAttributes(attribute.Int("orders", len(ids))))
	defer span.End()

	fetch := stage[string, *BOMInfo]{name: "fetch_bom_info", run: a.gateway.FetchBOMInfo}

	var (
		lines         []RawMaterialLine
		parts         []*Materials
		divergences   []StockDivergence
		finishedGoods int
	)
	for _, orderID := range ids {
		info, err := runStage(ctx, a.tracer, fetch, orderID)
		if err != nil {
			return nil, a.fail(ctx, span, "quick analysis failed", err)
		}
		for _, item := range info.Items {
			if item.HasBOM {
				finishedGoods++
			}
		}
		orderLines := info.Lines()
		part, div := Consolidate(orderLines)
		lines = append(lines, orderLines...)
		parts = append(parts, part)
		divergences = append(divergences, div...)
	}

	materials, div := Merge(parts...)
	divergences = append(divergences, div...)
	a.warnDivergences(ctx, divergences)

	return &Result{
		OrderIDs:    ids,
		Mode:        ModeQuick,
		Lines:       lines,
		Materials:   materials,
		Divergences: divergences,
		Stats: Stats{
			SalesOrders:        len(ids),
			FinishedGoods:      finishedGoods,
			RawMaterialsUnique: materials.Len(),
			RawMaterialsLines:  len(lines),
			ItemsWithShortage:  materials.ShortCount(),
			Sufficient:         materials.SufficientCount(),
			Short:              materials.ShortCount(),
		},
	}, nil
}

// CreateMaterialRequests runs the full chain and then creates grouped Material Requests.
func (a *Analyzer) CreateMaterialRequests(ctx context.Context, orderIDs []string) ([]MaterialRequestResult, error) {
	ids, err := NormalizeOrderIDs(orderIDs)
	if err != nil {
		return nil, err
	}

	ctx, span := a.tracer.Start(ctx, "analysis.CreateMaterialRequests", trace.WithAttributes(attribute.Int("orders", len(ids))))
	defer span.End()

	stock, err := a.fetchStock(ctx, ids)
	if err != nil {
		return nil, a.fail(ctx, span, "material request creation failed", err)
	}
	return a.createFrom(ctx, span, stock)
}

// CreateMaterialRequestsFrom creates grouped Material Requests from an existing stock analysis.
func (a *Analyzer) CreateMaterialRequestsFrom(ctx context.Context, stock *StockAnalysisPayload) ([]MaterialRequestResult, error) {
	if stock == nil {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "analysis has no stock computation").
			WithDetail("hint", "open the session in full mode")
	}
	ctx, span := a.tracer.Start(ctx, "analysis.CreateMaterialRequestsFrom")
	defer span.End()
	return a.createFrom(ctx, span, stock)
}

func (a *Analyzer) createFrom(ctx context.Context, span trace.Span, stock *StockAnalysisPayload) ([]MaterialRequestResult, error) {
	create := stage[*StockAnalysisPayload, []MaterialRequestResult]{
		name: "create_grouped_material_requests",
		run:  a.gateway.CreateGroupedMaterialRequests,
	}
	results, err := runStage(ctx, a.tracer, create, stock)
	if err != nil {
		return nil, a.fail(ctx, span, "material request creation failed", err)
	}
	logger.Info(ctx, "material requests created", "count", len(results))
	return results, nil
}

func (a *Analyzer) fetchStock(ctx context.Context, ids []string) (*StockAnalysisPayload, error) {
	fetch := stage[[]string, *OrderItemsPayload]{name: "fetch_order_items", run: a.gateway.FetchOrderItems}
	explode := stage[*OrderItemsPayload, *ConsolidatedOrderPayload]{name: "explode_boms", run: a.gateway.ExplodeBOMs}
	compute := stage[*ConsolidatedOrderPayload, *StockAnalysisPayload]{name: "compute_stock_requirements", run: a.gateway.ComputeStockRequirements}

	items, err := runStage(ctx, a.tracer, fetch, ids)
	if err != nil {
		return nil, err
	}
	consolidated, err := runStage(ctx, a.tracer, explode, items)
	if err != nil {
		return nil, err
	}
	return runStage(ctx, a.tracer, compute, consolidated)
}

// fail is the single failure boundary of a chain.
func (a *Analyzer) fail(ctx context.Context, span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	logger.Error(ctx, msg, "error", err)
	return err
}

func (a *Analyzer) warnDivergences(ctx context.Context, divergences []StockDivergence) {
	for _, d := range divergences {
		logger.Warn(ctx, "divergent available stock",
			"item_code", d.ItemCode,
			"kept", d.Kept.String(),
			"ignored", d.Ignored.String(),
			"source", d.Source,
		)
	}
}
