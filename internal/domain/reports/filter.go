package reports

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"nedlog/internal/core/apperror"
)

// RowFilter is a compiled boolean CEL expression deciding row visibility.
//
// Available variables:
//
//	kind       string        "detail" or "total"
//	item_code  string
//	item_name  string
//	status     string        "shortage" or "sufficient" (group status, also on detail rows)
//	order      string        source order of a detail row, empty on total rows
//	needed     double        group total needed
//	available  double        group available stock
//	shortage   double        group shortage
//	orders     list(string)  contributing orders of the group
//
// Example: status == "shortage" && shortage > 10.0
type RowFilter struct {
	expr    string
	program cel.Program
}

var filterEnv = mustFilterEnv()

func mustFilterEnv() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("item_code", cel.StringType),
		cel.Variable("item_name", cel.StringType),
		cel.Variable("status", cel.StringType),
		cel.Variable("order", cel.StringType),
		cel.Variable("needed", cel.DoubleType),
		cel.Variable("available", cel.DoubleType),
		cel.Variable("shortage", cel.DoubleType),
		cel.Variable("orders", cel.ListType(cel.StringType)),
	)
	if err != nil {
		panic(fmt.Sprintf("reports: build filter env: %v", err))
	}
	return env
}

// CompileRowFilter parses and type-checks expr. An empty expression yields a
// nil filter, which keeps every row.
func CompileRowFilter(expr string) (*RowFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	ast, iss := filterEnv.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, apperror.NewValidation("invalid row filter").
			WithDetail("expression", expr).
			WithDetail("reason", iss.Err().Error())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperror.NewValidation("row filter must evaluate to a boolean").
			WithDetail("expression", expr)
	}

	prg, err := filterEnv.Program(ast)
	if err != nil {
		return nil, apperror.NewValidation("invalid row filter").
			WithDetail("expression", expr).
			WithCause(err)
	}

	return &RowFilter{expr: expr, program: prg}, nil
}

// Expression returns the source text of the filter.
func (f *RowFilter) Expression() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match evaluates the filter for a row of the given group.
// A nil filter matches every row.
func (f *RowFilter) Match(row Row, group Group) (bool, error) {
	if f == nil {
		return true, nil
	}

	out, _, err := f.program.Eval(map[string]any{
		"kind":      string(row.Kind),
		"item_code": group.ItemCode,
		"item_name": group.ItemName,
		"status":    string(group.Status),
		"order":     row.Order,
		"needed":    group.Needed.InexactFloat64(),
		"available": group.Available.InexactFloat64(),
		"shortage":  group.Shortage.InexactFloat64(),
		"orders":    group.Orders,
	})
	if err != nil {
		return false, apperror.NewValidation("row filter evaluation failed").
			WithDetail("expression", f.expr).
			WithCause(err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, apperror.NewValidation("row filter must evaluate to a boolean").
			WithDetail("expression", f.expr)
	}
	return matched, nil
}
