// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The ERP compares quantities numerically, so they travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Quantity represents an item quantity with full precision.
// Uses decimal.Decimal to avoid floating-point errors when summing BOM lines.
type Quantity = decimal.Decimal

// DisplayPlaces is the number of fractional digits shown in reports.
const DisplayPlaces = 2

// NewQuantity creates a Quantity from a float.
// WARNING: Use NewQuantityFromString for precise values.
func NewQuantity(f float64) Quantity {
	return decimal.NewFromFloat(f)
}

// NewQuantityFromString creates a Quantity from a string.
func NewQuantityFromString(s string) (Quantity, error) {
	return decimal.NewFromString(s)
}

// MustQuantity creates a Quantity from a string, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ZeroQuantity returns zero Quantity value.
func ZeroQuantity() Quantity {
	return decimal.Zero
}

// ClampZero returns q, or zero when q is negative.
func ClampZero(q Quantity) Quantity {
	if q.IsNegative() {
		return decimal.Zero
	}
	return q
}

// FormatQuantity renders a quantity the way report cells show it ("12.50").
func FormatQuantity(q Quantity) string {
	return q.StringFixed(DisplayPlaces)
}

// FormatSigned renders a quantity with an explicit sign for positive values ("+2.00", "-16.00").
func FormatSigned(q Quantity) string {
	if q.IsPositive() {
		return "+" + q.StringFixed(DisplayPlaces)
	}
	return q.StringFixed(DisplayPlaces)
}
