// Package analysis turns sales orders into consolidated raw material requirements.
// It owns the remote gateway contract, the consolidation engine and the analysis pipeline.
package analysis

import (
	"encoding/json"

	"nedlog/internal/core/types"
)

// RawMaterialLine is one contribution of a material from one BOM explosion of one order.
// Lines are immutable once received.
type RawMaterialLine struct {
	ItemCode     string         `json:"item_code"`
	ItemName     string         `json:"item_name"`
	UOM          string         `json:"uom"`
	Needed       types.Quantity `json:"needed"`
	Order        string         `json:"order"`
	CustomerPONo string         `json:"customer_po_no,omitempty"`
	BOM          string         `json:"bom,omitempty"`
	FinishedGood string         `json:"finished_good,omitempty"`
	Supplier     string         `json:"supplier,omitempty"`

	// Available is the stock snapshot of the item when the line was computed.
	Available  types.Quantity   `json:"available"`
	Warehouses []WarehouseStock `json:"warehouses,omitempty"`

	ItemGroup     string `json:"item_group,omitempty"`
	Brand         string `json:"brand,omitempty"`
	WeightPerUnit string `json:"weight_per_unit,omitempty"`
}

// Status of a consolidated material.
type Status string

const (
	StatusShortage   Status = "shortage"
	StatusSufficient Status = "sufficient"
)

// ConsolidatedMaterial is the rollup of one item code across all contributing lines.
type ConsolidatedMaterial struct {
	ItemCode       string           `json:"item_code"`
	ItemName       string           `json:"item_name"`
	UOM            string           `json:"uom"`
	TotalNeeded    types.Quantity   `json:"total_needed"`
	TotalAvailable types.Quantity   `json:"total_available"`
	Orders         []string         `json:"orders"`
	Warehouses     []WarehouseStock `json:"warehouses,omitempty"`
	Supplier       string           `json:"supplier,omitempty"`

	CustomerProvided       bool   `json:"customer_provided,omitempty"`
	CustomerProvidedClient string `json:"customer_provided_client,omitempty"`

	ItemGroup     string `json:"item_group,omitempty"`
	Brand         string `json:"brand,omitempty"`
	WeightPerUnit string `json:"weight_per_unit,omitempty"`
}

// Difference is available minus needed. It is derived on every call.
func (m *ConsolidatedMaterial) Difference() types.Quantity {
	return m.TotalAvailable.Sub(m.TotalNeeded)
}

// Shortage is max(0, needed - available).
func (m *ConsolidatedMaterial) Shortage() types.Quantity {
	return types.ClampZero(m.TotalNeeded.Sub(m.TotalAvailable))
}

// Sufficient reports whether the stock covers the need.
func (m *ConsolidatedMaterial) Sufficient() bool {
	return !m.Difference().IsNegative()
}

// Status is StatusShortage when Shortage() > 0.
func (m *ConsolidatedMaterial) Status() Status {
	if m.Shortage().IsPositive() {
		return StatusShortage
	}
	return StatusSufficient
}

// HasOrder reports whether order already contributed to the material.
func (m *ConsolidatedMaterial) HasOrder(order string) bool {
	for _, o := range m.Orders {
		if o == order {
			return true
		}
	}
	return false
}

func (m *ConsolidatedMaterial) addOrder(order string) {
	if order == "" || m.HasOrder(order) {
		return
	}
	m.Orders = append(m.Orders, order)
}

// Materials is an ordered mapping item code -> ConsolidatedMaterial.
// Iteration follows the first time each item code was seen.
type Materials struct {
	codes  []string
	byCode map[string]*ConsolidatedMaterial
}

// NewMaterials creates an empty mapping.
func NewMaterials() *Materials {
	return &Materials{byCode: make(map[string]*ConsolidatedMaterial)}
}

// Len returns the number of distinct item codes.
func (m *Materials) Len() int {
	return len(m.codes)
}

// Get returns the material for an item code.
func (m *Materials) Get(code string) (*ConsolidatedMaterial, bool) {
	c, ok := m.byCode[code]
	return c, ok
}

// Codes returns item codes in insertion order.
func (m *Materials) Codes() []string {
	out := make([]string, len(m.codes))
	copy(out, m.codes)
	return out
}

// All returns materials in insertion order.
func (m *Materials) All() []*ConsolidatedMaterial {
	out := make([]*ConsolidatedMaterial, 0, len(m.codes))
	for _, code := range m.codes {
		out = append(out, m.byCode[code])
	}
	return out
}

// SufficientCount counts materials whose difference is >= 0.
func (m *Materials) SufficientCount() int {
	n := 0
	for _, c := range m.byCode {
		if c.Sufficient() {
			n++
		}
	}
	return n
}

// ShortCount counts materials whose difference is < 0.
func (m *Materials) ShortCount() int {
	return m.Len() - m.SufficientCount()
}

// getOrCreate returns the material for code, and whether it was created.
func (m *Materials) getOrCreate(code string) (*ConsolidatedMaterial, bool) {
	if c, ok := m.byCode[code]; ok {
		return c, false
	}
	c := &ConsolidatedMaterial{ItemCode: code}
	m.byCode[code] = c
	m.codes = append(m.codes, code)
	return c, true
}

// MarshalJSON encodes the mapping as an ordered array.
func (m *Materials) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.All())
}

// UnmarshalJSON decodes an ordered array produced by MarshalJSON.
func (m *Materials) UnmarshalJSON(data []byte) error {
	var list []*ConsolidatedMaterial
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*m = *NewMaterials()
	for _, c := range list {
		if _, exists := m.byCode[c.ItemCode]; exists {
			continue
		}
		m.byCode[c.ItemCode] = c
		m.codes = append(m.codes, c.ItemCode)
	}
	return nil
}
