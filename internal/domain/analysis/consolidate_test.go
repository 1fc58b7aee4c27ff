package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nedlog/internal/core/types"
)

func q(s string) types.Quantity { return types.MustQuantity(s) }

func line(item, order, needed, available string) RawMaterialLine {
	return RawMaterialLine{
		ItemCode:  item,
		ItemName:  "Name " + item,
		UOM:       "Nos",
		Needed:    q(needed),
		Order:     order,
		Available: q(available),
	}
}

func TestConsolidate_SumsNeededAcrossOrders(t *testing.T) {
	materials, divergences := Consolidate([]RawMaterialLine{
		line("RAW-001", "SO-1", "5", "10"),
		line("RAW-001", "SO-2", "3", "10"),
	})

	assert.Empty(t, divergences)
	require.Equal(t, 1, materials.Len())

	m, ok := materials.Get("RAW-001")
	require.True(t, ok)
	assert.True(t, m.TotalNeeded.Equal(q("8")))
	assert.True(t, m.TotalAvailable.Equal(q("10")))
	assert.True(t, m.Difference().Equal(q("2")))
	assert.Equal(t, []string{"SO-1", "SO-2"}, m.Orders)
	assert.Equal(t, StatusSufficient, m.Status())
}

func TestConsolidate_ShortageScenario(t *testing.T) {
	materials, _ := Consolidate([]RawMaterialLine{line("RAW-002", "SO-1", "20", "4")})

	m, _ := materials.Get("RAW-002")
	assert.True(t, m.Difference().Equal(q("-16")))
	assert.True(t, m.Shortage().Equal(q("16")))
	assert.Equal(t, StatusShortage, m.Status())
	assert.False(t, m.Sufficient())
}

func TestConsolidate_OrderCountedOnce(t *testing.T) {
	materials, _ := Consolidate([]RawMaterialLine{
		line("RAW-001", "SO-1", "1", "0"),
		line("RAW-001", "SO-1", "2", "0"),
		line("RAW-001", "SO-2", "4", "0"),
		line("RAW-001", "SO-1", "8", "0"),
	})

	m, _ := materials.Get("RAW-001")
	assert.Equal(t, []string{"SO-1", "SO-2"}, m.Orders)
	assert.True(t, m.TotalNeeded.Equal(q("15")))
}

func TestConsolidate_PreservesFirstSeenOrder(t *testing.T) {
	materials, _ := Consolidate([]RawMaterialLine{
		line("C", "SO-1", "1", "0"),
		line("A", "SO-1", "1", "0"),
		line("C", "SO-2", "1", "0"),
		line("B", "SO-2", "1", "0"),
	})

	assert.Equal(t, []string{"C", "A", "B"}, materials.Codes())
}

func TestConsolidate_DifferenceTracksEveryMerge(t *testing.T) {
	lines := []RawMaterialLine{
		line("RAW-001", "SO-1", "2.5", "6"),
		line("RAW-001", "SO-2", "1.25", "6"),
		line("RAW-001", "SO-3", "4", "6"),
	}
	for n := 1; n <= len(lines); n++ {
		materials, _ := Consolidate(lines[:n])
		m, _ := materials.Get("RAW-001")
		assert.True(t, m.Difference().Equal(m.TotalAvailable.Sub(m.TotalNeeded)))
	}
}

func TestConsolidate_DivergentSnapshotKeepsFirst(t *testing.T) {
	materials, divergences := Consolidate([]RawMaterialLine{
		line("RAW-001", "SO-1", "1", "10"),
		line("RAW-001", "SO-2", "1", "7"),
	})

	m, _ := materials.Get("RAW-001")
	assert.True(t, m.TotalAvailable.Equal(q("10")))
	require.Len(t, divergences, 1)
	assert.Equal(t, "RAW-001", divergences[0].ItemCode)
	assert.Equal(t, "SO-2", divergences[0].Source)
	assert.True(t, divergences[0].Ignored.Equal(q("7")))
}

func TestMaterials_Counts(t *testing.T) {
	materials, _ := Consolidate([]RawMaterialLine{
		line("A", "SO-1", "5", "10"),
		line("B", "SO-1", "5", "5"),
		line("C", "SO-1", "9", "1"),
	})

	assert.Equal(t, 2, materials.SufficientCount())
	assert.Equal(t, 1, materials.ShortCount())
	assert.Equal(t, materials.Len(), materials.SufficientCount()+materials.ShortCount())
}

func TestMerge_LastWriteWinsWithDivergence(t *testing.T) {
	first, _ := Consolidate([]RawMaterialLine{line("RAW-001", "SO-1", "5", "10"), line("X", "SO-1", "1", "1")})
	second, _ := Consolidate([]RawMaterialLine{line("RAW-001", "SO-2", "3", "12")})

	merged, divergences := Merge(first, second)

	m, _ := merged.Get("RAW-001")
	assert.True(t, m.TotalNeeded.Equal(q("8")))
	assert.True(t, m.TotalAvailable.Equal(q("12")))
	assert.Equal(t, []string{"SO-1", "SO-2"}, m.Orders)
	assert.Equal(t, []string{"RAW-001", "X"}, merged.Codes())

	require.Len(t, divergences, 1)
	assert.True(t, divergences[0].Kept.Equal(q("12")))
	assert.True(t, divergences[0].Ignored.Equal(q("10")))
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	first, _ := Consolidate([]RawMaterialLine{line("RAW-001", "SO-1", "5", "10")})
	second, _ := Consolidate([]RawMaterialLine{line("RAW-001", "SO-2", "3", "10")})

	_, _ = Merge(first, second)

	m, _ := first.Get("RAW-001")
	assert.Equal(t, []string{"SO-1"}, m.Orders)
	assert.True(t, m.TotalNeeded.Equal(q("5")))
}

func TestMerge_OverwriteReplacesWarehouses(t *testing.T) {
	first, _ := Consolidate([]RawMaterialLine{line("RAW-001", "SO-1", "5", "10")})
	second, _ := Consolidate([]RawMaterialLine{line("RAW-001", "SO-2", "3", "12")})
	src, _ := first.Get("RAW-001")
	src.Warehouses = []WarehouseStock{{Warehouse: "Stores", ActualQty: q("10"), ProjectedQty: q("10")}}

	merged, divergences := Merge(first, second)

	require.Len(t, divergences, 1)
	m, _ := merged.Get("RAW-001")
	assert.True(t, m.TotalAvailable.Equal(q("12")))
	assert.Empty(t, m.Warehouses)
}

func TestMerge_CopiesWarehouses(t *testing.T) {
	first, _ := Consolidate([]RawMaterialLine{line("RAW-001", "SO-1", "5", "10")})
	src, _ := first.Get("RAW-001")
	src.Warehouses = []WarehouseStock{{Warehouse: "Stores", ActualQty: q("10"), ProjectedQty: q("10")}}

	merged, _ := Merge(first)
	m, _ := merged.Get("RAW-001")
	m.Warehouses[0].Warehouse = "Changed"

	assert.Equal(t, "Stores", src.Warehouses[0].Warehouse)
}

func TestAttachStock(t *testing.T) {
	materials, _ := Consolidate([]RawMaterialLine{line("RAW-001", "SO-1", "5", "10")})

	divergences := AttachStock(materials, []Requirement{{
		Type:            RequirementTotal,
		ItemCode:        "RAW-001",
		AvailableQty:    q("10"),
		DefaultSupplier: "SUP-1",
		SupplierName:    "Acme Metals",
		Warehouses: []WarehouseStock{
			{Warehouse: "Stores - N", ActualQty: q("6"), ProjectedQty: q("6")},
			{Warehouse: "WIP - N", ActualQty: q("4"), ProjectedQty: q("4")},
		},
	}})

	assert.Empty(t, divergences)
	m, _ := materials.Get("RAW-001")
	assert.Equal(t, "Acme Metals", m.Supplier)
	assert.Len(t, m.Warehouses, 2)
}

func TestMaterials_JSONKeepsOrder(t *testing.T) {
	materials, _ := Consolidate([]RawMaterialLine{
		line("Z", "SO-1", "1", "0"),
		line("A", "SO-1", "2", "0"),
	})

	data, err := json.Marshal(materials)
	require.NoError(t, err)

	decoded := NewMaterials()
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, []string{"Z", "A"}, decoded.Codes())
	a, _ := decoded.Get("A")
	assert.True(t, a.TotalNeeded.Equal(q("2")))
}

func TestFlag_Unmarshal(t *testing.T) {
	var v struct {
		A Flag `json:"a"`
		B Flag `json:"b"`
		C Flag `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 1, "b": false, "c": null}`), &v))
	assert.True(t, bool(v.A))
	assert.False(t, bool(v.B))
	assert.False(t, bool(v.C))

	assert.Error(t, json.Unmarshal([]byte(`{"a": "yes"}`), &v))
}
