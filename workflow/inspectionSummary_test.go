package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/models"
)

func TestAggregateInspections_PerWarpRollup(t *testing.T) {
	warps := []*models.Warp{
		{ID: 1, WarpCode: "WA", FabricCuts: []models.FabricCut{{ID: 10}, {ID: 11}}},
		{ID: 2, WarpCode: "WB", FabricCuts: []models.FabricCut{{ID: 20}}},
	}
	inspections := []*models.Inspection{
		{FabricCutId: 10, InspectionType: models.InspectionTypeFourPoint, InspectedQty: decimal.NewFromInt(10), MistakeQty: decimal.NewFromInt(2)},
		{FabricCutId: 11, InspectionType: models.InspectionTypeFourPoint, InspectedQty: decimal.NewFromInt(8), MistakeQty: decimal.NewFromInt(1)},
		// wash checks are not loom quality; excluded
		{FabricCutId: 20, InspectionType: models.InspectionTypeWashed, InspectedQty: decimal.NewFromInt(99), MistakeQty: decimal.Zero},
	}

	summary := AggregateInspections(inspections, warps)

	if len(summary.Warps) != 2 {
		t.Fatalf("every warp must be represented, got %d rows", len(summary.Warps))
	}
	wa := summary.Warps[0]
	if wa.CutsInspected != 2 || !wa.InspectedQty.Equal(decimal.NewFromInt(18)) || !wa.OkQty.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected WA rollup: %+v", wa)
	}
	wb := summary.Warps[1]
	if wb.CutsInspected != 0 || !wb.InspectedQty.IsZero() {
		t.Fatalf("WB has no four-point inspections, got %+v", wb)
	}
	if !summary.TotalInspected.Equal(decimal.NewFromInt(18)) || !summary.TotalOk.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected totals: inspected=%s ok=%s", summary.TotalInspected, summary.TotalOk)
	}
}

func TestAggregateInspections_NegativeOkSurfaced(t *testing.T) {
	warps := []*models.Warp{
		{ID: 1, WarpCode: "WA", FabricCuts: []models.FabricCut{{ID: 10}}},
	}
	inspections := []*models.Inspection{
		// mistake entries exceed the inspected quantity: a data-entry error
		{FabricCutId: 10, InspectionType: models.InspectionTypeFourPoint, InspectedQty: decimal.NewFromInt(5), MistakeQty: decimal.NewFromInt(8)},
	}

	summary := AggregateInspections(inspections, warps)
	if !summary.Warps[0].OkQty.Equal(decimal.NewFromInt(-3)) {
		t.Fatalf("negative ok qty must be surfaced, got %s", summary.Warps[0].OkQty)
	}
	if !summary.TotalOk.Equal(decimal.NewFromInt(-3)) {
		t.Fatalf("negative total must be surfaced, got %s", summary.TotalOk)
	}
}

func TestAggregateInspections_UnknownCutIgnored(t *testing.T) {
	warps := []*models.Warp{
		{ID: 1, WarpCode: "WA", FabricCuts: []models.FabricCut{{ID: 10}}},
	}
	inspections := []*models.Inspection{
		{FabricCutId: 999, InspectionType: models.InspectionTypeFourPoint, InspectedQty: decimal.NewFromInt(5)},
	}

	summary := AggregateInspections(inspections, warps)
	if summary.Warps[0].CutsInspected != 0 {
		t.Fatalf("inspection for a cut outside the order must be ignored")
	}
}
