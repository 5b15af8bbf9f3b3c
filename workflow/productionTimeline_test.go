package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/models"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 12, 0, 0, 0, time.UTC)
}

func cutOn(d int, qty int64) models.FabricCut {
	return models.FabricCut{Qty: decimal.NewFromInt(qty), CreatedAt: day(d)}
}

func TestAggregateProductionTimeline_DenseAxisAndTotals(t *testing.T) {
	warps := []*models.Warp{
		{
			ID:            1,
			WarpCode:      "WR",
			StartDate:     day(1),
			EndDate:       day(3),
			CurrentStatus: models.WarpStatusActive,
			FabricCuts: []models.FabricCut{
				cutOn(1, 10),
				cutOn(1, 20),
				cutOn(3, 40),
			},
		},
	}

	timeline, err := AggregateProductionTimeline(warps, "UTC", day(3))
	if err != nil {
		t.Fatalf("AggregateProductionTimeline: %v", err)
	}

	expectedAxis := []string{"2026-01-01", "2026-01-02", "2026-01-03"}
	if len(timeline.DateAxis) != len(expectedAxis) {
		t.Fatalf("expected axis %v, got %v", expectedAxis, timeline.DateAxis)
	}
	for i := range expectedAxis {
		if timeline.DateAxis[i] != expectedAxis[i] {
			t.Fatalf("expected axis %v, got %v", expectedAxis, timeline.DateAxis)
		}
	}

	expectedTotals := []int64{30, 0, 40}
	for i, want := range expectedTotals {
		if !timeline.DailyTotals[i].Equal(decimal.NewFromInt(want)) {
			t.Fatalf("day %s: expected total %d, got %s", timeline.DateAxis[i], want, timeline.DailyTotals[i])
		}
	}

	if len(timeline.Warps) != 1 {
		t.Fatalf("expected 1 warp row, got %d", len(timeline.Warps))
	}
	row := timeline.Warps[0]
	if !row.TotalQty.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected warp total 70, got %s", row.TotalQty)
	}
	if row.IsLate {
		t.Fatalf("warp still inside its window must not be late")
	}
}

func TestAggregateProductionTimeline_AxisExtendsToStragglerCuts(t *testing.T) {
	// A cut recorded after the planned end date stretches the axis.
	warps := []*models.Warp{
		{
			ID:            1,
			WarpCode:      "WR",
			StartDate:     day(1),
			EndDate:       day(2),
			CurrentStatus: models.WarpStatusActive,
			FabricCuts:    []models.FabricCut{cutOn(5, 15)},
		},
	}

	timeline, err := AggregateProductionTimeline(warps, "UTC", day(5))
	if err != nil {
		t.Fatalf("AggregateProductionTimeline: %v", err)
	}
	if len(timeline.DateAxis) != 5 {
		t.Fatalf("expected axis through 2026-01-05, got %v", timeline.DateAxis)
	}
	if timeline.DateAxis[4] != "2026-01-05" {
		t.Fatalf("expected last axis day 2026-01-05, got %s", timeline.DateAxis[4])
	}
	if !timeline.DailyTotals[4].Equal(decimal.NewFromInt(15)) {
		t.Fatalf("straggler qty must land on its actual day, got %s", timeline.DailyTotals[4])
	}
}

func TestAggregateProductionTimeline_LateWarps(t *testing.T) {
	completedLate := day(4)
	warps := []*models.Warp{
		{
			ID: 1, WarpCode: "WA",
			StartDate: day(1), EndDate: day(2),
			CurrentStatus: models.WarpStatusActive,
		},
		{
			ID: 2, WarpCode: "WB",
			StartDate: day(1), EndDate: day(2),
			CurrentStatus: models.WarpStatusComplete,
			CompletedAt:   &completedLate,
		},
		{
			ID: 3, WarpCode: "WC",
			StartDate: day(1), EndDate: day(6),
			CurrentStatus: models.WarpStatusActive,
		},
	}

	timeline, err := AggregateProductionTimeline(warps, "UTC", day(5))
	if err != nil {
		t.Fatalf("AggregateProductionTimeline: %v", err)
	}
	if len(timeline.LateWarps) != 2 {
		t.Fatalf("expected warps 1 and 2 late, got %v", timeline.LateWarps)
	}
	late := map[int]bool{}
	for _, id := range timeline.LateWarps {
		late[id] = true
	}
	if !late[1] || !late[2] || late[3] {
		t.Fatalf("expected late={1,2}, got %v", timeline.LateWarps)
	}
}

func TestAggregateProductionTimeline_NoWarps(t *testing.T) {
	timeline, err := AggregateProductionTimeline(nil, "UTC", day(1))
	if err != nil {
		t.Fatalf("AggregateProductionTimeline: %v", err)
	}
	if len(timeline.DateAxis) != 0 || len(timeline.Warps) != 0 {
		t.Fatalf("empty order must produce an empty timeline")
	}
}
