package workflow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/models"
	"github.com/weavetrack/fabric_backend/utils"
)

const timelineDateLayout = "2006-01-02"

// WarpTimeline is one warp's row on the production timeline. Daily is
// aligned index-for-index with the timeline's DateAxis.
type WarpTimeline struct {
	WarpId   int               `json:"warp_id"`
	WarpCode string            `json:"warp_code"`
	Daily    []decimal.Decimal `json:"daily"`
	TotalQty decimal.Decimal   `json:"total_qty"`
	IsLate   bool              `json:"is_late"`
}

// ProductionTimeline is the per-order production view: a dense date axis
// covering every warp's planned window and every cut's actual date, with
// per-warp and total daily quantities. Days without production appear as
// zero rather than being skipped, so charts and exports stay aligned.
type ProductionTimeline struct {
	DateAxis    []string          `json:"date_axis"`
	Warps       []WarpTimeline    `json:"warps"`
	DailyTotals []decimal.Decimal `json:"daily_totals"`
	LateWarps   []int             `json:"late_warps,omitempty"`
}

func warpIsLate(warp *models.Warp, timezone string, asOf time.Time) bool {
	endDate, err := utils.ConvertToDate(warp.EndDate, timezone)
	if err != nil {
		return false
	}
	if warp.CurrentStatus == models.WarpStatusComplete {
		if warp.CompletedAt == nil {
			return false
		}
		completedDate, err := utils.ConvertToDate(*warp.CompletedAt, timezone)
		if err != nil {
			return false
		}
		return completedDate.After(endDate)
	}
	asOfDate, err := utils.ConvertToDate(asOf, timezone)
	if err != nil {
		return false
	}
	return asOfDate.After(endDate)
}

// AggregateProductionTimeline builds the timeline from warps with their
// cuts preloaded. The axis runs from the earliest of any warp start or cut
// date to the latest of any warp end, cut date, or completion date, one
// entry per day. Cuts are attributed to the business-timezone date they
// were recorded on. Totals are rounded to two places.
func AggregateProductionTimeline(warps []*models.Warp, timezone string, asOf time.Time) (*ProductionTimeline, error) {
	timeline := &ProductionTimeline{}
	if len(warps) == 0 {
		return timeline, nil
	}

	var axisStart, axisEnd time.Time
	observe := func(t time.Time) error {
		date, err := utils.ConvertToDate(t, timezone)
		if err != nil {
			return err
		}
		if axisStart.IsZero() || date.Before(axisStart) {
			axisStart = date
		}
		if axisEnd.IsZero() || date.After(axisEnd) {
			axisEnd = date
		}
		return nil
	}

	for _, warp := range warps {
		if err := observe(warp.StartDate); err != nil {
			return nil, err
		}
		if err := observe(warp.EndDate); err != nil {
			return nil, err
		}
		if warp.CompletedAt != nil {
			if err := observe(*warp.CompletedAt); err != nil {
				return nil, err
			}
		}
		for _, cut := range warp.FabricCuts {
			if err := observe(cut.CreatedAt); err != nil {
				return nil, err
			}
		}
	}

	axisIndex := map[string]int{}
	for day := axisStart; !day.After(axisEnd); day = day.AddDate(0, 0, 1) {
		key := day.Format(timelineDateLayout)
		axisIndex[key] = len(timeline.DateAxis)
		timeline.DateAxis = append(timeline.DateAxis, key)
	}

	timeline.DailyTotals = make([]decimal.Decimal, len(timeline.DateAxis))
	for i := range timeline.DailyTotals {
		timeline.DailyTotals[i] = decimal.Zero
	}

	for _, warp := range warps {
		row := WarpTimeline{
			WarpId:   warp.ID,
			WarpCode: warp.WarpCode,
			Daily:    make([]decimal.Decimal, len(timeline.DateAxis)),
			TotalQty: decimal.Zero,
			IsLate:   warpIsLate(warp, timezone, asOf),
		}
		for i := range row.Daily {
			row.Daily[i] = decimal.Zero
		}
		for _, cut := range warp.FabricCuts {
			date, err := utils.ConvertToDate(cut.CreatedAt, timezone)
			if err != nil {
				return nil, err
			}
			i := axisIndex[date.Format(timelineDateLayout)]
			row.Daily[i] = row.Daily[i].Add(cut.Qty)
			row.TotalQty = row.TotalQty.Add(cut.Qty)
			timeline.DailyTotals[i] = timeline.DailyTotals[i].Add(cut.Qty)
		}
		row.TotalQty = row.TotalQty.Round(2)
		timeline.Warps = append(timeline.Warps, row)
		if row.IsLate {
			timeline.LateWarps = append(timeline.LateWarps, warp.ID)
		}
	}

	for i := range timeline.DailyTotals {
		timeline.DailyTotals[i] = timeline.DailyTotals[i].Round(2)
	}
	return timeline, nil
}

// GetOrderProductionTimeline loads an order's warps and cuts and
// aggregates them in the business timezone.
func GetOrderProductionTimeline(ctx context.Context, orderId int) (*ProductionTimeline, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	if err := utils.ValidateResourceId[models.Order](ctx, businessId, orderId); err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	warps, err := models.ListWarpsByOrder(ctx, orderId)
	if err != nil {
		return nil, err
	}
	timezone := models.GetBusinessTimezone(ctx, businessId)
	return AggregateProductionTimeline(warps, timezone, time.Now())
}
