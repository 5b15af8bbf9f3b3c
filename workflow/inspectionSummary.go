package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/models"
	"github.com/weavetrack/fabric_backend/utils"
)

// WarpInspectionSummary aggregates four-point inspections for one warp.
// OkQty is inspected minus mistakes and may go negative when mistake
// entries exceed the inspected quantity; that is surfaced as-is so
// data-entry errors show up instead of being clamped away.
type WarpInspectionSummary struct {
	WarpId        int             `json:"warp_id"`
	WarpCode      string          `json:"warp_code"`
	CutsInspected int             `json:"cuts_inspected"`
	InspectedQty  decimal.Decimal `json:"inspected_qty"`
	MistakeQty    decimal.Decimal `json:"mistake_qty"`
	OkQty         decimal.Decimal `json:"ok_qty"`
}

type InspectionSummary struct {
	Warps          []WarpInspectionSummary `json:"warps"`
	TotalInspected decimal.Decimal         `json:"total_inspected"`
	TotalMistake   decimal.Decimal         `json:"total_mistake"`
	TotalOk        decimal.Decimal         `json:"total_ok"`
}

// AggregateInspections rolls up four-point inspections per warp. Other
// inspection types are excluded; they track wash state, not loom quality.
// Every warp appears in the result, zeroed when nothing was inspected,
// so the report always covers the whole order.
func AggregateInspections(inspections []*models.Inspection, warps []*models.Warp) *InspectionSummary {
	warpByCut := map[int]int{}
	rowIndex := map[int]int{}

	summary := &InspectionSummary{
		TotalInspected: decimal.Zero,
		TotalMistake:   decimal.Zero,
		TotalOk:        decimal.Zero,
	}

	for _, warp := range warps {
		rowIndex[warp.ID] = len(summary.Warps)
		summary.Warps = append(summary.Warps, WarpInspectionSummary{
			WarpId:       warp.ID,
			WarpCode:     warp.WarpCode,
			InspectedQty: decimal.Zero,
			MistakeQty:   decimal.Zero,
			OkQty:        decimal.Zero,
		})
		for _, cut := range warp.FabricCuts {
			warpByCut[cut.ID] = warp.ID
		}
	}

	for _, inspection := range inspections {
		if inspection.InspectionType != models.InspectionTypeFourPoint {
			continue
		}
		warpId, known := warpByCut[inspection.FabricCutId]
		if !known {
			continue
		}
		row := &summary.Warps[rowIndex[warpId]]
		row.CutsInspected++
		row.InspectedQty = row.InspectedQty.Add(inspection.InspectedQty)
		row.MistakeQty = row.MistakeQty.Add(inspection.MistakeQty)
		row.OkQty = row.InspectedQty.Sub(row.MistakeQty)

		summary.TotalInspected = summary.TotalInspected.Add(inspection.InspectedQty)
		summary.TotalMistake = summary.TotalMistake.Add(inspection.MistakeQty)
	}
	summary.TotalOk = summary.TotalInspected.Sub(summary.TotalMistake)
	return summary
}

// GetOrderInspectionSummary loads an order's warps and inspections and
// aggregates them.
func GetOrderInspectionSummary(ctx context.Context, orderId int) (*InspectionSummary, error) {
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
	inspections, err := models.ListInspectionsByOrder(ctx, orderId)
	if err != nil {
		return nil, err
	}
	return AggregateInspections(inspections, warps), nil
}
