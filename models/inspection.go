package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/utils"
)

// Inspection is a quality record for one fabric cut. Immutable once
// created except for corrective edits.
type Inspection struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id"`
	FabricCutId    int             `gorm:"index;not null" json:"fabric_cut_id"`
	FabricNumber   string          `gorm:"size:100;index" json:"fabric_number"`
	InspectionType InspectionType  `gorm:"type:enum('FourPoint','Unwashed','Washed');not null" json:"inspection_type"`
	InspectedQty   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"inspected_qty"`
	MistakeQty     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"mistake_qty"`
	InspectedBy    string          `gorm:"size:100" json:"inspected_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInspection struct {
	FabricCutId    int             `json:"fabric_cut_id" binding:"required"`
	InspectionType InspectionType  `json:"inspection_type" binding:"required"`
	InspectedQty   decimal.Decimal `json:"inspected_qty"`
	MistakeQty     decimal.Decimal `json:"mistake_qty"`
	InspectedBy    string          `json:"inspected_by"`
}

// CreateInspection records a quality check and marks the corresponding
// completion flag on the cut in the same transaction.
func CreateInspection(ctx context.Context, input *NewInspection) (*Inspection, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.InspectionType.Validate(); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}
	if input.InspectedQty.IsNegative() || input.MistakeQty.IsNegative() {
		return nil, utils.NewValidationError("inspection quantities cannot be negative")
	}

	cut, err := utils.FetchModel[FabricCut](ctx, businessId, input.FabricCutId)
	if err != nil {
		return nil, errors.New("fabric cut not found")
	}

	inspection := Inspection{
		BusinessId:     businessId,
		FabricCutId:    cut.ID,
		FabricNumber:   cut.FabricNumber,
		InspectionType: input.InspectionType,
		InspectedQty:   input.InspectedQty,
		MistakeQty:     input.MistakeQty,
		InspectedBy:    input.InspectedBy,
	}

	tx := db.Begin()

	if err := tx.WithContext(ctx).Create(&inspection).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	var flagColumn string
	switch input.InspectionType {
	case InspectionTypeFourPoint:
		flagColumn = "is_four_point_checked"
	case InspectionTypeWashed:
		flagColumn = "is_wash_checked"
	}
	if flagColumn != "" {
		if err := tx.WithContext(ctx).Model(&FabricCut{}).
			Where("id = ?", cut.ID).
			Update(flagColumn, true).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &inspection, nil
}

// ListInspectionsByOrder joins inspections to an order's warps through the
// fabric cuts they reference.
func ListInspectionsByOrder(ctx context.Context, orderId int) ([]*Inspection, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var inspections []*Inspection
	err := db.WithContext(ctx).
		Select("inspections.*").
		Joins("JOIN fabric_cuts ON fabric_cuts.id = inspections.fabric_cut_id").
		Joins("JOIN warps ON warps.id = fabric_cuts.warp_id").
		Where("inspections.business_id = ? AND warps.order_id = ?", businessId, orderId).
		Find(&inspections).Error
	if err != nil {
		return nil, err
	}
	return inspections, nil
}
