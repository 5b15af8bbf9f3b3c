package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/utils"
)

// Warp is one production run of an Order on a Loom. Its WarpCode is the
// numbering prefix for every fabric cut produced from it.
type Warp struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"index;not null" json:"business_id"`
	WarpCode      string          `gorm:"size:50;not null" json:"warp_code"`
	OrderId       int             `gorm:"index;not null" json:"order_id"`
	LoomId        int             `gorm:"index" json:"loom_id"`
	StartDate     time.Time       `gorm:"not null" json:"start_date"`
	EndDate       time.Time       `gorm:"not null" json:"end_date"`
	TargetQty     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"target_qty"`
	CurrentStatus WarpStatus      `gorm:"type:enum('Active','Complete');default:'Active'" json:"current_status"`
	CompletedAt   *time.Time      `json:"completed_at"`
	FabricCuts    []FabricCut     `gorm:"foreignKey:WarpId" json:"fabric_cuts"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWarp struct {
	WarpCode  string          `json:"warp_code" binding:"required"`
	OrderId   int             `json:"order_id" binding:"required"`
	LoomId    int             `json:"loom_id"`
	StartDate time.Time       `json:"start_date" binding:"required"`
	EndDate   time.Time       `json:"end_date" binding:"required"`
	TargetQty decimal.Decimal `json:"target_qty"`
}

func (input NewWarp) validate(ctx context.Context, businessId string) error {
	if !input.EndDate.After(input.StartDate) {
		return utils.NewValidationError("end date must be after start date")
	}
	if err := utils.ValidateResourceId[Order](ctx, businessId, input.OrderId); err != nil {
		return errors.New("order not found")
	}
	if input.LoomId > 0 {
		if err := utils.ValidateResourceId[Loom](ctx, businessId, input.LoomId); err != nil {
			return errors.New("loom not found")
		}
	}
	// WarpCode is the fabric numbering prefix, so it must be unique.
	if err := utils.ValidateUnique[Warp](ctx, businessId, "warp_code", input.WarpCode, 0); err != nil {
		return utils.NewValidationError(err.Error())
	}
	return nil
}

func CreateWarp(ctx context.Context, input *NewWarp) (*Warp, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	warp := Warp{
		BusinessId:    businessId,
		WarpCode:      input.WarpCode,
		OrderId:       input.OrderId,
		LoomId:        input.LoomId,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		TargetQty:     input.TargetQty,
		CurrentStatus: WarpStatusActive,
	}
	if err := db.WithContext(ctx).Create(&warp).Error; err != nil {
		return nil, err
	}
	return &warp, nil
}

func GetWarp(ctx context.Context, id int) (*Warp, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return utils.FetchModel[Warp](ctx, businessId, id, "FabricCuts")
}

// GetWarpByCode resolves a fabric numbering prefix to its warp.
func GetWarpByCode(ctx context.Context, warpCode string) (*Warp, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var warp Warp
	err := db.WithContext(ctx).
		Where("business_id = ? AND warp_code = ?", businessId, warpCode).
		First(&warp).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &warp, nil
}

// CompleteWarp marks a warp complete at the given time. The completion
// timestamp may be after the planned end date; the production timeline
// flags such warps as late instead of rejecting them.
func CompleteWarp(ctx context.Context, id int, completedAt time.Time) (*Warp, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	warp, err := utils.FetchModel[Warp](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if warp.CurrentStatus == WarpStatusComplete {
		return warp, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(warp).
		Updates(map[string]interface{}{
			"current_status": WarpStatusComplete,
			"completed_at":   completedAt,
		}).Error; err != nil {
		return nil, err
	}
	warp.CurrentStatus = WarpStatusComplete
	warp.CompletedAt = &completedAt
	return warp, nil
}

func ListWarpsByOrder(ctx context.Context, orderId int) ([]*Warp, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var warps []*Warp
	err := db.WithContext(ctx).
		Where("business_id = ? AND order_id = ?", businessId, orderId).
		Preload("FabricCuts").
		Find(&warps).Error
	if err != nil {
		return nil, err
	}
	return warps, nil
}
