package models

import (
	"context"
	"errors"
	"time"

	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/utils"
)

type Loom struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	LoomCode   string    `gorm:"size:50;not null" json:"loom_code"`
	Name       string    `gorm:"size:100" json:"name"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLoom struct {
	LoomCode string `json:"loom_code" binding:"required"`
	Name     string `json:"name"`
}

func CreateLoom(ctx context.Context, input *NewLoom) (*Loom, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateUnique[Loom](ctx, businessId, "loom_code", input.LoomCode, 0); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	loom := Loom{
		BusinessId: businessId,
		LoomCode:   input.LoomCode,
		Name:       input.Name,
		IsActive:   true,
	}
	if err := db.WithContext(ctx).Create(&loom).Error; err != nil {
		return nil, err
	}
	return &loom, nil
}

func GetLoom(ctx context.Context, id int) (*Loom, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return utils.FetchModel[Loom](ctx, businessId, id)
}

func ListLooms(ctx context.Context) ([]*Loom, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return utils.FetchAllModels[Loom](ctx, businessId)
}
