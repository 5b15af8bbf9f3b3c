package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/utils"
	"gorm.io/gorm"
)

type Business struct {
	ID        uuid.UUID `gorm:"type:char(36);primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:100" json:"email"`
	Timezone  string    `gorm:"size:100;default:'Asia/Yangon'" json:"timezone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Timezone string `json:"timezone"`
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	db := config.GetDB()

	timezone := input.Timezone
	if timezone == "" {
		timezone = "Asia/Yangon"
	}
	business := Business{
		ID:       uuid.New(),
		Name:     input.Name,
		Email:    input.Email,
		Timezone: timezone,
	}
	if err := db.WithContext(ctx).Create(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// GetBusinessById reads through a redis cache keyed by business id.
func GetBusinessById(ctx context.Context, businessId string) (*Business, error) {
	if businessId == "" {
		return nil, errors.New("business id is required")
	}

	var business Business
	redisKey := "business:" + businessId
	exists, err := config.GetRedisObject(redisKey, &business)
	if err != nil {
		return nil, err
	}
	if exists {
		return &business, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", businessId).First(&business).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := config.SetRedisObject(redisKey, &business, 0); err != nil {
		return nil, err
	}
	return &business, nil
}

// GetBusinessTimezone falls back to the default timezone when the business
// record cannot be loaded; day bucketing must not fail on cache errors.
func GetBusinessTimezone(ctx context.Context, businessId string) string {
	business, err := GetBusinessById(ctx, businessId)
	if err != nil || business.Timezone == "" {
		return "Asia/Yangon"
	}
	return business.Timezone
}
