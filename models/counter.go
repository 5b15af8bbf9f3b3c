package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Counter is a monotonic sequence per (business, scope), used for
// human-readable document numbering (movement numbers, per-warp invoice
// series). Increments are read-modify-write under a row lock so two
// concurrent requests for the same scope never observe the same value.
type Counter struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"uniqueIndex:idx_counter_scope;not null" json:"business_id"`
	Scope      string    `gorm:"size:100;uniqueIndex:idx_counter_scope;not null" json:"scope"`
	LastNumber int64     `gorm:"default:0" json:"last_number"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NextCounterValue increments and returns the sequence for a scope,
// creating the counter row on first use. Must be called inside the
// caller's transaction; the SELECT ... FOR UPDATE holds the row until
// commit.
func NextCounterValue(tx *gorm.DB, businessId string, scope string) (int64, error) {
	var counter Counter
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND scope = ?", businessId, scope).
		First(&counter).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return 0, err
		}
		counter = Counter{
			BusinessId: businessId,
			Scope:      scope,
			LastNumber: 1,
		}
		if createErr := tx.Create(&counter).Error; createErr != nil {
			return 0, createErr
		}
		return 1, nil
	}

	counter.LastNumber++
	if err := tx.Model(&counter).Update("last_number", counter.LastNumber).Error; err != nil {
		return 0, err
	}
	return counter.LastNumber, nil
}

// FormatSeriesNumber renders `<prefix>-<6-digit sequence>`.
func FormatSeriesNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}
