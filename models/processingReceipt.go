package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/utils"
	"gorm.io/gorm"
)

// ProcessingReceipt is the derived projection: one row per received cut,
// denormalizing order and design context for fast lookup. Rows are created
// and deleted solely by the receipt sync pass; the table is entirely
// regenerable from processing_orders.
type ProcessingReceipt struct {
	ID              int    `gorm:"primary_key" json:"id"`
	BusinessId      string `gorm:"index;not null" json:"business_id"`
	NewFabricNumber string `gorm:"size:100;index" json:"new_fabric_number"`
	// FabricNumber is the pre-migration column name for the receipt's
	// identifier. Rows written by old builds carry it instead of
	// NewFabricNumber; reads must tolerate both.
	FabricNumber      string          `gorm:"size:100;index" json:"fabric_number"`
	ProcessingOrderId int             `gorm:"index;not null" json:"processing_order_id"`
	ProcessingCenter  string          `gorm:"size:255" json:"processing_center"`
	OrderNumber       string          `gorm:"size:255" json:"order_number"`
	DesignCode        string          `gorm:"size:100" json:"design_code"`
	Qty               decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	ReceivedDate      *time.Time      `json:"received_date"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CurrentFabricNumber returns the receipt's identifier, tolerating the
// legacy column variant.
func (r ProcessingReceipt) CurrentFabricNumber() string {
	if r.NewFabricNumber != "" {
		return r.NewFabricNumber
	}
	return r.FabricNumber
}

// GetProcessingReceiptByNumber probes the processing namespace for a
// fabric number, checking both the current and legacy identifier columns.
func GetProcessingReceiptByNumber(ctx context.Context, tx *gorm.DB, businessId string, fabricNumber string) (*ProcessingReceipt, error) {
	var receipt ProcessingReceipt
	err := tx.WithContext(ctx).
		Where("business_id = ? AND (new_fabric_number = ? OR fabric_number = ?)", businessId, fabricNumber, fabricNumber).
		First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// ListProcessingReceipts loads the full projection for a business on the
// caller's transaction.
func ListProcessingReceipts(ctx context.Context, tx *gorm.DB, businessId string) ([]*ProcessingReceipt, error) {
	var receipts []*ProcessingReceipt
	err := tx.WithContext(ctx).
		Where("business_id = ?", businessId).
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func SearchProcessingReceipts(ctx context.Context, fabricNumber string) ([]*ProcessingReceipt, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var receipts []*ProcessingReceipt
	err := db.WithContext(ctx).
		Where("business_id = ? AND (new_fabric_number LIKE ? OR fabric_number LIKE ?)",
			businessId, "%"+fabricNumber+"%", "%"+fabricNumber+"%").
		Limit(config.SearchLimit).
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}
