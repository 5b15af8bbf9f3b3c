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

// ProcessingOrder is the authoritative record of a batch sent to a
// third-party processing center. SentCuts reference main-yard fabric
// numbers; ReceivedCuts carry NEW fabric numbers assigned on receipt (the
// center may re-cut and relabel the goods).
//
// The processing_receipts projection is derived solely from ReceivedCuts
// across all processing orders; it is never written directly.
type ProcessingOrder struct {
	ID               int                          `gorm:"primary_key" json:"id"`
	BusinessId       string                       `gorm:"index;not null" json:"business_id"`
	OrderNumber      string                       `gorm:"size:255;not null" json:"order_number"`
	ProcessingCenter string                       `gorm:"size:255;not null" json:"processing_center"`
	SentDate         time.Time                    `gorm:"not null" json:"sent_date"`
	CurrentStatus    ProcessingOrderStatus        `gorm:"type:enum('Sent','PartiallyReceived','Closed');default:'Sent'" json:"current_status"`
	SentCuts         []ProcessingOrderSentCut     `gorm:"foreignKey:ProcessingOrderId" json:"sent_cuts"`
	ReceivedCuts     []ProcessingOrderReceivedCut `gorm:"foreignKey:ProcessingOrderId" json:"received_cuts"`
	// LegacyDeliveries holds the historical per-delivery nested-map form of
	// received cuts. Orders still carrying it are flattened into
	// ReceivedCuts during the receipt sync pass and the column is cleared.
	LegacyDeliveries []byte    `gorm:"type:json" json:"legacy_deliveries,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type ProcessingOrderSentCut struct {
	ID                int             `gorm:"primary_key" json:"id"`
	ProcessingOrderId int             `gorm:"index;not null" json:"processing_order_id"`
	FabricNumber      string          `gorm:"size:100;index;not null" json:"fabric_number"`
	Qty               decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type ProcessingOrderReceivedCut struct {
	ID                int             `gorm:"primary_key" json:"id"`
	ProcessingOrderId int             `gorm:"index;not null" json:"processing_order_id"`
	NewFabricNumber   string          `gorm:"size:100;index;not null" json:"new_fabric_number"`
	Qty               decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	ReceivedDate      *time.Time      `json:"received_date"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// LegacyDelivery is one entry of the nested-map representation:
// delivery key -> received cuts.
type LegacyDeliveryCut struct {
	NewFabricNumber string          `json:"new_fabric_number"`
	FabricNumber    string          `json:"fabric_number"` // older field name variant
	Qty             decimal.Decimal `json:"qty"`
	ReceivedDate    *time.Time      `json:"received_date"`
}

func (c LegacyDeliveryCut) Number() string {
	if c.NewFabricNumber != "" {
		return c.NewFabricNumber
	}
	return c.FabricNumber
}

type NewProcessingOrder struct {
	ProcessingCenter string                      `json:"processing_center" binding:"required"`
	SentDate         time.Time                   `json:"sent_date" binding:"required"`
	SentCuts         []NewProcessingOrderSentCut `json:"sent_cuts" binding:"required,dive"`
}

type NewProcessingOrderSentCut struct {
	FabricNumber string          `json:"fabric_number" binding:"required"`
	Qty          decimal.Decimal `json:"qty"`
}

type NewReceivedFabricCut struct {
	NewFabricNumber string          `json:"new_fabric_number" binding:"required"`
	Qty             decimal.Decimal `json:"qty"`
	ReceivedDate    *time.Time      `json:"received_date"`
}

func (obj ProcessingOrder) GetId() int {
	return obj.ID
}

// returns decoded cursor string
func (obj ProcessingOrder) GetCursor() string {
	return obj.CreatedAt.String()
}

func (obj ProcessingOrder) TotalSentQty() decimal.Decimal {
	total := decimal.Zero
	for _, cut := range obj.SentCuts {
		total = total.Add(cut.Qty)
	}
	return total
}

func (obj ProcessingOrder) TotalReceivedQty() decimal.Decimal {
	total := decimal.Zero
	for _, cut := range obj.ReceivedCuts {
		total = total.Add(cut.Qty)
	}
	return total
}

// IsCutCommitted reports whether a main-yard fabric number is referenced by
// any processing order's sent list. A committed cut is not
// movement-eligible regardless of inspection state; it is tracked through
// its receipt instead.
func IsCutCommitted(ctx context.Context, tx *gorm.DB, businessId string, fabricNumber string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&ProcessingOrderSentCut{}).
		Joins("JOIN processing_orders ON processing_orders.id = processing_order_sent_cuts.processing_order_id").
		Where("processing_orders.business_id = ? AND processing_order_sent_cuts.fabric_number = ?", businessId, fabricNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (input NewProcessingOrder) validate(ctx context.Context, businessId string) error {
	if len(input.SentCuts) == 0 {
		return utils.NewValidationError("a processing order needs at least one sent cut")
	}

	db := config.GetDB()
	seen := make(map[string]struct{}, len(input.SentCuts))
	for _, sentCut := range input.SentCuts {
		if _, dup := seen[sentCut.FabricNumber]; dup {
			return utils.NewValidationError("duplicate fabric number in sent cuts: " + sentCut.FabricNumber)
		}
		seen[sentCut.FabricNumber] = struct{}{}

		cut, err := GetFabricCutByNumber(ctx, db, businessId, sentCut.FabricNumber)
		if err != nil {
			return errors.New("fabric cut not found: " + sentCut.FabricNumber)
		}
		if !cut.IsFourPointChecked {
			return utils.NewValidationError("fabric cut " + sentCut.FabricNumber + " has not completed four-point inspection")
		}
		committed, err := IsCutCommitted(ctx, db, businessId, sentCut.FabricNumber)
		if err != nil {
			return err
		}
		if committed {
			return utils.NewConflictError("fabric cut " + sentCut.FabricNumber + " is already committed to processing")
		}
	}
	return nil
}

func CreateProcessingOrder(ctx context.Context, input *NewProcessingOrder) (*ProcessingOrder, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	var sentCuts []ProcessingOrderSentCut
	for _, item := range input.SentCuts {
		qty := item.Qty
		if qty.IsZero() {
			cut, err := GetFabricCutByNumber(ctx, db, businessId, item.FabricNumber)
			if err == nil {
				qty = cut.Qty
			}
		}
		sentCuts = append(sentCuts, ProcessingOrderSentCut{
			FabricNumber: item.FabricNumber,
			Qty:          qty,
		})
	}

	tx := db.Begin()

	seq, err := NextCounterValue(tx, businessId, "processing_order")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	processingOrder := ProcessingOrder{
		BusinessId:       businessId,
		OrderNumber:      FormatSeriesNumber("PRO", seq),
		ProcessingCenter: input.ProcessingCenter,
		SentDate:         input.SentDate,
		CurrentStatus:    ProcessingOrderStatusSent,
		SentCuts:         sentCuts,
	}
	if err := tx.WithContext(ctx).Create(&processingOrder).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Sent cuts leave the main yard logically; their records stay but the
	// location reflects the processing center.
	for _, item := range sentCuts {
		if err := UpdateFabricCutLocation(ctx, tx, businessId, item.FabricNumber, input.ProcessingCenter); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &processingOrder, nil
}

func GetProcessingOrder(ctx context.Context, id int) (*ProcessingOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return utils.FetchModel[ProcessingOrder](ctx, businessId, id, "SentCuts", "ReceivedCuts")
}

// ListProcessingOrdersForSync loads every processing order of a business
// with its received cuts, for the receipt sync pass. Must run on the
// caller's transaction so the diff sees a consistent snapshot.
func ListProcessingOrdersForSync(ctx context.Context, tx *gorm.DB, businessId string) ([]*ProcessingOrder, error) {
	var orders []*ProcessingOrder
	err := tx.WithContext(ctx).
		Where("business_id = ?", businessId).
		Preload("SentCuts").
		Preload("ReceivedCuts").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// DesignContextForProcessingOrders maps processing order id to the design
// code of the production order its sent cuts trace back to, for
// denormalizing receipt rows. Orders whose sent cuts resolve to multiple
// designs keep the first one; mixed-design batches are not sent in
// practice.
func DesignContextForProcessingOrders(ctx context.Context, tx *gorm.DB, businessId string) (map[int]string, error) {
	type row struct {
		ProcessingOrderId int
		DesignCode        string
	}
	var rows []row
	err := tx.WithContext(ctx).Raw(`
		SELECT poc.processing_order_id AS processing_order_id,
		       MIN(o.design_code)      AS design_code
		FROM processing_order_sent_cuts poc
		JOIN processing_orders po ON po.id = poc.processing_order_id
		JOIN fabric_cuts fc ON fc.business_id = po.business_id AND fc.fabric_number = poc.fabric_number
		JOIN warps w ON w.id = fc.warp_id
		JOIN orders o ON o.id = w.order_id
		WHERE po.business_id = ?
		GROUP BY poc.processing_order_id`, businessId).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	designByOrder := make(map[int]string, len(rows))
	for _, r := range rows {
		designByOrder[r.ProcessingOrderId] = r.DesignCode
	}
	return designByOrder, nil
}

func PaginateProcessingOrder(
	ctx context.Context, limit *int, after *string,
	processingCenter *string,
	currentStatus *ProcessingOrderStatus,
) (*ProcessingOrdersConnection, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)

	if processingCenter != nil && *processingCenter != "" {
		dbCtx.Where("processing_center LIKE ?", "%"+*processingCenter+"%")
	}

	if currentStatus != nil {
		dbCtx.Where("current_status = ?", *currentStatus)
	}

	edges, pageInfo, err := FetchPageCompositeCursor[ProcessingOrder](dbCtx, *limit, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var processingOrdersConnection ProcessingOrdersConnection
	processingOrdersConnection.PageInfo = pageInfo
	for _, edge := range edges {
		processingOrdersEdge := ProcessingOrdersEdge(edge)
		processingOrdersConnection.Edges = append(processingOrdersConnection.Edges, &processingOrdersEdge)
	}

	return &processingOrdersConnection, err
}

type ProcessingOrdersConnection struct {
	Edges    []*ProcessingOrdersEdge `json:"edges"`
	PageInfo *PageInfo               `json:"pageInfo"`
}

type ProcessingOrdersEdge Edge[ProcessingOrder]
