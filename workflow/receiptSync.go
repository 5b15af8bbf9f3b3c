package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/models"
	"github.com/weavetrack/fabric_backend/utils"
	"gorm.io/gorm"
)

// ReceiptSyncResult summarizes one projection sync pass.
type ReceiptSyncResult struct {
	LegacyFlattened int           `json:"legacy_flattened"`
	Renumbered      []CutRenumber `json:"renumbered,omitempty"`
	Added           int           `json:"added"`
	Removed         int           `json:"removed"`
	TotalCurrent    int           `json:"total_current"`
}

// flattenLegacyDeliveries migrates orders still carrying the historical
// nested-delivery JSON column into received-cut rows and clears the
// column. Idempotent: an order is touched once, after which the column is
// empty.
func flattenLegacyDeliveries(ctx context.Context, tx *gorm.DB, businessId string) (int, error) {
	orders, err := models.ListProcessingOrdersForSync(ctx, tx, businessId)
	if err != nil {
		return 0, err
	}

	flattened := 0
	for _, order := range orders {
		if len(order.LegacyDeliveries) == 0 {
			continue
		}
		var deliveries map[string][]models.LegacyDeliveryCut
		if err := utils.UnmarshalFromJSON(order.LegacyDeliveries, &deliveries); err != nil {
			return 0, fmt.Errorf("processing order %s has malformed legacy deliveries: %w", order.OrderNumber, err)
		}

		for _, cuts := range deliveries {
			for _, legacyCut := range cuts {
				number := legacyCut.Number()
				if number == "" {
					continue
				}
				received := models.ProcessingOrderReceivedCut{
					ProcessingOrderId: order.ID,
					NewFabricNumber:   number,
					Qty:               legacyCut.Qty,
					ReceivedDate:      legacyCut.ReceivedDate,
				}
				if err := tx.WithContext(ctx).Create(&received).Error; err != nil {
					return 0, err
				}
			}
		}

		if err := tx.WithContext(ctx).Model(&models.ProcessingOrder{}).
			Where("id = ?", order.ID).
			Update("legacy_deliveries", nil).Error; err != nil {
			return 0, err
		}
		flattened++
	}
	return flattened, nil
}

func equalReceivedDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func receiptKey(processingOrderId int, fabricNumber string) string {
	return fmt.Sprintf("%d|%s", processingOrderId, fabricNumber)
}

func sameReceipt(target models.ProcessingReceipt, current *models.ProcessingReceipt) bool {
	return target.Qty.Equal(current.Qty) &&
		equalReceivedDate(target.ReceivedDate, current.ReceivedDate) &&
		target.ProcessingCenter == current.ProcessingCenter &&
		target.OrderNumber == current.OrderNumber &&
		target.DesignCode == current.DesignCode
}

// DiffReceipts computes the minimal change set turning the current
// projection into the target derived from processing orders. Rows are
// keyed by (processing order, fabric number); a content change is a
// delete plus an insert, unchanged rows are left untouched so their ids
// and timestamps survive. Stray current rows, including duplicates under
// one key, are deleted.
func DiffReceipts(target []models.ProcessingReceipt, current []*models.ProcessingReceipt) (inserts []models.ProcessingReceipt, deleteIds []int) {
	currentByKey := make(map[string]*models.ProcessingReceipt, len(current))
	for _, row := range current {
		key := receiptKey(row.ProcessingOrderId, row.CurrentFabricNumber())
		if _, dup := currentByKey[key]; dup {
			deleteIds = append(deleteIds, row.ID)
			continue
		}
		currentByKey[key] = row
	}

	targetKeys := make(map[string]struct{}, len(target))
	for _, row := range target {
		key := receiptKey(row.ProcessingOrderId, row.NewFabricNumber)
		targetKeys[key] = struct{}{}

		existing, found := currentByKey[key]
		if !found {
			inserts = append(inserts, row)
			continue
		}
		if !sameReceipt(row, existing) {
			deleteIds = append(deleteIds, existing.ID)
			inserts = append(inserts, row)
		}
	}

	for key, row := range currentByKey {
		if _, wanted := targetKeys[key]; !wanted {
			deleteIds = append(deleteIds, row.ID)
		}
	}
	return inserts, deleteIds
}

// syncReceiptProjection rebuilds the processing_receipts projection from
// received cuts by diff, on the caller's transaction. Received cuts must
// already be duplicate-free.
func syncReceiptProjection(ctx context.Context, tx *gorm.DB, businessId string) (*ReceiptSyncResult, error) {
	orders, err := models.ListProcessingOrdersForSync(ctx, tx, businessId)
	if err != nil {
		return nil, err
	}
	designByOrder, err := models.DesignContextForProcessingOrders(ctx, tx, businessId)
	if err != nil {
		return nil, err
	}

	var target []models.ProcessingReceipt
	for _, order := range orders {
		for _, cut := range order.ReceivedCuts {
			if cut.NewFabricNumber == "" {
				continue
			}
			target = append(target, models.ProcessingReceipt{
				BusinessId:        businessId,
				NewFabricNumber:   cut.NewFabricNumber,
				ProcessingOrderId: order.ID,
				ProcessingCenter:  order.ProcessingCenter,
				OrderNumber:       order.OrderNumber,
				DesignCode:        designByOrder[order.ID],
				Qty:               cut.Qty,
				ReceivedDate:      cut.ReceivedDate,
			})
		}
		if err := refreshProcessingOrderStatus(ctx, tx, order); err != nil {
			return nil, err
		}
	}

	current, err := models.ListProcessingReceipts(ctx, tx, businessId)
	if err != nil {
		return nil, err
	}

	inserts, deleteIds := DiffReceipts(target, current)

	if len(deleteIds) > 0 {
		if err := tx.WithContext(ctx).
			Where("business_id = ? AND id IN ?", businessId, deleteIds).
			Delete(&models.ProcessingReceipt{}).Error; err != nil {
			return nil, err
		}
	}
	for i := range inserts {
		if err := tx.WithContext(ctx).Create(&inserts[i]).Error; err != nil {
			return nil, err
		}
	}

	result := &ReceiptSyncResult{
		Added:        len(inserts),
		Removed:      len(deleteIds),
		TotalCurrent: len(target),
	}
	if config.DebugFor("RECEIPT_SYNC") {
		config.GetLogger().WithFields(map[string]interface{}{
			"business_id": businessId,
			"added":       result.Added,
			"removed":     result.Removed,
			"total":       result.TotalCurrent,
		}).Info("receipt projection synced")
	}
	return result, nil
}

// refreshProcessingOrderStatus derives the order status from received
// quantity: nothing received keeps Sent, anything received moves to
// PartiallyReceived, and covering the sent quantity closes the order.
func refreshProcessingOrderStatus(ctx context.Context, tx *gorm.DB, order *models.ProcessingOrder) error {
	sentQty := order.TotalSentQty()
	receivedQty := order.TotalReceivedQty()

	status := models.ProcessingOrderStatusSent
	switch {
	case receivedQty.IsZero():
		status = models.ProcessingOrderStatusSent
	case receivedQty.GreaterThanOrEqual(sentQty) && !sentQty.IsZero():
		status = models.ProcessingOrderStatusClosed
	default:
		status = models.ProcessingOrderStatusPartiallyReceived
	}

	if status == order.CurrentStatus {
		return nil
	}
	order.CurrentStatus = status
	return tx.WithContext(ctx).Model(&models.ProcessingOrder{}).
		Where("id = ?", order.ID).
		Update("current_status", status).Error
}

// ProcessReceiptSyncWorkflow runs the full projection pipeline on the
// caller's transaction: flatten legacy deliveries, repair duplicate
// received numbers, then diff the receipt projection against the
// authoritative received cuts. Safe to run any number of times; a clean
// state produces an all-zero result.
//
// The caller must hold the receipt sync advisory lock for the business.
func ProcessReceiptSyncWorkflow(ctx context.Context, tx *gorm.DB, businessId string) (*ReceiptSyncResult, error) {
	logger := config.GetLogger()

	flattened, err := flattenLegacyDeliveries(ctx, tx, businessId)
	if err != nil {
		config.LogError(logger, "receiptSync.go", "ProcessReceiptSyncWorkflow", "flattenLegacyDeliveries", businessId, err)
		return nil, err
	}

	renumbers, err := resolveAllDuplicateCuts(ctx, tx, businessId)
	if err != nil {
		config.LogError(logger, "receiptSync.go", "ProcessReceiptSyncWorkflow", "resolveAllDuplicateCuts", businessId, err)
		return nil, err
	}

	result, err := syncReceiptProjection(ctx, tx, businessId)
	if err != nil {
		config.LogError(logger, "receiptSync.go", "ProcessReceiptSyncWorkflow", "syncReceiptProjection", businessId, err)
		return nil, err
	}
	result.LegacyFlattened = flattened
	result.Renumbered = renumbers
	return result, nil
}

// ReconcileProcessingReceipts is the repair entry point behind the ops
// endpoint and the receipt-reconcile command: it serializes on the
// per-business advisory lock and runs the sync pipeline in one
// transaction.
func ReconcileProcessingReceipts(ctx context.Context) (*ReceiptSyncResult, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var result *ReceiptSyncResult
	// GET_LOCK is session-scoped, so release must run on the transaction's
	// own connection, before it returns to the pool.
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireReceiptSyncLock(tx, businessId); err != nil {
			return err
		}
		defer ReleaseReceiptSyncLock(tx, businessId)

		var err error
		result, err = ProcessReceiptSyncWorkflow(ctx, tx, businessId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
