package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/models"
	"github.com/weavetrack/fabric_backend/utils"
	"gorm.io/gorm"
)

// UpdateProcessingOrderInput is a patch. Nil fields are left alone;
// ReceivedCuts, when present, replaces the full received list (an empty
// slice clears it).
type UpdateProcessingOrderInput struct {
	ProcessingCenter *string                        `json:"processing_center"`
	SentDate         *time.Time                     `json:"sent_date"`
	ReceivedCuts     *[]models.NewReceivedFabricCut `json:"received_cuts"`
}

type UpdateProcessingOrderResult struct {
	Order      *models.ProcessingOrder `json:"order"`
	Renumbered []CutRenumber           `json:"renumbered,omitempty"`
	Sync       *ReceiptSyncResult      `json:"sync"`
}

// otherClaims collects every fabric number claimed outside the order being
// edited: the whole main yard plus received cuts of every peer order, each
// under both its stored and canonical spelling. Freshly entered numbers
// always yield to these claims, whatever the orders' relative ages.
func otherClaims(ctx context.Context, tx *gorm.DB, businessId string, excludeOrderId int) (map[string]struct{}, error) {
	taken, err := models.AllFabricCutNumbers(ctx, tx, businessId)
	if err != nil {
		return nil, err
	}
	orders, err := models.ListProcessingOrdersForSync(ctx, tx, businessId)
	if err != nil {
		return nil, err
	}
	canonical := make([]string, 0, len(taken))
	for n := range taken {
		canonical = append(canonical, models.CanonicalFabricNumber(n))
	}
	for _, n := range canonical {
		taken[n] = struct{}{}
	}
	for _, order := range orders {
		if order.ID == excludeOrderId {
			continue
		}
		for _, cut := range order.ReceivedCuts {
			if cut.NewFabricNumber != "" {
				taken[cut.NewFabricNumber] = struct{}{}
				taken[models.CanonicalFabricNumber(cut.NewFabricNumber)] = struct{}{}
			}
		}
	}
	return taken, nil
}

// UpdateProcessingOrder applies a patch and keeps the receipt projection
// in step: the received list is replaced, colliding new numbers are
// renumbered against all existing claims, and the sync pipeline runs in
// the same transaction so the projection never lags the edit.
func UpdateProcessingOrder(ctx context.Context, id int, input *UpdateProcessingOrderInput) (*UpdateProcessingOrderResult, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	logger := config.GetLogger()

	order, err := models.GetProcessingOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	sentDate := order.SentDate
	if input.SentDate != nil {
		sentDate = *input.SentDate
	}
	if input.ReceivedCuts != nil {
		for _, cut := range *input.ReceivedCuts {
			if cut.NewFabricNumber == "" {
				return nil, utils.NewValidationError("received cut is missing a fabric number")
			}
			if cut.ReceivedDate != nil && cut.ReceivedDate.Before(sentDate) {
				return nil, utils.NewValidationError("received date of " + cut.NewFabricNumber + " is before the sent date")
			}
		}
	}

	db := config.GetDB()
	var renumbers []CutRenumber
	var syncResult *ReceiptSyncResult
	// GET_LOCK is session-scoped, so release must run on the transaction's
	// own connection, before it returns to the pool.
	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireReceiptSyncLock(tx, businessId); err != nil {
			return err
		}
		defer ReleaseReceiptSyncLock(tx, businessId)

		patch := map[string]interface{}{}
		if input.ProcessingCenter != nil {
			patch["processing_center"] = *input.ProcessingCenter
		}
		if input.SentDate != nil {
			patch["sent_date"] = *input.SentDate
		}
		if len(patch) > 0 {
			if err := tx.WithContext(ctx).Model(&models.ProcessingOrder{}).
				Where("business_id = ? AND id = ?", businessId, id).
				Updates(patch).Error; err != nil {
				return err
			}
		}

		if input.ReceivedCuts != nil {
			if err := tx.WithContext(ctx).
				Where("processing_order_id = ?", id).
				Delete(&models.ProcessingOrderReceivedCut{}).Error; err != nil {
				return err
			}

			replacement := make([]models.ProcessingOrderReceivedCut, 0, len(*input.ReceivedCuts))
			for _, cut := range *input.ReceivedCuts {
				replacement = append(replacement, models.ProcessingOrderReceivedCut{
					ProcessingOrderId: id,
					NewFabricNumber:   models.CanonicalFabricNumber(cut.NewFabricNumber),
					Qty:               cut.Qty,
					ReceivedDate:      cut.ReceivedDate,
				})
			}

			taken, err := otherClaims(ctx, tx, businessId, id)
			if err != nil {
				return err
			}
			renumbers, err = ResolveDuplicateCuts(replacement, taken, orderNumberingPrefix(replacement))
			if err != nil {
				config.LogError(logger, "processingOrderWorkflow.go", "UpdateProcessingOrder", "ResolveDuplicateCuts", order.OrderNumber, err)
				return err
			}
			if config.DebugFor("PROCESSING_ORDER") {
				for _, renumber := range renumbers {
					logger.WithFields(map[string]interface{}{
						"business_id":      businessId,
						"processing_order": order.OrderNumber,
						"old":              renumber.Old,
						"new":              renumber.New,
					}).Info("renumbered incoming received cut")
				}
			}

			for i := range replacement {
				if err := tx.WithContext(ctx).Create(&replacement[i]).Error; err != nil {
					return err
				}
			}
		}

		var err error
		syncResult, err = ProcessReceiptSyncWorkflow(ctx, tx, businessId)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	updated, err := models.GetProcessingOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UpdateProcessingOrderResult{
		Order:      updated,
		Renumbered: renumbers,
		Sync:       syncResult,
	}, nil
}
