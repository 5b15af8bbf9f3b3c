package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/models"
	"github.com/weavetrack/fabric_backend/utils"
)

// CreateFabricMovement gates every cut through the eligibility check
// before recording the transfer. Any ineligible reference fails the whole
// movement; partial transfers are never created.
func CreateFabricMovement(ctx context.Context, input *models.NewFabricMovement) (*models.FabricMovement, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	logger := config.GetLogger()

	seen := make(map[string]struct{}, len(input.FabricNumbers))
	var cuts []models.FabricMovementCut
	for _, raw := range input.FabricNumbers {
		lookup, err := LookupFabricCut(ctx, raw)
		if err != nil {
			config.LogError(logger, "movementWorkflow.go", "CreateFabricMovement", "LookupFabricCut", raw, err)
			return nil, err
		}
		if !lookup.Eligible {
			return nil, utils.NewValidationError("fabric cut " + raw + " cannot be moved: " + string(lookup.Reason))
		}
		if _, dup := seen[lookup.FabricNumber]; dup {
			return nil, utils.NewValidationError("duplicate fabric number in movement: " + lookup.FabricNumber)
		}
		seen[lookup.FabricNumber] = struct{}{}
		cuts = append(cuts, models.FabricMovementCut{
			FabricNumber: lookup.FabricNumber,
			Qty:          lookup.Cut.Qty,
		})

		if config.DebugFor("FABRIC_MOVEMENT") {
			logger.WithFields(map[string]interface{}{
				"business_id":   businessId,
				"fabric_number": lookup.FabricNumber,
				"from":          input.FromLocation,
				"to":            input.ToLocation,
			}).Info("cut accepted for movement")
		}
	}

	db := config.GetDB()
	tx := db.Begin()

	seq, err := models.NextCounterValue(tx, businessId, "fabric_movement")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	movement := models.FabricMovement{
		BusinessId:     businessId,
		MovementNumber: models.FormatSeriesNumber("MOV", seq),
		FromLocation:   input.FromLocation,
		ToLocation:     input.ToLocation,
		MovedBy:        input.MovedBy,
		CurrentStatus:  models.MovementStatusPending,
		Cuts:           cuts,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

// ReceiveFabricMovement confirms arrival: cut locations flip to the
// destination and the movement closes. location overrides the planned
// destination when goods were diverted; empty means the planned one.
// Keyed idempotently so a retried confirmation does not double-apply.
func ReceiveFabricMovement(ctx context.Context, movementId int, receivedBy string, location string) (*models.FabricMovement, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	logger := config.GetLogger()

	movement, err := models.GetFabricMovement(ctx, movementId)
	if err != nil {
		return nil, err
	}
	if movement.CurrentStatus == models.MovementStatusReceived {
		return movement, nil
	}

	if location == "" {
		location = movement.ToLocation
	}

	db := config.GetDB()
	tx := db.Begin()

	messageId := movement.MovementNumber
	skip, err := BeginIdempotency(tx, businessId, "ReceiveFabricMovement", messageId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if skip {
		tx.Rollback()
		return movement, nil
	}

	for _, cut := range movement.Cuts {
		if err := models.UpdateFabricCutLocation(ctx, tx, businessId, cut.FabricNumber, location); err != nil {
			config.LogError(logger, "movementWorkflow.go", "ReceiveFabricMovement", "UpdateFabricCutLocation", cut.FabricNumber, err)
			// Rolling back also discards the STARTED idempotency row, so a
			// retry starts clean.
			tx.Rollback()
			return nil, err
		}
	}

	now := time.Now()
	if err := tx.WithContext(ctx).Model(&models.FabricMovement{}).
		Where("business_id = ? AND id = ?", businessId, movement.ID).
		Updates(map[string]interface{}{
			"current_status": models.MovementStatusReceived,
			"received_by":    receivedBy,
			"received_at":    now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := MarkIdempotencySucceeded(tx, businessId, "ReceiveFabricMovement", messageId); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	movement.CurrentStatus = models.MovementStatusReceived
	movement.ReceivedBy = receivedBy
	movement.ReceivedAt = &now
	return movement, nil
}
