package workflow

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bsm/redislock"
	"github.com/weavetrack/fabric_backend/config"
	"github.com/weavetrack/fabric_backend/models"
	"github.com/weavetrack/fabric_backend/utils"
	"gorm.io/gorm"
)

// CutRenumber records one repaired duplicate: the colliding number a
// processing center assigned and the free number it was moved to.
type CutRenumber struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ResolveDuplicateCuts repairs received-cut numbers for one processing
// order. The first claim on a number wins; later cuts carrying an
// already-taken number are reassigned to the lowest free sequence under
// their own prefix (falling back to fallbackPrefix when the number has no
// recognizable prefix). Claimed numbers are added to taken so the caller
// can carry the set across orders.
//
// Duplicates are assumed to be data-entry slips on fresh rows, never a
// correction of history, so existing claims are kept and only the
// newcomer is renumbered.
func ResolveDuplicateCuts(cuts []models.ProcessingOrderReceivedCut, taken map[string]struct{}, fallbackPrefix string) ([]CutRenumber, error) {
	var renumbers []CutRenumber
	for i := range cuts {
		number := cuts[i].NewFabricNumber
		if number == "" {
			continue
		}
		if _, dup := taken[number]; !dup {
			taken[number] = struct{}{}
			continue
		}

		prefix, _, ok := models.SplitFabricNumber(number)
		if !ok || prefix == "" {
			prefix = fallbackPrefix
		}
		if prefix == "" {
			return nil, utils.NewConflictError("cannot repair duplicate fabric number " + number + ": no numbering prefix available")
		}

		replacement := models.NextFabricNumber(prefix, taken)
		taken[replacement] = struct{}{}
		renumbers = append(renumbers, CutRenumber{Old: number, New: replacement})
		cuts[i].NewFabricNumber = replacement
	}
	return renumbers, nil
}

// orderNumberingPrefix picks the fallback prefix for an order's received
// cuts: the first parseable prefix among them.
func orderNumberingPrefix(cuts []models.ProcessingOrderReceivedCut) string {
	for _, cut := range cuts {
		if prefix, _, ok := models.SplitFabricNumber(cut.NewFabricNumber); ok && prefix != "" {
			return prefix
		}
	}
	return ""
}

// resolveAllDuplicateCuts sweeps every processing order of a business,
// oldest first, renumbering received cuts that collide with the main yard
// or with an earlier claim. Runs on the caller's transaction; repaired
// rows are persisted before the receipt diff reads them.
func resolveAllDuplicateCuts(ctx context.Context, tx *gorm.DB, businessId string) ([]CutRenumber, error) {
	logger := config.GetLogger()

	orders, err := models.ListProcessingOrdersForSync(ctx, tx, businessId)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })

	// Main-yard numbers are authoritative claims; a received cut may never
	// shadow one.
	taken, err := models.AllFabricCutNumbers(ctx, tx, businessId)
	if err != nil {
		return nil, err
	}

	var allRenumbers []CutRenumber
	for _, order := range orders {
		renumbers, err := ResolveDuplicateCuts(order.ReceivedCuts, taken, orderNumberingPrefix(order.ReceivedCuts))
		if err != nil {
			config.LogError(logger, "duplicateResolver.go", "resolveAllDuplicateCuts", "ResolveDuplicateCuts", order.OrderNumber, err)
			return nil, err
		}
		for _, renumber := range renumbers {
			if config.DebugFor("DUPLICATE_REPAIR") {
				logger.WithFields(map[string]interface{}{
					"business_id":      businessId,
					"processing_order": order.OrderNumber,
					"old":              renumber.Old,
					"new":              renumber.New,
				}).Info("renumbered duplicate received cut")
			}
		}
		for _, cut := range order.ReceivedCuts {
			if cut.ID == 0 {
				continue
			}
			if err := tx.WithContext(ctx).Model(&models.ProcessingOrderReceivedCut{}).
				Where("id = ?", cut.ID).
				Update("new_fabric_number", cut.NewFabricNumber).Error; err != nil {
				return nil, err
			}
		}
		allRenumbers = append(allRenumbers, renumbers...)
	}
	return allRenumbers, nil
}

type DuplicateRepairResult struct {
	Renumbered []CutRenumber      `json:"renumbered"`
	Sync       *ReceiptSyncResult `json:"sync"`
}

// RepairDuplicateReceivedCuts is the standalone repair entry point: it
// takes a distributed lock, renumbers every colliding received cut, then
// re-syncs the receipt projection so lookups see the repaired numbers.
func RepairDuplicateReceivedCuts(ctx context.Context) (*DuplicateRepairResult, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	logger := config.GetLogger()

	locker := config.GetRedisLock()
	if locker != nil {
		lock, err := locker.Obtain(ctx, "duplicate-repair:"+businessId, 60*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(500*time.Millisecond), 10),
		})
		if err != nil {
			return nil, err
		}
		defer lock.Release(ctx)
	}

	db := config.GetDB()
	var syncResult *ReceiptSyncResult
	// GET_LOCK is session-scoped, so release must run on the transaction's
	// own connection, before it returns to the pool.
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireReceiptSyncLock(tx, businessId); err != nil {
			return err
		}
		defer ReleaseReceiptSyncLock(tx, businessId)

		var err error
		syncResult, err = ProcessReceiptSyncWorkflow(ctx, tx, businessId)
		if err != nil {
			config.LogError(logger, "duplicateResolver.go", "RepairDuplicateReceivedCuts", "ProcessReceiptSyncWorkflow", businessId, err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &DuplicateRepairResult{Renumbered: syncResult.Renumbered, Sync: syncResult}, nil
}
