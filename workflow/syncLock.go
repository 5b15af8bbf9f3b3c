package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireReceiptSyncLock serializes receipt projection writes per business
// across instances using MySQL advisory locks.
// NOTE: GET_LOCK is session-scoped. Acquire and release must run on the
// same connection, so callers pair both inside one db.Transaction closure;
// releasing through the pool silently fails and leaves the lock held.
func AcquireReceiptSyncLock(tx *gorm.DB, businessId string) error {
	lockName := fmt.Sprintf("receiptsync:%s", businessId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire receipt sync lock for business_id=%s", businessId)
	}
	return nil
}

func ReleaseReceiptSyncLock(tx *gorm.DB, businessId string) {
	lockName := fmt.Sprintf("receiptsync:%s", businessId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
