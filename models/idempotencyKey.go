package models

import "time"

// IdempotencyKey makes retried external triggers (movement receive,
// reconcile requests) safe to re-deliver: handlers insert STARTED before
// doing work and callers skip when a SUCCEEDED row already exists.
type IdempotencyKey struct {
	ID          int               `gorm:"primary_key" json:"id"`
	BusinessId  string            `gorm:"uniqueIndex:idx_idem_key;not null" json:"business_id"`
	HandlerName string            `gorm:"size:100;uniqueIndex:idx_idem_key;not null" json:"handler_name"`
	MessageId   string            `gorm:"size:100;uniqueIndex:idx_idem_key;not null" json:"message_id"`
	Status      IdempotencyStatus `gorm:"type:enum('STARTED','SUCCEEDED','FAILED');not null" json:"status"`
	LastError   *string           `gorm:"type:text" json:"last_error"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}
