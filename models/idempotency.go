package models

import "time"

// IdempotencyRecord stores the outcome of a completed mutating request so
// client retries replay the stored response instead of re-executing.
type IdempotencyRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_idempotency_user_key" json:"user_id"`
	Key         string    `gorm:"not null;uniqueIndex:idx_idempotency_user_key" json:"key"`
	RequestHash string    `gorm:"not null" json:"request_hash"`
	Status      int       `json:"status"`
	Response    string    `json:"response"`
	ExpiresAt   time.Time `gorm:"index" json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}
