package models

import "time"

// AuditLog records sensitive mutations. Undo holds a typed, serialized
// descriptor of how to reverse the action (see the audit package).
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `gorm:"index" json:"action"`
	Entity    string    `json:"entity"`
	EntityID  uint      `json:"entity_id"`
	Undo      string    `json:"undo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
