package models

import (
	"time"
)

// AuditRecord logs a catalog mutation for the operations trail.
// Writes are fire-and-forget: an audit failure never fails the operation.
type AuditRecord struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Actor     string    `gorm:"not null;type:varchar(255);index" json:"actor"`
	Action    string    `gorm:"not null;type:varchar(50)" json:"action"` // upload, overwrite, update, delete
	Target    string    `gorm:"not null;type:varchar(500)" json:"target"`
	Detail    string    `gorm:"type:varchar(1000)" json:"detail"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}
