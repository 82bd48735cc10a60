package models

import (
	"time"
)

// AppType is reference data: every distinct app name seen in an upload
// gets a row here, created inside the same transaction as the set.
type AppType struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null;type:varchar(255)" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (AppType) TableName() string {
	return "app_types"
}
