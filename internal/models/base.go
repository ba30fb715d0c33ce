package models

import (
	"time"

	"gorm.io/gorm"

	"finledger/internal/uuid"
)

// Base contains common columns for all tables. Rows are never hard-deleted;
// models that support removal carry their own is_active flag.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
