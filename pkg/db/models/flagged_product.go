package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlaggedProduct is an entry in the admin review queue.
type FlaggedProduct struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex"`
	SupplierID uuid.UUID `gorm:"column:supplier_id;type:uuid;not null;index"`
	Reason     string    `gorm:"column:reason;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (f *FlaggedProduct) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
