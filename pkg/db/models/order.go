package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/trustchain-backend/pkg/enums"
)

// Order is a consumer purchase of a single product.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ProductID             uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	ConsumerID            uuid.UUID         `gorm:"column:consumer_id;type:uuid;not null;index"`
	CustomerName          string            `gorm:"column:customer_name;not null"`
	ContactNumber         string            `gorm:"column:contact_number;not null"`
	DeliveryAddress       string            `gorm:"column:delivery_address;not null"`
	Status                enums.OrderStatus `gorm:"column:status;not null;default:'NEW'"`
	EstimatedDeliveryDays *int              `gorm:"column:estimated_delivery_days"`
	DeliveryNotes         *string           `gorm:"column:delivery_notes"`
	LedgerTx              *string           `gorm:"column:ledger_tx"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
