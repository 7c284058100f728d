package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/trustchain-backend/pkg/enums"
)

// Payment holds escrowed funds for one order until a signature quorum settles it.
type Payment struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:payments_order_id_key"`
	ConsumerID     uuid.UUID           `gorm:"column:consumer_id;type:uuid;not null"`
	Amount         decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Status         enums.PaymentStatus `gorm:"column:status;not null;default:'PENDING'"`
	ConsumerSigned bool                `gorm:"column:consumer_signed;not null;default:false"`
	SupplierSigned bool                `gorm:"column:supplier_signed;not null;default:false"`
	AdminSigned    bool                `gorm:"column:admin_signed;not null;default:false"`
	LedgerTx       *string             `gorm:"column:ledger_tx"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
