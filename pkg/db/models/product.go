package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/trustchain-backend/pkg/enums"
)

// Product is a supplier listing screened by the admission gate.
// Admission fields are written once at creation.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SupplierID      uuid.UUID           `gorm:"column:supplier_id;type:uuid;not null;index"`
	Name            string              `gorm:"column:product_name;not null"`
	Category        string              `gorm:"column:category;not null"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Ingredients     string              `gorm:"column:ingredients;not null"`
	Label           string              `gorm:"column:label"`
	IsFlagged       bool                `gorm:"column:is_flagged;not null;default:false"`
	FraudConfidence *float64            `gorm:"column:fraud_confidence"`
	Status          enums.ProductStatus `gorm:"column:status;not null;default:'success'"`
	Message         string              `gorm:"column:message;not null"`
	LedgerTx        *string             `gorm:"column:ledger_tx"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
