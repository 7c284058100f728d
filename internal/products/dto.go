package products

import (
	"time"

	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the API shape of a product.
type ProductDTO struct {
	ID              uuid.UUID           `json:"id"`
	SupplierID      uuid.UUID           `json:"supplier_id"`
	Name            string              `json:"product_name"`
	Category        string              `json:"category"`
	Price           decimal.Decimal     `json:"price"`
	Ingredients     string              `json:"ingredients"`
	Label           string              `json:"label,omitempty"`
	IsFlagged       bool                `json:"is_flagged"`
	FraudConfidence *float64            `json:"fraud_confidence,omitempty"`
	Status          enums.ProductStatus `json:"status"`
	Message         string              `json:"message"`
	LedgerTx        *string             `json:"ledger_tx,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func NewProductDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:              p.ID,
		SupplierID:      p.SupplierID,
		Name:            p.Name,
		Category:        p.Category,
		Price:           p.Price,
		Ingredients:     p.Ingredients,
		Label:           p.Label,
		IsFlagged:       p.IsFlagged,
		FraudConfidence: p.FraudConfidence,
		Status:          p.Status,
		Message:         p.Message,
		LedgerTx:        p.LedgerTx,
		CreatedAt:       p.CreatedAt,
	}
}

// FlaggedDTO is a review queue entry.
type FlaggedDTO struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewFlaggedDTO(f *models.FlaggedProduct) FlaggedDTO {
	return FlaggedDTO{
		ID:         f.ID,
		ProductID:  f.ProductID,
		SupplierID: f.SupplierID,
		Reason:     f.Reason,
		CreatedAt:  f.CreatedAt,
	}
}
