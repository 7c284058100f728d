package payments

import (
	"time"

	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePaymentInput opens escrow for an order.
type CreatePaymentInput struct {
	OrderID uuid.UUID
	Amount  decimal.Decimal
}

// PaymentDTO is the API shape of a payment.
type PaymentDTO struct {
	ID             uuid.UUID           `json:"id"`
	OrderID        uuid.UUID           `json:"order_id"`
	ConsumerID     uuid.UUID           `json:"consumer_id"`
	Amount         decimal.Decimal     `json:"amount"`
	Status         enums.PaymentStatus `json:"status"`
	ConsumerSigned bool                `json:"consumer_signed"`
	SupplierSigned bool                `json:"supplier_signed"`
	AdminSigned    bool                `json:"admin_signed"`
	LedgerTx       *string             `json:"ledger_tx,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func mapPayment(p *models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:             p.ID,
		OrderID:        p.OrderID,
		ConsumerID:     p.ConsumerID,
		Amount:         p.Amount,
		Status:         p.Status,
		ConsumerSigned: p.ConsumerSigned,
		SupplierSigned: p.SupplierSigned,
		AdminSigned:    p.AdminSigned,
		LedgerTx:       p.LedgerTx,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
