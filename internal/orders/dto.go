package orders

import (
	"time"

	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	"github.com/google/uuid"
)

// CreateOrderInput is a consumer's order request.
type CreateOrderInput struct {
	ProductID       uuid.UUID
	CustomerName    string
	ContactNumber   string
	DeliveryAddress string
}

// UpdateOrderInput carries the delivery changes; nil fields are left alone.
type UpdateOrderInput struct {
	Status                *enums.OrderStatus
	EstimatedDeliveryDays *int
	DeliveryNotes         *string
}

func (in UpdateOrderInput) empty() bool {
	return in.Status == nil && in.EstimatedDeliveryDays == nil && in.DeliveryNotes == nil
}

const (
	LedgerStatusRecorded = "success"
	LedgerStatusPartial  = "partial_success"

	ledgerPartialMessage = "Order saved, but the latest change is not on the audit ledger"
)

// OrderDTO is the API shape of an order. LedgerStatus reports whether the
// latest mutation reached the audit ledger.
type OrderDTO struct {
	ID                    uuid.UUID         `json:"id"`
	ProductID             uuid.UUID         `json:"product_id"`
	ConsumerID            uuid.UUID         `json:"consumer_id"`
	CustomerName          string            `json:"customer_name"`
	ContactNumber         string            `json:"contact_number"`
	DeliveryAddress       string            `json:"delivery_address"`
	Status                enums.OrderStatus `json:"status"`
	EstimatedDeliveryDays *int              `json:"estimated_delivery_days,omitempty"`
	DeliveryNotes         *string           `json:"delivery_notes,omitempty"`
	LedgerTx              *string           `json:"ledger_tx,omitempty"`
	LedgerStatus          string            `json:"ledger_status"`
	LedgerMessage         string            `json:"ledger_message,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

func mapOrder(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                    o.ID,
		ProductID:             o.ProductID,
		ConsumerID:            o.ConsumerID,
		CustomerName:          o.CustomerName,
		ContactNumber:         o.ContactNumber,
		DeliveryAddress:       o.DeliveryAddress,
		Status:                o.Status,
		EstimatedDeliveryDays: o.EstimatedDeliveryDays,
		DeliveryNotes:         o.DeliveryNotes,
		LedgerTx:              o.LedgerTx,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		LedgerStatus:          LedgerStatusRecorded,
	}
	if o.LedgerTx == nil {
		dto.LedgerStatus = LedgerStatusPartial
		dto.LedgerMessage = ledgerPartialMessage
	}
	return dto
}
