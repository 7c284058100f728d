package orders

import (
	"context"

	"github.com/angelmondragon/trustchain-backend/internal/ledger"
	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	"github.com/angelmondragon/trustchain-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	SetLedgerTx(ctx context.Context, id uuid.UUID, txid *string) error
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
}

// ListFilter narrows an order listing. Zero values mean no filter.
type ListFilter struct {
	ConsumerID *uuid.UUID
	Status     *enums.OrderStatus
	Limit      int
	Cursor     *pagination.Cursor
}

// ProductLookup confirms the ordered product exists.
type ProductLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Ledger is the audit trail surface orders depend on.
type Ledger interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) (string, error)
	PublishOrderUpdated(ctx context.Context, order *models.Order) (string, error)
	History(ctx context.Context, ref string) ([]ledger.Entry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
