package payments

import (
	"context"

	"github.com/angelmondragon/trustchain-backend/pkg/db"
	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderIDConstraint is the unique index holding one payment per order.
const OrderIDConstraint = "payments_order_id_key"

// Repository defines persistence operations for payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	SaveSignatures(ctx context.Context, payment *models.Payment) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := db.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).Where("order_id = ?", orderID).Count(&count).Error
	return count > 0, err
}

// SaveSignatures writes the three flags and the resolved status together.
func (r *repository) SaveSignatures(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Model(payment).
		Select("consumer_signed", "supplier_signed", "admin_signed", "status", "updated_at").
		Updates(payment).Error
}
