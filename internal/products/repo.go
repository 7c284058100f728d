package products

import (
	"context"
	"errors"

	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	"github.com/angelmondragon/trustchain-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists products and the flagged review queue.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID returns gorm.ErrRecordNotFound when the product does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListFilter narrows a product listing.
type ListFilter struct {
	SupplierID *uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

// List returns products newest first with one look-ahead row.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.SupplierID != nil {
		q = q.Where("supplier_id = ?", *filter.SupplierID)
	}
	if where, args := pagination.Seek(filter.Cursor); where != "" {
		q = q.Where(where, args...)
	}

	var rows []models.Product
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(filter.Limit)).
		Find(&rows).Error
	return rows, err
}

// Delete removes the product and its review queue entry.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Where("product_id = ?", id).Delete(&models.FlaggedProduct{}).Error; err != nil {
		return err
	}
	res := conn.Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateLedgerOutcome records the result of the post-commit ledger append.
func (r *Repository) UpdateLedgerOutcome(ctx context.Context, id uuid.UUID, ledgerTx *string, status enums.ProductStatus, message string) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"ledger_tx": ledgerTx,
			"status":    status,
			"message":   message,
		}).Error
}

func (r *Repository) CreateFlagged(ctx context.Context, flagged *models.FlaggedProduct) error {
	return r.db.WithContext(ctx).Create(flagged).Error
}

// ListFlagged returns the review queue newest first with one look-ahead row.
func (r *Repository) ListFlagged(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.FlaggedProduct, error) {
	q := r.db.WithContext(ctx).Model(&models.FlaggedProduct{})
	if where, args := pagination.Seek(cursor); where != "" {
		q = q.Where(where, args...)
	}
	var rows []models.FlaggedProduct
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	return rows, err
}

// FindFlagged returns nil when the product is not in the review queue.
func (r *Repository) FindFlagged(ctx context.Context, productID uuid.UUID) (*models.FlaggedProduct, error) {
	var row models.FlaggedProduct
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
