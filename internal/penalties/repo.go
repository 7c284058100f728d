package penalties

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/trustchain-backend/pkg/db"
	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists supplier penalty rows.
type Repository struct {
	db *gorm.DB
}

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

// Find returns nil when the supplier has no violations on record.
func (r *Repository) Find(ctx context.Context, supplierID uuid.UUID) (*models.SupplierPenalty, error) {
	return r.find(r.db.WithContext(ctx), supplierID)
}

// FindForUpdate is Find with a row lock; call it inside a transaction.
func (r *Repository) FindForUpdate(ctx context.Context, supplierID uuid.UUID) (*models.SupplierPenalty, error) {
	return r.find(db.ForUpdate(r.db.WithContext(ctx)), supplierID)
}

func (r *Repository) find(q *gorm.DB, supplierID uuid.UUID) (*models.SupplierPenalty, error) {
	var row models.SupplierPenalty
	err := q.Where("supplier_id = ?", supplierID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Increment adds one violation and sets the block flag once the new count
// reaches threshold. The read-modify-write happens in a single UPDATE so
// concurrent admissions cannot lose an increment, and the OR keeps the flag
// from ever clearing.
func (r *Repository) Increment(ctx context.Context, supplierID uuid.UUID, threshold int) (*models.SupplierPenalty, error) {
	conn := r.db.WithContext(ctx)

	seed := &models.SupplierPenalty{SupplierID: supplierID}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return nil, err
	}

	res := conn.Model(&models.SupplierPenalty{}).
		Where("supplier_id = ?", supplierID).
		UpdateColumns(map[string]any{
			"penalty_count": gorm.Expr("penalty_count + 1"),
			"is_blocked":    gorm.Expr("is_blocked OR penalty_count + 1 >= ?", threshold),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.find(conn, supplierID)
}
