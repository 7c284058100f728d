package penalties

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Standing is a supplier's current penalty position. Suppliers without a row
// have a zero Standing.
type Standing struct {
	SupplierID   uuid.UUID  `json:"supplier_id"`
	PenaltyCount int        `json:"penalty_count"`
	IsBlocked    bool       `json:"is_blocked"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func standingFrom(supplierID uuid.UUID, row *models.SupplierPenalty) Standing {
	if row == nil {
		return Standing{SupplierID: supplierID}
	}
	updated := row.UpdatedAt
	return Standing{
		SupplierID:   row.SupplierID,
		PenaltyCount: row.PenaltyCount,
		IsBlocked:    row.IsBlocked,
		UpdatedAt:    &updated,
	}
}

// BlockedError is the rejection returned to a blocked supplier.
func BlockedError(s Standing) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeBlocked, fmt.Sprintf("Account is blocked due to %d violations", s.PenaltyCount)).
		WithDetails(map[string]any{"penalty_count": s.PenaltyCount})
}

// Service owns the block policy.
type Service struct {
	repo      *Repository
	threshold int
}

func NewService(repo *Repository, threshold int) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("penalty repository required")
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("block threshold must be positive, got %d", threshold)
	}
	return &Service{repo: repo, threshold: threshold}, nil
}

func (s *Service) Threshold() int {
	return s.threshold
}

func (s *Service) Standing(ctx context.Context, supplierID uuid.UUID) (Standing, error) {
	row, err := s.repo.Find(ctx, supplierID)
	if err != nil {
		return Standing{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier penalty")
	}
	return standingFrom(supplierID, row), nil
}

// EnsureNotBlocked rejects blocked suppliers. With a non-nil tx the row is read
// under lock so a concurrent block is observed.
func (s *Service) EnsureNotBlocked(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID) error {
	var (
		row *models.SupplierPenalty
		err error
	)
	if tx != nil {
		row, err = s.repo.WithTx(tx).FindForUpdate(ctx, supplierID)
	} else {
		row, err = s.repo.Find(ctx, supplierID)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier penalty")
	}
	if row != nil && row.IsBlocked {
		return BlockedError(standingFrom(supplierID, row))
	}
	return nil
}

// RecordViolation increments the supplier's count inside tx and reports the
// resulting standing.
func (s *Service) RecordViolation(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID) (Standing, error) {
	row, err := s.repo.WithTx(tx).Increment(ctx, supplierID, s.threshold)
	if err != nil {
		return Standing{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment supplier penalty")
	}
	return standingFrom(supplierID, row), nil
}
