package models

import (
	"time"

	"github.com/google/uuid"
)

// SupplierPenalty counts admission violations. Rows are created lazily on the
// first violation and never deleted; IsBlocked only moves false to true.
type SupplierPenalty struct {
	SupplierID   uuid.UUID `gorm:"column:supplier_id;type:uuid;primaryKey"`
	PenaltyCount int       `gorm:"column:penalty_count;not null;default:0"`
	IsBlocked    bool      `gorm:"column:is_blocked;not null;default:false"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
