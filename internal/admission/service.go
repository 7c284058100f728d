package admission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/trustchain-backend/internal/penalties"
	"github.com/angelmondragon/trustchain-backend/internal/products"
	"github.com/angelmondragon/trustchain-backend/internal/risk"
	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
	"github.com/angelmondragon/trustchain-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	messageRegistered = "Product registered successfully"
	messagePartial    = "Product registered but blockchain storage failed"
	messageFlaggedFmt = "Product flagged as potentially counterfeit. Confidence: %.2f%%"
)

// Scorer produces the counterfeit assessment; *risk.Scorer satisfies it.
type Scorer interface {
	Score(in risk.Input) (risk.Assessment, error)
}

// Publisher appends admitted products to the audit ledger.
type Publisher interface {
	PublishProduct(ctx context.Context, product *models.Product) (string, error)
}

// Penalties is the supplier block policy; *penalties.Service satisfies it.
type Penalties interface {
	EnsureNotBlocked(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID) error
	RecordViolation(ctx context.Context, tx *gorm.DB, supplierID uuid.UUID) (penalties.Standing, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SubmitInput is a supplier's product submission.
type SubmitInput struct {
	Name        string
	Category    string
	Price       decimal.Decimal
	Ingredients string
}

// Result is the admission outcome returned to the supplier.
type Result struct {
	Product   products.ProductDTO `json:"product"`
	Reason    risk.ReasonBucket   `json:"reason"`
	Penalties *penalties.Standing `json:"penalties,omitempty"`
}

// Service decides whether a submitted product is admitted.
type Service interface {
	Submit(ctx context.Context, supplierID uuid.UUID, input SubmitInput) (*Result, error)
}

type ServiceParams struct {
	TxRunner  txRunner
	Products  *products.Repository
	Scorer    Scorer
	Penalties Penalties
	Publisher Publisher
	Logger    *logger.Logger
	Metrics   *metrics.AdmissionMetrics
}

type service struct {
	tx        txRunner
	products  *products.Repository
	scorer    Scorer
	penalties Penalties
	publisher Publisher
	logg      *logger.Logger
	metrics   *metrics.AdmissionMetrics
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.TxRunner == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case params.Scorer == nil:
		return nil, fmt.Errorf("scorer required")
	case params.Penalties == nil:
		return nil, fmt.Errorf("penalty service required")
	case params.Publisher == nil:
		return nil, fmt.Errorf("ledger publisher required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:        params.TxRunner,
		products:  params.Products,
		scorer:    params.Scorer,
		penalties: params.Penalties,
		publisher: params.Publisher,
		logg:      logg,
		metrics:   params.Metrics,
	}, nil
}

func (s *service) Submit(ctx context.Context, supplierID uuid.UUID, input SubmitInput) (*Result, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "supplier identity required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	ctx = s.logg.WithSupplierID(ctx, supplierID.String())

	// Blocked suppliers are turned away before the model runs.
	if err := s.penalties.EnsureNotBlocked(ctx, nil, supplierID); err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeBlocked) {
			s.metrics.IncOutcome("blocked")
		}
		return nil, err
	}

	started := time.Now()
	assessment, err := s.scorer.Score(risk.Input{
		Name:        input.Name,
		Category:    input.Category,
		Price:       input.Price.InexactFloat64(),
		Ingredients: input.Ingredients,
	})
	s.metrics.ObserveScoring(time.Since(started))
	if err != nil {
		return nil, err
	}

	confidence := assessment.Confidence
	product := &models.Product{
		SupplierID:      supplierID,
		Name:            strings.TrimSpace(input.Name),
		Category:        strings.TrimSpace(input.Category),
		Price:           input.Price,
		Ingredients:     input.Ingredients,
		Label:           assessment.Reason.String(),
		IsFlagged:       assessment.IsCounterfeit,
		FraudConfidence: &confidence,
	}

	if assessment.IsCounterfeit {
		return s.admitFlagged(ctx, product, assessment)
	}
	return s.admitClean(ctx, product, assessment)
}

// admitFlagged stores the product, its review queue entry and the penalty
// increment in one transaction.
func (s *service) admitFlagged(ctx context.Context, product *models.Product, assessment risk.Assessment) (*Result, error) {
	product.Status = enums.ProductStatusWarning
	product.Message = fmt.Sprintf(messageFlaggedFmt, assessment.Confidence*100)

	var (
		standing penalties.Standing
		step     string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		step = "check_block"
		if err := s.penalties.EnsureNotBlocked(ctx, tx, product.SupplierID); err != nil {
			return err
		}
		step = "create_product"
		if err := s.products.WithTx(tx).Create(ctx, product); err != nil {
			return err
		}
		step = "create_flagged_product"
		flagged := &models.FlaggedProduct{
			ProductID:  product.ID,
			SupplierID: product.SupplierID,
			Reason:     assessment.Reason.Description(),
		}
		if err := s.products.WithTx(tx).CreateFlagged(ctx, flagged); err != nil {
			return err
		}
		step = "record_violation"
		var err error
		standing, err = s.penalties.RecordViolation(ctx, tx, product.SupplierID)
		return err
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeBlocked) {
			s.metrics.IncOutcome("blocked")
			return nil, err
		}
		logCtx := s.logg.WithFields(ctx, map[string]any{"step": step, "product_id": product.ID.String()})
		s.logg.Error(logCtx, "flagged admission rolled back", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to register product")
	}

	s.metrics.IncPenalty(standing.IsBlocked)
	s.metrics.IncOutcome(product.Status.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id":    product.ID.String(),
		"confidence":    assessment.Confidence,
		"penalty_count": standing.PenaltyCount,
		"is_blocked":    standing.IsBlocked,
	})
	s.logg.Warn(logCtx, "product flagged as potentially counterfeit")
	if standing.IsBlocked {
		s.logg.Warn(logCtx, "supplier blocked")
	}

	return &Result{
		Product:   products.NewProductDTO(product),
		Reason:    assessment.Reason,
		Penalties: &standing,
	}, nil
}

// admitClean commits the product first and then appends it to the ledger, so
// nothing is published for a rolled back insert. A failed append downgrades
// the product to partial_success.
func (s *service) admitClean(ctx context.Context, product *models.Product, assessment risk.Assessment) (*Result, error) {
	product.Status = enums.ProductStatusSuccess
	product.Message = messageRegistered

	// The block flag may have flipped while the model ran; re-check it under
	// the row lock in the same transaction as the insert.
	step := "check_block"
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.penalties.EnsureNotBlocked(ctx, tx, product.SupplierID); err != nil {
			return err
		}
		step = "create_product"
		return s.products.WithTx(tx).Create(ctx, product)
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeBlocked) {
			s.metrics.IncOutcome("blocked")
			return nil, err
		}
		s.logg.Error(s.logg.WithField(ctx, "step", step), "product registration failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to register product")
	}
	logCtx := s.logg.WithField(ctx, "product_id", product.ID.String())

	txid, pubErr := s.publisher.PublishProduct(ctx, product)
	if pubErr != nil {
		s.logg.WarnErr(logCtx, "product ledger append failed", pubErr)
		product.Status = enums.ProductStatusPartialSuccess
		product.Message = messagePartial
		product.LedgerTx = nil
	} else {
		product.LedgerTx = &txid
	}

	if err := s.products.UpdateLedgerOutcome(ctx, product.ID, product.LedgerTx, product.Status, product.Message); err != nil {
		s.logg.Error(s.logg.WithField(logCtx, "step", "record_ledger_outcome"), "product ledger outcome not saved", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record ledger outcome")
	}

	s.metrics.IncOutcome(product.Status.String())
	s.logg.Info(logCtx, "product admitted")
	return &Result{
		Product: products.NewProductDTO(product),
		Reason:  assessment.Reason,
	}, nil
}

func validateInput(input SubmitInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		fields["product_name"] = "required"
	}
	if strings.TrimSpace(input.Category) == "" {
		fields["category"] = "required"
	}
	if !input.Price.IsPositive() {
		fields["price"] = "must be greater than zero"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product submission").WithDetails(fields)
	}
	return nil
}
