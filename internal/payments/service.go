package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/trustchain-backend/pkg/auth"
	"github.com/angelmondragon/trustchain-backend/pkg/db"
	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
	"github.com/angelmondragon/trustchain-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service runs escrow creation and quorum settlement.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreatePaymentInput) (*PaymentDTO, error)
	Get(ctx context.Context, actor auth.Actor, paymentID uuid.UUID) (*PaymentDTO, error)
	Sign(ctx context.Context, actor auth.Actor, paymentID uuid.UUID, signed bool) (*PaymentDTO, error)
}

// OrderLookup loads the order a payment settles.
type OrderLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// ProductLookup loads the product an order bought.
type ProductLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	TxRunner txRunner
	Repo     Repository
	Orders   OrderLookup
	Products ProductLookup
	Logger   *logger.Logger
	Metrics  *metrics.SettlementMetrics
}

type service struct {
	tx       txRunner
	repo     Repository
	orders   OrderLookup
	products ProductLookup
	logg     *logger.Logger
	metrics  *metrics.SettlementMetrics
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.TxRunner == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Repo == nil:
		return nil, fmt.Errorf("payments repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("order lookup required")
	case params.Products == nil:
		return nil, fmt.Errorf("product lookup required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:       params.TxRunner,
		repo:     params.Repo,
		orders:   params.Orders,
		products: params.Products,
		logg:     logg,
		metrics:  params.Metrics,
	}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreatePaymentInput) (*PaymentDTO, error) {
	if !actor.Can(auth.ActionCreatePayment) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only consumers can create payments")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.ConsumerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the ordering consumer can pay for this order")
	}

	exists, err := s.repo.ExistsForOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing payment")
	}
	if exists {
		return nil, duplicatePayment(order.ID)
	}

	payment := &models.Payment{
		OrderID:    order.ID,
		ConsumerID: actor.UserID,
		Amount:     input.Amount.Round(2),
		Status:     enums.PaymentStatusPending,
	}
	// The unique index settles races the existence check cannot see.
	if err := s.repo.Create(ctx, payment); err != nil {
		if isDuplicateOrder(err) {
			return nil, duplicatePayment(order.ID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"payment_id": payment.ID.String(), "order_id": order.ID.String()})
	s.logg.Info(logCtx, "payment created")
	dto := mapPayment(payment)
	return &dto, nil
}

func isDuplicateOrder(err error) bool {
	return db.IsUniqueViolation(err, OrderIDConstraint) || db.IsUniqueViolation(err, "payments.order_id")
}

func duplicatePayment(orderID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "payment already exists for this order").
		WithDetails(map[string]string{"order_id": orderID.String()})
}

func (s *service) Get(ctx context.Context, actor auth.Actor, paymentID uuid.UUID) (*PaymentDTO, error) {
	payment, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !actor.Can(auth.ActionViewAnyPayment) {
		if err := s.authorizeParticipant(ctx, actor, payment); err != nil {
			return nil, err
		}
	}
	dto := mapPayment(payment)
	return &dto, nil
}

// Sign sets the caller's signature flag and re-evaluates the quorum. The row
// is locked for the read-modify-write so concurrent signers see each other.
func (s *service) Sign(ctx context.Context, actor auth.Actor, paymentID uuid.UUID, signed bool) (*PaymentDTO, error) {
	slot, ok := SlotFor(actor.Role)
	if !ok || !actor.Can(auth.ActionSignPayment) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot sign payments").
			WithDetails(map[string]string{"role": actor.Role.String()})
	}

	// Ownership is immutable, so it is checked before taking the lock.
	current, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(ctx, actor, current); err != nil {
		return nil, err
	}

	var payment *models.Payment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if locked.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment already settled").
				WithDetails(map[string]string{"status": locked.Status.String()})
		}
		slot.set(locked, signed)
		locked.Status = Resolve(signaturesOf(locked))
		if err := repo.SaveSignatures(ctx, locked); err != nil {
			return err
		}
		payment = locked
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign payment")
	}

	s.metrics.IncSignature(slot.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"payment_id": payment.ID.String(),
		"slot":       slot.String(),
		"signed":     signed,
		"status":     payment.Status.String(),
	})
	if payment.Status.IsTerminal() {
		s.metrics.IncSettled(payment.Status.String())
		s.logg.Info(logCtx, "payment settled")
	} else {
		s.logg.Info(logCtx, "payment signature recorded")
	}

	dto := mapPayment(payment)
	return &dto, nil
}

// authorizeParticipant checks the caller is a party to the payment: the
// paying consumer, the supplier of the ordered product, or an admin.
func (s *service) authorizeParticipant(ctx context.Context, actor auth.Actor, payment *models.Payment) error {
	switch actor.Role {
	case enums.RoleAdmin:
		return nil
	case enums.RoleConsumer:
		if payment.ConsumerID == actor.UserID {
			return nil
		}
	case enums.RoleSupplier:
		supplierID, err := s.supplierOf(ctx, payment)
		if err != nil {
			return err
		}
		if supplierID == actor.UserID {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this payment")
}

func (s *service) supplierOf(ctx context.Context, payment *models.Payment) (uuid.UUID, error) {
	order, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment order")
	}
	product, err := s.products.FindByID(ctx, order.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The product was removed after purchase; no supplier can sign.
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment product")
	}
	return product.SupplierID, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	return payment, nil
}
