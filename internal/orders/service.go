package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/trustchain-backend/internal/ledger"
	"github.com/angelmondragon/trustchain-backend/pkg/auth"
	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
	"github.com/angelmondragon/trustchain-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service manages the order lifecycle and its audit trail.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*OrderDTO, error)
	Update(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input UpdateOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListMine(ctx context.Context, actor auth.Actor, params pagination.Params) (pagination.Page[OrderDTO], error)
	ListDelivered(ctx context.Context, actor auth.Actor, params pagination.Params) (pagination.Page[OrderDTO], error)
	History(ctx context.Context, actor auth.Actor, ref string) ([]ledger.Entry, error)
}

type ServiceParams struct {
	TxRunner txRunner
	Repo     Repository
	Products ProductLookup
	Ledger   Ledger
	Logger   *logger.Logger
}

type service struct {
	tx       txRunner
	repo     Repository
	products ProductLookup
	ledger   Ledger
	logg     *logger.Logger
}

// NewService builds an orders service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:       params.TxRunner,
		repo:     params.Repo,
		products: params.Products,
		ledger:   params.Ledger,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*OrderDTO, error) {
	if !actor.Can(auth.ActionCreateOrder) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only consumers can place orders")
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	order := &models.Order{
		ProductID:       input.ProductID,
		ConsumerID:      actor.UserID,
		CustomerName:    strings.TrimSpace(input.CustomerName),
		ContactNumber:   strings.TrimSpace(input.ContactNumber),
		DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
		Status:          enums.OrderStatusNew,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.mirror(ctx, order, s.ledger.PublishOrderCreated)
	s.logg.Info(ctx, "order created")

	dto := mapOrder(order)
	return &dto, nil
}

// Update applies delivery changes under a row lock, then mirrors the new
// snapshot to the ledger after commit.
func (s *service) Update(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input UpdateOrderInput) (*OrderDTO, error) {
	if !actor.Can(auth.ActionUpdateOrder) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot update orders")
	}
	if input.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no changes supplied")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]string{"status": string(*input.Status)})
	}
	if input.EstimatedDeliveryDays != nil && *input.EstimatedDeliveryDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated_delivery_days must not be negative")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if input.Status != nil {
			current.Status = *input.Status
		}
		if input.EstimatedDeliveryDays != nil {
			current.EstimatedDeliveryDays = input.EstimatedDeliveryDays
		}
		if input.DeliveryNotes != nil {
			current.DeliveryNotes = input.DeliveryNotes
		}
		if err := repo.Save(ctx, current); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.mirror(ctx, order, s.ledger.PublishOrderUpdated)
	s.logg.Info(s.logg.WithField(ctx, "status", order.Status.String()), "order updated")

	dto := mapOrder(order)
	return &dto, nil
}

// mirror appends the order to the ledger. ledger_tx always refers to the
// latest mutation: a failed append clears it so the order never claims a
// reference that belongs to an earlier write.
func (s *service) mirror(ctx context.Context, order *models.Order, publish func(context.Context, *models.Order) (string, error)) {
	txid, err := publish(ctx, order)
	if err != nil {
		s.logg.WarnErr(ctx, "order ledger append failed", err)
		order.LedgerTx = nil
		if err := s.repo.SetLedgerTx(ctx, order.ID, nil); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "step", "clear_ledger_tx"), "stale order ledger reference not cleared", err)
		}
		return
	}
	if err := s.repo.SetLedgerTx(ctx, order.ID, &txid); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "step", "record_ledger_tx"), "order ledger reference not saved", err)
		order.LedgerTx = nil
		return
	}
	order.LedgerTx = &txid
}

func (s *service) Get(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.canView(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to view this order")
	}
	dto := mapOrder(order)
	return &dto, nil
}

func (s *service) ListMine(ctx context.Context, actor auth.Actor, params pagination.Params) (pagination.Page[OrderDTO], error) {
	return s.list(ctx, ListFilter{ConsumerID: &actor.UserID}, params)
}

func (s *service) ListDelivered(ctx context.Context, actor auth.Actor, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if !actor.Can(auth.ActionListDelivered) {
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	delivered := enums.OrderStatusDelivered
	return s.list(ctx, ListFilter{Status: &delivered}, params)
}

// History rebuilds the order's audit trail from the ledger. Consumers may
// only read the trail of their own orders.
func (s *service) History(ctx context.Context, actor auth.Actor, ref string) ([]ledger.Entry, error) {
	if !actor.Can(auth.ActionViewLedger) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot view ledger history")
	}
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil && !actor.Can(auth.ActionViewAnyOrder) {
		order, err := s.repo.FindByID(ctx, id)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return []ledger.Entry{}, nil
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		case order.ConsumerID != actor.UserID:
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to view this order")
		}
	}
	return s.ledger.History(ctx, ref)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[OrderDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Limit = params.Limit
	filter.Cursor = cursor
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	dtos := make([]OrderDTO, len(rows))
	for i := range rows {
		dtos[i] = mapOrder(&rows[i])
	}
	return pagination.BuildPage(dtos, params.Limit, func(o OrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

func (s *service) canView(actor auth.Actor, order *models.Order) bool {
	return actor.Can(auth.ActionViewAnyOrder) || order.ConsumerID == actor.UserID
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func validateCreate(input CreateOrderInput) error {
	fields := map[string]string{}
	if input.ProductID == uuid.Nil {
		fields["product_id"] = "required"
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		fields["customer_name"] = "required"
	}
	if strings.TrimSpace(input.ContactNumber) == "" {
		fields["contact_number"] = "required"
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		fields["delivery_address"] = "required"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails(fields)
	}
	return nil
}
