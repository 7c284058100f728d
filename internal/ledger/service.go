package ledger

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
	"github.com/angelmondragon/trustchain-backend/pkg/metrics"
	"github.com/angelmondragon/trustchain-backend/pkg/multichain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 10 * time.Second

var txHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// RPC is the node surface the service consumes; *multichain.Client satisfies it.
type RPC interface {
	GetInfo(ctx context.Context) (*multichain.Info, error)
	ListStreams(ctx context.Context) ([]multichain.Stream, error)
	CreateStream(ctx context.Context, name string, open bool) (string, error)
	Subscribe(ctx context.Context, stream string) error
	Publish(ctx context.Context, stream string, keys []string, hexData string) (string, error)
	ListStreamKeyItems(ctx context.Context, stream, key string) ([]multichain.StreamItem, error)
	GetTxOutData(ctx context.Context, txid string) (json.RawMessage, error)
}

// Service publishes audit records and rebuilds order history.
type Service interface {
	Init(ctx context.Context) error
	Online() bool
	PublishProduct(ctx context.Context, product *models.Product) (string, error)
	PublishOrderCreated(ctx context.Context, order *models.Order) (string, error)
	PublishOrderUpdated(ctx context.Context, order *models.Order) (string, error)
	History(ctx context.Context, ref string) ([]Entry, error)
}

// Streams names the two streams the service writes.
type Streams struct {
	Products string
	Orders   string
}

type Options struct {
	Streams Streams
	Timeout time.Duration
	Logger  *logger.Logger
	Metrics *metrics.LedgerMetrics
	Now     func() time.Time
}

type service struct {
	rpc     RPC
	streams Streams
	timeout time.Duration
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
	now     func() time.Time
	online  atomic.Bool
}

// NewService wires the ledger service. A nil rpc yields a service that stays
// offline and soft-fails every operation.
func NewService(rpc RPC, opts Options) Service {
	s := &service{
		rpc:     rpc,
		streams: opts.Streams,
		timeout: opts.Timeout,
		logg:    opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if s.streams.Products == "" {
		s.streams.Products = "products"
	}
	if s.streams.Orders == "" {
		s.streams.Orders = "orders"
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Online() bool {
	return s.online.Load()
}

var errOffline = pkgerrors.New(pkgerrors.CodeDependency, "ledger offline")

func (s *service) PublishProduct(ctx context.Context, product *models.Product) (string, error) {
	if product == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	now := s.now().UTC()
	id := product.ID.String()
	record := Record{
		Type:   kindProduct,
		Action: enums.LedgerActionCreate,
		Data: Flatten(map[string]any{
			"product_id":  product.ID,
			"name":        product.Name,
			"supplier_id": product.SupplierID,
			"timestamp":   now,
			"price":       product.Price.String(),
			"ingredients": product.Ingredients,
			"category":    product.Category,
			"label":       product.Label,
		}),
		Timestamp: FormatTime(now),
	}
	return s.publish(ctx, s.streams.Products, []string{CreateKey(kindProduct, id)}, record)
}

func (s *service) PublishOrderCreated(ctx context.Context, order *models.Order) (string, error) {
	if order == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	record := Record{
		Type:      kindOrder,
		Action:    enums.LedgerActionCreate,
		Data:      OrderSnapshot(order),
		Timestamp: FormatTime(s.now()),
	}
	return s.publish(ctx, s.streams.Orders, []string{CreateKey(kindOrder, order.ID.String())}, record)
}

func (s *service) PublishOrderUpdated(ctx context.Context, order *models.Order) (string, error) {
	if order == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	now := s.now()
	id := order.ID.String()
	record := Record{
		Type:      kindOrder,
		Action:    enums.LedgerActionUpdate,
		Data:      OrderSnapshot(order),
		Timestamp: FormatTime(now),
	}
	keys := []string{UpdateKey(kindOrder, id, now), UpdatePrefix(kindOrder, id)}
	return s.publish(ctx, s.streams.Orders, keys, record)
}

// OrderSnapshot is the flattened order written into ledger records.
func OrderSnapshot(order *models.Order) map[string]any {
	return Flatten(map[string]any{
		"id":                      order.ID,
		"product_id":              order.ProductID,
		"consumer_id":             order.ConsumerID,
		"customer_name":           order.CustomerName,
		"contact_number":          order.ContactNumber,
		"delivery_address":        order.DeliveryAddress,
		"status":                  order.Status,
		"estimated_delivery_days": order.EstimatedDeliveryDays,
		"delivery_notes":          order.DeliveryNotes,
		"created_at":              order.CreatedAt,
		"updated_at":              order.UpdatedAt,
	})
}

func (s *service) publish(ctx context.Context, stream string, keys []string, record Record) (string, error) {
	logCtx := s.logg.WithFields(ctx, map[string]any{"stream": stream, "key": keys[0]})
	if !s.Online() {
		s.metrics.IncAppend(stream, "offline")
		s.logg.Warn(logCtx, "ledger offline, skipping publish")
		return "", errOffline
	}

	hexData, err := Encode(record)
	if err != nil {
		s.metrics.IncAppend(stream, "error")
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode ledger record")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	started := time.Now()
	txid, err := s.rpc.Publish(callCtx, stream, keys, hexData)
	s.metrics.ObserveDuration("publish", time.Since(started))
	if err == nil && strings.TrimSpace(txid) == "" {
		err = pkgerrors.New(pkgerrors.CodeDependency, "node returned empty transaction id")
	}
	if err != nil {
		s.metrics.IncAppend(stream, "error")
		s.logg.WarnErr(logCtx, "ledger publish failed", err)
		return "", err
	}

	s.metrics.IncAppend(stream, "ok")
	s.logg.Info(s.logg.WithField(logCtx, "txid", txid), "ledger record published")
	return txid, nil
}

// History returns the order's records oldest first. An unreachable ledger or
// an unknown reference yields an empty slice, not an error.
func (s *service) History(ctx context.Context, ref string) ([]Entry, error) {
	ref = strings.TrimSpace(ref)
	isHash := txHashPattern.MatchString(ref)
	if !isHash {
		if _, err := uuid.Parse(ref); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier must be an order id or a 64 character transaction hash")
		}
	}

	logCtx := s.logg.WithField(ctx, "ledger_ref", ref)
	if !s.Online() {
		s.logg.Warn(logCtx, "ledger offline, history unavailable")
		return []Entry{}, nil
	}

	started := time.Now()
	defer func() { s.metrics.ObserveDuration("history", time.Since(started)) }()

	var creates, updates []multichain.StreamItem
	if isHash {
		creates = s.fetchTx(logCtx, ref)
	} else {
		creates, updates = s.fetchOrderItems(logCtx, ref)
	}

	entries, dropped := Merge(creates, updates, s.now())
	for _, d := range dropped {
		s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{"txid": d.TxID, "reason": d.Reason}), "dropping malformed ledger entry")
	}
	s.metrics.AddDropped(len(dropped))
	return entries, nil
}

func (s *service) fetchTx(ctx context.Context, txid string) []multichain.StreamItem {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	data, err := s.rpc.GetTxOutData(callCtx, txid)
	if err != nil {
		if !multichain.IsNotFound(err) {
			s.logg.WarnErr(ctx, "ledger transaction lookup failed", err)
		}
		return nil
	}
	return []multichain.StreamItem{itemFromTxOut(txid, data)}
}

func (s *service) fetchOrderItems(ctx context.Context, orderID string) ([]multichain.StreamItem, []multichain.StreamItem) {
	var creates, updates []multichain.StreamItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		creates = s.listKey(gctx, CreateKey(kindOrder, orderID))
		return nil
	})
	g.Go(func() error {
		updates = s.listKey(gctx, UpdatePrefix(kindOrder, orderID))
		return nil
	})
	_ = g.Wait()
	return creates, updates
}

func (s *service) listKey(ctx context.Context, key string) []multichain.StreamItem {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	items, err := s.rpc.ListStreamKeyItems(callCtx, s.streams.Orders, key)
	if err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "key", key), "ledger key lookup failed", err)
		return nil
	}
	return items
}
