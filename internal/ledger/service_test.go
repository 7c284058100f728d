package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/angelmondragon/trustchain-backend/pkg/multichain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	stream string
	keys   []string
	hex    string
}

type fakeRPC struct {
	mu         sync.Mutex
	infoErr    error
	streams    []multichain.Stream
	created    []string
	subscribed []string
	publishErr error
	published  []published
	items      map[string][]multichain.StreamItem
	listErr    map[string]error
	txOut      map[string]json.RawMessage
}

func (f *fakeRPC) GetInfo(context.Context) (*multichain.Info, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &multichain.Info{ChainName: "test"}, nil
}

func (f *fakeRPC) ListStreams(context.Context) ([]multichain.Stream, error) {
	return f.streams, nil
}

func (f *fakeRPC) CreateStream(_ context.Context, name string, _ bool) (string, error) {
	f.created = append(f.created, name)
	return "create-" + name, nil
}

func (f *fakeRPC) Subscribe(_ context.Context, name string) error {
	f.subscribed = append(f.subscribed, name)
	return nil
}

func (f *fakeRPC) Publish(_ context.Context, stream string, keys []string, hexData string) (string, error) {
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{stream: stream, keys: keys, hex: hexData})
	return strings.Repeat("a", 63) + string(rune('0'+len(f.published))), nil
}

func (f *fakeRPC) ListStreamKeyItems(_ context.Context, stream, key string) ([]multichain.StreamItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[key]; err != nil {
		return nil, err
	}
	return f.items[stream+"/"+key], nil
}

func (f *fakeRPC) GetTxOutData(_ context.Context, txid string) (json.RawMessage, error) {
	data, ok := f.txOut[txid]
	if !ok {
		return nil, &multichain.RPCError{Code: -5, Message: "No information available about transaction"}
	}
	return data, nil
}

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, rpc RPC) Service {
	t.Helper()
	svc := NewService(rpc, Options{
		Streams: Streams{Products: "products", Orders: "orders"},
		Timeout: time.Second,
		Now:     func() time.Time { return fixedNow },
	})
	return svc
}

func onlineService(t *testing.T, rpc *fakeRPC) Service {
	t.Helper()
	svc := newTestService(t, rpc)
	require.NoError(t, svc.Init(context.Background()))
	require.True(t, svc.Online())
	return svc
}

func TestInitProvisionsMissingStreams(t *testing.T) {
	rpc := &fakeRPC{streams: []multichain.Stream{{Name: "products", Subscribed: false}}}
	onlineService(t, rpc)

	assert.Equal(t, []string{"orders"}, rpc.created)
	assert.ElementsMatch(t, []string{"products", "orders"}, rpc.subscribed)
}

func TestInitOfflineWhenNodeUnreachable(t *testing.T) {
	rpc := &fakeRPC{infoErr: errors.New("connection refused")}
	svc := newTestService(t, rpc)

	err := svc.Init(context.Background())
	require.Error(t, err)
	assert.False(t, svc.Online())

	_, err = svc.PublishProduct(context.Background(), &models.Product{ID: uuid.New()})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.Empty(t, rpc.published)
}

func TestDisabledLedgerStaysOffline(t *testing.T) {
	svc := newTestService(t, nil)
	require.NoError(t, svc.Init(context.Background()))
	assert.False(t, svc.Online())

	entries, err := svc.History(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublishProductRecord(t *testing.T) {
	rpc := &fakeRPC{streams: []multichain.Stream{{Name: "products", Subscribed: true}, {Name: "orders", Subscribed: true}}}
	svc := onlineService(t, rpc)

	product := &models.Product{
		ID:          uuid.New(),
		SupplierID:  uuid.New(),
		Name:        "Glow Serum",
		Category:    "serum",
		Price:       decimal.RequireFromString("24.50"),
		Ingredients: "aqua, glycerin",
		Label:       "legitimate",
	}
	txid, err := svc.PublishProduct(context.Background(), product)
	require.NoError(t, err)
	assert.Len(t, txid, 64)

	require.Len(t, rpc.published, 1)
	got := rpc.published[0]
	assert.Equal(t, "products", got.stream)
	assert.Equal(t, []string{"product_" + product.ID.String()}, got.keys)

	var rec Record
	require.NoError(t, Decode(got.hex, &rec))
	assert.Equal(t, "product", rec.Type)
	assert.Equal(t, enums.LedgerActionCreate, rec.Action)
	assert.Equal(t, "24.5", rec.Data["price"])
	assert.Equal(t, product.SupplierID.String(), rec.Data["supplier_id"])
	assert.Equal(t, "2024-05-01T10:00:00Z", rec.Data["timestamp"])
}

func TestPublishFailureIsReturned(t *testing.T) {
	rpc := &fakeRPC{}
	svc := onlineService(t, rpc)
	rpc.publishErr = pkgerrors.New(pkgerrors.CodeDependency, "timeout")

	_, err := svc.PublishOrderCreated(context.Background(), &models.Order{ID: uuid.New()})
	require.Error(t, err)
}

func TestOrderHistoryRoundTrip(t *testing.T) {
	rpc := &fakeRPC{items: map[string][]multichain.StreamItem{}}
	svc := onlineService(t, rpc)
	ctx := context.Background()

	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusNew, CustomerName: "Ada"}
	_, err := svc.PublishOrderCreated(ctx, order)
	require.NoError(t, err)
	order.Status = enums.OrderStatusConfirmed
	_, err = svc.PublishOrderUpdated(ctx, order)
	require.NoError(t, err)

	require.Len(t, rpc.published, 2)
	update := rpc.published[1]
	id := order.ID.String()
	assert.Equal(t, []string{UpdateKey(kindOrder, id, fixedNow), UpdatePrefix(kindOrder, id)}, update.keys)

	// Node times are reversed, so the order must come from the records.
	toItem := func(p published, txid string, nodeTime int64) multichain.StreamItem {
		raw, _ := json.Marshal(p.hex)
		return multichain.StreamItem{TxID: txid, Data: raw, Time: nodeTime}
	}
	rpc.items["orders/"+CreateKey(kindOrder, id)] = []multichain.StreamItem{toItem(rpc.published[0], "tx-create", 200)}
	rpc.items["orders/"+UpdatePrefix(kindOrder, id)] = []multichain.StreamItem{toItem(rpc.published[1], "tx-update", 100)}

	entries, err := svc.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "create", entries[0].Action)
	assert.Equal(t, "NEW", entries[0].Details["status"])
	assert.Equal(t, "update", entries[1].Action)
	assert.Equal(t, "CONFIRMED", entries[1].Details["status"])
}

func TestHistoryToleratesOneFailedLookup(t *testing.T) {
	id := uuid.NewString()
	create := hexItem(t, "c", 1, record("create", "2024-05-01T10:00:00Z", map[string]any{"id": id}))
	rpc := &fakeRPC{
		items:   map[string][]multichain.StreamItem{"orders/" + CreateKey(kindOrder, id): {create}},
		listErr: map[string]error{UpdatePrefix(kindOrder, id): errors.New("boom")},
	}
	svc := onlineService(t, rpc)

	entries, err := svc.History(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestHistoryByTransactionHash(t *testing.T) {
	hash := strings.Repeat("ab", 32)
	encoded, err := Encode(record("update", "2024-05-02T10:00:00Z", map[string]any{"status": "DELIVERED"}))
	require.NoError(t, err)
	raw, _ := json.Marshal(encoded)

	rpc := &fakeRPC{txOut: map[string]json.RawMessage{hash: raw}}
	svc := onlineService(t, rpc)

	entries, err := svc.History(context.Background(), hash)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, hash, entries[0].TransactionHash)
	assert.Equal(t, "DELIVERED", entries[0].Details["status"])

	missing, err := svc.History(context.Background(), strings.Repeat("cd", 32))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestHistoryRejectsUnknownReference(t *testing.T) {
	svc := onlineService(t, &fakeRPC{})
	_, err := svc.History(context.Background(), "order-7")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
