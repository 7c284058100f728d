package products

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/trustchain-backend/pkg/auth"
	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/angelmondragon/trustchain-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seedProduct(t *testing.T, conn *gorm.DB, supplierID uuid.UUID, offset time.Duration) *models.Product {
	t.Helper()
	p := &models.Product{
		SupplierID:  supplierID,
		Name:        "Organic Honey",
		Category:    "food",
		Price:       decimal.RequireFromString("12.50"),
		Ingredients: "honey",
		Status:      enums.ProductStatusSuccess,
		Message:     "Product registered successfully",
		CreatedAt:   baseTime.Add(offset),
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc
}

func TestListPaginatesNewestFirst(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	supplier := uuid.New()

	var seeded []*models.Product
	for i := 0; i < 5; i++ {
		seeded = append(seeded, seedProduct(t, conn, supplier, time.Duration(i)*time.Minute))
	}

	ctx := context.Background()
	first, err := svc.List(ctx, ListInput{Params: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, seeded[4].ID, first.Items[0].ID)
	assert.Equal(t, seeded[3].ID, first.Items[1].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(ctx, ListInput{Params: pagination.Params{Limit: 2, Cursor: first.NextCursor}})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, seeded[2].ID, second.Items[0].ID)

	third, err := svc.List(ctx, ListInput{Params: pagination.Params{Limit: 2, Cursor: second.NextCursor}})
	require.NoError(t, err)
	require.Len(t, third.Items, 1)
	assert.Equal(t, seeded[0].ID, third.Items[0].ID)
	assert.Empty(t, third.NextCursor)
}

func TestListFiltersBySupplier(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	mine, other := uuid.New(), uuid.New()
	seedProduct(t, conn, mine, 0)
	seedProduct(t, conn, other, time.Minute)

	page, err := svc.List(context.Background(), ListInput{SupplierID: &mine})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine, page.Items[0].SupplierID)
}

func TestListRejectsBadCursor(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	_, err := svc.List(context.Background(), ListInput{Params: pagination.Params{Cursor: "%%%"}})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestGetMissingProduct(t *testing.T) {
	svc := newTestService(t, openTestDB(t))
	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteAuthorization(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	owner := uuid.New()

	product := seedProduct(t, conn, owner, 0)
	require.NoError(t, conn.Create(&models.FlaggedProduct{ProductID: product.ID, SupplierID: owner, Reason: "flag"}).Error)

	err := svc.Delete(ctx, auth.Actor{UserID: uuid.New(), Role: enums.RoleSupplier}, product.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "other supplier")

	err = svc.Delete(ctx, auth.Actor{UserID: owner, Role: enums.RoleConsumer}, product.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden), "consumer")

	require.NoError(t, svc.Delete(ctx, auth.Actor{UserID: owner, Role: enums.RoleSupplier}, product.ID))

	var count int64
	require.NoError(t, conn.Model(&models.FlaggedProduct{}).Where("product_id = ?", product.ID).Count(&count).Error)
	assert.Zero(t, count, "review queue entry removed with the product")

	_, err = svc.Get(ctx, product.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestAdminCanDeleteAnyProduct(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	product := seedProduct(t, conn, uuid.New(), 0)

	require.NoError(t, svc.Delete(context.Background(), auth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}, product.ID))

	err := svc.Delete(context.Background(), auth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}, product.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestListFlagged(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	supplier := uuid.New()

	for i := 0; i < 3; i++ {
		p := seedProduct(t, conn, supplier, time.Duration(i)*time.Minute)
		require.NoError(t, conn.Create(&models.FlaggedProduct{
			ProductID:  p.ID,
			SupplierID: supplier,
			Reason:     "High confidence counterfeit",
			CreatedAt:  p.CreatedAt,
		}).Error)
	}

	page, err := svc.ListFlagged(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))
	assert.NotEmpty(t, page.NextCursor)
}

func TestUpdateLedgerOutcome(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	product := seedProduct(t, conn, uuid.New(), 0)

	txid := "ab12"
	require.NoError(t, repo.UpdateLedgerOutcome(context.Background(), product.ID, &txid, enums.ProductStatusSuccess, "Product registered successfully"))

	got, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LedgerTx)
	assert.Equal(t, txid, *got.LedgerTx)
}
