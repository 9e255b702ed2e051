package catalog

import (
	"context"
	"testing"

	"github.com/angelmondragon/bazary-backend/internal/appstate"
	"github.com/angelmondragon/bazary-backend/internal/kvstore"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, products ...models.Product) (Service, *appstate.Service) {
	t.Helper()
	state := appstate.New(kvstore.NewMemoryStore(), nil)
	require.NoError(t, state.AddProducts(context.Background(), products))
	svc, err := NewService(state)
	require.NoError(t, err)
	return svc, state
}

func product(id string, status enums.ProductStatus) models.Product {
	return models.Product{
		ID:       id,
		Title:    "Item " + id,
		Price:    decimal.NewFromInt(100000),
		Currency: "UZS",
		Category: enums.ProductCategoryClothing,
		Status:   status,
		Variants: []models.Variant{},
	}
}

func TestNewServiceRequiresState(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil state")
	}
}

func TestListFilters(t *testing.T) {
	archived := product("b", enums.ProductStatusArchived)
	archived.Title = "Winter coat"
	svc, _ := newTestService(t, product("a", enums.ProductStatusPublished), archived)

	assert.Len(t, svc.List(context.Background(), ListFilter{}), 2)
	got := svc.List(context.Background(), ListFilter{Status: enums.ProductStatusArchived})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
	assert.Len(t, svc.List(context.Background(), ListFilter{Query: "COAT"}), 1)
	assert.Empty(t, svc.List(context.Background(), ListFilter{Category: enums.ProductCategoryShoes}))
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    enums.ProductStatus
		action  func(Service, context.Context, string) (models.Product, error)
		want    enums.ProductStatus
		errCode pkgerrors.Code
	}{
		{name: "archive published", from: enums.ProductStatusPublished, action: Service.Archive, want: enums.ProductStatusArchived},
		{name: "publish draft", from: enums.ProductStatusDraft, action: Service.Publish, want: enums.ProductStatusPublished},
		{name: "restore archived", from: enums.ProductStatusArchived, action: Service.Publish, want: enums.ProductStatusPublished},
		{name: "archive draft", from: enums.ProductStatusDraft, action: Service.Archive, errCode: pkgerrors.CodeStateConflict},
		{name: "publish published", from: enums.ProductStatusPublished, action: Service.Publish, errCode: pkgerrors.CodeStateConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, state := newTestService(t, product("p", tc.from))
			got, err := tc.action(svc, context.Background(), "p")
			if tc.errCode != "" {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsCode(err, tc.errCode))
				stored, _ := state.Product("p")
				assert.Equal(t, tc.from, stored.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Status)
		})
	}
}

func TestUpdateAppliesFieldsAndValidates(t *testing.T) {
	svc, _ := newTestService(t, product("p", enums.ProductStatusPublished))
	ctx := context.Background()

	title := " Silk scarf "
	price := decimal.NewFromInt(120000)
	currency := "usd"
	variants := []models.Variant{{Name: " Size ", Options: []string{"S", " ", "M"}}}
	updated, err := svc.Update(ctx, "p", UpdateProductInput{
		Title:    &title,
		Price:    &price,
		Currency: &currency,
		Variants: &variants,
	})
	require.NoError(t, err)
	assert.Equal(t, "Silk scarf", updated.Title)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, "USD", updated.Currency)
	assert.Equal(t, []models.Variant{{Name: "Size", Options: []string{"S", "M"}}}, updated.Variants)

	negative := decimal.NewFromInt(-1)
	_, err = svc.Update(ctx, "p", UpdateProductInput{Price: &negative})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	draft := enums.ProductStatusDraft
	_, err = svc.Update(ctx, "p", UpdateProductInput{Status: &draft})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.Update(ctx, "missing", UpdateProductInput{Title: &title})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetAndDelete(t *testing.T) {
	svc, _ := newTestService(t, product("p", enums.ProductStatusPublished))
	ctx := context.Background()

	got, err := svc.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "p", got.ID)

	require.NoError(t, svc.Delete(ctx, "p"))
	_, err = svc.Get(ctx, "p")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestStatsSumsOrdersAndCountsVideo(t *testing.T) {
	store := kvstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, kvstore.KeyOrders, `[
		{"id":"o1","customerName":"A","customerPhone":"+998","items":[],"total":150000,"status":"new","createdAt":2},
		{"id":"o2","customerName":"B","customerPhone":"+998","items":[],"total":1100000.5,"status":"delivered","createdAt":1}
	]`))
	state := appstate.New(store, nil)
	require.NoError(t, state.Load(ctx))

	withVideo := product("v", enums.ProductStatusPublished)
	withVideo.VideoURL = "data:video/mp4;base64,AA=="
	require.NoError(t, state.AddProducts(ctx, []models.Product{withVideo, product("a", enums.ProductStatusArchived)}))

	svc, err := NewService(state)
	require.NoError(t, err)
	stats := svc.Stats(ctx)

	assert.Equal(t, 2, stats.Products)
	assert.Equal(t, 1, stats.Published)
	assert.Equal(t, 1, stats.Archived)
	assert.Equal(t, 1, stats.WithVideo)
	assert.Equal(t, 2, stats.Orders)
	assert.Equal(t, 1, stats.NewOrders)
	assert.True(t, stats.Revenue.Equal(decimal.RequireFromString("1250000.5")))
	assert.Equal(t, "1,250,000.5 UZS", stats.RevenueDisplay)
}
