package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/order-fulfillment-engine/internal/config"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/ledger"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/models"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/repository"
)

func testCatalog(t *testing.T) *repository.CatalogRepo {
	t.Helper()
	repo, err := repository.NewCatalogRepo([]models.Product{
		{ID: "CBG9876", Name: "Canvas Beach Bag", Category: models.CategoryBags, Season: models.SeasonSummer, UnitPrice: decimal.NewFromInt(24), Stock: 5},
		{ID: "KMN3210", Name: "Knit Mini Skirt", Category: models.CategoryWomensWear, Season: models.SeasonSpring, UnitPrice: decimal.NewFromInt(53), Stock: 1},
		{ID: "SKT4567", Name: "Swing Skirt", Category: models.CategoryWomensWear, Season: models.SeasonSpring, UnitPrice: decimal.NewFromInt(49), Stock: 4},
		{ID: "BMX5432", Name: "Beanie Max", Category: models.CategoryAccessories, Season: models.SeasonWinter, UnitPrice: decimal.RequireFromString("19.5"), Stock: 3},
		{ID: "CHN0987", Name: "Chunky Scarf", Category: models.CategoryAccessories, Season: models.SeasonWinter, UnitPrice: decimal.NewFromInt(22), Stock: 8},
	})
	require.NoError(t, err)
	return repo
}

func newService(t *testing.T, specs []models.PromotionSpec) (*OrderService, *ledger.StockLedger) {
	t.Helper()
	catalog := testCatalog(t)
	stock := ledger.FromCatalog(catalog.All())
	return NewOrderService(catalog, stock, specs, config.Default()), stock
}

func reqLine(id string, qty int) models.RequestedLine {
	return models.RequestedLine{ProductID: id, Quantity: qty}
}

func TestProcessOrderFulfillsAndDecrementsOnce(t *testing.T) {
	svc, stock := newService(t, nil)

	order, err := svc.ProcessOrder(context.Background(), "email-1", []models.RequestedLine{reqLine("CBG9876", 2)})
	require.NoError(t, err)

	require.Len(t, order.Lines, 1)
	l := order.Lines[0]
	assert.Equal(t, models.LineCreated, l.Status)
	assert.Equal(t, 2, l.Fulfilled)
	assert.Empty(t, l.Alternatives)
	assert.True(t, l.LineTotal.Equal(decimal.NewFromInt(48)))

	assert.Equal(t, models.OrderFulfilled, order.Status)
	assert.True(t, order.GrandTotal.Equal(decimal.NewFromInt(48)))
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "email-1", order.EmailID)

	_, remaining := stock.Check("CBG9876", 1)
	assert.Equal(t, 3, remaining)
}

// One in stock, two requested: partially fulfilled with alternatives, and
// the single unit is reserved.
func TestProcessOrderPartialFulfillment(t *testing.T) {
	svc, stock := newService(t, nil)

	order, err := svc.ProcessOrder(context.Background(), "email-2", []models.RequestedLine{reqLine("KMN3210", 2)})
	require.NoError(t, err)

	require.Len(t, order.Lines, 1)
	l := order.Lines[0]
	assert.Equal(t, models.LinePartiallyFulfilled, l.Status)
	assert.Equal(t, 1, l.Fulfilled)
	assert.Equal(t, 2, l.Requested)
	assert.NotEmpty(t, l.Alternatives)
	// Same category + season ranks first.
	assert.Equal(t, "SKT4567", l.Alternatives[0])

	assert.Equal(t, models.OrderPartiallyFulfilled, order.Status)
	assert.True(t, order.GrandTotal.Equal(decimal.NewFromInt(53)))

	_, remaining := stock.Check("KMN3210", 1)
	assert.Equal(t, 0, remaining)
}

func TestProcessOrderOutOfStock(t *testing.T) {
	svc, stock := newService(t, nil)
	granted, err := stock.Reserve("KMN3210", 1)
	require.NoError(t, err)
	require.Equal(t, 1, granted)

	order, err := svc.ProcessOrder(context.Background(), "email-3", []models.RequestedLine{reqLine("KMN3210", 1)})
	require.NoError(t, err)

	l := order.Lines[0]
	assert.Equal(t, models.LineOutOfStock, l.Status)
	assert.Equal(t, 0, l.Fulfilled)
	assert.NotEmpty(t, l.Alternatives)
	assert.True(t, l.LineTotal.IsZero())
	assert.Equal(t, models.OrderUnfulfilled, order.Status)
	assert.True(t, order.GrandTotal.IsZero())
}

// A free-item spec synthesizes a second, zero-price line in the order.
func TestProcessOrderGrantsFreeItemLine(t *testing.T) {
	specs := []models.PromotionSpec{{
		Name:      "beanie-gift",
		Condition: models.PromotionCondition{ProductIDs: []string{"BMX5432"}, MinQuantity: 1},
		Effect:    models.FreeItemsEffect{Count: 1, ItemID: "CHN0987"},
	}}
	svc, _ := newService(t, specs)

	order, err := svc.ProcessOrder(context.Background(), "email-4", []models.RequestedLine{reqLine("BMX5432", 1)})
	require.NoError(t, err)

	require.Len(t, order.Lines, 2)
	assert.Equal(t, "BMX5432", order.Lines[0].ProductID)
	assert.True(t, order.Lines[0].LineTotal.Equal(decimal.RequireFromString("19.5")))

	gift := order.Lines[1]
	assert.Equal(t, "CHN0987", gift.ProductID)
	assert.Equal(t, 1, gift.Fulfilled)
	assert.True(t, gift.UnitPrice.IsZero())
	assert.True(t, gift.LineTotal.IsZero())

	// A synthesized gift does not change the fulfillment status.
	assert.Equal(t, models.OrderFulfilled, order.Status)
	assert.True(t, order.GrandTotal.Equal(decimal.RequireFromString("19.5")))
}

// An unknown product id fails only its own line.
func TestProcessOrderIsolatesCatalogMisses(t *testing.T) {
	svc, _ := newService(t, nil)

	order, err := svc.ProcessOrder(context.Background(), "email-5", []models.RequestedLine{
		reqLine("ZZZ0000", 1),
		reqLine("CBG9876", 1),
	})
	require.NoError(t, err)

	require.Len(t, order.Rejected, 1)
	assert.Equal(t, "ZZZ0000", order.Rejected[0].ProductID)

	require.Len(t, order.Lines, 1)
	assert.Equal(t, "CBG9876", order.Lines[0].ProductID)
	assert.Equal(t, models.LineCreated, order.Lines[0].Status)
	assert.Equal(t, models.OrderPartiallyFulfilled, order.Status)
}

func TestProcessOrderRejectsInvalidInput(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	_, err := svc.ProcessOrder(ctx, "email-6", nil)
	assert.ErrorIs(t, err, ErrNoLines)

	_, err = svc.ProcessOrder(ctx, "email-6", []models.RequestedLine{reqLine("CBG9876", 0)})
	assert.ErrorIs(t, err, ErrBadQuantity)

	_, err = svc.ProcessOrder(ctx, "email-6", []models.RequestedLine{
		reqLine("CBG9876", 1),
		reqLine("CBG9876", 2),
	})
	assert.ErrorIs(t, err, ErrDuplicateLine)
}

// Grand total always equals the sum of line totals, and the discount
// bookkeeping is consistent with the subtotal.
func TestProcessOrderTotalsAddUp(t *testing.T) {
	specs := []models.PromotionSpec{{
		Name:      "bogo-half",
		Condition: models.PromotionCondition{ProductIDs: []string{"CBG9876"}, MinQuantity: 2},
		Effect: models.DiscountEffect{
			Kind:    models.DiscountPercentage,
			Amount:  decimal.NewFromInt(50),
			ApplyTo: models.ApplySecondItem,
		},
	}}
	svc, _ := newService(t, specs)

	order, err := svc.ProcessOrder(context.Background(), "email-7", []models.RequestedLine{
		reqLine("CBG9876", 2),
		reqLine("BMX5432", 1),
		reqLine("KMN3210", 2),
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, l := range order.Lines {
		assert.False(t, l.LineTotal.IsNegative())
		assert.LessOrEqual(t, l.Fulfilled, l.Requested)
		sum = sum.Add(l.LineTotal)
	}
	assert.True(t, order.GrandTotal.Equal(sum), "grand total %s != line sum %s", order.GrandTotal, sum)
	assert.True(t, order.GrandTotal.Equal(order.Subtotal.Sub(order.TotalDiscount)))
	// 24 + 12 for the bags line under the second-item promotion.
	assert.True(t, order.TotalDiscount.Equal(decimal.NewFromInt(12)))
	assert.False(t, order.Degraded)
}

func TestProcessOrderAlternativesExcludeRequestedProducts(t *testing.T) {
	svc, stock := newService(t, nil)
	// Drain the skirt that would otherwise be the top suggestion.
	granted, err := stock.Reserve("KMN3210", 1)
	require.NoError(t, err)
	require.Equal(t, 1, granted)

	order, err := svc.ProcessOrder(context.Background(), "email-8", []models.RequestedLine{
		reqLine("KMN3210", 1),
		reqLine("SKT4567", 1),
	})
	require.NoError(t, err)

	require.Len(t, order.Lines, 2)
	oos := order.Lines[0]
	require.Equal(t, models.LineOutOfStock, oos.Status)
	assert.NotContains(t, oos.Alternatives, "KMN3210")
	assert.NotContains(t, oos.Alternatives, "SKT4567")
}

// cancellingCatalog cancels the request context on the first lookup, so
// the build aborts after one line has already reserved stock.
type cancellingCatalog struct {
	inner  Catalog
	cancel context.CancelFunc
}

func (c cancellingCatalog) Get(id string) (models.Product, error) {
	c.cancel()
	return c.inner.Get(id)
}

func (c cancellingCatalog) All() []models.Product { return c.inner.All() }

// An order abandoned mid-build must hand back the stock its finished
// lines reserved.
func TestProcessOrderReleasesStockWhenBuildAborts(t *testing.T) {
	catalog := testCatalog(t)
	stock := ledger.FromCatalog(catalog.All())
	cfg := config.Default()
	cfg.MaxLineWorkers = 1
	svc := NewOrderService(catalog, stock, nil, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.catalog = cancellingCatalog{inner: catalog, cancel: cancel}

	_, err := svc.ProcessOrder(ctx, "email-10", []models.RequestedLine{
		reqLine("CBG9876", 2),
		reqLine("KMN3210", 1),
	})
	require.Error(t, err)

	// The first line reserved two bags before the cancellation was
	// observed; the abort must return them.
	_, bags := stock.Check("CBG9876", 1)
	_, skirts := stock.Check("KMN3210", 1)
	assert.Equal(t, 5, bags)
	assert.Equal(t, 1, skirts)
}

func TestProcessOrderAllLinesRejectedIsUnfulfilled(t *testing.T) {
	svc, _ := newService(t, nil)

	order, err := svc.ProcessOrder(context.Background(), "email-9", []models.RequestedLine{
		reqLine("ZZZ0000", 1),
		reqLine("YYY0000", 2),
	})
	require.NoError(t, err)
	assert.Empty(t, order.Lines)
	assert.Len(t, order.Rejected, 2)
	assert.Equal(t, models.OrderUnfulfilled, order.Status)
	assert.True(t, order.GrandTotal.IsZero())
}
