package checkout

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Checkout(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	shirt := env.product(t, "Shirt", 10000)
	red := env.variant(t, shirt, "Red", 10000, 5)
	mug := env.product(t, "Mug", 3000)

	svc := env.service()
	_, err := svc.AddToCart(ctx, env.buyer.ID, AddToCartRequest{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, env.buyer.ID, AddToCartRequest{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)

	resp, err := svc.Checkout(ctx, env.buyer.ID, CheckoutRequest{
		AddressID:     env.address.ID,
		PaymentMethod: string(order.PaymentMethodMobileMoney),
		Items:         []CheckoutItemInput{{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.OrderNumber, "ORD-"), resp.OrderNumber)
	assert.Equal(t, int64(20000), resp.Subtotal)
	assert.Equal(t, int64(3600), resp.Tax)
	assert.Equal(t, int64(5000), resp.ShippingCost)
	assert.Equal(t, int64(28600), resp.Total)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "PENDING", resp.PaymentStatus)
	require.NotNil(t, resp.Address)
	assert.Equal(t, "Kigali", resp.Address.City)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Shirt", resp.Items[0].ProductName)
	assert.Equal(t, "Red", resp.Items[0].VariantName)
	assert.Equal(t, int64(10000), resp.Items[0].UnitPrice)

	assert.Equal(t, 3, env.stock(t, red.ID))

	cart, err := svc.ListCart(ctx, env.buyer.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1, "only the ordered product leaves the cart")
	assert.Equal(t, mug.ID, cart.Items[0].ProductID)

	assert.Equal(t, []string{order.EventTypeOrderPlaced}, env.events.types())
}

func TestService_Checkout_FreeShippingAboveThreshold(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.product(t, "Shirt", 10000)
	red := env.variant(t, shirt, "Red", 10000, 10)

	resp, err := env.service().Checkout(t.Context(), env.buyer.ID, CheckoutRequest{
		AddressID:     env.address.ID,
		PaymentMethod: "CARD",
		Items:         []CheckoutItemInput{{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 6}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(60000), resp.Subtotal)
	assert.Equal(t, int64(10800), resp.Tax)
	assert.Equal(t, int64(0), resp.ShippingCost)
	assert.Equal(t, int64(70800), resp.Total)
}

func TestService_Checkout_ProductWithoutVariantUsesBasePrice(t *testing.T) {
	env := newTestEnv(t)
	mug := env.product(t, "Mug", 2500)

	resp, err := env.service().Checkout(t.Context(), env.buyer.ID, CheckoutRequest{
		AddressID:     env.address.ID,
		PaymentMethod: "CASH_ON_DELIVERY",
		Items:         []CheckoutItemInput{{ProductID: mug.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Nil(t, resp.Items[0].VariantID)
	assert.Equal(t, int64(2500), resp.Items[0].UnitPrice)
	assert.Equal(t, int64(7500), resp.Subtotal)
}

func TestService_Checkout_InsufficientStockRollsBackEarlierLines(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.product(t, "Shirt", 10000)
	red := env.variant(t, shirt, "Red", 10000, 5)
	blue := env.variant(t, shirt, "Blue", 12000, 1)

	_, err := env.service().Checkout(t.Context(), env.buyer.ID, CheckoutRequest{
		AddressID:     env.address.ID,
		PaymentMethod: "CARD",
		Items: []CheckoutItemInput{
			{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 2},
			{ProductID: shirt.ID, VariantID: &blue.ID, Quantity: 2},
		},
	})

	requireCode(t, err, shared.CodeInsufficientStock)
	assert.Contains(t, err.Error(), "Blue")
	assert.Equal(t, 5, env.stock(t, red.ID))
	assert.Equal(t, 1, env.stock(t, blue.ID))
	assert.Equal(t, int64(0), env.orderCount(t))
	assert.Empty(t, env.events.types())
}

func TestService_Checkout_RejectsUnavailableItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	shirt := env.product(t, "Shirt", 10000)
	red := env.variant(t, shirt, "Red", 10000, 5)
	mug := env.product(t, "Mug", 3000)
	mugVariant := env.variant(t, mug, "Blue", 3000, 5)

	pending, err := catalog.NewProduct(env.vendor.ID, env.category.ID, "Pending Hat", "HAT-1", 5000)
	require.NoError(t, err)
	require.NoError(t, env.repos.Products.Create(ctx, pending))

	missing := uuid.New()
	tests := []struct {
		name string
		item CheckoutItemInput
		code string
	}{
		{"unapproved product", CheckoutItemInput{ProductID: pending.ID, Quantity: 1}, shared.CodeProductUnavailable},
		{"unknown product", CheckoutItemInput{ProductID: uuid.New(), Quantity: 1}, shared.CodeProductUnavailable},
		{"variant of another product", CheckoutItemInput{ProductID: shirt.ID, VariantID: &mugVariant.ID, Quantity: 1}, shared.CodeVariantUnavailable},
		{"unknown variant", CheckoutItemInput{ProductID: shirt.ID, VariantID: &missing, Quantity: 1}, shared.CodeVariantUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service().Checkout(ctx, env.buyer.ID, CheckoutRequest{
				AddressID:     env.address.ID,
				PaymentMethod: "CARD",
				Items: []CheckoutItemInput{
					{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 1},
					tt.item,
				},
			})
			requireCode(t, err, tt.code)
			assert.Equal(t, 5, env.stock(t, red.ID))
		})
	}
	assert.Equal(t, int64(0), env.orderCount(t))
}

func TestService_Checkout_AddressOfAnotherUser(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.product(t, "Shirt", 10000)
	_, strangersAddress := env.newBuyer(t)

	_, err := env.service().Checkout(t.Context(), env.buyer.ID, CheckoutRequest{
		AddressID:     strangersAddress.ID,
		PaymentMethod: "CARD",
		Items:         []CheckoutItemInput{{ProductID: shirt.ID, Quantity: 1}},
	})
	requireCode(t, err, shared.CodeNotFound)
}

func TestService_Checkout_Validation(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.product(t, "Shirt", 10000)
	svc := env.service()

	_, err := svc.Checkout(t.Context(), env.buyer.ID, CheckoutRequest{AddressID: env.address.ID, PaymentMethod: "BARTER",
		Items: []CheckoutItemInput{{ProductID: shirt.ID, Quantity: 1}}})
	requireCode(t, err, shared.CodeValidation)

	_, err = svc.Checkout(t.Context(), env.buyer.ID, CheckoutRequest{AddressID: env.address.ID, PaymentMethod: "CARD"})
	requireCode(t, err, shared.CodeValidation)

	_, err = svc.Checkout(t.Context(), env.buyer.ID, CheckoutRequest{AddressID: env.address.ID, PaymentMethod: "CARD",
		Items: []CheckoutItemInput{{ProductID: shirt.ID, Quantity: 0}}})
	requireCode(t, err, shared.CodeValidation)
}

// sequence hands out the given order numbers, then random ones
func sequence(numbers ...string) order.NumberGenerator {
	var mu sync.Mutex
	return func(now time.Time) string {
		mu.Lock()
		defer mu.Unlock()
		if len(numbers) == 0 {
			return order.NewOrderNumber(now)
		}
		n := numbers[0]
		numbers = numbers[1:]
		return n
	}
}

func TestService_Checkout_RetriesTakenOrderNumber(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.product(t, "Shirt", 10000)
	red := env.variant(t, shirt, "Red", 10000, 10)
	req := CheckoutRequest{
		AddressID:     env.address.ID,
		PaymentMethod: "CARD",
		Items:         []CheckoutItemInput{{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 1}},
	}

	first, err := env.service(WithNumberGenerator(sequence("ORD-20260101-AAAAAAAAAA"))).Checkout(t.Context(), env.buyer.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260101-AAAAAAAAAA", first.OrderNumber)

	second, err := env.service(WithNumberGenerator(sequence("ORD-20260101-AAAAAAAAAA", "ORD-20260101-BBBBBBBBBB"))).
		Checkout(t.Context(), env.buyer.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260101-BBBBBBBBBB", second.OrderNumber)
	assert.Equal(t, 8, env.stock(t, red.ID))
}

func TestService_Checkout_GivesUpAfterTooManyTakenNumbers(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.product(t, "Shirt", 10000)
	red := env.variant(t, shirt, "Red", 10000, 10)
	req := CheckoutRequest{
		AddressID:     env.address.ID,
		PaymentMethod: "CARD",
		Items:         []CheckoutItemInput{{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 1}},
	}
	const taken = "ORD-20260101-CCCCCCCCCC"
	always := func(time.Time) string { return taken }

	_, err := env.service(WithNumberGenerator(always)).Checkout(t.Context(), env.buyer.ID, req)
	require.NoError(t, err)

	_, err = env.service(WithNumberGenerator(always)).Checkout(t.Context(), env.buyer.ID, req)
	requireCode(t, err, shared.CodeAlreadyExists)
	assert.Equal(t, 9, env.stock(t, red.ID))
	assert.Equal(t, int64(1), env.orderCount(t))
}

func TestService_Checkout_IdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.product(t, "Shirt", 10000)
	red := env.variant(t, shirt, "Red", 10000, 1)
	store := cache.NewInMemoryIdempotencyStore(0)
	t.Cleanup(func() { _ = store.Close() })
	svc := env.service(WithIdempotencyStore(store))

	tooMany := CheckoutRequest{
		AddressID:      env.address.ID,
		PaymentMethod:  "CARD",
		Items:          []CheckoutItemInput{{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 2}},
		IdempotencyKey: "key-1",
	}
	_, err := svc.Checkout(t.Context(), env.buyer.ID, tooMany)
	requireCode(t, err, shared.CodeInsufficientStock)

	// the failed attempt released the key
	ok := tooMany
	ok.Items = []CheckoutItemInput{{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 1}}
	_, err = svc.Checkout(t.Context(), env.buyer.ID, ok)
	require.NoError(t, err)

	_, err = svc.Checkout(t.Context(), env.buyer.ID, ok)
	requireCode(t, err, shared.CodeDuplicateRequest)
	assert.Equal(t, int64(1), env.orderCount(t))

	// keys are scoped per user
	other, otherAddress := env.newBuyer(t)
	_, err = svc.Checkout(t.Context(), other.ID, CheckoutRequest{
		AddressID:      otherAddress.ID,
		PaymentMethod:  "CARD",
		Items:          []CheckoutItemInput{{ProductID: shirt.ID, Quantity: 1}},
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
}

func TestService_Checkout_ConcurrentBuyersNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.product(t, "Shirt", 10000)
	red := env.variant(t, shirt, "Red", 10000, 5)
	svc := env.service()

	const buyers = 4
	errs := make([]error, buyers)
	var wg sync.WaitGroup
	for i := range buyers {
		user, addr := env.newBuyer(t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Checkout(t.Context(), user.ID, CheckoutRequest{
				AddressID:     addr.ID,
				PaymentMethod: "CARD",
				Items:         []CheckoutItemInput{{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 2}},
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireCode(t, err, shared.CodeInsufficientStock)
	}
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, env.stock(t, red.ID))
}

func TestService_Cancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	shirt := env.product(t, "Shirt", 10000)
	red := env.variant(t, shirt, "Red", 10000, 5)
	mug := env.product(t, "Mug", 3000)
	svc := env.service()

	placed, err := svc.Checkout(ctx, env.buyer.ID, CheckoutRequest{
		AddressID:     env.address.ID,
		PaymentMethod: "CARD",
		Items: []CheckoutItemInput{
			{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 3},
			{ProductID: mug.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, env.stock(t, red.ID))

	cancelled, err := svc.Cancel(ctx, env.buyer.ID, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "PENDING", cancelled.PaymentStatus)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 5, env.stock(t, red.ID))

	_, err = svc.Cancel(ctx, env.buyer.ID, placed.ID)
	requireCode(t, err, shared.CodeInvalidState)
	assert.Equal(t, 5, env.stock(t, red.ID), "stock is restored only once")

	assert.Equal(t, []string{order.EventTypeOrderPlaced, order.EventTypeOrderCancelled}, env.events.types())
}

func TestService_Cancel_PaidOrderIsRefunded(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	shirt := env.product(t, "Shirt", 10000)
	red := env.variant(t, shirt, "Red", 10000, 5)
	svc := env.service()

	placed, err := svc.Checkout(ctx, env.buyer.ID, CheckoutRequest{
		AddressID:     env.address.ID,
		PaymentMethod: "CARD",
		Items:         []CheckoutItemInput{{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.NoError(t, env.db.Table("orders").Where("id = ?", placed.ID).Updates(map[string]any{
		"status":         order.StatusConfirmed,
		"payment_status": order.PaymentStatusCompleted,
	}).Error)

	cancelled, err := svc.Cancel(ctx, env.buyer.ID, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "REFUNDED", cancelled.PaymentStatus)
	assert.Equal(t, 5, env.stock(t, red.ID))

	var stored string
	require.NoError(t, env.db.Table("orders").Where("id = ?", placed.ID).Pluck("payment_status", &stored).Error)
	assert.Equal(t, string(order.PaymentStatusRefunded), stored)

	last := env.events.events[len(env.events.events)-1]
	event, ok := last.(*order.OrderCancelledEvent)
	require.True(t, ok)
	assert.Equal(t, placed.Total, event.RefundAmount)
	assert.Equal(t, placed.Currency, event.Currency)
}

func TestService_Cancel_DeliveredOrder(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.product(t, "Shirt", 10000)
	red := env.variant(t, shirt, "Red", 10000, 5)
	svc := env.service()

	placed, err := svc.Checkout(t.Context(), env.buyer.ID, CheckoutRequest{
		AddressID:     env.address.ID,
		PaymentMethod: "CARD",
		Items:         []CheckoutItemInput{{ProductID: shirt.ID, VariantID: &red.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, env.db.Table("orders").Where("id = ?", placed.ID).Update("status", order.StatusDelivered).Error)

	_, err = svc.Cancel(t.Context(), env.buyer.ID, placed.ID)
	requireCode(t, err, shared.CodeInvalidState)
	assert.Equal(t, 4, env.stock(t, red.ID))
}

func TestService_Cancel_OtherUsersOrder(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.product(t, "Shirt", 10000)
	svc := env.service()

	placed, err := svc.Checkout(t.Context(), env.buyer.ID, CheckoutRequest{
		AddressID:     env.address.ID,
		PaymentMethod: "CARD",
		Items:         []CheckoutItemInput{{ProductID: shirt.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	stranger, _ := env.newBuyer(t)
	_, err = svc.Cancel(t.Context(), stranger.ID, placed.ID)
	requireCode(t, err, shared.CodeNotFound)
}

func TestService_GetAndListOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	shirt := env.product(t, "Shirt", 10000)
	svc := env.service()

	var ids []uuid.UUID
	for range 3 {
		resp, err := svc.Checkout(ctx, env.buyer.ID, CheckoutRequest{
			AddressID:     env.address.ID,
			PaymentMethod: "CARD",
			Items:         []CheckoutItemInput{{ProductID: shirt.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}
	_, err := svc.Cancel(ctx, env.buyer.ID, ids[0])
	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, env.buyer.ID, ids[1])
	require.NoError(t, err)
	assert.Equal(t, ids[1], got.ID)
	require.NotNil(t, got.Address)

	stranger, _ := env.newBuyer(t)
	_, err = svc.GetOrder(ctx, stranger.ID, ids[1])
	requireCode(t, err, shared.CodeNotFound)

	page, err := svc.ListOrders(ctx, env.buyer.ID, ListOrdersQuery{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 2)

	cancelled, err := svc.ListOrders(ctx, env.buyer.ID, ListOrdersQuery{Status: "CANCELLED"})
	require.NoError(t, err)
	require.Len(t, cancelled.Items, 1)
	assert.Equal(t, ids[0], cancelled.Items[0].ID)
}
