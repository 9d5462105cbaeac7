package persistence

import (
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, f catalogFixture, qty int, number string) *order.Order {
	t.Helper()
	item, err := order.NewItem(f.product.ID, &f.variant.ID, f.product.Name, f.variant.Name, f.variant.SKU, qty, f.variant.Price)
	require.NoError(t, err)
	o, err := order.NewOrder(f.user.ID, f.address.ID, order.PaymentMethodCard, []order.Item{*item}, order.DefaultPricingPolicy(), "")
	require.NoError(t, err)
	o.AssignNumber(number)
	return o
}

func TestCatalogRepositories(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	f := seedCatalog(t, db, 5)

	t.Run("product lookups", func(t *testing.T) {
		repo := NewGormProductRepository(db)

		got, err := repo.FindByID(ctx, f.product.ID)
		require.NoError(t, err)
		assert.Equal(t, f.product.Name, got.Name)
		assert.Equal(t, catalog.ApprovalStatusApproved, got.Status)
		assert.True(t, got.IsPurchasable())

		exists, err := repo.ExistsByName(ctx, f.product.Name)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByName(ctx, "nothing like this")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("duplicate product sku is ALREADY_EXISTS", func(t *testing.T) {
		dup, err := catalog.NewProduct(f.vendor.ID, f.category.ID, "Other name", f.product.SKU, 500)
		require.NoError(t, err)
		err = NewGormProductRepository(db).Create(ctx, dup)
		assert.True(t, shared.IsAlreadyExists(err))
	})

	t.Run("variant attributes survive a round trip", func(t *testing.T) {
		got, err := NewGormVariantRepository(db).FindByID(ctx, f.variant.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"Color": "Red"}, got.Attributes)
		assert.Equal(t, 5, got.Stock)

		list, err := NewGormVariantRepository(db).FindByProduct(ctx, f.product.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("category and vendor lookups ignore case", func(t *testing.T) {
		cat, err := NewGormCategoryRepository(db).FindByName(ctx, strings.ToUpper(f.category.Name))
		require.NoError(t, err)
		assert.Equal(t, f.category.ID, cat.ID)

		v, err := NewGormVendorRepository(db).FindByBusinessName(ctx, strings.ToLower(f.vendor.BusinessName))
		require.NoError(t, err)
		assert.Equal(t, f.vendor.ID, v.ID)
		assert.True(t, catalog.DefaultCommissionRate.Equal(v.CommissionRate))

		byUser, err := NewGormVendorRepository(db).FindByUserID(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, f.vendor.ID, byUser.ID)
	})

	t.Run("images come back by position", func(t *testing.T) {
		repo := NewGormImageRepository(db)
		second, err := catalog.NewImage(f.product.ID, "https://cdn.example.com/b.jpg", "", 2)
		require.NoError(t, err)
		first, err := catalog.NewImage(f.product.ID, "https://cdn.example.com/a.jpg", "", 1)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, second))
		require.NoError(t, repo.Create(ctx, first))

		images, err := repo.FindByProduct(ctx, f.product.ID)
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, "https://cdn.example.com/a.jpg", images[0].URL)
	})
}

func TestVariantStock(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	f := seedCatalog(t, db, 5)
	repo := NewGormVariantRepository(db)

	ok, err := repo.DecrementStock(ctx, f.variant.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, f.variant.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok, "only 2 left")

	ok, err = repo.DecrementStock(ctx, f.variant.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByID(ctx, f.variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	require.NoError(t, repo.IncrementStock(ctx, f.variant.ID, 4))
	got, err = repo.FindByID(ctx, f.variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)

	err = repo.IncrementStock(ctx, uuid.New(), 1)
	assert.True(t, shared.IsNotFound(err))
}

func TestVariantDecrementStock_IssuesConditionalUpdate(t *testing.T) {
	db, mock, _ := newPostgresMock(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "product_variants" SET "stock"=stock - \$1.* WHERE id = \$\d AND stock >= \$\d`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := NewGormVariantRepository(db).DecrementStock(t.Context(), id, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	f := seedCatalog(t, db, 10)
	repo := NewGormOrderRepository(db)

	o := newTestOrder(t, f, 2, "ORD-20260101-AAAAAAAAAA")
	require.NoError(t, repo.Create(ctx, o))

	t.Run("find loads items", func(t *testing.T) {
		got, err := repo.FindByIDForUser(ctx, o.ID, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, o.OrderNumber, got.OrderNumber)
		assert.Equal(t, int64(20000), got.Subtotal)
		assert.Equal(t, int64(3600), got.Tax)
		assert.Equal(t, int64(5000), got.ShippingCost)
		assert.Equal(t, int64(28600), got.Total)
		require.Len(t, got.Items, 1)
		assert.Equal(t, f.variant.SKU, got.Items[0].SKU)
	})

	t.Run("other users cannot see the order", func(t *testing.T) {
		_, err := repo.FindByIDForUser(ctx, o.ID, uuid.New())
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("duplicate order number is ALREADY_EXISTS", func(t *testing.T) {
		dup := newTestOrder(t, f, 1, o.OrderNumber)
		err := repo.Create(ctx, dup)
		assert.True(t, shared.IsAlreadyExists(err))
	})

	t.Run("list pages by newest first", func(t *testing.T) {
		second := newTestOrder(t, f, 1, "ORD-20260101-BBBBBBBBBB")
		second.CreatedAt = o.CreatedAt.Add(time.Second)
		require.NoError(t, repo.Create(ctx, second))

		page, total, err := repo.ListByUser(ctx, f.user.ID, shared.Filter{Page: 1, PageSize: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, page, 1)
		assert.Equal(t, second.OrderNumber, page[0].OrderNumber)
		assert.Len(t, page[0].Items, 1)

		_, total, err = repo.ListByUser(ctx, f.user.ID, shared.Filter{Filters: map[string]any{"status": "CANCELLED"}})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("transition is conditional on the current status", func(t *testing.T) {
		changed, err := repo.TransitionStatus(ctx, o.ID, order.CancellableStatuses, order.StatusCancelled)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = repo.TransitionStatus(ctx, o.ID, order.CancellableStatuses, order.StatusCancelled)
		require.NoError(t, err)
		assert.False(t, changed, "already cancelled")

		got, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, got.Status)
		assert.NotNil(t, got.CancelledAt)
	})

	t.Run("mark paid refuses a cancelled order", func(t *testing.T) {
		got, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		got.PaymentStatus = order.PaymentStatusCompleted
		err = repo.MarkPaid(ctx, got)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("mark paid confirms a pending order", func(t *testing.T) {
		fresh := newTestOrder(t, f, 1, "ORD-20260101-CCCCCCCCCC")
		require.NoError(t, repo.Create(ctx, fresh))
		require.NoError(t, fresh.MarkPaid("flw-123"))
		require.NoError(t, repo.MarkPaid(ctx, fresh))

		got, err := repo.FindByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, order.PaymentStatusCompleted, got.PaymentStatus)
		assert.Equal(t, order.StatusConfirmed, got.Status)
		assert.Equal(t, "flw-123", got.PaymentRef)

		assert.ErrorIs(t, repo.MarkPaid(ctx, fresh), shared.ErrInvalidState)

		changed, err := repo.MarkRefunded(ctx, fresh.ID)
		require.NoError(t, err)
		assert.True(t, changed)
		changed, err = repo.MarkRefunded(ctx, fresh.ID)
		require.NoError(t, err)
		assert.False(t, changed, "already refunded")

		got, err = repo.FindByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, order.PaymentStatusRefunded, got.PaymentStatus)
	})

	t.Run("mark refunded ignores unpaid orders", func(t *testing.T) {
		changed, err := repo.MarkRefunded(ctx, o.ID)
		require.NoError(t, err)
		assert.False(t, changed)
	})
}

func TestCartRepository(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	f := seedCatalog(t, db, 10)
	other := seedCatalog(t, db, 10)
	repo := NewGormCartRepository(db)

	withVariant, err := order.NewCartItem(f.user.ID, f.product.ID, &f.variant.ID, 1)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, withVariant))

	plain, err := order.NewCartItem(f.user.ID, other.product.ID, nil, 2)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, plain))

	line, err := repo.FindLine(ctx, f.user.ID, other.product.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, plain.ID, line.ID)

	line, err = repo.FindLine(ctx, f.user.ID, f.product.ID, &f.variant.ID)
	require.NoError(t, err)
	require.NoError(t, line.AddQuantity(2))
	require.NoError(t, repo.Save(ctx, line))

	items, err := repo.FindByUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)

	_, err = repo.FindLine(ctx, f.user.ID, f.product.ID, nil)
	assert.True(t, shared.IsNotFound(err))

	assert.True(t, shared.IsNotFound(repo.Delete(ctx, plain.ID, uuid.New())))

	removed, err := repo.DeleteByUserAndProducts(ctx, f.user.ID, []uuid.UUID{f.product.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.DeleteByUserAndProducts(ctx, f.user.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, removed)

	require.NoError(t, repo.Delete(ctx, plain.ID, f.user.ID))
	items, err = repo.FindByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPaymentRepository(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := t.Context()
	f := seedCatalog(t, db, 10)
	o := newTestOrder(t, f, 1, "ORD-20260101-DDDDDDDDDD")
	require.NoError(t, NewGormOrderRepository(db).Create(ctx, o))
	repo := NewGormPaymentRepository(db)

	p, err := payment.NewPayment(o.ID, o.Total, "rwf", "flutterwave", "tx-1", map[string]any{"link": "https://pay.example.com/x"})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.FindByOrderAndRef(ctx, o.ID, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, got.Status)
	assert.Equal(t, "RWF", got.Currency)
	assert.Equal(t, "https://pay.example.com/x", got.GatewayData["link"])

	_, err = repo.FindByOrderAndRef(ctx, uuid.New(), "tx-1")
	assert.True(t, shared.IsNotFound(err))

	got.Fail("card declined", map[string]any{"status": "failed"})
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.FindByOrderAndRef(ctx, o.ID, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, again.Status)
	assert.Equal(t, "card declined", again.FailureReason)
	assert.Equal(t, "failed", again.GatewayData["status"])
}
