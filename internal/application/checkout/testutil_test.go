package checkout

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingPublisher keeps published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type testEnv struct {
	db     *gorm.DB
	repos  Repositories
	uow    *persistence.GormUnitOfWork
	events *recordingPublisher

	buyer    *identity.User
	address  *identity.Address
	vendor   *catalog.Vendor
	category *catalog.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "checkout.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	db := database.DB
	env := &testEnv{
		db: db,
		repos: Repositories{
			Orders:    persistence.NewGormOrderRepository(db),
			Cart:      persistence.NewGormCartRepository(db),
			Products:  persistence.NewGormProductRepository(db),
			Variants:  persistence.NewGormVariantRepository(db),
			Addresses: persistence.NewGormAddressRepository(db),
		},
		uow:    persistence.NewGormUnitOfWork(db),
		events: &recordingPublisher{},
	}

	env.buyer, env.address = env.newBuyer(t)

	ctx := t.Context()
	env.vendor, err = catalog.NewVendor(env.buyer.ID, "Kigali Threads")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormVendorRepository(db).Create(ctx, env.vendor))

	env.category, err = catalog.NewCategory("Apparel", "")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCategoryRepository(db).Create(ctx, env.category))
	return env
}

func (e *testEnv) service(opts ...Option) *Service {
	opts = append([]Option{WithEventPublisher(e.events)}, opts...)
	return NewService(e.uow, e.repos, order.DefaultPricingPolicy(), Config{}, opts...)
}

func (e *testEnv) newBuyer(t *testing.T) (*identity.User, *identity.Address) {
	t.Helper()
	ctx := t.Context()
	user, err := identity.NewUser("buyer-"+uuid.NewString()[:8]+"@example.com", "Ada", "Buyer")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(e.db).Create(ctx, user))

	address := &identity.Address{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     user.ID,
		FullName:   user.FullName(),
		Line1:      "KN 5 Rd",
		City:       "Kigali",
		Country:    "RW",
	}
	require.NoError(t, persistence.NewGormAddressRepository(e.db).Create(ctx, address))
	return user, address
}

// product inserts an approved product priced at price
func (e *testEnv) product(t *testing.T, name string, price int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(e.vendor.ID, e.category.ID, name, "SKU-"+uuid.NewString()[:8], price)
	require.NoError(t, err)
	require.NoError(t, p.Approve())
	require.NoError(t, e.repos.Products.Create(t.Context(), p))
	return p
}

func (e *testEnv) variant(t *testing.T, p *catalog.Product, name string, price int64, stock int) *catalog.Variant {
	t.Helper()
	v, err := catalog.NewVariant(p.ID, name, "V-"+uuid.NewString()[:8], price, stock, nil)
	require.NoError(t, err)
	require.NoError(t, e.repos.Variants.Create(t.Context(), v))
	return v
}

func (e *testEnv) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	v, err := e.repos.Variants.FindByID(t.Context(), id)
	require.NoError(t, err)
	return v.Stock
}

func (e *testEnv) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Table("orders").Count(&n).Error)
	return n
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code, de.Error())
}
