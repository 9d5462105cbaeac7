package paymentapp

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/application/checkout"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGateway is a mock implementation of payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string {
	return "mock"
}

func (m *MockGateway) Initialize(ctx context.Context, req payment.InitializeRequest) (*payment.InitializeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.InitializeResult), args.Error(1)
}

func (m *MockGateway) Verify(ctx context.Context, transactionRef string) (*payment.VerifyResult, error) {
	args := m.Called(ctx, transactionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.VerifyResult), args.Error(1)
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range events {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

type testEnv struct {
	repos    Repositories
	uow      *persistence.GormUnitOfWork
	checkout *checkout.Service
	gateway  *MockGateway
	events   *recordingPublisher
	buyer    *identity.User
	order    *checkout.OrderResponse
}

// newTestEnv places a 20000 RWF order (tax 3600, shipping 5000) for a fresh buyer
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := t.Context()
	database, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "payment.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	db := database.DB

	users := persistence.NewGormUserRepository(db)
	buyer, err := identity.NewUser("payer@example.com", "Grace", "Payer")
	require.NoError(t, err)
	buyer.Phone = "+250780000000"
	require.NoError(t, users.Create(ctx, buyer))

	address := &identity.Address{BaseEntity: shared.NewBaseEntity(), UserID: buyer.ID, FullName: "Grace Payer", Line1: "KG 7 Ave", City: "Kigali", Country: "RW"}
	addresses := persistence.NewGormAddressRepository(db)
	require.NoError(t, addresses.Create(ctx, address))

	vendor, err := catalog.NewVendor(buyer.ID, "Nyamirambo Crafts")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormVendorRepository(db).Create(ctx, vendor))
	category, err := catalog.NewCategory("Home", "")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCategoryRepository(db).Create(ctx, category))

	products := persistence.NewGormProductRepository(db)
	variants := persistence.NewGormVariantRepository(db)
	basket, err := catalog.NewProduct(vendor.ID, category.ID, "Basket", "BASKET", 10000)
	require.NoError(t, err)
	require.NoError(t, basket.Approve())
	require.NoError(t, products.Create(ctx, basket))
	large, err := catalog.NewVariant(basket.ID, "Large", "BASKET-L", 10000, 10, nil)
	require.NoError(t, err)
	require.NoError(t, variants.Create(ctx, large))

	uow := persistence.NewGormUnitOfWork(db)
	orders := persistence.NewGormOrderRepository(db)
	checkoutSvc := checkout.NewService(uow, checkout.Repositories{
		Orders:    orders,
		Cart:      persistence.NewGormCartRepository(db),
		Products:  products,
		Variants:  variants,
		Addresses: addresses,
	}, order.DefaultPricingPolicy(), checkout.Config{})

	placed, err := checkoutSvc.Checkout(ctx, buyer.ID, checkout.CheckoutRequest{
		AddressID:     address.ID,
		PaymentMethod: string(order.PaymentMethodCard),
		Items:         []checkout.CheckoutItemInput{{ProductID: basket.ID, VariantID: &large.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(28600), placed.Total)

	return &testEnv{
		repos: Repositories{
			Orders:   orders,
			Payments: persistence.NewGormPaymentRepository(db),
			Users:    users,
		},
		uow:      uow,
		checkout: checkoutSvc,
		gateway:  new(MockGateway),
		events:   &recordingPublisher{},
		buyer:    buyer,
		order:    placed,
	}
}

func (e *testEnv) service() *Service {
	return NewService(e.uow, e.repos, e.gateway, e.events, "https://shop.example.com/payment/callback")
}

// initialize starts a payment whose gateway reference is ref
func (e *testEnv) initialize(t *testing.T, ref string) *InitializeResponse {
	t.Helper()
	e.gateway.On("Initialize", mock.Anything, mock.Anything).Return(&payment.InitializeResult{
		TransactionRef: ref,
		RedirectURL:    "https://pay.example.com/" + ref,
		Raw:            map[string]any{"status": "success"},
	}, nil).Once()
	resp, err := e.service().Initialize(t.Context(), e.buyer.ID, e.order.ID)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) reload(t *testing.T) *order.Order {
	t.Helper()
	o, err := e.repos.Orders.FindByID(t.Context(), e.order.ID)
	require.NoError(t, err)
	return o
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code, de.Error())
}

func TestService_Initialize(t *testing.T) {
	env := newTestEnv(t)

	env.gateway.On("Initialize", mock.Anything, mock.MatchedBy(func(req payment.InitializeRequest) bool {
		return req.Amount == 28600 &&
			req.Currency == "RWF" &&
			req.Customer.Email == "payer@example.com" &&
			req.Customer.Name == "Grace Payer" &&
			req.CallbackURL == "https://shop.example.com/payment/callback" &&
			req.Metadata["order_number"] == env.order.OrderNumber
	})).Return(&payment.InitializeResult{
		TransactionRef: "FLW-1001",
		RedirectURL:    "https://pay.example.com/FLW-1001",
	}, nil).Once()

	resp, err := env.service().Initialize(t.Context(), env.buyer.ID, env.order.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/FLW-1001", resp.PaymentURL)
	assert.Equal(t, "FLW-1001", resp.TransactionRef)
	assert.Equal(t, "mock", resp.Provider)
	env.gateway.AssertExpectations(t)

	p, err := env.repos.Payments.FindByOrderAndRef(t.Context(), env.order.ID, "FLW-1001")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, p.Status)
	assert.Equal(t, int64(28600), p.Amount)

	o := env.reload(t)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentStatusPending, o.PaymentStatus)
}

func TestService_Initialize_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	_, err := env.service().Initialize(ctx, uuid.New(), env.order.ID)
	requireCode(t, err, shared.CodeNotFound)

	env.gateway.On("Initialize", mock.Anything, mock.Anything).Return(nil, payment.ErrGatewayRequestFailed).Once()
	_, err = env.service().Initialize(ctx, env.buyer.ID, env.order.ID)
	requireCode(t, err, shared.CodeGateway)
	assert.ErrorIs(t, err, payment.ErrGatewayRequestFailed)

	_, err = env.checkout.Cancel(ctx, env.buyer.ID, env.order.ID)
	require.NoError(t, err)
	_, err = env.service().Initialize(ctx, env.buyer.ID, env.order.ID)
	requireCode(t, err, shared.CodeInvalidState)
}

func TestService_Verify_Success(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t, "FLW-2001")

	env.gateway.On("Verify", mock.Anything, "FLW-2001").Return(&payment.VerifyResult{
		Status:      payment.GatewayStatusSuccess,
		Amount:      28600,
		Currency:    "rwf",
		GatewayData: map[string]any{"flw_ref": "FLW-MOCK-1"},
	}, nil).Once()

	resp, err := env.service().Verify(t.Context(), env.buyer.ID, env.order.ID, VerifyRequest{TransactionID: "FLW-2001", Status: "successful"})
	require.NoError(t, err)
	assert.Equal(t, string(order.StatusConfirmed), resp.Status)
	assert.Equal(t, string(order.PaymentStatusCompleted), resp.PaymentStatus)
	assert.Equal(t, "FLW-2001", resp.PaymentRef)

	o := env.reload(t)
	assert.Equal(t, order.StatusConfirmed, o.Status)
	assert.Equal(t, order.PaymentStatusCompleted, o.PaymentStatus)
	assert.Equal(t, "FLW-2001", o.PaymentRef)

	p, err := env.repos.Payments.FindByOrderAndRef(t.Context(), env.order.ID, "FLW-2001")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, p.Status)
	assert.Equal(t, "FLW-MOCK-1", p.GatewayData["flw_ref"])
	assert.Equal(t, []string{order.EventTypeOrderPaid, payment.EventTypePaymentCompleted}, env.events.types)

	// verifying again does not call the gateway
	again, err := env.service().Verify(t.Context(), env.buyer.ID, env.order.ID, VerifyRequest{TransactionID: "FLW-2001"})
	require.NoError(t, err)
	assert.Equal(t, resp.PaymentStatus, again.PaymentStatus)
	env.gateway.AssertNumberOfCalls(t, "Verify", 1)
}

func TestService_Verify_Failures(t *testing.T) {
	tests := []struct {
		name   string
		result *payment.VerifyResult
		reason string
	}{
		{
			name:   "declined",
			result: &payment.VerifyResult{Status: payment.GatewayStatusFailed, Message: "card declined"},
			reason: "card declined",
		},
		{
			name:   "underpaid",
			result: &payment.VerifyResult{Status: payment.GatewayStatusSuccess, Amount: 20000, Currency: "RWF"},
			reason: "less than order total",
		},
		{
			name:   "wrong currency",
			result: &payment.VerifyResult{Status: payment.GatewayStatusSuccess, Amount: 28600, Currency: "USD"},
			reason: "paid in USD",
		},
		{
			name:   "still pending",
			result: &payment.VerifyResult{Status: payment.GatewayStatusPending},
			reason: "payment pending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.initialize(t, "REF-"+tt.name)
			env.gateway.On("Verify", mock.Anything, "REF-"+tt.name).Return(tt.result, nil).Once()

			_, err := env.service().Verify(t.Context(), env.buyer.ID, env.order.ID, VerifyRequest{TransactionID: "REF-" + tt.name})
			requireCode(t, err, shared.CodePaymentFailed)
			assert.Contains(t, err.Error(), tt.reason)

			p, err := env.repos.Payments.FindByOrderAndRef(t.Context(), env.order.ID, "REF-"+tt.name)
			require.NoError(t, err)
			assert.Equal(t, payment.StatusFailed, p.Status)

			o := env.reload(t)
			assert.Equal(t, order.StatusPending, o.Status)
			assert.Equal(t, order.PaymentStatusPending, o.PaymentStatus)
			assert.Equal(t, []string{payment.EventTypePaymentFailed}, env.events.types)
		})
	}
}

func TestService_Verify_CancelledByCustomer(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t, "FLW-3001")

	_, err := env.service().Verify(t.Context(), env.buyer.ID, env.order.ID, VerifyRequest{TransactionID: "FLW-3001", Status: "cancelled"})
	requireCode(t, err, shared.CodePaymentFailed)
	env.gateway.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)

	// a fresh attempt is still allowed
	env.initialize(t, "FLW-3002")
}

func TestService_Verify_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	env.initialize(t, "FLW-4001")

	_, err := env.service().Verify(ctx, env.buyer.ID, env.order.ID, VerifyRequest{TransactionID: "unknown"})
	requireCode(t, err, shared.CodeNotFound)

	_, err = env.service().Verify(ctx, uuid.New(), env.order.ID, VerifyRequest{TransactionID: "FLW-4001"})
	requireCode(t, err, shared.CodeNotFound)

	env.gateway.On("Verify", mock.Anything, "FLW-4001").Return(nil, errors.New("connection reset")).Once()
	_, err = env.service().Verify(ctx, env.buyer.ID, env.order.ID, VerifyRequest{TransactionID: "FLW-4001"})
	requireCode(t, err, shared.CodeGateway)

	p, err := env.repos.Payments.FindByOrderAndRef(ctx, env.order.ID, "FLW-4001")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, p.Status)
}

func TestService_Verify_AfterCancelDoesNotConfirm(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	env.initialize(t, "FLW-5001")

	_, err := env.checkout.Cancel(ctx, env.buyer.ID, env.order.ID)
	require.NoError(t, err)

	env.gateway.On("Verify", mock.Anything, "FLW-5001").Return(&payment.VerifyResult{
		Status: payment.GatewayStatusSuccess, Amount: 28600, Currency: "RWF",
	}, nil).Once()
	_, err = env.service().Verify(ctx, env.buyer.ID, env.order.ID, VerifyRequest{TransactionID: "FLW-5001"})
	requireCode(t, err, shared.CodeInvalidState)

	// the unit of work rolled back the payment completion
	p, err := env.repos.Payments.FindByOrderAndRef(ctx, env.order.ID, "FLW-5001")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, p.Status)
	assert.Equal(t, order.StatusCancelled, env.reload(t).Status)
}
