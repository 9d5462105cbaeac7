package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Defaults used when Config leaves a value unset
const (
	DefaultOrderNumberAttempts = 5
	DefaultIdempotencyTTL      = 24 * time.Hour
)

// Repositories are the non-transactional stores used by the read side and the cart
type Repositories struct {
	Orders    order.Repository
	Cart      order.CartRepository
	Products  catalog.ProductRepository
	Variants  catalog.VariantRepository
	Addresses identity.AddressRepository
}

// Config tunes checkout behaviour
type Config struct {
	OrderNumberAttempts int
	IdempotencyTTL      time.Duration
}

// Service places, cancels and lists orders and manages the cart
type Service struct {
	uow         order.UnitOfWork
	repos       Repositories
	policy      order.PricingPolicy
	cfg         Config
	idempotency shared.IdempotencyStore
	events      shared.EventPublisher
	newNumber   order.NumberGenerator
	now         func() time.Time
	metrics     *telemetry.BusinessMetrics
}

// Option configures optional collaborators of the Service
type Option func(*Service)

// WithIdempotencyStore enables Idempotency-Key handling
func WithIdempotencyStore(store shared.IdempotencyStore) Option {
	return func(s *Service) { s.idempotency = store }
}

// WithEventPublisher sets where order events are published
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithNumberGenerator replaces the order number generator
func WithNumberGenerator(gen order.NumberGenerator) Option {
	return func(s *Service) { s.newNumber = gen }
}

// WithBusinessMetrics counts placed, rejected and cancelled orders
func WithBusinessMetrics(bm *telemetry.BusinessMetrics) Option {
	return func(s *Service) { s.metrics = bm }
}

// NewService creates a new checkout service
func NewService(uow order.UnitOfWork, repos Repositories, policy order.PricingPolicy, cfg Config, opts ...Option) *Service {
	if cfg.OrderNumberAttempts <= 0 {
		cfg.OrderNumberAttempts = DefaultOrderNumberAttempts
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = DefaultIdempotencyTTL
	}
	s := &Service{
		uow:       uow,
		repos:     repos,
		policy:    policy,
		cfg:       cfg,
		events:    shared.NoopEventPublisher{},
		newNumber: order.NewOrderNumber,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout creates an order from the requested items in one unit of work.
// Any failing line aborts the whole order and rolls back every stock
// decrement made for earlier lines.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (resp *OrderResponse, err error) {
	method := order.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, shared.NewValidationError("payment_method", "unsupported payment method")
	}
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("items", "at least one item is required")
	}
	for i, in := range req.Items {
		if in.Quantity < 1 {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		key := userID.String() + ":" + req.IdempotencyKey
		claimed, claimErr := s.idempotency.Claim(ctx, key, s.cfg.IdempotencyTTL)
		switch {
		case claimErr != nil:
			logger.L(ctx).Warn("idempotency store unavailable, continuing without it", zap.Error(claimErr))
		case !claimed:
			return nil, shared.ErrDuplicateRequest
		default:
			defer func() {
				if err != nil {
					// a failed checkout must stay retryable under the same key
					if relErr := s.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
						logger.L(ctx).Warn("failed to release idempotency key", zap.Error(relErr))
					}
				}
			}()
		}
	}

	var (
		placed  *order.Order
		address *identity.Address
	)
	err = s.uow.Do(ctx, func(ctx context.Context, repos order.TxRepositories) error {
		addr, err := repos.Addresses().FindByIDForUser(ctx, req.AddressID, userID)
		if err != nil {
			return err
		}

		items := make([]order.Item, 0, len(req.Items))
		for _, in := range req.Items {
			item, err := s.reserveLine(ctx, repos, in)
			if err != nil {
				return err
			}
			items = append(items, *item)
		}

		o, err := order.NewOrder(userID, addr.ID, method, items, s.policy, req.Notes)
		if err != nil {
			return err
		}
		if err := s.createWithUniqueNumber(ctx, repos.Orders(), o); err != nil {
			return err
		}
		if _, err := repos.Cart().DeleteByUserAndProducts(ctx, userID, o.ProductIDs()); err != nil {
			return err
		}

		placed, err = repos.Orders().FindByID(ctx, o.ID)
		if err != nil {
			return err
		}
		address = addr
		return nil
	})
	if err != nil {
		s.metrics.RecordCheckoutRejected(ctx, rejectionReason(err))
		return nil, err
	}
	s.metrics.RecordOrderPlaced(ctx, string(placed.PaymentMethod), placed.Currency, placed.Total)

	logger.L(ctx).Info("order placed",
		zap.String("order_number", placed.OrderNumber),
		zap.Int64("total", placed.Total),
		zap.Int("items", len(placed.Items)))

	placed.Placed()
	s.publish(ctx, placed)
	return ToOrderResponse(placed, address), nil
}

// rejectionReason labels a failed checkout by its domain error code
func rejectionReason(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}

// reserveLine validates one requested line, takes its stock and prices it
func (s *Service) reserveLine(ctx context.Context, repos order.TxRepositories, in CheckoutItemInput) (*order.Item, error) {
	product, err := repos.Products().FindByID(ctx, in.ProductID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError(shared.CodeProductUnavailable, fmt.Sprintf("Product %s is not available", in.ProductID))
		}
		return nil, err
	}
	if !product.IsPurchasable() {
		return nil, shared.NewDomainError(shared.CodeProductUnavailable, fmt.Sprintf("Product %q is not available", product.Name))
	}

	if in.VariantID == nil {
		return order.NewItem(product.ID, nil, product.Name, "", product.SKU, in.Quantity, product.BasePrice)
	}

	variant, err := repos.Variants().FindByID(ctx, *in.VariantID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError(shared.CodeVariantUnavailable, fmt.Sprintf("Variant %s of %q is not available", *in.VariantID, product.Name))
		}
		return nil, err
	}
	if !variant.IsActive || !variant.BelongsTo(product.ID) {
		return nil, shared.NewDomainError(shared.CodeVariantUnavailable, fmt.Sprintf("Variant %q of %q is not available", variant.Name, product.Name))
	}

	taken, err := repos.Variants().DecrementStock(ctx, variant.ID, in.Quantity)
	if err != nil {
		return nil, err
	}
	if !taken {
		return nil, shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("Insufficient stock for %q variant %q: requested %d", product.Name, variant.Name, in.Quantity))
	}

	variantID := variant.ID
	return order.NewItem(product.ID, &variantID, product.Name, variant.Name, variant.SKU, in.Quantity, variant.Price)
}

// createWithUniqueNumber inserts the order, drawing a fresh number whenever
// the previous one is already taken
func (s *Service) createWithUniqueNumber(ctx context.Context, orders order.Repository, o *order.Order) error {
	for attempt := 1; ; attempt++ {
		o.AssignNumber(s.newNumber(s.now()))
		err := orders.Create(ctx, o)
		if err == nil {
			return nil
		}
		if !shared.IsAlreadyExists(err) || attempt >= s.cfg.OrderNumberAttempts {
			return err
		}
		logger.L(ctx).Debug("order number taken, drawing another",
			zap.String("order_number", o.OrderNumber),
			zap.Int("attempt", attempt))
	}
}

// Cancel cancels an order that has not been delivered and puts the stock of
// every variant line back. Cancelling twice is rejected, so stock is only
// restored once. A paid order is left with payment status REFUNDED.
func (s *Service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	var cancelled *order.Order
	err := s.uow.Do(ctx, func(ctx context.Context, repos order.TxRepositories) error {
		o, err := repos.Orders().FindByIDForUser(ctx, orderID, userID)
		if err != nil {
			return err
		}
		paid := o.PaymentStatus == order.PaymentStatusCompleted
		if err := o.Cancel(); err != nil {
			return err
		}
		changed, err := repos.Orders().TransitionStatus(ctx, o.ID, order.CancellableStatuses, order.StatusCancelled)
		if err != nil {
			return err
		}
		if !changed {
			return shared.NewDomainError(shared.CodeInvalidState, "Order "+o.OrderNumber+" can no longer be cancelled")
		}
		if paid {
			if _, err := repos.Orders().MarkRefunded(ctx, o.ID); err != nil {
				return err
			}
		}
		for _, it := range o.Items {
			if it.VariantID == nil {
				continue
			}
			if err := repos.Variants().IncrementStock(ctx, *it.VariantID, it.Quantity); err != nil {
				return err
			}
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("order cancelled",
		zap.String("order_number", cancelled.OrderNumber),
		zap.String("payment_status", string(cancelled.PaymentStatus)))
	s.metrics.RecordOrderCancelled(ctx, cancelled.PaymentStatus == order.PaymentStatusRefunded)
	s.publish(ctx, cancelled)
	return ToOrderResponse(cancelled, s.findAddress(ctx, cancelled)), nil
}

// GetOrder returns one of the user's orders
func (s *Service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.repos.Orders.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(o, s.findAddress(ctx, o)), nil
}

// ListOrders returns a page of the user's order history
func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID, query ListOrdersQuery) (*shared.Paginated[OrderSummaryResponse], error) {
	filter := shared.DefaultFilter()
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}
	if query.OrderBy != "" {
		filter.OrderBy = query.OrderBy
	}
	if query.OrderDir != "" {
		filter.OrderDir = query.OrderDir
	}
	if query.Status != "" {
		filter.Filters["status"] = query.Status
	}
	filter = filter.Normalize()

	orders, total, err := s.repos.Orders.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]OrderSummaryResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderSummaryResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *Service) findAddress(ctx context.Context, o *order.Order) *identity.Address {
	addr, err := s.repos.Addresses.FindByIDForUser(ctx, o.AddressID, o.UserID)
	if err != nil {
		if !shared.IsNotFound(err) {
			logger.L(ctx).Warn("failed to load order address", zap.Error(err))
		}
		return nil
	}
	return addr
}

// publish sends the aggregate's pending events. Delivery failures are logged;
// the order itself is already committed.
func (s *Service) publish(ctx context.Context, o *order.Order) {
	events := o.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("failed to publish order events",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
	}
	o.ClearDomainEvents()
}
