package paymentapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ClientStatusCancelled is the redirect status of a payment the customer abandoned
const ClientStatusCancelled = "cancelled"

// Repositories are the non-transactional stores used by the service
type Repositories struct {
	Orders   order.Repository
	Payments payment.Repository
	Users    identity.UserRepository
}

// Service runs the two-phase hosted payment handshake for orders
type Service struct {
	uow         order.UnitOfWork
	repos       Repositories
	gateway     payment.Gateway
	events      shared.EventPublisher
	callbackURL string
	metrics     *telemetry.BusinessMetrics
}

// NewService creates a new payment service
func NewService(uow order.UnitOfWork, repos Repositories, gateway payment.Gateway, events shared.EventPublisher, callbackURL string) *Service {
	if events == nil {
		events = shared.NoopEventPublisher{}
	}
	return &Service{
		uow:         uow,
		repos:       repos,
		gateway:     gateway,
		events:      events,
		callbackURL: callbackURL,
	}
}

// SetBusinessMetrics sets the business metrics for payment outcomes
func (s *Service) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// Initialize starts a gateway payment for the order's total and records a
// pending payment. The order itself is not changed.
func (s *Service) Initialize(ctx context.Context, userID, orderID uuid.UUID) (*InitializeResponse, error) {
	o, err := s.repos.Orders.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if err := o.CanInitializePayment(); err != nil {
		return nil, err
	}

	customer := payment.Customer{}
	if user, err := s.repos.Users.FindByID(ctx, userID); err == nil {
		customer = payment.Customer{Email: user.Email, Name: user.FullName(), Phone: user.Phone}
	} else if !shared.IsNotFound(err) {
		return nil, err
	}

	reference := fmt.Sprintf("%s-%s", o.OrderNumber, strings.ToUpper(uuid.NewString()[:8]))
	result, err := s.gateway.Initialize(ctx, payment.InitializeRequest{
		Reference:   reference,
		Amount:      o.Total,
		Currency:    o.Currency,
		Customer:    customer,
		CallbackURL: s.callbackURL,
		Description: "Order " + o.OrderNumber,
		Metadata: map[string]string{
			"order_id":     o.ID.String(),
			"order_number": o.OrderNumber,
		},
	})
	if err != nil {
		logger.L(ctx).Error("payment initialization failed",
			zap.String("order_number", o.OrderNumber),
			zap.String("provider", s.gateway.Name()),
			zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeGateway, "Payment gateway request failed", err)
	}

	p, err := payment.NewPayment(o.ID, o.Total, o.Currency, s.gateway.Name(), result.TransactionRef, result.Raw)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeGateway, "Payment gateway returned an unusable response", err)
	}
	if err := s.repos.Payments.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("payment initialized",
		zap.String("order_number", o.OrderNumber),
		zap.String("provider", p.Provider),
		zap.String("transaction_ref", p.TransactionRef))

	return &InitializeResponse{
		PaymentURL:     result.RedirectURL,
		TransactionRef: p.TransactionRef,
		PaymentID:      p.ID,
		Provider:       p.Provider,
	}, nil
}

// Verify asks the gateway for the outcome of a payment. Success confirms the
// order and completes the payment together; any other outcome fails only the
// payment and returns PAYMENT_FAILED, leaving the order open for another try.
func (s *Service) Verify(ctx context.Context, userID, orderID uuid.UUID, req VerifyRequest) (*VerifyResponse, error) {
	o, err := s.repos.Orders.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.repos.Payments.FindByOrderAndRef(ctx, o.ID, req.TransactionID)
	if err != nil {
		return nil, err
	}
	log := logger.L(ctx).With(
		zap.String("order_number", o.OrderNumber),
		zap.String("transaction_ref", p.TransactionRef))

	if p.Status == payment.StatusCompleted {
		return toVerifyResponse(o, p), nil
	}

	if strings.EqualFold(req.Status, ClientStatusCancelled) {
		return nil, s.fail(ctx, p, "payment cancelled by customer", nil)
	}

	result, err := s.gateway.Verify(ctx, p.TransactionRef)
	if err != nil {
		log.Error("payment verification failed", zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeGateway, "Payment gateway request failed", err)
	}
	if reason := rejection(o, result); reason != "" {
		log.Warn("payment not accepted", zap.String("reason", reason))
		return nil, s.fail(ctx, p, reason, result.GatewayData)
	}

	err = s.uow.Do(ctx, func(ctx context.Context, repos order.TxRepositories) error {
		p.Complete(result.GatewayData)
		if err := repos.Payments().Update(ctx, p); err != nil {
			return err
		}
		if err := o.MarkPaid(p.TransactionRef); err != nil {
			return err
		}
		return repos.Orders().MarkPaid(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	log.Info("payment completed", zap.Int64("amount", p.Amount))
	s.metrics.RecordPayment(ctx, p.Provider, telemetry.PaymentSucceeded)

	events := append(o.GetDomainEvents(), payment.NewCompletedEvent(p))
	if err := s.events.Publish(ctx, events...); err != nil {
		log.Warn("failed to publish payment events", zap.Error(err))
	}
	o.ClearDomainEvents()
	return toVerifyResponse(o, p), nil
}

// rejection explains why a verification result cannot confirm the order
func rejection(o *order.Order, result *payment.VerifyResult) string {
	if !result.Status.IsSuccess() {
		if result.Message != "" {
			return result.Message
		}
		return "payment " + string(result.Status)
	}
	if result.Amount < o.Total {
		return fmt.Sprintf("paid amount %d is less than order total %d", result.Amount, o.Total)
	}
	if result.Currency != "" && !strings.EqualFold(result.Currency, o.Currency) {
		return fmt.Sprintf("paid in %s but order is in %s", strings.ToUpper(result.Currency), o.Currency)
	}
	return ""
}

// fail stores the payment as FAILED and returns the PAYMENT_FAILED error for the caller
func (s *Service) fail(ctx context.Context, p *payment.Payment, reason string, data map[string]any) error {
	p.Fail(reason, data)
	if err := s.repos.Payments.Update(ctx, p); err != nil {
		return err
	}
	s.metrics.RecordPayment(ctx, p.Provider, telemetry.PaymentFailed)
	if err := s.events.Publish(ctx, payment.NewFailedEvent(p)); err != nil {
		logger.L(ctx).Warn("failed to publish payment event", zap.Error(err))
	}
	return shared.NewDomainError(shared.CodePaymentFailed, reason)
}
