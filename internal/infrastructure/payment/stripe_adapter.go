package payment

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"

	domain "github.com/marketplace/backend/internal/domain/payment"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"go.uber.org/zap"
)

// StripeConfig holds Stripe Checkout settings
type StripeConfig struct {
	SecretKey string
	// SuccessURL and CancelURL default to the callback URL of each request
	SuccessURL string
	CancelURL  string
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("%w: stripe secret key is required", domain.ErrGatewayNotConfigured)
	}
	if !strings.HasPrefix(c.SecretKey, "sk_") && !strings.HasPrefix(c.SecretKey, "rk_") {
		return fmt.Errorf("%w: stripe secret key must be a secret or restricted key", domain.ErrGatewayNotConfigured)
	}
	return nil
}

// StripeAdapter implements domain.Gateway with Stripe Checkout Sessions.
// The session ID is the transaction reference.
type StripeAdapter struct {
	config   StripeConfig
	sessions *session.Client
	logger   *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter using the default API backend
func NewStripeAdapter(config StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	return NewStripeAdapterWithBackend(config, stripe.GetBackend(stripe.APIBackend), logger)
}

// NewStripeAdapterWithBackend creates a Stripe adapter that talks through backend
func NewStripeAdapterWithBackend(config StripeConfig, backend stripe.Backend, logger *zap.Logger) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeAdapter{
		config:   config,
		sessions: &session.Client{B: backend, Key: config.SecretKey},
		logger:   logger,
	}, nil
}

// Name returns the provider name stored on payments
func (a *StripeAdapter) Name() string {
	return "stripe"
}

// Initialize opens a Checkout Session for the full order amount
func (a *StripeAdapter) Initialize(ctx context.Context, req domain.InitializeRequest) (*domain.InitializeResult, error) {
	if req.Reference == "" || req.Amount <= 0 {
		return nil, fmt.Errorf("%w: reference and positive amount are required", domain.ErrGatewayRequestFailed)
	}

	successURL := firstNonEmpty(a.config.SuccessURL, req.CallbackURL)
	cancelURL := firstNonEmpty(a.config.CancelURL, req.CallbackURL)
	if successURL == "" {
		return nil, fmt.Errorf("%w: no success url", domain.ErrGatewayNotConfigured)
	}

	description := firstNonEmpty(req.Description, req.Reference)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(withSessionID(successURL, "successful")),
		CancelURL:         stripe.String(withSessionID(cancelURL, "cancelled")),
		ClientReferenceID: stripe.String(req.Reference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
			},
		},
	}
	if req.Customer.Email != "" {
		params.CustomerEmail = stripe.String(req.Customer.Email)
	}
	params.Metadata = map[string]string{"reference": req.Reference}
	maps.Copy(params.Metadata, req.Metadata)
	params.Context = ctx

	s, err := a.sessions.New(params)
	if err != nil {
		a.logger.Error("failed to create stripe checkout session", zap.String("reference", req.Reference), zap.Error(err))
		return nil, stripeError(err)
	}

	return &domain.InitializeResult{
		TransactionRef: s.ID,
		RedirectURL:    s.URL,
		Raw: map[string]any{
			"session_id":          s.ID,
			"client_reference_id": s.ClientReferenceID,
			"status":              string(s.Status),
		},
	}, nil
}

// Verify fetches the session; only payment_status "paid" counts as success
func (a *StripeAdapter) Verify(ctx context.Context, transactionRef string) (*domain.VerifyResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := a.sessions.Get(transactionRef, params)
	if err != nil {
		return nil, stripeError(err)
	}

	result := &domain.VerifyResult{
		Amount:   s.AmountTotal,
		Currency: strings.ToUpper(string(s.Currency)),
		GatewayData: map[string]any{
			"session_id":     s.ID,
			"status":         string(s.Status),
			"payment_status": string(s.PaymentStatus),
			"amount_total":   s.AmountTotal,
			"currency":       string(s.Currency),
		},
	}
	if s.PaymentIntent != nil {
		result.GatewayData["payment_intent"] = s.PaymentIntent.ID
	}

	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		result.Status = domain.GatewayStatusSuccess
	case s.Status == stripe.CheckoutSessionStatusExpired:
		result.Status = domain.GatewayStatusFailed
		result.Message = "checkout session expired"
	default:
		result.Status = domain.GatewayStatusPending
		result.Message = "payment " + string(s.PaymentStatus)
	}
	return result, nil
}

// stripeError maps Stripe API errors onto the gateway error sentinels
func stripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing {
			return domain.ErrTransactionNotFound
		}
		return fmt.Errorf("%w: stripe %s: %s", domain.ErrGatewayRequestFailed, se.Type, se.Msg)
	}
	return fmt.Errorf("%w: %v", domain.ErrGatewayRequestFailed, err)
}

// withSessionID appends the Checkout placeholder so the client can report the session back
func withSessionID(u, status string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "status=" + status + "&transaction_id={CHECKOUT_SESSION_ID}"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ domain.Gateway = (*StripeAdapter)(nil)
