package payment

import (
	"fmt"

	domain "github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Provider names accepted in payment.provider
const (
	ProviderFlutterwave = "flutterwave"
	ProviderStripe      = "stripe"
	ProviderSandbox     = "sandbox"
)

// NewGateway builds the gateway selected by cfg.Provider
func NewGateway(cfg config.PaymentConfig, logger *zap.Logger) (domain.Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("provider", cfg.Provider))

	switch cfg.Provider {
	case ProviderFlutterwave:
		return NewFlutterwaveAdapter(FlutterwaveConfig{
			BaseURL:   cfg.Flutterwave.BaseURL,
			SecretKey: cfg.Flutterwave.SecretKey,
			Timeout:   cfg.Flutterwave.Timeout,
		}, logger)
	case ProviderStripe:
		return NewStripeAdapter(StripeConfig{
			SecretKey:  cfg.Stripe.SecretKey,
			SuccessURL: cfg.Stripe.SuccessURL,
			CancelURL:  cfg.Stripe.CancelURL,
		}, logger)
	case ProviderSandbox, "":
		logger.Warn("using sandbox payment gateway; payments are not collected")
		return NewSandboxGateway(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrGatewayNotConfigured, cfg.Provider)
	}
}
