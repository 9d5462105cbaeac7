package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "github.com/marketplace/backend/internal/domain/payment"
	"go.uber.org/zap"
)

const (
	flutterwaveDefaultBaseURL = "https://api.flutterwave.com/v3"
	flutterwaveMaxBody        = 1 << 20
)

// FlutterwaveConfig holds the hosted-checkout API settings
type FlutterwaveConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	// Title is shown on the hosted payment page
	Title string
}

// Validate validates the Flutterwave configuration
func (c *FlutterwaveConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("%w: flutterwave secret key is required", domain.ErrGatewayNotConfigured)
	}
	if c.BaseURL == "" {
		c.BaseURL = flutterwaveDefaultBaseURL
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("%w: invalid flutterwave base url: %v", domain.ErrGatewayNotConfigured, err)
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

// FlutterwaveAdapter implements domain.Gateway against the Flutterwave v3 API.
// Our reference is the gateway's tx_ref, so verification is by reference.
type FlutterwaveAdapter struct {
	config     FlutterwaveConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFlutterwaveAdapter creates a new Flutterwave adapter
func NewFlutterwaveAdapter(config FlutterwaveConfig, logger *zap.Logger) (*FlutterwaveAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlutterwaveAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}, nil
}

// Name returns the provider name stored on payments
func (a *FlutterwaveAdapter) Name() string {
	return "flutterwave"
}

// Initialize creates a hosted payment link
func (a *FlutterwaveAdapter) Initialize(ctx context.Context, req domain.InitializeRequest) (*domain.InitializeResult, error) {
	if req.Reference == "" || req.Amount <= 0 {
		return nil, fmt.Errorf("%w: reference and positive amount are required", domain.ErrGatewayRequestFailed)
	}
	title := a.config.Title
	if title == "" {
		title = "Marketplace"
	}
	body := flutterwavePaymentRequest{
		TxRef:       req.Reference,
		Amount:      json.Number(toMajorUnits(req.Amount, req.Currency).String()),
		Currency:    strings.ToUpper(req.Currency),
		RedirectURL: req.CallbackURL,
		Customer: flutterwaveCustomer{
			Email:       req.Customer.Email,
			Name:        req.Customer.Name,
			PhoneNumber: req.Customer.Phone,
		},
		Customizations: flutterwaveCustomizations{Title: title, Description: req.Description},
		Meta:           req.Metadata,
	}

	var resp flutterwaveEnvelope[flutterwavePaymentLink]
	raw, err := a.doRequest(ctx, http.MethodPost, "/payments", body, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() || resp.Data.Link == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrGatewayInvalidResponse, resp.Message)
	}

	a.logger.Debug("flutterwave payment link created", zap.String("tx_ref", req.Reference))
	return &domain.InitializeResult{
		TransactionRef: req.Reference,
		RedirectURL:    resp.Data.Link,
		Raw:            raw,
	}, nil
}

// Verify looks the transaction up by our reference
func (a *FlutterwaveAdapter) Verify(ctx context.Context, transactionRef string) (*domain.VerifyResult, error) {
	path := "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(transactionRef)

	var resp flutterwaveEnvelope[flutterwaveTransaction]
	raw, err := a.doRequest(ctx, http.MethodGet, path, nil, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s", domain.ErrGatewayInvalidResponse, resp.Message)
	}
	tx := resp.Data
	if tx.TxRef != "" && tx.TxRef != transactionRef {
		return nil, fmt.Errorf("%w: reference mismatch %q", domain.ErrGatewayInvalidResponse, tx.TxRef)
	}

	result := &domain.VerifyResult{
		Status:      flutterwaveStatus(tx.Status),
		Amount:      toMinorUnits(tx.Amount, tx.Currency),
		Currency:    strings.ToUpper(tx.Currency),
		Message:     tx.ProcessorResp,
		GatewayData: raw,
	}
	if !result.Status.IsSuccess() && result.Message == "" {
		result.Message = "transaction " + tx.Status
	}
	return result, nil
}

func flutterwaveStatus(status string) domain.GatewayStatus {
	switch strings.ToLower(status) {
	case "successful":
		return domain.GatewayStatusSuccess
	case "failed", "cancelled":
		return domain.GatewayStatusFailed
	default:
		return domain.GatewayStatusPending
	}
}

// doRequest sends an authorized JSON request, decodes the envelope into out
// and returns the raw response document for storage on the payment.
func (a *FlutterwaveAdapter) doRequest(ctx context.Context, method, path string, body, out any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("flutterwave: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(a.config.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, fmt.Errorf("flutterwave: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.SecretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, flutterwaveMaxBody))
	if err != nil {
		return nil, fmt.Errorf("flutterwave: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrTransactionNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrGatewayRequestFailed, resp.StatusCode, errorMessage(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return nil, errors.Join(domain.ErrGatewayInvalidResponse, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, errors.Join(domain.ErrGatewayInvalidResponse, err)
	}
	return raw, nil
}

// errorMessage extracts the message of an error envelope, falling back to the raw body
func errorMessage(body []byte) string {
	var env flutterwaveEnvelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

var _ domain.Gateway = (*FlutterwaveAdapter)(nil)
