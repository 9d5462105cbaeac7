package payment

import (
	"context"
	"net/url"
	"strings"
	"sync"

	domain "github.com/marketplace/backend/internal/domain/payment"
)

type sandboxTransaction struct {
	amount   int64
	currency string
	status   domain.GatewayStatus
}

// SandboxGateway approves every payment it started. It never leaves the
// process and is only allowed outside production.
type SandboxGateway struct {
	mu           sync.Mutex
	transactions map[string]sandboxTransaction
}

// NewSandboxGateway creates an empty sandbox gateway
func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{transactions: make(map[string]sandboxTransaction)}
}

// Name returns the provider name stored on payments
func (g *SandboxGateway) Name() string {
	return "sandbox"
}

// Initialize records the transaction and redirects straight to the callback
func (g *SandboxGateway) Initialize(_ context.Context, req domain.InitializeRequest) (*domain.InitializeResult, error) {
	ref := "SBX-" + req.Reference
	g.mu.Lock()
	g.transactions[ref] = sandboxTransaction{
		amount:   req.Amount,
		currency: strings.ToUpper(req.Currency),
		status:   domain.GatewayStatusSuccess,
	}
	g.mu.Unlock()

	redirect := req.CallbackURL
	if redirect != "" {
		q := url.Values{"status": {"successful"}, "transaction_id": {ref}}
		sep := "?"
		if strings.Contains(redirect, "?") {
			sep = "&"
		}
		redirect += sep + q.Encode()
	}
	return &domain.InitializeResult{
		TransactionRef: ref,
		RedirectURL:    redirect,
		Raw:            map[string]any{"sandbox": true, "reference": req.Reference},
	}, nil
}

// Verify reports the recorded outcome
func (g *SandboxGateway) Verify(_ context.Context, transactionRef string) (*domain.VerifyResult, error) {
	g.mu.Lock()
	tx, ok := g.transactions[transactionRef]
	g.mu.Unlock()
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &domain.VerifyResult{
		Status:      tx.status,
		Amount:      tx.amount,
		Currency:    tx.currency,
		GatewayData: map[string]any{"sandbox": true, "status": string(tx.status)},
	}, nil
}

// Decline makes a later Verify of ref report a failed payment
func (g *SandboxGateway) Decline(ref string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tx, ok := g.transactions[ref]; ok {
		tx.status = domain.GatewayStatusFailed
		g.transactions[ref] = tx
	}
}

var _ domain.Gateway = (*SandboxGateway)(nil)
