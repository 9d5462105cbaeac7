package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// txRepositories binds every repository to one transaction handle
type txRepositories struct {
	tx *gorm.DB
}

func (r txRepositories) Products() catalog.ProductRepository   { return NewGormProductRepository(r.tx) }
func (r txRepositories) Variants() catalog.VariantRepository   { return NewGormVariantRepository(r.tx) }
func (r txRepositories) Addresses() identity.AddressRepository { return NewGormAddressRepository(r.tx) }
func (r txRepositories) Orders() order.Repository              { return NewGormOrderRepository(r.tx) }
func (r txRepositories) Cart() order.CartRepository            { return NewGormCartRepository(r.tx) }
func (r txRepositories) Payments() payment.Repository          { return NewGormPaymentRepository(r.tx) }

// GormUnitOfWork implements order.UnitOfWork over a GORM transaction
type GormUnitOfWork struct {
	db          *gorm.DB
	timeout     time.Duration
	lockTimeout time.Duration
	maxRetries  int
	logger      *zap.Logger
}

// UnitOfWorkOption configures a GormUnitOfWork
type UnitOfWorkOption func(*GormUnitOfWork)

// WithTimeout bounds the total run time of one Do call, retries included
func WithTimeout(d time.Duration) UnitOfWorkOption {
	return func(u *GormUnitOfWork) { u.timeout = d }
}

// WithLockTimeout bounds each lock wait. Only applied on Postgres.
func WithLockTimeout(d time.Duration) UnitOfWorkOption {
	return func(u *GormUnitOfWork) { u.lockTimeout = d }
}

// WithMaxRetries sets how often a serialization or deadlock failure is rerun
func WithMaxRetries(n int) UnitOfWorkOption {
	return func(u *GormUnitOfWork) { u.maxRetries = n }
}

// WithUnitOfWorkLogger sets the logger used for retry diagnostics
func WithUnitOfWorkLogger(l *zap.Logger) UnitOfWorkOption {
	return func(u *GormUnitOfWork) { u.logger = l }
}

// NewGormUnitOfWork creates a unit of work with a 10s timeout, a 5s lock
// timeout and two retries unless overridden.
func NewGormUnitOfWork(db *gorm.DB, opts ...UnitOfWorkOption) *GormUnitOfWork {
	u := &GormUnitOfWork{
		db:          db,
		timeout:     10 * time.Second,
		lockTimeout: 5 * time.Second,
		maxRetries:  2,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Do runs fn in a transaction. Serialization failures, deadlocks and sqlite
// busy errors rerun fn from scratch; timeouts surface as RETRYABLE.
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos order.TxRepositories) error) error {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = u.run(ctx, fn)
		if err == nil {
			return nil
		}
		if !isTransient(err) || attempt >= u.maxRetries || ctx.Err() != nil {
			break
		}
		logger.Enrich(ctx, u.logger).Warn("retrying transaction after conflict",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var de *shared.DomainError
		if !errors.As(err, &de) {
			return shared.WrapDomainError(shared.CodeRetryable, "Operation timed out, please retry", err)
		}
	}
	return translate(err, "record")
}

func (u *GormUnitOfWork) run(ctx context.Context, fn func(ctx context.Context, repos order.TxRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			ms := fmt.Sprintf("%dms", u.lockTimeout.Milliseconds())
			if err := tx.Exec("SELECT set_config('lock_timeout', ?, true)", ms).Error; err != nil {
				return fmt.Errorf("set lock_timeout: %w", err)
			}
		}
		return fn(ctx, txRepositories{tx: tx})
	})
}
