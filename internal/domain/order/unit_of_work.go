package order

import (
	"context"

	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/payment"
)

// TxRepositories exposes repositories bound to a single unit of work
type TxRepositories interface {
	Products() catalog.ProductRepository
	Variants() catalog.VariantRepository
	Addresses() identity.AddressRepository
	Orders() Repository
	Cart() CartRepository
	Payments() payment.Repository
}

// UnitOfWork runs fn atomically. Any error returned by fn rolls back every
// write made through repos. Implementations bound the total run time and lock
// waits, and report timeouts as RETRYABLE domain errors.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
