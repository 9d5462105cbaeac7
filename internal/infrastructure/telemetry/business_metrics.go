package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("business metrics: meter cannot be nil")

// BusinessMetrics counts marketplace activity: orders placed and cancelled,
// checkout rejections, payment outcomes and imported catalog products.
// A nil *BusinessMetrics records nothing, so services may hold one unconditionally.
type BusinessMetrics struct {
	logger *zap.Logger

	orderPlacedTotal      *Counter
	orderAmountTotal      *Counter
	orderCancelledTotal   *Counter
	checkoutRejectedTotal *Counter
	paymentTotal          *Counter
	importProductsTotal   *Counter
}

// NewBusinessMetrics creates the marketplace counters on meter
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bm := &BusinessMetrics{logger: logger}

	counters := []struct {
		dst         **Counter
		name        string
		description string
		unit        string
	}{
		{&bm.orderPlacedTotal, "market_order_placed_total", "Orders committed by checkout", "{orders}"},
		{&bm.orderAmountTotal, "market_order_amount_total", "Order totals in the currency's minor unit", "{minor_units}"},
		{&bm.orderCancelledTotal, "market_order_cancelled_total", "Orders cancelled by customers", "{orders}"},
		{&bm.checkoutRejectedTotal, "market_checkout_rejected_total", "Checkouts rolled back, by error code", "{checkouts}"},
		{&bm.paymentTotal, "market_payment_total", "Verified payments by outcome", "{payments}"},
		{&bm.importProductsTotal, "market_catalog_import_products_total", "Catalog import products by outcome", "{products}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return bm, nil
}

// RecordOrderPlaced counts a committed order and adds its total
func (bm *BusinessMetrics) RecordOrderPlaced(ctx context.Context, paymentMethod, currency string, total int64) {
	if bm == nil {
		return
	}
	bm.orderPlacedTotal.Inc(ctx, AttrPaymentMethod.String(paymentMethod), AttrCurrency.String(currency))
	bm.orderAmountTotal.Add(ctx, total, AttrCurrency.String(currency))
}

// RecordCheckoutRejected counts a checkout that was rolled back. reason is
// the domain error code, e.g. INSUFFICIENT_STOCK for a lost stock race.
func (bm *BusinessMetrics) RecordCheckoutRejected(ctx context.Context, reason string) {
	if bm == nil {
		return
	}
	bm.checkoutRejectedTotal.Inc(ctx, AttrReason.String(reason))
}

// RecordOrderCancelled counts a cancellation; refunded marks paid orders
func (bm *BusinessMetrics) RecordOrderCancelled(ctx context.Context, refunded bool) {
	if bm == nil {
		return
	}
	bm.orderCancelledTotal.Inc(ctx, AttrRefunded.Bool(refunded))
}

// PaymentOutcome labels a verified payment
type PaymentOutcome string

const (
	PaymentSucceeded PaymentOutcome = "success"
	PaymentFailed    PaymentOutcome = "failed"
)

// RecordPayment counts a payment verification outcome
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, provider string, outcome PaymentOutcome) {
	if bm == nil {
		return
	}
	bm.paymentTotal.Inc(ctx, AttrProvider.String(provider), AttrPaymentStatus.String(string(outcome)))
}

// RecordImport counts the products an import run wrote and the ones it rejected
func (bm *BusinessMetrics) RecordImport(ctx context.Context, imported, errored int) {
	if bm == nil {
		return
	}
	if imported > 0 {
		bm.importProductsTotal.Add(ctx, int64(imported), AttrOutcome.String("imported"))
	}
	if errored > 0 {
		bm.importProductsTotal.Add(ctx, int64(errored), AttrOutcome.String("errored"))
	}
}
