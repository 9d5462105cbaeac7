package paymentapp

import (
	"testing"

	"github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func paymentCounts(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "market_payment_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				provider, _ := dp.Attributes.Value(telemetry.AttrProvider)
				status, _ := dp.Attributes.Value(telemetry.AttrPaymentStatus)
				counts[provider.AsString()+"/"+status.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestService_Verify_RecordsPaymentMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })
	bm, err := telemetry.NewBusinessMetrics(provider.Meter("payment"), nil)
	require.NoError(t, err)

	env := newTestEnv(t)
	svc := env.service()
	svc.SetBusinessMetrics(bm)

	env.initialize(t, "FLW-4001")
	env.gateway.On("Verify", mock.Anything, "FLW-4001").Return(&payment.VerifyResult{
		Status: payment.GatewayStatusFailed, Message: "insufficient funds",
	}, nil).Once()
	_, err = svc.Verify(t.Context(), env.buyer.ID, env.order.ID, VerifyRequest{TransactionID: "FLW-4001"})
	require.Error(t, err)

	env.initialize(t, "FLW-4002")
	env.gateway.On("Verify", mock.Anything, "FLW-4002").Return(&payment.VerifyResult{
		Status: payment.GatewayStatusSuccess, Amount: 28600, Currency: "RWF",
	}, nil).Once()
	_, err = svc.Verify(t.Context(), env.buyer.ID, env.order.ID, VerifyRequest{TransactionID: "FLW-4002"})
	require.NoError(t, err)

	// already completed, so not counted again
	_, err = svc.Verify(t.Context(), env.buyer.ID, env.order.ID, VerifyRequest{TransactionID: "FLW-4002"})
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{"mock/failed": 1, "mock/success": 1}, paymentCounts(t, reader))
}
