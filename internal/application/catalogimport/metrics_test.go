package catalogimport

import (
	"context"
	"testing"

	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func importCounts(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "market_catalog_import_products_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value(telemetry.AttrOutcome)
				counts[outcome.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestService_Import_RecordsProductMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	bm, err := telemetry.NewBusinessMetrics(provider.Meter("catalogimport"), nil)
	require.NoError(t, err)

	ctx := context.Background()
	f := newFixture(t)
	f.service.SetBusinessMetrics(bm)

	f.store.put("first.csv", sampleFeed)
	_, err = f.service.Import(ctx, "first.csv", admin)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"imported": 2}, importCounts(t, reader))

	// the same products again are all skipped
	f.store.put("second.csv", sampleFeed)
	_, err = f.service.Import(ctx, "second.csv", admin)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"imported": 2, "errored": 2}, importCounts(t, reader))
}
