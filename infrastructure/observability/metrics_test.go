package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"skillarena/config"
	"skillarena/events"
	"skillarena/models"
)

func newTestProvider(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelServiceName = "skillarena-test"

	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.InitializeWithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestMetricsProvider_RecordEvent(t *testing.T) {
	mp, reader := newTestProvider(t)
	ctx := context.Background()

	mp.RecordEvent(ctx, events.BalanceChangeEvent{UserID: 1, ChangeAmount: -150, TransactionType: models.TransactionTypeMatchEntry})
	mp.RecordEvent(ctx, events.BalanceChangeEvent{UserID: 1, ChangeAmount: 50, TransactionType: models.TransactionTypeDeposit})
	mp.RecordEvent(ctx, events.MatchStateChangeEvent{MatchID: 1, NewState: models.MatchStatusLive})

	assert.Equal(t, int64(3), sumOf(t, reader, EventsTotal))
	assert.Equal(t, int64(2), sumOf(t, reader, BalanceChangesTotal))
	assert.Equal(t, int64(200), sumOf(t, reader, BalanceVolume))
	assert.Equal(t, int64(1), sumOf(t, reader, MatchTransitionsTotal))
}

func TestMetricsProvider_RecordJob(t *testing.T) {
	mp, reader := newTestProvider(t)

	mp.RecordJob("reconcile", 20*time.Millisecond, nil)
	mp.RecordJob("reconcile", 30*time.Millisecond, errors.New("gateway down"))

	assert.Equal(t, int64(2), sumOf(t, reader, SchedulerJobsTotal))
}

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	mp := NewMetricsProvider(config.NewTestConfig())
	require.NoError(t, mp.Initialize(context.Background()))

	assert.NotPanics(t, func() {
		mp.RecordEvent(context.Background(), events.TicketCreatedEvent{TicketID: 1})
		mp.RecordJob("sweep", time.Second, nil)
		mp.RecordNATSMessagePublished("ticket_created")
	})

	var nilProvider *MetricsProvider
	assert.NotPanics(t, func() { nilProvider.RecordJob("sweep", time.Second, nil) })
}
