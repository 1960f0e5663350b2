package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"

	"skillarena/config"
	"skillarena/events"
)

// MetricsProvider manages OpenTelemetry metrics
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	eventsCounter         metric.Int64Counter
	balanceChangesCounter metric.Int64Counter
	balanceVolumeCounter  metric.Int64Counter
	settlementsCounter    metric.Int64Counter
	matchTransitions      metric.Int64Counter
	verificationsCounter  metric.Int64Counter
	natsPublishedCounter  metric.Int64Counter
	schedulerJobsCounter  metric.Int64Counter
	schedulerJobDuration  metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		return nil
	}

	var exporter sdkmetric.Exporter
	var err error
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	return mp.InitializeWithReader(reader)
}

// InitializeWithReader builds the meter provider on top of a given reader
func (mp *MetricsProvider) InitializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("skillarena")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.eventsCounter, EventsTotal, "Total number of committed domain events"},
		{&mp.balanceChangesCounter, BalanceChangesTotal, "Total number of wallet balance changes"},
		{&mp.settlementsCounter, SettlementsTotal, "Total number of settled deposits and withdrawals"},
		{&mp.matchTransitions, MatchTransitionsTotal, "Total number of match state transitions"},
		{&mp.verificationsCounter, VerificationsTotal, "Total number of resolved verification requests"},
		{&mp.natsPublishedCounter, NATSMessagesPublished, "Total number of events forwarded to NATS"},
		{&mp.schedulerJobsCounter, SchedulerJobsTotal, "Total number of scheduler job runs"},
	}
	for _, c := range counters {
		*c.target, err = mp.meter.Int64Counter(c.name, metric.WithDescription(c.description), metric.WithUnit("1"))
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", c.name, err)
		}
	}

	mp.balanceVolumeCounter, err = mp.meter.Int64Counter(
		BalanceVolume,
		metric.WithDescription("Absolute wallet volume moved"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create balance volume counter: %w", err)
	}

	mp.schedulerJobDuration, err = mp.meter.Float64Histogram(
		SchedulerJobDuration,
		metric.WithDescription("Duration of scheduler job runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler job duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// Attach records metrics for every committed event on the bus
func (mp *MetricsProvider) Attach(bus *events.Bus) {
	bus.SubscribeAll(mp.RecordEvent)
}

// RecordEvent updates the counters an event contributes to
func (mp *MetricsProvider) RecordEvent(ctx context.Context, event events.Event) {
	if !mp.isEnabled() {
		return
	}

	mp.eventsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelEventType, string(event.Type()))))

	switch e := event.(type) {
	case events.BalanceChangeEvent:
		attrs := metric.WithAttributes(attribute.String(LabelType, string(e.TransactionType)))
		mp.balanceChangesCounter.Add(ctx, 1, attrs)
		volume := e.ChangeAmount
		if volume < 0 {
			volume = -volume
		}
		mp.balanceVolumeCounter.Add(ctx, volume, attrs)
	case events.TransactionSettledEvent:
		mp.settlementsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(LabelType, string(e.TxType)),
			attribute.String(LabelStatus, string(e.Status)),
		))
	case events.MatchStateChangeEvent:
		mp.matchTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelState, string(e.NewState))))
	case events.VerificationResolvedEvent:
		mp.verificationsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(LabelStatus, string(e.Status))))
	}
}

// RecordNATSMessagePublished records an event forwarded to NATS
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// RecordJob records one scheduler job run
func (mp *MetricsProvider) RecordJob(job string, duration time.Duration, err error) {
	if !mp.isEnabled() {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	mp.schedulerJobsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelJob, job),
		attribute.String(LabelResult, result),
	))
	mp.schedulerJobDuration.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(attribute.String(LabelJob, job)),
	)
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized
}
