package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records per-step timings through an otel meter whose
// readings are exposed on a Prometheus registerer.
type Observability struct {
	meterProvider *metric.MeterProvider
	stepCounter   otelmetric.Int64Counter
	stepDuration  otelmetric.Float64Histogram
}

// New registers the exporter on reg (prometheus.DefaultRegisterer when nil).
// On exporter failure it returns an Observability whose recorders are no-ops.
func New(serviceName string, reg prometheus.Registerer) (*Observability, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return &Observability{}, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	stepCounter, err := meter.Int64Counter(
		"churn_loader_steps",
		otelmetric.WithDescription("Number of loader steps run"),
	)
	if err != nil {
		return &Observability{meterProvider: provider}, err
	}

	stepDuration, err := meter.Float64Histogram(
		"churn_loader_step_duration",
		otelmetric.WithDescription("Loader step duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return &Observability{meterProvider: provider}, err
	}

	return &Observability{
		meterProvider: provider,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
	}, nil
}

// RecordStep records one finished step with its outcome.
func (o *Observability) RecordStep(ctx context.Context, step, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("step", step),
		attribute.String("status", status),
	)
	if o.stepCounter != nil {
		o.stepCounter.Add(ctx, 1, attrs)
	}
	if o.stepDuration != nil {
		o.stepDuration.Record(ctx, float64(duration.Microseconds())/1000.0, attrs)
	}
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
