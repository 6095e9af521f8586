package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Analysis statuses recorded as the "status" attribute.
const (
	StatusOK          = "ok"
	StatusNoSections  = "no_sections"
	StatusUnavailable = "unavailable"
	StatusError       = "error"
)

type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	analysisCounter  otelmetric.Int64Counter
	analysisDuration otelmetric.Float64Histogram
	sectionCounter   otelmetric.Int64Counter
}

// New registers the exporter with the default Prometheus registry, so the
// instruments show up on the same /metrics endpoint as promauto collectors.
func New(serviceName string) (*Observability, error) {
	return NewWithRegisterer(serviceName, promclient.DefaultRegisterer)
}

func NewWithRegisterer(serviceName string, reg promclient.Registerer) (*Observability, error) {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	analysisCounter, _ := meter.Int64Counter(
		"analysis.requests",
		otelmetric.WithDescription("Number of document analyses"),
	)

	analysisDuration, _ := meter.Float64Histogram(
		"analysis.duration",
		otelmetric.WithDescription("Document analysis duration"),
		otelmetric.WithUnit("ms"),
	)

	sectionCounter, _ := meter.Int64Counter(
		"analysis.sections",
		otelmetric.WithDescription("Number of sections handled per analysis, by result"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		analysisCounter:  analysisCounter,
		analysisDuration: analysisDuration,
		sectionCounter:   sectionCounter,
	}, nil
}

// Noop returns an Observability whose recorders do nothing.
func Noop() *Observability {
	return &Observability{}
}

func (o *Observability) RecordAnalysis(ctx context.Context, duration time.Duration, status string) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	if o.analysisCounter != nil {
		o.analysisCounter.Add(ctx, 1, attrs)
	}
	if o.analysisDuration != nil {
		o.analysisDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordSections(ctx context.Context, result string, n int) {
	if o == nil || o.sectionCounter == nil || n == 0 {
		return
	}
	o.sectionCounter.Add(ctx, int64(n), otelmetric.WithAttributes(
		attribute.String("result", result),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
