package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName        = "xvenue/adapters"
	restDurationName = "xvenue_rest_request_duration"
)

// VenueMetrics holds the instruments recorded across adapters and transports.
// Instruments come from the global meter, so they follow whatever provider
// NewProvider installed and are no-ops otherwise.
type VenueMetrics struct {
	droppedRecords    metric.Int64Counter
	timestampFailures metric.Int64Counter
	marginLookups     metric.Int64Counter
	restRequests      metric.Int64Counter
	restDuration      metric.Float64Histogram
}

var (
	venueMetricsOnce sync.Once
	venueMetrics     *VenueMetrics
)

// Venue returns the process-wide venue instruments.
func Venue() *VenueMetrics {
	venueMetricsOnce.Do(func() {
		venueMetrics = newVenueMetrics(otel.Meter(meterName))
	})
	return venueMetrics
}

func newVenueMetrics(meter metric.Meter) *VenueMetrics {
	m := &VenueMetrics{}
	m.droppedRecords, _ = meter.Int64Counter("xvenue_adapter_records_dropped",
		metric.WithDescription("Raw venue records discarded during normalization"),
		metric.WithUnit("{record}"))
	m.timestampFailures, _ = meter.Int64Counter("xvenue_adapter_timestamp_failures",
		metric.WithDescription("Venue timestamps that could not be parsed"),
		metric.WithUnit("{timestamp}"))
	m.marginLookups, _ = meter.Int64Counter("xvenue_margin_account_lookups",
		metric.WithDescription("Margin account resolutions by outcome"),
		metric.WithUnit("{lookup}"))
	m.restRequests, _ = meter.Int64Counter("xvenue_rest_requests",
		metric.WithDescription("REST requests issued to venues"),
		metric.WithUnit("{request}"))
	m.restDuration, _ = meter.Float64Histogram(restDurationName,
		metric.WithDescription("REST round-trip latency"),
		metric.WithUnit("ms"))
	return m
}

// RecordDropped counts a raw record discarded by an adapter.
func (m *VenueMetrics) RecordDropped(ctx context.Context, venue, record, reason string) {
	if m == nil || m.droppedRecords == nil {
		return
	}
	m.droppedRecords.Add(ctx, 1, metric.WithAttributes(DropAttributes(venue, record, reason)...))
}

// RecordTimestampFailure counts an unparseable venue timestamp.
func (m *VenueMetrics) RecordTimestampFailure(ctx context.Context) {
	if m == nil || m.timestampFailures == nil {
		return
	}
	m.timestampFailures.Add(ctx, 1)
}

// RecordMarginLookup counts a margin account resolution with its outcome.
func (m *VenueMetrics) RecordMarginLookup(ctx context.Context, venue, outcome string) {
	if m == nil || m.marginLookups == nil {
		return
	}
	m.marginLookups.Add(ctx, 1, metric.WithAttributes(AttrVenue.String(venue), AttrOutcome.String(outcome)))
}

// RecordREST records a finished REST round trip.
func (m *VenueMetrics) RecordREST(ctx context.Context, venue, method, endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(RESTAttributes(venue, method, endpoint, status)...)
	if m.restRequests != nil {
		m.restRequests.Add(ctx, 1, attrs)
	}
	if m.restDuration != nil {
		m.restDuration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}
}

// RecordRESTError counts a REST request that failed before a response arrived.
func (m *VenueMetrics) RecordRESTError(ctx context.Context, venue, method, endpoint, code string) {
	if m == nil || m.restRequests == nil {
		return
	}
	m.restRequests.Add(ctx, 1, metric.WithAttributes(
		AttrVenue.String(venue),
		AttrMethod.String(method),
		AttrEndpoint.String(endpoint),
		attribute.String(string(AttrErrorCode), code),
	))
}
