package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/hirekit/hirekit"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Pipeline metrics
	StatusRecomputesTotal metric.Int64Counter
	StatusChangesTotal    metric.Int64Counter
	StageChangesTotal     metric.Int64Counter
	StageChangeDuration   metric.Float64Histogram

	// Concurrency metrics
	VersionConflictsTotal metric.Int64Counter
	StageChangeRetries    metric.Int64Counter

	// Transfer metrics
	TransfersInitiatedTotal metric.Int64Counter
	TransfersCancelledTotal metric.Int64Counter
	TransfersRejectedTotal  metric.Int64Counter

	// Sharing metrics
	SharesGrantedTotal metric.Int64Counter
	SharesRevokedTotal metric.Int64Counter

	// Event metrics
	EventsPublishedTotal metric.Int64Counter
	EventsDroppedTotal   metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	// Pipeline metrics
	m.StatusRecomputesTotal, _ = meter.Int64Counter(
		"hirekit.pipeline.recomputes.total",
		metric.WithDescription("Total number of entity status recomputations"),
		metric.WithUnit("{recompute}"),
	)

	m.StatusChangesTotal, _ = meter.Int64Counter(
		"hirekit.pipeline.status_changes.total",
		metric.WithDescription("Total number of recomputations that changed the entity status"),
		metric.WithUnit("{change}"),
	)

	m.StageChangesTotal, _ = meter.Int64Counter(
		"hirekit.pipeline.stage_changes.total",
		metric.WithDescription("Total number of application stage changes"),
		metric.WithUnit("{change}"),
	)

	m.StageChangeDuration, _ = meter.Float64Histogram(
		"hirekit.pipeline.stage_change.duration",
		metric.WithDescription("Duration of stage change operations including status recompute"),
		metric.WithUnit("ms"),
	)

	// Concurrency metrics
	m.VersionConflictsTotal, _ = meter.Int64Counter(
		"hirekit.store.version_conflicts.total",
		metric.WithDescription("Total number of optimistic lock conflicts"),
		metric.WithUnit("{conflict}"),
	)

	m.StageChangeRetries, _ = meter.Int64Counter(
		"hirekit.pipeline.stage_change.retries.total",
		metric.WithDescription("Total number of stage change retries after a version conflict"),
		metric.WithUnit("{retry}"),
	)

	// Transfer metrics
	m.TransfersInitiatedTotal, _ = meter.Int64Counter(
		"hirekit.transfers.initiated.total",
		metric.WithDescription("Total number of entity transfers initiated"),
		metric.WithUnit("{transfer}"),
	)

	m.TransfersCancelledTotal, _ = meter.Int64Counter(
		"hirekit.transfers.cancelled.total",
		metric.WithDescription("Total number of entity transfers cancelled inside the window"),
		metric.WithUnit("{transfer}"),
	)

	m.TransfersRejectedTotal, _ = meter.Int64Counter(
		"hirekit.transfers.rejected.total",
		metric.WithDescription("Total number of transfer cancellations rejected (expired or closed)"),
		metric.WithUnit("{rejection}"),
	)

	// Sharing metrics
	m.SharesGrantedTotal, _ = meter.Int64Counter(
		"hirekit.shares.granted.total",
		metric.WithDescription("Total number of access grants created"),
		metric.WithUnit("{grant}"),
	)

	m.SharesRevokedTotal, _ = meter.Int64Counter(
		"hirekit.shares.revoked.total",
		metric.WithDescription("Total number of access grants revoked"),
		metric.WithUnit("{grant}"),
	)

	// Event metrics
	m.EventsPublishedTotal, _ = meter.Int64Counter(
		"hirekit.events.published.total",
		metric.WithDescription("Total number of domain events published"),
		metric.WithUnit("{event}"),
	)

	m.EventsDroppedTotal, _ = meter.Int64Counter(
		"hirekit.events.dropped.total",
		metric.WithDescription("Total number of domain events dropped due to slow subscribers"),
		metric.WithUnit("{event}"),
	)

	return m
}
