package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestCollector exposes ingestion-specific Prometheus metrics.
type IngestCollector struct {
	gatherer prometheus.Gatherer

	FetchDuration     prometheus.Histogram
	FetchErrors       prometheus.Counter
	SnapshotTimestamp prometheus.Gauge
	VesselsIngested   prometheus.Gauge
}

// NewIngestCollector registers ingest metrics against the provided
// registerer, defaulting to the global registry when nil.
func NewIngestCollector(reg prometheus.Registerer) (*IngestCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	fetchHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridgewatch_ingest_fetch_duration_seconds",
		Help:    "Duration of AIS snapshot fetches.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
	fetchHistogram, err := registerHistogram(reg, fetchHistogram, "bridgewatch_ingest_fetch_duration_seconds")
	if err != nil {
		return nil, err
	}

	fetchErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridgewatch_ingest_fetch_errors_total",
		Help: "Cumulative number of failed AIS snapshot fetches.",
	})
	fetchErrors, err = registerCounter(reg, fetchErrors, "bridgewatch_ingest_fetch_errors_total")
	if err != nil {
		return nil, err
	}

	snapshotTS := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridgewatch_ingest_snapshot_timestamp_seconds",
		Help: "Unix timestamp of the most recently ingested snapshot.",
	})
	snapshotTS, err = registerGauge(reg, snapshotTS, "bridgewatch_ingest_snapshot_timestamp_seconds")
	if err != nil {
		return nil, err
	}

	vessels := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridgewatch_ingest_vessels",
		Help: "Number of vessel reports in the most recently ingested snapshot.",
	})
	vessels, err = registerGauge(reg, vessels, "bridgewatch_ingest_vessels")
	if err != nil {
		return nil, err
	}

	return &IngestCollector{
		gatherer:          gatherer,
		FetchDuration:     fetchHistogram,
		FetchErrors:       fetchErrors,
		SnapshotTimestamp: snapshotTS,
		VesselsIngested:   vessels,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *IngestCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveFetch records one completed fetch attempt.
func (c *IngestCollector) ObserveFetch(d time.Duration, err error) {
	if c == nil {
		return
	}
	if c.FetchDuration != nil {
		c.FetchDuration.Observe(d.Seconds())
	}
	if err != nil && c.FetchErrors != nil {
		c.FetchErrors.Inc()
	}
}

// SetSnapshot records the timestamp and size of the latest snapshot.
func (c *IngestCollector) SetSnapshot(ts time.Time, vessels int) {
	if c == nil {
		return
	}
	if c.SnapshotTimestamp != nil {
		c.SnapshotTimestamp.Set(float64(ts.Unix()))
	}
	if c.VesselsIngested != nil {
		c.VesselsIngested.Set(float64(vessels))
	}
}
