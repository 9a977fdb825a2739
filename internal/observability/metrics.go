package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roeblinglabs/bridgewatch/model"
)

// WatchCollector bundles Prometheus metrics for the monitor: API traffic
// on the HTTP surface and fleet-level threat gauges fed by each analysis
// run.
type WatchCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	FleetVessels     prometheus.Gauge
	FleetThreats     *prometheus.GaugeVec
	FleetApproaching prometheus.Gauge
	FleetMaxImpactMN prometheus.Gauge

	AnalysisRuns     prometheus.Counter
	AnalysisDuration prometheus.Histogram
}

// NewWatchCollector registers the monitor's Prometheus metrics against the
// provided registerer, defaulting to the global registry when nil.
func NewWatchCollector(reg prometheus.Registerer) (*WatchCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridgewatch_http_requests_total",
		Help: "Total number of handled API requests, labeled by path, method, and status code.",
	}, []string{"path", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "bridgewatch_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bridgewatch_http_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"path", "method"})
	durations, err = registerHistogramVec(reg, durations, "bridgewatch_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	vessels, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridgewatch_fleet_vessels",
		Help: "Number of vessels in the latest analysis run.",
	}), "bridgewatch_fleet_vessels")
	if err != nil {
		return nil, err
	}

	threats := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bridgewatch_fleet_threats",
		Help: "Number of vessels per threat level in the latest analysis run.",
	}, []string{"level"})
	threats, err = registerGaugeVec(reg, threats, "bridgewatch_fleet_threats")
	if err != nil {
		return nil, err
	}

	approaching, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridgewatch_fleet_approaching_vessels",
		Help: "Number of vessels currently heading toward a pier.",
	}), "bridgewatch_fleet_approaching_vessels")
	if err != nil {
		return nil, err
	}

	maxImpact, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridgewatch_fleet_max_impact_force_meganewtons",
		Help: "Largest potential impact force in the latest analysis run.",
	}), "bridgewatch_fleet_max_impact_force_meganewtons")
	if err != nil {
		return nil, err
	}

	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridgewatch_analysis_runs_total",
		Help: "Cumulative number of fleet analysis runs.",
	})
	runs, err = registerCounter(reg, runs, "bridgewatch_analysis_runs_total")
	if err != nil {
		return nil, err
	}

	analysisDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridgewatch_analysis_duration_seconds",
		Help:    "Duration of one fleet analysis run.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})
	analysisDuration, err = registerHistogram(reg, analysisDuration, "bridgewatch_analysis_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &WatchCollector{
		gatherer:         gatherer,
		HTTPRequests:     requests,
		HTTPDurations:    durations,
		FleetVessels:     vessels,
		FleetThreats:     threats,
		FleetApproaching: approaching,
		FleetMaxImpactMN: maxImpact,
		AnalysisRuns:     runs,
		AnalysisDuration: analysisDuration,
	}, nil
}

// Middleware records request counts and durations for an HTTP handler
// mounted at path.
func (c *WatchCollector) Middleware(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

// statusRecorder captures the response status code for metric labels.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *WatchCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetFleetSummary satisfies the FleetMetricsRecorder interface so the
// watch state can drive gauge values directly after each analysis run.
func (c *WatchCollector) SetFleetSummary(summary model.FleetSummary) {
	if c == nil {
		return
	}
	if c.FleetVessels != nil {
		c.FleetVessels.Set(float64(summary.TotalVessels))
	}
	if c.FleetThreats != nil {
		c.FleetThreats.WithLabelValues(string(model.ThreatCritical)).Set(float64(summary.Critical))
		c.FleetThreats.WithLabelValues(string(model.ThreatHigh)).Set(float64(summary.High))
		c.FleetThreats.WithLabelValues(string(model.ThreatMedium)).Set(float64(summary.Medium))
		c.FleetThreats.WithLabelValues(string(model.ThreatLow)).Set(float64(summary.Low))
	}
	if c.FleetApproaching != nil {
		c.FleetApproaching.Set(float64(summary.ApproachingCount))
	}
	if c.FleetMaxImpactMN != nil {
		c.FleetMaxImpactMN.Set(summary.MaxImpactForceMN)
	}
}

// ObserveAnalysisRun records one completed analysis run.
func (c *WatchCollector) ObserveAnalysisRun(d time.Duration) {
	if c == nil {
		return
	}
	if c.AnalysisRuns != nil {
		c.AnalysisRuns.Inc()
	}
	if c.AnalysisDuration != nil {
		c.AnalysisDuration.Observe(d.Seconds())
	}
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
