package watch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/roeblinglabs/bridgewatch/core"
	"github.com/roeblinglabs/bridgewatch/internal/logging"
	"github.com/roeblinglabs/bridgewatch/kb"
	"github.com/roeblinglabs/bridgewatch/model"
)

const tracerName = "bridgewatch/watch"

// MetricsRecorder receives fleet-level updates after each analysis run.
type MetricsRecorder interface {
	SetFleetSummary(model.FleetSummary)
	ObserveAnalysisRun(time.Duration)
}

// State coordinates the monitor's shared data: the pier table, the fleet
// knowledge base, and the most recent analysis results.
//
// mu is the coarse state-level lock. Take it before touching the KB to
// maintain the global lock ordering of State -> FleetKB.
type State struct {
	mu sync.RWMutex

	piers *core.PierTable
	fleet *kb.FleetKB

	analyses     []model.ThreatAnalysis
	summary      model.FleetSummary
	snapshotTime time.Time
	analyzedAt   time.Time

	// staleAfter bounds how long a vessel survives without a fresh
	// report. Zero disables eviction.
	staleAfter time.Duration

	log     logging.Logger
	metrics MetricsRecorder
}

// Option customises State construction.
type Option func(*State)

// WithMetricsRecorder attaches an optional metrics recorder for fleet gauges.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *State) {
		s.metrics = m
	}
}

// WithStaleAfter enables eviction of vessels that have not reported
// within d of the snapshot timestamp.
func WithStaleAfter(d time.Duration) Option {
	return func(s *State) {
		s.staleAfter = d
	}
}

// NewState wires the pier table and fleet knowledge base together.
func NewState(piers *core.PierTable, fleet *kb.FleetKB, log logging.Logger, opts ...Option) *State {
	if piers == nil {
		piers = core.NewPierTable()
	}
	if fleet == nil {
		fleet = kb.NewFleetKB()
	}
	if log == nil {
		log = logging.Noop()
	}
	state := &State{
		piers: piers,
		fleet: fleet,
		log:   log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(state)
		}
	}
	return state
}

// Fleet exposes the fleet knowledge base for subscribers.
func (s *State) Fleet() *kb.FleetKB {
	return s.fleet
}

// ApplySnapshot merges one snapshot into the fleet KB and re-runs the
// analysis over the merged fleet. Reports without any identity are
// counted and skipped rather than failing the whole snapshot.
func (s *State) ApplySnapshot(ctx context.Context, snap model.Snapshot) (model.FleetSummary, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fleet.analyze")
	defer span.End()

	start := time.Now()
	observedAt := snap.Timestamp
	if observedAt.IsZero() {
		observedAt = start.UTC()
	}

	s.mu.Lock()

	skipped := 0
	for _, report := range snap.Vessels {
		if _, err := s.fleet.Upsert(report, observedAt); err != nil {
			if errors.Is(err, kb.ErrNoIdentity) {
				skipped++
				continue
			}
			s.mu.Unlock()
			return model.FleetSummary{}, err
		}
	}

	evicted := 0
	if s.staleAfter > 0 {
		evicted = s.fleet.EvictStale(observedAt.Add(-s.staleAfter))
	}

	analyses := core.AnalyzeFleet(s.fleet.Reports(), s.piers)
	summary := core.Summarize(analyses)

	s.analyses = analyses
	s.summary = summary
	s.snapshotTime = observedAt
	s.analyzedAt = start.UTC()
	s.mu.Unlock()

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.SetFleetSummary(summary)
		s.metrics.ObserveAnalysisRun(elapsed)
	}

	span.SetAttributes(
		attribute.Int("fleet.vessels", summary.TotalVessels),
		attribute.Int("fleet.critical", summary.Critical),
		attribute.Int("fleet.approaching", summary.ApproachingCount),
	)

	s.log.Info(ctx, "fleet analysis complete",
		logging.Int("vessels", summary.TotalVessels),
		logging.Int("critical", summary.Critical),
		logging.Int("high", summary.High),
		logging.Int("approaching", summary.ApproachingCount),
		logging.Int("skipped", skipped),
		logging.Int("evicted", evicted),
		logging.Float64("max_impact_mn", summary.MaxImpactForceMN),
	)
	return summary, nil
}

// Analyses returns the latest ranked analyses, optionally filtered to a
// single threat level and truncated to the top n entries. n <= 0 means
// no truncation.
func (s *State) Analyses(level model.ThreatLevel, n int) []model.ThreatAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ThreatAnalysis, 0, len(s.analyses))
	for _, a := range s.analyses {
		if level != "" && a.ThreatLevel != level {
			continue
		}
		out = append(out, a)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

// ProjectedAnalyses dead-reckons every tracked vessel d forward along its
// reported course and re-runs the analysis over the projected fleet. The
// stored analyses are untouched; the projection is computed per call.
func (s *State) ProjectedAnalyses(d time.Duration) []model.ThreatAnalysis {
	s.mu.RLock()
	reports := s.fleet.Reports()
	s.mu.RUnlock()

	for i := range reports {
		v := &reports[i]
		if !v.HasPosition() {
			continue
		}
		pos := core.DeadReckon(
			core.LatLon{Lat: *v.Latitude, Lon: *v.Longitude},
			v.COG(), v.SOG(), d,
		)
		v.Latitude = &pos.Lat
		v.Longitude = &pos.Lon
	}
	return core.AnalyzeFleet(reports, s.piers)
}

// Summary returns the latest fleet summary.
func (s *State) Summary() model.FleetSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Vessels returns the current fleet reports in stable key order.
func (s *State) Vessels() []model.VesselReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fleet.Reports()
}

// Piers returns the monitored pier table's entries in protection order.
func (s *State) Piers() []model.Pier {
	return s.piers.Piers()
}

// SnapshotTime returns the timestamp of the last ingested snapshot and
// the wall time the analysis ran, both zero before the first snapshot.
func (s *State) SnapshotTime() (snapshot, analyzed time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotTime, s.analyzedAt
}
