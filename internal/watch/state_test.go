package watch

import (
	"context"
	"testing"
	"time"

	"github.com/roeblinglabs/bridgewatch/core"
	"github.com/roeblinglabs/bridgewatch/kb"
	"github.com/roeblinglabs/bridgewatch/model"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt64(v int64) *int64     { return &v }

func testPiers(t *testing.T) *core.PierTable {
	t.Helper()
	piers := core.NewPierTable()
	if err := piers.Add(model.Pier{Name: "Pier 1", Latitude: 38.9933, Longitude: -76.3822, WaterDepthFt: 40}); err != nil {
		t.Fatalf("add pier: %v", err)
	}
	return piers
}

func fastVessel(name string, mmsi int64) model.VesselReport {
	return model.VesselReport{
		MMSI:       ptrInt64(mmsi),
		Name:       name,
		Latitude:   ptrFloat(38.9970),
		Longitude:  ptrFloat(-76.3822),
		SpeedKnots: ptrFloat(13),
		CourseDeg:  ptrFloat(180),
		ShipType:   "Container Ship",
		DimensionA: ptrFloat(120),
		DimensionB: ptrFloat(30),
	}
}

type fakeRecorder struct {
	summaries []model.FleetSummary
	runs      int
}

func (f *fakeRecorder) SetFleetSummary(s model.FleetSummary) { f.summaries = append(f.summaries, s) }
func (f *fakeRecorder) ObserveAnalysisRun(time.Duration)     { f.runs++ }

func TestApplySnapshotAnalyzesFleet(t *testing.T) {
	rec := &fakeRecorder{}
	state := NewState(testPiers(t), kb.NewFleetKB(), nil, WithMetricsRecorder(rec))

	ts := time.Date(2025, 3, 26, 1, 28, 0, 0, time.UTC)
	summary, err := state.ApplySnapshot(context.Background(), model.Snapshot{
		Timestamp: ts,
		Vessels: []model.VesselReport{
			fastVessel("DALI", 368117230),
			{Name: "DRIFTER", Latitude: ptrFloat(39.2), Longitude: ptrFloat(-76.5)},
		},
	})
	if err != nil {
		t.Fatalf("ApplySnapshot: %v", err)
	}

	if summary.TotalVessels != 2 {
		t.Fatalf("total vessels = %d, want 2", summary.TotalVessels)
	}
	if summary.Critical != 1 {
		t.Fatalf("critical = %d, want 1", summary.Critical)
	}
	if summary.ApproachingCount != 1 {
		t.Fatalf("approaching = %d, want 1", summary.ApproachingCount)
	}

	if rec.runs != 1 || len(rec.summaries) != 1 {
		t.Fatalf("recorder runs = %d summaries = %d, want 1/1", rec.runs, len(rec.summaries))
	}
	if rec.summaries[0] != summary {
		t.Fatalf("recorded summary = %+v, want %+v", rec.summaries[0], summary)
	}

	snapTime, analyzedAt := state.SnapshotTime()
	if !snapTime.Equal(ts) {
		t.Fatalf("snapshot time = %v, want %v", snapTime, ts)
	}
	if analyzedAt.IsZero() {
		t.Fatal("analyzed time not recorded")
	}
}

func TestApplySnapshotMergesAcrossSnapshots(t *testing.T) {
	state := NewState(testPiers(t), kb.NewFleetKB(), nil)
	ctx := context.Background()
	base := time.Date(2025, 3, 26, 1, 0, 0, 0, time.UTC)

	if _, err := state.ApplySnapshot(ctx, model.Snapshot{
		Timestamp: base,
		Vessels:   []model.VesselReport{fastVessel("ALPHA", 1)},
	}); err != nil {
		t.Fatalf("first snapshot: %v", err)
	}

	summary, err := state.ApplySnapshot(ctx, model.Snapshot{
		Timestamp: base.Add(time.Minute),
		Vessels:   []model.VesselReport{fastVessel("BRAVO", 2)},
	})
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}

	if summary.TotalVessels != 2 {
		t.Fatalf("merged fleet = %d vessels, want 2", summary.TotalVessels)
	}
	if got := len(state.Vessels()); got != 2 {
		t.Fatalf("Vessels() = %d, want 2", got)
	}
}

func TestApplySnapshotEvictsStaleVessels(t *testing.T) {
	state := NewState(testPiers(t), kb.NewFleetKB(), nil, WithStaleAfter(5*time.Minute))
	ctx := context.Background()
	base := time.Date(2025, 3, 26, 1, 0, 0, 0, time.UTC)

	if _, err := state.ApplySnapshot(ctx, model.Snapshot{
		Timestamp: base,
		Vessels:   []model.VesselReport{fastVessel("OLD", 1)},
	}); err != nil {
		t.Fatalf("first snapshot: %v", err)
	}

	summary, err := state.ApplySnapshot(ctx, model.Snapshot{
		Timestamp: base.Add(10 * time.Minute),
		Vessels:   []model.VesselReport{fastVessel("FRESH", 2)},
	})
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}

	if summary.TotalVessels != 1 {
		t.Fatalf("fleet after eviction = %d, want 1", summary.TotalVessels)
	}
	if got := state.Vessels(); len(got) != 1 || got[0].Name != "FRESH" {
		t.Fatalf("surviving fleet = %+v, want only FRESH", got)
	}
}

func TestApplySnapshotSkipsAnonymousReports(t *testing.T) {
	state := NewState(testPiers(t), kb.NewFleetKB(), nil)

	summary, err := state.ApplySnapshot(context.Background(), model.Snapshot{
		Vessels: []model.VesselReport{
			fastVessel("DALI", 368117230),
			{Latitude: ptrFloat(39.0), Longitude: ptrFloat(-76.4)},
		},
	})
	if err != nil {
		t.Fatalf("ApplySnapshot: %v", err)
	}
	if summary.TotalVessels != 1 {
		t.Fatalf("total vessels = %d, want 1 (anonymous skipped)", summary.TotalVessels)
	}
}

func TestAnalysesFilterAndTruncate(t *testing.T) {
	state := NewState(testPiers(t), kb.NewFleetKB(), nil)

	vessels := []model.VesselReport{
		fastVessel("ONE", 1),
		fastVessel("TWO", 2),
		{MMSI: ptrInt64(3), Name: "FAR", Latitude: ptrFloat(39.5), Longitude: ptrFloat(-76.0)},
	}
	if _, err := state.ApplySnapshot(context.Background(), model.Snapshot{Vessels: vessels}); err != nil {
		t.Fatalf("ApplySnapshot: %v", err)
	}

	all := state.Analyses("", 0)
	if len(all) != 3 {
		t.Fatalf("unfiltered analyses = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ThreatScore < all[i].ThreatScore {
			t.Fatalf("analyses not sorted descending: %d before %d", all[i-1].ThreatScore, all[i].ThreatScore)
		}
	}

	critical := state.Analyses(model.ThreatCritical, 0)
	if len(critical) != 2 {
		t.Fatalf("critical analyses = %d, want 2", len(critical))
	}

	topOne := state.Analyses("", 1)
	if len(topOne) != 1 {
		t.Fatalf("top-1 analyses = %d, want 1", len(topOne))
	}

	low := state.Analyses(model.ThreatLow, 5)
	if len(low) != 1 || low[0].VesselName != "FAR" {
		t.Fatalf("low analyses = %+v, want only FAR", low)
	}
}

func TestProjectedAnalyses(t *testing.T) {
	state := NewState(testPiers(t), kb.NewFleetKB(), nil)

	// 13 kn due south from 0.22 nm north of the pier.
	if _, err := state.ApplySnapshot(context.Background(), model.Snapshot{
		Vessels: []model.VesselReport{fastVessel("DALI", 1)},
	}); err != nil {
		t.Fatalf("ApplySnapshot: %v", err)
	}

	baseline := state.Analyses("", 0)[0]
	projected := state.ProjectedAnalyses(time.Minute)
	if len(projected) != 1 {
		t.Fatalf("projected analyses = %d, want 1", len(projected))
	}
	if projected[0].DistanceNM >= baseline.DistanceNM {
		t.Fatalf("projected distance = %.3f nm, want closer than %.3f nm",
			projected[0].DistanceNM, baseline.DistanceNM)
	}

	// The projection must not disturb the stored analyses.
	after := state.Analyses("", 0)[0]
	if after.DistanceNM != baseline.DistanceNM {
		t.Fatalf("stored distance changed: %.3f -> %.3f", baseline.DistanceNM, after.DistanceNM)
	}
}

func TestStateBeforeFirstSnapshot(t *testing.T) {
	state := NewState(testPiers(t), kb.NewFleetKB(), nil)

	if got := state.Summary(); got != (model.FleetSummary{}) {
		t.Fatalf("summary = %+v, want zero", got)
	}
	if got := state.Analyses("", 0); len(got) != 0 {
		t.Fatalf("analyses = %d, want 0", len(got))
	}
	if got := state.Piers(); len(got) != 1 {
		t.Fatalf("piers = %d, want 1", len(got))
	}
	snapTime, analyzedAt := state.SnapshotTime()
	if !snapTime.IsZero() || !analyzedAt.IsZero() {
		t.Fatalf("times = %v/%v, want zero", snapTime, analyzedAt)
	}
}
