package kb

import (
	"errors"
	"testing"
	"time"

	"github.com/roeblinglabs/bridgewatch/model"
)

func ptr(v float64) *float64 { return &v }

func ptrInt64(v int64) *int64 { return &v }

func TestUpsertReplacesLatestReport(t *testing.T) {
	store := NewFleetKB()
	now := time.Now()

	first := model.VesselReport{MMSI: ptrInt64(366999001), Name: "EVER FORWARD", SpeedKnots: ptr(10.0)}
	key, err := store.Upsert(first, now)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := first
	second.SpeedKnots = ptr(4.0)
	if _, err := store.Upsert(second, now.Add(time.Minute)); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after upserting same vessel twice", store.Len())
	}
	got, ok := store.Get(key)
	if !ok {
		t.Fatalf("Get(%q) not found", key)
	}
	if got.SOG() != 4.0 {
		t.Errorf("SOG = %v, want latest report's 4.0", got.SOG())
	}
}

func TestUpsertKeyFallsBackToName(t *testing.T) {
	store := NewFleetKB()

	key, err := store.Upsert(model.VesselReport{Name: "SKIPJACK"}, time.Now())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if key != "name:SKIPJACK" {
		t.Errorf("key = %q, want name:SKIPJACK", key)
	}

	_, err = store.Upsert(model.VesselReport{}, time.Now())
	if !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Upsert anonymous report: err = %v, want ErrNoIdentity", err)
	}
}

func TestReportsOrderedByKey(t *testing.T) {
	store := NewFleetKB()
	now := time.Now()
	for _, mmsi := range []int64{366000003, 366000001, 366000002} {
		if _, err := store.Upsert(model.VesselReport{MMSI: ptrInt64(mmsi)}, now); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	reports := store.Reports()
	if len(reports) != 3 {
		t.Fatalf("len(Reports) = %d, want 3", len(reports))
	}
	for i, want := range []string{"366000001", "366000002", "366000003"} {
		if got := reports[i].DisplayMMSI(); got != want {
			t.Errorf("reports[%d].MMSI = %s, want %s", i, got, want)
		}
	}
}

func TestEvictStale(t *testing.T) {
	store := NewFleetKB()
	base := time.Now()

	if _, err := store.Upsert(model.VesselReport{Name: "OLD"}, base.Add(-20*time.Minute)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := store.Upsert(model.VesselReport{Name: "FRESH"}, base); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	evicted := store.EvictStale(base.Add(-10 * time.Minute))
	if evicted != 1 {
		t.Fatalf("EvictStale = %d, want 1", evicted)
	}
	if _, ok := store.Get("name:OLD"); ok {
		t.Error("stale vessel still present after eviction")
	}
	if _, ok := store.Get("name:FRESH"); !ok {
		t.Error("fresh vessel was evicted")
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	store := NewFleetKB()

	var events []Event
	unsubscribe := store.Subscribe(func(e Event) { events = append(events, e) })

	base := time.Now()
	if _, err := store.Upsert(model.VesselReport{Name: "SKIPJACK"}, base.Add(-time.Hour)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	store.EvictStale(base)

	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Type != EventVesselUpserted || events[1].Type != EventVesselEvicted {
		t.Errorf("event types = %v, %v, want upsert then evict", events[0].Type, events[1].Type)
	}

	unsubscribe()
	if _, err := store.Upsert(model.VesselReport{Name: "SKIPJACK"}, base); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("len(events) = %d after unsubscribe, want still 2", len(events))
	}
}
