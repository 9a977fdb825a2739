package kb

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/roeblinglabs/bridgewatch/model"
)

// ErrNoIdentity indicates a report carried neither an MMSI nor a name and
// cannot be tracked across snapshots.
var ErrNoIdentity = errors.New("vessel report has no identity")

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventVesselUpserted EventType = iota
	EventVesselEvicted
)

// Event is emitted to subscribers when the tracked fleet changes.
type Event struct {
	Type   EventType
	Key    string
	Report model.VesselReport
}

type entry struct {
	report     model.VesselReport
	observedAt time.Time
}

// FleetKB is an in-memory, thread-safe store of the latest vessel report
// per tracked vessel. AIS feeds deliver incremental updates; the KB merges
// them into one current fleet picture and ages out vessels that stop
// reporting.
type FleetKB struct {
	mu sync.RWMutex

	vessels map[string]entry

	subs []func(Event)
}

// NewFleetKB constructs an empty KB.
func NewFleetKB() *FleetKB {
	return &FleetKB{vessels: make(map[string]entry)}
}

// Key derives the tracking key for a report: the MMSI when present,
// otherwise the vessel name. Reports with neither cannot be tracked.
func Key(r model.VesselReport) (string, error) {
	if r.MMSI != nil {
		return "mmsi:" + r.DisplayMMSI(), nil
	}
	if r.Name != "" {
		return "name:" + r.Name, nil
	}
	return "", ErrNoIdentity
}

// Upsert stores the latest report for a vessel, replacing any earlier one,
// and notifies subscribers. It returns the tracking key.
func (kb *FleetKB) Upsert(r model.VesselReport, observedAt time.Time) (string, error) {
	key, err := Key(r)
	if err != nil {
		return "", err
	}

	kb.mu.Lock()
	kb.vessels[key] = entry{report: r, observedAt: observedAt}
	subs := append([]func(Event){}, kb.subs...)
	kb.mu.Unlock()

	// Notify outside the lock to avoid deadlocks.
	event := Event{Type: EventVesselUpserted, Key: key, Report: r}
	for _, sub := range subs {
		sub(event)
	}
	return key, nil
}

// Get returns the latest report for a tracking key.
func (kb *FleetKB) Get(key string) (model.VesselReport, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	e, ok := kb.vessels[key]
	return e.report, ok
}

// Len returns the number of tracked vessels.
func (kb *FleetKB) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.vessels)
}

// Reports returns a snapshot of the current fleet, ordered by tracking key
// so repeated calls over the same fleet state feed the analyzer an
// identical sequence.
func (kb *FleetKB) Reports() []model.VesselReport {
	kb.mu.RLock()
	keys := make([]string, 0, len(kb.vessels))
	for key := range kb.vessels {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]model.VesselReport, 0, len(keys))
	for _, key := range keys {
		out = append(out, kb.vessels[key].report)
	}
	kb.mu.RUnlock()
	return out
}

// EvictStale removes vessels last observed before the cutoff and notifies
// subscribers for each. It returns the number evicted.
func (kb *FleetKB) EvictStale(cutoff time.Time) int {
	kb.mu.Lock()
	var evicted []Event
	for key, e := range kb.vessels {
		if e.observedAt.Before(cutoff) {
			evicted = append(evicted, Event{Type: EventVesselEvicted, Key: key, Report: e.report})
			delete(kb.vessels, key)
		}
	}
	subs := append([]func(Event){}, kb.subs...)
	kb.mu.Unlock()

	for _, event := range evicted {
		for _, sub := range subs {
			sub(event)
		}
	}
	return len(evicted)
}

// Subscribe registers a callback for KB events. It returns an unsubscribe
// function.
func (kb *FleetKB) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.subs = append(kb.subs, fn)
	idx := len(kb.subs) - 1

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		if idx < 0 || idx >= len(kb.subs) {
			return
		}
		kb.subs = append(kb.subs[:idx], kb.subs[idx+1:]...)
		idx = -1
	}
}
