package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roeblinglabs/bridgewatch/model"
)

// Pier table sentinel errors.
var (
	// ErrPierExists indicates a pier name was added twice.
	ErrPierExists = errors.New("pier already exists")
	// ErrNoPiers indicates an operation needs a non-empty pier table.
	ErrNoPiers = errors.New("pier table is empty")
)

// PierTable is an ordered collection of bridge piers. Nearest-pier
// selection breaks exact distance ties by iteration order, so the table
// preserves insertion order as an explicit invariant: a table built from
// the same source always scans piers in the same sequence.
type PierTable struct {
	piers  []model.Pier
	byName map[string]int
}

// NewPierTable constructs an empty table.
func NewPierTable() *PierTable {
	return &PierTable{byName: make(map[string]int)}
}

// Add appends a pier. Names are unique keys; adding a duplicate returns
// ErrPierExists.
func (t *PierTable) Add(p model.Pier) error {
	if _, exists := t.byName[p.Name]; exists {
		return fmt.Errorf("%w: %q", ErrPierExists, p.Name)
	}
	t.byName[p.Name] = len(t.piers)
	t.piers = append(t.piers, p)
	return nil
}

// Get returns the pier with the given name, or false if not present.
func (t *PierTable) Get(name string) (model.Pier, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return model.Pier{}, false
	}
	return t.piers[idx], true
}

// Piers returns the piers in insertion order. The returned slice is a
// copy; callers cannot disturb the table's ordering invariant.
func (t *PierTable) Piers() []model.Pier {
	out := make([]model.Pier, len(t.piers))
	copy(out, t.piers)
	return out
}

// Len returns the number of piers.
func (t *PierTable) Len() int { return len(t.piers) }

// Nearest returns the pier closest to pos by haversine distance, with the
// distance in nautical miles. On exact ties the first pier in table order
// wins. ok is false for an empty table.
func (t *PierTable) Nearest(pos LatLon) (pier model.Pier, distanceNM float64, ok bool) {
	best := -1
	bestDist := 0.0
	for i, p := range t.piers {
		d := Distance(pos, LatLon{Lat: p.Latitude, Lon: p.Longitude})
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return model.Pier{}, 0, false
	}
	return t.piers[best], bestDist, true
}

// LoadPierTable reads a JSON array of piers from r, preserving file order.
// The array form (rather than a name-keyed object) is what keeps the
// tie-break ordering reproducible across loads.
func LoadPierTable(r io.Reader) (*PierTable, error) {
	var piers []model.Pier
	dec := json.NewDecoder(r)
	if err := dec.Decode(&piers); err != nil {
		return nil, fmt.Errorf("LoadPierTable: decode failed: %w", err)
	}
	if len(piers) == 0 {
		return nil, fmt.Errorf("LoadPierTable: %w", ErrNoPiers)
	}

	table := NewPierTable()
	for _, p := range piers {
		if p.Name == "" {
			return nil, fmt.Errorf("LoadPierTable: pier with empty name")
		}
		if err := table.Add(p); err != nil {
			return nil, fmt.Errorf("LoadPierTable: %w", err)
		}
	}
	return table, nil
}

// Chesapeake Bay Bridge Eastbound span reference point.
const (
	BridgeLat = 38.99334868251498
	BridgeLon = -76.38219400260512
)

// ChesapeakeBayBridgeEastbound returns the monitored pier table for the
// eastbound (original 1952) span: 20 piers including the two main channel
// towers and the two anchorages. Order follows the span west to east and
// is part of the nearest-pier tie-break contract.
func ChesapeakeBayBridgeEastbound() *PierTable {
	table := NewPierTable()
	for _, p := range []model.Pier{
		{Name: "Pier 1", Latitude: 39.006685786202446, Longitude: -76.4030718781911, WaterDepthFt: 25},
		{Name: "Pier 2", Latitude: 39.0047100341694, Longitude: -76.40187242168875, WaterDepthFt: 30},
		{Name: "Pier 3", Latitude: 39.000576682498846, Longitude: -76.39931260304236, WaterDepthFt: 35},
		{Name: "Pier 4", Latitude: 38.99934618768639, Longitude: -76.3984344824108, WaterDepthFt: 40},
		{Name: "Pier 5", Latitude: 38.996661450758054, Longitude: -76.39490712081833, WaterDepthFt: 45},
		{Name: "Pier 6", Latitude: 38.99589831874505, Longitude: -76.39300195801506, WaterDepthFt: 50},
		{Name: "Pier 7 (Anchorage)", Latitude: 38.994722737169305, Longitude: -76.38834446411663, WaterDepthFt: 55},
		{Name: "Pier 8", Latitude: 38.994486462598395, Longitude: -76.38712588978133, WaterDepthFt: 60},
		{Name: "Pier 9 (Tower)", Latitude: 38.993873926517374, Longitude: -76.38489943454631, WaterDepthFt: 100},
		{Name: "Pier 10 (Tower)", Latitude: 38.99258665186238, Longitude: -76.37951868887593, WaterDepthFt: 100},
		{Name: "Pier 11", Latitude: 38.992082059562, Longitude: -76.37728342385851, WaterDepthFt: 60},
		{Name: "Pier 12 (Anchorage)", Latitude: 38.99169243968722, Longitude: -76.3757818114165, WaterDepthFt: 55},
		{Name: "Pier 13", Latitude: 38.991308218724654, Longitude: -76.37390965718366, WaterDepthFt: 50},
		{Name: "Pier 14", Latitude: 38.990858413902934, Longitude: -76.3718974636084, WaterDepthFt: 45},
		{Name: "Pier 15", Latitude: 38.990462929792685, Longitude: -76.37027880005854, WaterDepthFt: 40},
		{Name: "Pier 16", Latitude: 38.99001516265438, Longitude: -76.36827088727092, WaterDepthFt: 35},
		{Name: "Pier 17", Latitude: 38.989649864735526, Longitude: -76.36661155933896, WaterDepthFt: 30},
		{Name: "Pier 18", Latitude: 38.988335645418, Longitude: -76.36151863357634, WaterDepthFt: 25},
		{Name: "Pier 19", Latitude: 38.98694086994944, Longitude: -76.35556555408714, WaterDepthFt: 20},
		{Name: "Pier 20", Latitude: 38.98465161655931, Longitude: -76.34570149047524, WaterDepthFt: 15},
	} {
		if err := table.Add(p); err != nil {
			// The static table is compiled in; a duplicate is a
			// programming error.
			panic(err)
		}
	}
	return table
}
