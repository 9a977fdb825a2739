package model

import (
	"strconv"
	"time"
)

// VesselReport is a single AIS-style snapshot of one vessel's state.
//
// Optional fields are pointers: nil means the transponder did not report
// the field, which is not the same thing as a reported zero. Default
// substitution (speed/course 0, 50 m fallback length) happens in the
// analyzer, never in the decoder.
type VesselReport struct {
	// MMSI is the vessel's Maritime Mobile Service Identity. Some class-B
	// transponders omit it.
	MMSI *int64 `json:"mmsi,omitempty"`

	Name string `json:"name,omitempty"`

	// Latitude/Longitude in degrees. A report missing either is
	// unanalyzable and produces no ThreatAnalysis.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// SpeedKnots is speed over ground; CourseDeg is course over ground
	// in degrees [0,360).
	SpeedKnots *float64 `json:"sog,omitempty"`
	CourseDeg  *float64 `json:"cog,omitempty"`

	// ShipType is the free-text declared type ("Container Ship",
	// "Crude Oil Tanker", ...). Empty means unknown.
	ShipType string `json:"ship_type,omitempty"`

	// DimensionA and DimensionB are the reported hull offsets (metres)
	// from the GPS antenna to bow and stern; their sum approximates
	// overall length.
	DimensionA *float64 `json:"dimension_a,omitempty"`
	DimensionB *float64 `json:"dimension_b,omitempty"`
}

// HasPosition reports whether the vessel carried both coordinates.
func (v VesselReport) HasPosition() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// DisplayMMSI renders the MMSI for presentation, "N/A" when absent.
func (v VesselReport) DisplayMMSI() string {
	if v.MMSI == nil {
		return "N/A"
	}
	return strconv.FormatInt(*v.MMSI, 10)
}

// DisplayName returns the vessel name, "Unknown" when absent.
func (v VesselReport) DisplayName() string {
	if v.Name == "" {
		return "Unknown"
	}
	return v.Name
}

// SOG returns the reported speed over ground, substituting the documented
// default of 0 knots when absent.
func (v VesselReport) SOG() float64 {
	if v.SpeedKnots == nil {
		return 0
	}
	return *v.SpeedKnots
}

// COG returns the reported course over ground, substituting the documented
// default of 0 degrees when absent.
func (v VesselReport) COG() float64 {
	if v.CourseDeg == nil {
		return 0
	}
	return *v.CourseDeg
}

// Snapshot is one ingested set of vessel reports with the time the feed
// produced them.
type Snapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	Vessels   []VesselReport `json:"vessels"`
}
