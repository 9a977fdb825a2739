package model

// ThreatLevel is the four-tier allision risk classification. It is derived
// from the threat score alone: >=60 critical, >=40 high, >=20 medium,
// otherwise low.
type ThreatLevel string

const (
	ThreatCritical ThreatLevel = "CRITICAL"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatMedium   ThreatLevel = "MEDIUM"
	ThreatLow      ThreatLevel = "LOW"
)

// Rank orders levels for comparisons: higher is more severe. Unknown
// strings rank below LOW.
func (l ThreatLevel) Rank() int {
	switch l {
	case ThreatCritical:
		return 3
	case ThreatHigh:
		return 2
	case ThreatMedium:
		return 1
	case ThreatLow:
		return 0
	}
	return -1
}

// ThreatAnalysis is the immutable result of analyzing one vessel report
// against the pier table. It has no identity across snapshots; every
// refresh produces a fresh set.
//
// LengthM is nil when the vessel reported no usable dimensions; MassTonnes
// is always present (a 50 m fallback length feeds the estimator).
// TimeToPierMin is nil when the vessel is stationary.
type ThreatAnalysis struct {
	VesselName string   `json:"vessel_name"`
	MMSI       string   `json:"mmsi"`
	ShipType   string   `json:"ship_type"`
	LengthM    *float64 `json:"length_m"`
	MassTonnes float64  `json:"mass_tonnes"`
	SpeedKnots float64  `json:"speed_knots"`
	CourseDeg  float64  `json:"course"`

	ClosestPier   string   `json:"closest_pier"`
	DistanceNM    float64  `json:"distance_nm"`
	BearingToPier float64  `json:"bearing_to_pier"`
	IsApproaching bool     `json:"is_approaching"`
	TimeToPierMin *float64 `json:"time_to_pier_min"`

	ImpactForceMN float64     `json:"impact_force_MN"`
	ThreatScore   int         `json:"threat_score"`
	ThreatLevel   ThreatLevel `json:"threat_level"`
}

// FleetSummary aggregates one analysis run. Zero-valued for an empty run.
type FleetSummary struct {
	TotalVessels     int     `json:"total_vessels"`
	Critical         int     `json:"critical"`
	High             int     `json:"high"`
	Medium           int     `json:"medium"`
	Low              int     `json:"low"`
	ApproachingCount int     `json:"approaching_count"`
	MaxImpactForceMN float64 `json:"max_impact_force"`
}
