package core

import "github.com/roeblinglabs/bridgewatch/model"

// approachConeDeg is the maximum angular difference between a vessel's
// course and the bearing to the nearest pier for the vessel to count as
// approaching it.
const approachConeDeg = 30.0

// Score thresholds for the four threat levels.
const (
	criticalThreshold = 60
	highThreshold     = 40
	mediumThreshold   = 20
)

// IsApproaching reports whether a vessel steering courseDeg is headed
// toward a target at bearingDeg, within the approach cone.
func IsApproaching(courseDeg, bearingDeg float64) bool {
	return BearingDelta(courseDeg, bearingDeg) < approachConeDeg
}

// ThreatScore combines proximity, speed, heading alignment, and mass into
// the weighted threat score and its level. The factors are independent and
// additive; each is monotone in the threatening direction, so the total
// never decreases when a vessel gets closer, faster, heavier, or turns
// toward a pier.
func ThreatScore(distanceNM, speedKnots float64, approaching bool, massTonnes float64) (int, model.ThreatLevel) {
	score := 0

	switch {
	case distanceNM < 0.5:
		score += 40
	case distanceNM < 1.0:
		score += 25
	case distanceNM < 2.0:
		score += 10
	}

	switch {
	case speedKnots > 12:
		score += 30
	case speedKnots > 8:
		score += 20
	case speedKnots > 4:
		score += 10
	}

	if approaching {
		score += 20
	}

	switch {
	case massTonnes > 50000:
		score += 10
	case massTonnes > 10000:
		score += 5
	}

	return score, LevelForScore(score)
}

// LevelForScore maps a threat score onto its classification tier.
func LevelForScore(score int) model.ThreatLevel {
	switch {
	case score >= criticalThreshold:
		return model.ThreatCritical
	case score >= highThreshold:
		return model.ThreatHigh
	case score >= mediumThreshold:
		return model.ThreatMedium
	default:
		return model.ThreatLow
	}
}
