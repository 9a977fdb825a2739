package core

import (
	"sort"

	"github.com/roeblinglabs/bridgewatch/model"
)

// AnalyzeVessel scores one vessel report against the pier table. It
// returns nil when the report carries no position (unanalyzable, never an
// error) or when the table is empty. Missing optional fields are replaced
// with their documented defaults before any computation; the function is
// total over well-formed inputs.
func AnalyzeVessel(report model.VesselReport, piers *PierTable) *model.ThreatAnalysis {
	if !report.HasPosition() {
		return nil
	}
	pos := LatLon{Lat: *report.Latitude, Lon: *report.Longitude}

	nearest, distanceNM, ok := piers.Nearest(pos)
	if !ok {
		return nil
	}

	sog := report.SOG()
	cog := report.COG()

	lengthM := VesselLength(report.DimensionA, report.DimensionB)
	massTonnes := EstimateMass(report.ShipType, lengthM)

	bearing := Bearing(pos, LatLon{Lat: nearest.Latitude, Lon: nearest.Longitude})
	approaching := IsApproaching(cog, bearing)

	impactForce := ImpactForceMN(massTonnes, sog)

	// Time to pier is undefined for a stationary vessel; nil, not +Inf,
	// so the sentinel survives JSON and comparisons.
	var timeToPierMin *float64
	if sog > 0 {
		minutes := distanceNM / sog * 60
		timeToPierMin = &minutes
	}

	score, level := ThreatScore(distanceNM, sog, approaching, massTonnes)

	shipType := report.ShipType
	if shipType == "" {
		shipType = "Unknown"
	}

	return &model.ThreatAnalysis{
		VesselName:    report.DisplayName(),
		MMSI:          report.DisplayMMSI(),
		ShipType:      shipType,
		LengthM:       lengthM,
		MassTonnes:    massTonnes,
		SpeedKnots:    sog,
		CourseDeg:     cog,
		ClosestPier:   nearest.Name,
		DistanceNM:    distanceNM,
		BearingToPier: bearing,
		IsApproaching: approaching,
		TimeToPierMin: timeToPierMin,
		ImpactForceMN: impactForce,
		ThreatScore:   score,
		ThreatLevel:   level,
	}
}

// AnalyzeFleet analyzes every report, drops the unanalyzable ones, and
// returns the results sorted by descending threat score. The sort is
// stable: equal scores keep their input order.
func AnalyzeFleet(reports []model.VesselReport, piers *PierTable) []model.ThreatAnalysis {
	analyses := make([]model.ThreatAnalysis, 0, len(reports))
	for _, report := range reports {
		if a := AnalyzeVessel(report, piers); a != nil {
			analyses = append(analyses, *a)
		}
	}

	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].ThreatScore > analyses[j].ThreatScore
	})
	return analyses
}

// Summarize aggregates one analysis run. An empty run yields the zero
// summary; in particular the max-force fold starts at 0 and never fails.
func Summarize(analyses []model.ThreatAnalysis) model.FleetSummary {
	summary := model.FleetSummary{TotalVessels: len(analyses)}
	for _, a := range analyses {
		switch a.ThreatLevel {
		case model.ThreatCritical:
			summary.Critical++
		case model.ThreatHigh:
			summary.High++
		case model.ThreatMedium:
			summary.Medium++
		case model.ThreatLow:
			summary.Low++
		}
		if a.IsApproaching {
			summary.ApproachingCount++
		}
		if a.ImpactForceMN > summary.MaxImpactForceMN {
			summary.MaxImpactForceMN = a.ImpactForceMN
		}
	}
	return summary
}
