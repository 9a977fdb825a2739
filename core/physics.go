package core

import (
	"math"
	"strings"
)

const (
	// DefaultLengthM is assumed for vessels that report no usable
	// dimensions. Mass is always estimated, even for unknown hulls.
	DefaultLengthM = 50.0

	// knotsToMS converts speed over ground to metres per second.
	knotsToMS = 0.5144

	// crushDistanceM is the assumed deformation depth absorbing the
	// impact energy. Deliberately a documented heuristic, not an
	// engineering-grade figure.
	crushDistanceM = 1.5
)

// massClass maps a family of declared ship types onto the empirical
// displacement power law mass = coefficient * length^exponent (tonnes,
// metres). Classes are evaluated in order; the first keyword match wins,
// so the ordering here is part of the contract.
type massClass struct {
	keywords    []string
	coefficient float64
	exponent    float64
}

var massClasses = []massClass{
	{keywords: []string{"tanker", "crude"}, coefficient: 0.5, exponent: 2.5},
	{keywords: []string{"container", "cargo"}, coefficient: 0.4, exponent: 2.4},
	{keywords: []string{"bulk"}, coefficient: 0.45, exponent: 2.45},
	{keywords: []string{"passenger", "cruise"}, coefficient: 0.25, exponent: 2.3},
	{keywords: []string{"tug"}, coefficient: 0.6, exponent: 2.2},
	{keywords: []string{"fishing"}, coefficient: 0.3, exponent: 2.1},
}

// defaultMassClass covers unknown or unmatched ship types.
var defaultMassClass = massClass{coefficient: 0.35, exponent: 2.3}

// VesselLength derives overall length in metres from the two reported hull
// offsets. It returns nil when both offsets are absent or the sum is not
// positive; callers fall back to DefaultLengthM for mass estimation.
func VesselLength(dimA, dimB *float64) *float64 {
	var length float64
	if dimA != nil {
		length += *dimA
	}
	if dimB != nil {
		length += *dimB
	}
	if length <= 0 {
		return nil
	}
	return &length
}

// EstimateMass estimates vessel displacement in tonnes from the declared
// ship type and length. Classification is a case-insensitive substring
// match over massClasses in priority order. A nil or non-positive length
// is replaced with DefaultLengthM, so the result is always positive.
func EstimateMass(shipType string, lengthM *float64) float64 {
	length := DefaultLengthM
	if lengthM != nil && *lengthM > 0 {
		length = *lengthM
	}

	class := classifyShipType(shipType)
	return class.coefficient * math.Pow(length, class.exponent)
}

func classifyShipType(shipType string) massClass {
	lower := strings.ToLower(shipType)
	for _, class := range massClasses {
		for _, kw := range class.keywords {
			if strings.Contains(lower, kw) {
				return class
			}
		}
	}
	return defaultMassClass
}

// ImpactForceMN estimates the allision force in meganewtons from vessel
// mass (tonnes) and speed (knots): kinetic energy spread over the assumed
// crush distance. Zero speed gives zero force; the estimate grows
// monotonically in both inputs.
func ImpactForceMN(massTonnes, speedKnots float64) float64 {
	massKg := massTonnes * 1000
	velocityMS := speedKnots * knotsToMS

	kineticEnergy := 0.5 * massKg * velocityMS * velocityMS
	return kineticEnergy / crushDistanceM / 1e6
}
