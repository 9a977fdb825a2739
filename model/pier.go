package model

// Pier is one fixed bridge pier. Piers are reference data: the table is
// loaded once at startup and never mutated while the monitor runs.
type Pier struct {
	Name         string  `json:"name"`
	Latitude     float64 `json:"lat"`
	Longitude    float64 `json:"lon"`
	WaterDepthFt float64 `json:"water_depth_ft"`
}
