package domain

// Diagnostics summarizes instrument health for one scan entry. All three
// values are percentages produced by the external diagnostics engine.
type Diagnostics struct {
	Continuity float64 // beam continuity defects
	Dropped    float64 // dropped-frame fraction
	Saturation float64 // detector saturation
}
