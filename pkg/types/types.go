package types

import "time"

// ToxicityLevel is the categorical bucket derived from the continuous
// toxicity measurement. Cutoffs: <1.5 low, <3.0 medium, otherwise high.
type ToxicityLevel string

const (
	ToxicityLow    ToxicityLevel = "low"
	ToxicityMedium ToxicityLevel = "medium"
	ToxicityHigh   ToxicityLevel = "high"
)

// Valid reports whether l is one of the three known levels.
func (l ToxicityLevel) Valid() bool {
	switch l {
	case ToxicityLow, ToxicityMedium, ToxicityHigh:
		return true
	}
	return false
}

// LevelForToxicity buckets a continuous toxicity value into a ToxicityLevel.
func LevelForToxicity(v float64) ToxicityLevel {
	switch {
	case v < 1.5:
		return ToxicityLow
	case v < 3.0:
		return ToxicityMedium
	default:
		return ToxicityHigh
	}
}

// Trend describes the short-term direction of the toxicity signal.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendStable  Trend = "stable"
	TrendFalling Trend = "falling"
)

// Valid reports whether t is one of the three known trends.
func (t Trend) Valid() bool {
	switch t {
	case TrendRising, TrendStable, TrendFalling:
		return true
	}
	return false
}

// ToxicityReading is the analyzer section of a PlantReadings snapshot.
type ToxicityReading struct {
	// Value is the continuous toxicity measurement, range [0, 10].
	Value float64 `json:"value"`

	// Level is the categorical bucket for Value.
	Level ToxicityLevel `json:"level"`

	// Trend is derived by the agent from consecutive samples.
	Trend Trend `json:"trend"`

	// Confidence is the analyzer's prediction confidence, range [0, 1].
	Confidence float64 `json:"confidence"`

	// PredictionAccuracy is the rolling accuracy of the analyzer's
	// predictions against lab assays, in percent. 0 when unknown.
	PredictionAccuracy float64 `json:"prediction_accuracy,omitempty"`
}

// TurntableReading is the adsorption-turntable section of a snapshot.
type TurntableReading struct {
	// Frequency is the currently applied drive frequency in Hz.
	Frequency float64 `json:"frequency"`

	// RemovalRate is the measured toxicity removal rate in percent.
	RemovalRate float64 `json:"removal_rate"`

	// StandbyActive is true when the third (standby) line is running.
	StandbyActive bool `json:"standby_active"`
}

// MBRReading is the membrane-bioreactor section of a snapshot.
type MBRReading struct {
	// TMP is the transmembrane pressure in kPa.
	TMP float64 `json:"tmp"`

	// Flux is the permeate flux in LMH.
	Flux float64 `json:"flux"`

	// Aeration is the membrane-scour aeration rate in m³/h.
	Aeration float64 `json:"aeration"`
}

// CarbonReading is the activated-carbon / regeneration section of a snapshot.
type CarbonReading struct {
	// AdsorptionEfficiency is the current adsorption efficiency in percent.
	AdsorptionEfficiency float64 `json:"adsorption_efficiency"`

	// RemovalRate is the measured toxicity removal rate in percent.
	// 0 means the value is not available this cycle.
	RemovalRate float64 `json:"removal_rate,omitempty"`

	// OperatingHours is the cumulative runtime since the last regeneration.
	OperatingHours float64 `json:"operating_hours"`
}

// PlantReadings is one snapshot of plant state shipped by the agent.
// A nil section means the corresponding instrument did not report this cycle;
// the server treats it as "unavailable" rather than as a zero reading.
type PlantReadings struct {
	SourceID  string    `json:"source_id"`
	Timestamp time.Time `json:"timestamp"`

	Toxicity  *ToxicityReading  `json:"toxicity,omitempty"`
	Turntable *TurntableReading `json:"turntable,omitempty"`
	MBR       *MBRReading       `json:"mbr,omitempty"`
	Carbon    *CarbonReading    `json:"carbon,omitempty"`
}

// Empty reports whether the snapshot carries no instrument sections at all.
func (r *PlantReadings) Empty() bool {
	return r.Toxicity == nil && r.Turntable == nil && r.MBR == nil && r.Carbon == nil
}

// Merge overlays other's non-nil sections onto a copy of r and returns it.
// Used by the server store to combine per-instrument snapshots into one view.
func (r PlantReadings) Merge(other *PlantReadings) PlantReadings {
	if other == nil {
		return r
	}
	if other.Toxicity != nil {
		r.Toxicity = other.Toxicity
	}
	if other.Turntable != nil {
		r.Turntable = other.Turntable
	}
	if other.MBR != nil {
		r.MBR = other.MBR
	}
	if other.Carbon != nil {
		r.Carbon = other.Carbon
	}
	if other.Timestamp.After(r.Timestamp) {
		r.Timestamp = other.Timestamp
	}
	return r
}
