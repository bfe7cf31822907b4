package types

import (
	"testing"
	"time"
)

func TestLevelForToxicity(t *testing.T) {
	tests := []struct {
		value float64
		want  ToxicityLevel
	}{
		{0, ToxicityLow},
		{1.49, ToxicityLow},
		{1.5, ToxicityMedium},
		{2.99, ToxicityMedium},
		{3.0, ToxicityHigh},
		{9.8, ToxicityHigh},
	}
	for _, tt := range tests {
		if got := LevelForToxicity(tt.value); got != tt.want {
			t.Errorf("LevelForToxicity(%v): got %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestToxicityLevel_Valid(t *testing.T) {
	for _, l := range []ToxicityLevel{ToxicityLow, ToxicityMedium, ToxicityHigh} {
		if !l.Valid() {
			t.Errorf("%q: Valid() = false", l)
		}
	}
	if ToxicityLevel("severe").Valid() {
		t.Error(`"severe": Valid() = true, want false`)
	}
	if ToxicityLevel("").Valid() {
		t.Error("empty level: Valid() = true, want false")
	}
}

func TestTrend_Valid(t *testing.T) {
	for _, tr := range []Trend{TrendRising, TrendStable, TrendFalling} {
		if !tr.Valid() {
			t.Errorf("%q: Valid() = false", tr)
		}
	}
	if Trend("sideways").Valid() {
		t.Error(`"sideways": Valid() = true, want false`)
	}
}

func TestPlantReadings_Empty(t *testing.T) {
	r := &PlantReadings{SourceID: "plc-gateway", Timestamp: time.Now()}
	if !r.Empty() {
		t.Error("snapshot with no sections: Empty() = false")
	}
	r.MBR = &MBRReading{TMP: 20}
	if r.Empty() {
		t.Error("snapshot with MBR section: Empty() = true")
	}
}

func TestPlantReadings_Merge(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	base := PlantReadings{
		SourceID:  "merged",
		Timestamp: t0,
		Toxicity:  &ToxicityReading{Value: 2.0, Level: ToxicityMedium, Trend: TrendStable},
		MBR:       &MBRReading{TMP: 18, Flux: 19},
	}
	incoming := &PlantReadings{
		Timestamp: t1,
		Toxicity:  &ToxicityReading{Value: 3.4, Level: ToxicityHigh, Trend: TrendRising},
		Turntable: &TurntableReading{Frequency: 25, RemovalRate: 72},
	}

	got := base.Merge(incoming)

	if got.Toxicity.Value != 3.4 || got.Toxicity.Level != ToxicityHigh {
		t.Errorf("toxicity not replaced: %+v", got.Toxicity)
	}
	if got.Turntable == nil || got.Turntable.Frequency != 25 {
		t.Errorf("turntable not added: %+v", got.Turntable)
	}
	if got.MBR == nil || got.MBR.TMP != 18 {
		t.Errorf("mbr section lost: %+v", got.MBR)
	}
	if !got.Timestamp.Equal(t1) {
		t.Errorf("timestamp: got %v, want %v", got.Timestamp, t1)
	}

	// The receiver must be untouched.
	if base.Toxicity.Value != 2.0 || base.Turntable != nil {
		t.Error("Merge mutated its receiver")
	}
}

func TestPlantReadings_Merge_OlderTimestampKept(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	base := PlantReadings{Timestamp: t0, MBR: &MBRReading{TMP: 18}}
	stale := &PlantReadings{
		Timestamp: t0.Add(-time.Hour),
		Carbon:    &CarbonReading{AdsorptionEfficiency: 85},
	}

	got := base.Merge(stale)
	if !got.Timestamp.Equal(t0) {
		t.Errorf("timestamp: got %v, want newest %v", got.Timestamp, t0)
	}
	if got.Carbon == nil || got.Carbon.AdsorptionEfficiency != 85 {
		t.Errorf("carbon section not merged: %+v", got.Carbon)
	}
}

func TestPlantReadings_Merge_Nil(t *testing.T) {
	base := PlantReadings{SourceID: "a", MBR: &MBRReading{TMP: 18}}
	got := base.Merge(nil)
	if got.MBR == nil || got.SourceID != "a" {
		t.Errorf("Merge(nil) changed the snapshot: %+v", got)
	}
}
