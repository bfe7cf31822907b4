package control

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aquamind/aquamind/pkg/fault"
	"github.com/aquamind/aquamind/pkg/types"
	"github.com/aquamind/aquamind/server/internal/knowledge"
)

// almostEqual returns true if a and b are within epsilon of each other.
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestDecideTurntable_Levels(t *testing.T) {
	kb := knowledge.Defaults()

	tests := []struct {
		name         string
		in           TurntableInput
		wantFreq     float64
		wantReactors int
		wantStandby  bool
	}{
		{
			name:         "low toxicity stable — base 10 Hz",
			in:           TurntableInput{ToxicityValue: 1.0, Level: types.ToxicityLow, Trend: types.TrendStable},
			wantFreq:     10.0,
			wantReactors: 2,
			wantStandby:  false,
		},
		{
			name:         "medium toxicity stable — base 25 Hz",
			in:           TurntableInput{ToxicityValue: 2.0, Level: types.ToxicityMedium, Trend: types.TrendStable},
			wantFreq:     25.0,
			wantReactors: 2,
			wantStandby:  false,
		},
		{
			name:         "high toxicity stable — base 45 Hz, standby line on",
			in:           TurntableInput{ToxicityValue: 4.0, Level: types.ToxicityHigh, Trend: types.TrendStable},
			wantFreq:     45.0,
			wantReactors: 3,
			wantStandby:  true,
		},
		{
			name: "high rising — 45×1.15 clamps to 50",
			in:   TurntableInput{ToxicityValue: 4.0, Level: types.ToxicityHigh, Trend: types.TrendRising},
			// 45 * 1.15 = 51.75, clamped to the 50 Hz drive limit
			wantFreq:     50.0,
			wantReactors: 3,
			wantStandby:  true,
		},
		{
			name:         "medium falling — 25×0.90",
			in:           TurntableInput{ToxicityValue: 2.0, Level: types.ToxicityMedium, Trend: types.TrendFalling},
			wantFreq:     22.5,
			wantReactors: 2,
			wantStandby:  false,
		},
		{
			name:         "low rising — 10×1.15",
			in:           TurntableInput{ToxicityValue: 1.2, Level: types.ToxicityLow, Trend: types.TrendRising},
			wantFreq:     11.5,
			wantReactors: 2,
			wantStandby:  false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := DecideTurntable(tc.in, kb, testNow)
			if err != nil {
				t.Fatalf("DecideTurntable: %v", err)
			}
			if d.Kind != KindTurntable || d.Turntable == nil {
				t.Fatalf("Kind = %q, Turntable payload nil=%v", d.Kind, d.Turntable == nil)
			}
			tt := d.Turntable
			if !almostEqual(tt.Frequency1, tc.wantFreq, 0.001) {
				t.Errorf("Frequency1 = %.3f, want %.3f", tt.Frequency1, tc.wantFreq)
			}
			if tt.Frequency2 != tt.Frequency1 {
				t.Errorf("Frequency2 = %.3f, want same as Frequency1 %.3f", tt.Frequency2, tt.Frequency1)
			}
			if tt.ActiveReactors != tc.wantReactors {
				t.Errorf("ActiveReactors = %d, want %d", tt.ActiveReactors, tc.wantReactors)
			}
			if tt.StandbyTriggered != tc.wantStandby {
				t.Errorf("StandbyTriggered = %v, want %v", tt.StandbyTriggered, tc.wantStandby)
			}
			if tc.wantStandby {
				if !almostEqual(tt.Frequency3, tt.Frequency1, 0.001) {
					t.Errorf("Frequency3 = %.3f, want %.3f (standby mirrors duty)", tt.Frequency3, tt.Frequency1)
				}
			} else if tt.Frequency3 != 0 {
				t.Errorf("Frequency3 = %.3f, want 0 when standby is off", tt.Frequency3)
			}
			if !almostEqual(tt.RPM1, tt.Frequency1*30, 0.001) {
				t.Errorf("RPM1 = %.3f, want %.3f (freq × 30)", tt.RPM1, tt.Frequency1*30)
			}
		})
	}
}

func TestDecideTurntable_RemovalRate(t *testing.T) {
	kb := knowledge.Defaults()

	t.Run("low toxicity at 10 Hz", func(t *testing.T) {
		// rpm=300 → k = 0.05·1.3 = 0.065; removal = (1−e^−0.975)·100 ≈ 62.3
		d, err := DecideTurntable(TurntableInput{
			ToxicityValue: 1.0, Level: types.ToxicityLow, Trend: types.TrendStable,
		}, kb, testNow)
		if err != nil {
			t.Fatal(err)
		}
		if !almostEqual(d.Turntable.ExpectedRemovalRate, 62.3, 0.05) {
			t.Errorf("ExpectedRemovalRate = %.2f, want ≈62.3", d.Turntable.ExpectedRemovalRate)
		}
	})

	t.Run("high toxicity derates removal by 10%", func(t *testing.T) {
		// rpm=1500 → k=0.125; (1−e^−1.875)·100 ≈ 84.66, ×0.9 ≈ 76.2
		d, err := DecideTurntable(TurntableInput{
			ToxicityValue: 4.0, Level: types.ToxicityHigh, Trend: types.TrendStable,
		}, kb, testNow)
		if err != nil {
			t.Fatal(err)
		}
		if !almostEqual(d.Turntable.ExpectedRemovalRate, 76.2, 0.05) {
			t.Errorf("ExpectedRemovalRate = %.2f, want ≈76.2", d.Turntable.ExpectedRemovalRate)
		}
	})

	t.Run("removal always within [30, 95]", func(t *testing.T) {
		for _, tox := range []float64{0, 0.5, 1.5, 3.0, 3.01, 6, 10} {
			for _, lvl := range []types.ToxicityLevel{types.ToxicityLow, types.ToxicityMedium, types.ToxicityHigh} {
				d, err := DecideTurntable(TurntableInput{ToxicityValue: tox, Level: lvl, Trend: types.TrendStable}, kb, testNow)
				if err != nil {
					t.Fatal(err)
				}
				r := d.Turntable.ExpectedRemovalRate
				if r < 30 || r > 95 {
					t.Errorf("removal %.2f out of [30,95] for tox=%.2f level=%s", r, tox, lvl)
				}
			}
		}
	})
}

func TestDecideTurntable_Confidence(t *testing.T) {
	kb := knowledge.Defaults()

	tests := []struct {
		name string
		in   TurntableInput
		want float64
	}{
		{"baseline", TurntableInput{ToxicityValue: 1, Level: types.ToxicityLow, Trend: types.TrendStable}, 0.85},
		{"high level", TurntableInput{ToxicityValue: 4, Level: types.ToxicityHigh, Trend: types.TrendStable}, 0.80},
		{"rising trend", TurntableInput{ToxicityValue: 2, Level: types.ToxicityMedium, Trend: types.TrendRising}, 0.80},
		{"high and rising", TurntableInput{ToxicityValue: 4, Level: types.ToxicityHigh, Trend: types.TrendRising}, 0.75},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := DecideTurntable(tc.in, kb, testNow)
			if err != nil {
				t.Fatal(err)
			}
			if !almostEqual(d.Confidence, tc.want, 0.001) {
				t.Errorf("Confidence = %.2f, want %.2f", d.Confidence, tc.want)
			}
		})
	}
}

func TestDecideTurntable_LearnedOverride(t *testing.T) {
	kb := knowledge.Defaults()

	d, err := DecideTurntable(TurntableInput{
		ToxicityValue: 2.0, Level: types.ToxicityMedium, Trend: types.TrendStable,
		BaseFrequencyOverride: 28.0,
	}, kb, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(d.Turntable.Frequency1, 28.0, 0.001) {
		t.Errorf("Frequency1 = %.3f, want learned 28.0", d.Turntable.Frequency1)
	}
}

func TestDecideTurntable_Validation(t *testing.T) {
	kb := knowledge.Defaults()

	bad := []TurntableInput{
		{ToxicityValue: 1, Level: "extreme", Trend: types.TrendStable},
		{ToxicityValue: 1, Level: types.ToxicityLow, Trend: "sideways"},
		{ToxicityValue: -0.1, Level: types.ToxicityLow, Trend: types.TrendStable},
		{ToxicityValue: 10.1, Level: types.ToxicityLow, Trend: types.TrendStable},
	}
	for _, in := range bad {
		_, err := DecideTurntable(in, kb, testNow)
		if err == nil {
			t.Errorf("expected validation error for %+v", in)
			continue
		}
		var fe *fault.Error
		if !errors.As(err, &fe) || fe.Kind != fault.KindValidation {
			t.Errorf("error for %+v is %v, want fault validation", in, err)
		}
	}
}
