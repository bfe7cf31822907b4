package control

import (
	"fmt"
	"math"
	"time"

	"github.com/aquamind/aquamind/pkg/fault"
	"github.com/aquamind/aquamind/pkg/types"
	"github.com/aquamind/aquamind/server/internal/knowledge"
)

// Turntable control constants. Trend multipliers and the kinetics model are
// plant-calibrated values, not tunables.
const (
	minFrequency = 5.0
	maxFrequency = 50.0

	trendRisingFactor  = 1.15
	trendFallingFactor = 0.90

	// First-order kinetics approximation: k grows with rpm (better mass
	// transfer), HRT is ~15 minutes.
	kineticsBaseK = 0.05
	hrtHours      = 15.0 / 60.0

	minRemovalRate = 30.0
	maxRemovalRate = 95.0
)

// TurntableInput is the reading set the turntable controller decides on.
type TurntableInput struct {
	// ToxicityValue is the continuous toxicity measurement, range [0, 10].
	ToxicityValue float64

	// Level is the categorical toxicity bucket.
	Level types.ToxicityLevel

	// Trend is the short-term toxicity direction.
	Trend types.Trend

	// BaseFrequencyOverride, when > 0, replaces the expert-rule base
	// frequency for the level. Supplied by the feedback learner when a
	// scenario's learned parameters have proven out.
	BaseFrequencyOverride float64
}

// DecideTurntable maps toxicity state to turntable setpoints.
//
// Base frequency by level (expert rule "turntable_control"): low 10 Hz with
// 2 reactors, medium 25 Hz with 2 reactors, high 45 Hz with 3 reactors and
// the standby line engaged. The trend multiplier (rising ×1.15, falling
// ×0.90) is applied and the result clamped to [5, 50] Hz. RPM follows the
// 4-pole motor convention rpm = frequency × 30.
func DecideTurntable(in TurntableInput, kb *knowledge.Store, now time.Time) (Decision, error) {
	if !in.Level.Valid() {
		return Decision{}, fault.Validation("turntable", "decide", string(in.Level))
	}
	if !in.Trend.Valid() {
		return Decision{}, fault.Validation("turntable", "decide", string(in.Trend))
	}
	if in.ToxicityValue < 0 || in.ToxicityValue > 10 {
		return Decision{}, fault.Validation("turntable", "decide", in.ToxicityValue)
	}

	var (
		ruleName string
		reactors int
		standby  bool
		reason   string
	)
	switch in.Level {
	case types.ToxicityLow:
		ruleName, reactors = "low_toxicity", 2
		reason = "low toxicity, energy-saving mode"
	case types.ToxicityMedium:
		ruleName, reactors = "medium_toxicity", 2
		reason = "medium toxicity, standard mode"
	case types.ToxicityHigh:
		ruleName, reactors, standby = "high_toxicity", 3, true
		reason = "high toxicity, full treatment with standby line"
	}

	baseFreq := kb.RuleValue("turntable_control", ruleName, "target_frequency", defaultBaseFrequency(in.Level))
	if in.BaseFrequencyOverride > 0 {
		baseFreq = in.BaseFrequencyOverride
		reason += fmt.Sprintf(", learned base frequency %.1f Hz", baseFreq)
	}

	factor := 1.0
	switch in.Trend {
	case types.TrendRising:
		factor = trendRisingFactor
		reason += ", toxicity rising, raising frequency"
	case types.TrendFalling:
		factor = trendFallingFactor
		reason += ", toxicity falling, easing frequency"
	}

	freq := clamp(baseFreq*factor, minFrequency, maxFrequency)
	freq3 := 0.0
	if standby {
		freq3 = freq
	}

	rpmPerHz := kb.EquipmentParam("turntable_system", "rpm_per_hz", 30.0)

	confidence := 0.85
	if in.Level == types.ToxicityHigh {
		confidence = 0.80
	}
	if in.Trend == types.TrendRising {
		confidence -= 0.05
	}

	return Decision{
		Kind: KindTurntable,
		Turntable: &TurntableDecision{
			Frequency1:          freq,
			Frequency2:          freq,
			Frequency3:          freq3,
			RPM1:                freq * rpmPerHz,
			RPM2:                freq * rpmPerHz,
			RPM3:                freq3 * rpmPerHz,
			ActiveReactors:      reactors,
			StandbyTriggered:    standby,
			ExpectedRemovalRate: round1(removalRate(freq*rpmPerHz, in.ToxicityValue)),
		},
		Reason:     reason,
		Confidence: round2(confidence),
		Timestamp:  now,
	}, nil
}

// removalRate predicts toxicity removal in percent from the first-order
// model η = 1 − exp(−k·HRT), with k rising with rpm. High toxicity degrades
// adsorption slightly.
func removalRate(rpm, toxicity float64) float64 {
	k := kineticsBaseK * (1 + rpm/1000)
	rate := (1 - math.Exp(-k*hrtHours*60)) * 100
	if toxicity > 3.0 {
		rate *= 0.9
	}
	return clamp(rate, minRemovalRate, maxRemovalRate)
}

func defaultBaseFrequency(level types.ToxicityLevel) float64 {
	switch level {
	case types.ToxicityLow:
		return 10.0
	case types.ToxicityHigh:
		return 45.0
	default:
		return 25.0
	}
}
