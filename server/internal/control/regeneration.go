package control

import (
	"time"

	"github.com/aquamind/aquamind/pkg/fault"
	"github.com/aquamind/aquamind/server/internal/knowledge"
)

// RegenerationInput is the carbon-state reading set the regeneration
// controller decides on.
type RegenerationInput struct {
	// AdsorptionEfficiency is the carbon's remaining adsorption capacity in
	// percent of fresh carbon, range [0, 100].
	AdsorptionEfficiency float64

	// RemovalRate is the observed toxicity removal in percent. 0 means the
	// measurement is unavailable and removal-based rules are skipped.
	RemovalRate float64

	// OperatingHours is the carbon charge's time in service since the last
	// regeneration.
	OperatingHours float64
}

// DecideRegeneration walks the regeneration ladder: severe capacity loss
// demands intensive regeneration, moderate loss or cycle expiry demands
// normal regeneration, an ageing charge earns an energy-saving pre-emptive
// run, and a healthy charge stays on standby.
func DecideRegeneration(in RegenerationInput, kb *knowledge.Store, now time.Time) (Decision, error) {
	if in.AdsorptionEfficiency < 0 || in.AdsorptionEfficiency > 100 {
		return Decision{}, fault.Validation("regeneration", "decide", in.AdsorptionEfficiency)
	}
	if in.OperatingHours < 0 {
		return Decision{}, fault.Validation("regeneration", "decide", in.OperatingHours)
	}

	cycleHours := kb.EquipmentParam("regeneration_system", "cycle_hours", 720.0)
	effCritical := kb.RuleValue("regeneration_control", "thresholds", "efficiency_critical", 60.0)
	effDegraded := kb.RuleValue("regeneration_control", "thresholds", "efficiency_degraded", 80.0)
	removalCritical := kb.RuleValue("regeneration_control", "thresholds", "removal_critical", 40.0)
	removalDegraded := kb.RuleValue("regeneration_control", "thresholds", "removal_degraded", 60.0)

	var (
		mode       string
		reason     string
		confidence float64
		recs       []string
	)
	switch {
	case in.AdsorptionEfficiency < effCritical || (in.RemovalRate > 0 && in.RemovalRate < removalCritical):
		mode = ModeIntensive
		reason = "severe capacity loss, intensive regeneration required"
		confidence = 0.90
		recs = []string{
			"switch to standby carbon charge before regeneration",
			"sample regenerated carbon for iodine number verification",
		}
	case in.AdsorptionEfficiency < effDegraded || (in.RemovalRate > 0 && in.RemovalRate < removalDegraded):
		mode = ModeNormal
		reason = "adsorption efficiency degraded, normal regeneration required"
		confidence = 0.85
		recs = []string{
			"schedule regeneration within the next shift",
		}
	case in.OperatingHours > cycleHours:
		mode = ModeNormal
		reason = "regeneration cycle expired, periodic regeneration due"
		confidence = 0.85
		recs = []string{
			"periodic regeneration per maintenance cycle",
		}
	case in.OperatingHours > cycleHours*0.8:
		mode = ModeEnergySaving
		reason = "carbon charge ageing, pre-emptive energy-saving regeneration"
		confidence = 0.80
		recs = []string{
			"run energy-saving regeneration during off-peak tariff hours",
		}
	default:
		mode = ModeStandby
		reason = "carbon within capacity, no regeneration needed"
		confidence = 0.85
	}

	r := RegenerationDecision{
		Mode:            mode,
		Recommendations: recs,
		CarbonRecoveryRate: round1(
			kb.EquipmentParam("regeneration_system", "recovery_rate", 0.95) * 100),
	}
	if mode != ModeStandby {
		r.Needed = true
		ruleName := mode + "_regeneration"
		if mode == ModeEnergySaving {
			ruleName = ModeEnergySaving
		}
		r.FurnaceTemperature = kb.RuleValue("regeneration_control", ruleName, "temperature", 800.0)
		r.FeedRate = kb.RuleValue("regeneration_control", ruleName, "feed_rate", 30.0)
		r.EstimatedDuration = kb.RuleValue("regeneration_control", ruleName, "duration", 8.0)
	}

	return Decision{
		Kind:         KindRegeneration,
		Regeneration: &r,
		Reason:       reason,
		Confidence:   confidence,
		Timestamp:    now,
	}, nil
}
