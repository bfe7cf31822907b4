package control

import (
	"time"

	"github.com/aquamind/aquamind/pkg/fault"
	"github.com/aquamind/aquamind/server/internal/knowledge"
)

// MBRInput is the membrane reading set the MBR controller decides on.
type MBRInput struct {
	// TMP is the transmembrane pressure in kPa.
	TMP float64

	// Flux is the current permeate flux in LMH; informational only.
	Flux float64

	// Aeration is the current scour aeration rate in m³/h. Values <= 0 are
	// treated as unknown and replaced with the 50 m³/h design baseline.
	Aeration float64
}

const defaultAerationRate = 50.0

// DecideMBR maps transmembrane pressure to aeration, flux, and cleaning
// actions. Tiers are evaluated top-down against the alarm (40 kPa) and
// warning (30 kPa) thresholds from the knowledge store; the attention tier
// starts at 0.8× warning.
func DecideMBR(in MBRInput, kb *knowledge.Store, now time.Time) (Decision, error) {
	if in.TMP < 0 {
		return Decision{}, fault.Validation("mbr", "decide", in.TMP)
	}

	warning := kb.RuleValue("mbr_control", "thresholds", "tmp_warning",
		kb.EquipmentParam("mbr_system", "tmp_warning", 30.0))
	alarm := kb.RuleValue("mbr_control", "thresholds", "tmp_alarm",
		kb.EquipmentParam("mbr_system", "tmp_alarm", 40.0))
	designFlux := kb.EquipmentParam("mbr_system", "design_flux", 20.0)

	aeration := in.Aeration
	if aeration <= 0 {
		aeration = defaultAerationRate
	}

	m := MBRDecision{}
	var (
		reason     string
		confidence float64
	)
	switch {
	case in.TMP >= alarm:
		m.FoulingStatus = FoulingCritical
		m.AlarmLevel = 3
		m.AerationRate = aeration * 1.5
		m.FluxSetpoint = 0
		m.BackwashNeeded = true
		m.ChemicalCleaningNeeded = true
		m.Recommendations = []string{
			"stop permeate production and run immediate backwash",
			"schedule chemical cleaning (NaOCl soak) before restart",
			"inspect membrane module for irreversible fouling",
		}
		reason = "TMP above alarm threshold, membrane fouling critical"
		confidence = 0.90
	case in.TMP >= warning:
		m.FoulingStatus = FoulingWarning
		m.AlarmLevel = 2
		m.AerationRate = aeration * 1.2
		m.FluxSetpoint = designFlux * 0.75
		m.BackwashNeeded = true
		m.Recommendations = []string{
			"reduce flux and trigger backwash cycle",
			"increase scour aeration to slow fouling",
		}
		reason = "TMP above warning threshold, fouling developing"
		confidence = 0.85
	case in.TMP >= warning*0.8:
		m.FoulingStatus = FoulingAttention
		m.AlarmLevel = 1
		m.AerationRate = aeration * 1.1
		m.FluxSetpoint = designFlux * 0.9
		m.Recommendations = []string{
			"monitor TMP trend closely",
			"verify aeration distribution across the module",
		}
		reason = "TMP approaching warning threshold"
		confidence = 0.85
	default:
		m.FoulingStatus = FoulingNormal
		m.AlarmLevel = 0
		m.AerationRate = aeration
		m.FluxSetpoint = designFlux
		reason = "TMP within normal operating range"
		confidence = 0.85
	}

	m.AerationRate = round1(m.AerationRate)
	m.FluxSetpoint = round1(m.FluxSetpoint)

	return Decision{
		Kind:       KindMBR,
		MBR:        &m,
		Reason:     reason,
		Confidence: confidence,
		Timestamp:  now,
	}, nil
}
