package control

import (
	"math"
	"strings"
	"time"
)

// Kind identifies which subsystem a Decision controls.
type Kind string

const (
	KindTurntable    Kind = "turntable"
	KindMBR          Kind = "mbr"
	KindRegeneration Kind = "regeneration"
)

// Fouling status values reported by the MBR controller.
const (
	FoulingNormal    = "normal"
	FoulingAttention = "attention"
	FoulingWarning   = "warning"
	FoulingCritical  = "critical"
)

// Regeneration modes reported by the regeneration controller.
const (
	ModeStandby      = "standby"
	ModeNormal       = "normal"
	ModeIntensive    = "intensive"
	ModeEnergySaving = "energy_saving"
)

// TurntableDecision holds the turntable controller's setpoints.
type TurntableDecision struct {
	Frequency1 float64 `json:"frequency_1"`
	Frequency2 float64 `json:"frequency_2"`
	Frequency3 float64 `json:"frequency_3"` // 0 unless standby is triggered
	RPM1       float64 `json:"rpm_1"`
	RPM2       float64 `json:"rpm_2"`
	RPM3       float64 `json:"rpm_3"`

	ActiveReactors   int  `json:"active_reactors"`
	StandbyTriggered bool `json:"standby_triggered"`

	// ExpectedRemovalRate is the predicted toxicity removal in percent,
	// from the first-order kinetics approximation, clamped to [30, 95].
	ExpectedRemovalRate float64 `json:"expected_removal_rate"`
}

// MBRDecision holds the membrane controller's setpoints and cleaning flags.
type MBRDecision struct {
	AerationRate float64 `json:"aeration_rate"`
	FluxSetpoint float64 `json:"flux_setpoint"`

	BackwashNeeded         bool `json:"backwash_needed"`
	ChemicalCleaningNeeded bool `json:"chemical_cleaning_needed"`

	// AlarmLevel mirrors the fouling tier: 0 normal … 3 critical.
	AlarmLevel    int    `json:"alarm_level"`
	FoulingStatus string `json:"fouling_status"`

	Recommendations []string `json:"recommendations"`
}

// RegenerationDecision holds the furnace controller's output.
type RegenerationDecision struct {
	Needed             bool    `json:"regeneration_needed"`
	Mode               string  `json:"regeneration_mode"`
	FurnaceTemperature float64 `json:"furnace_temperature"` // °C; 0 when not needed
	FeedRate           float64 `json:"feed_rate"`           // kg/h; 0 when not needed
	EstimatedDuration  float64 `json:"estimated_duration"`  // hours
	CarbonRecoveryRate float64 `json:"carbon_recovery_rate"`

	Recommendations []string `json:"recommendations"`
}

// Decision is one controller's immutable output. Exactly one of the payload
// pointers is non-nil, matching Kind. Decisions are created fresh on every
// controller invocation and never mutated afterwards.
type Decision struct {
	Kind Kind `json:"kind"`

	Turntable    *TurntableDecision    `json:"turntable,omitempty"`
	MBR          *MBRDecision          `json:"mbr,omitempty"`
	Regeneration *RegenerationDecision `json:"regeneration,omitempty"`

	Reason     string    `json:"reason"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// PLCCommand renders the decision as a PLC command document. This is the only
// place a Decision is converted for the actuation bus; every command carries
// CMD_TYPE, TIMESTAMP, and ALARM_LEVEL.
func (d *Decision) PLCCommand() map[string]interface{} {
	cmd := map[string]interface{}{
		"TIMESTAMP": d.Timestamp.UTC().Format(time.RFC3339),
	}

	switch d.Kind {
	case KindTurntable:
		t := d.Turntable
		cmd["CMD_TYPE"] = "TURNTABLE_CONTROL"
		cmd["TURNTABLE_1"] = map[string]interface{}{
			"FREQ_SETPOINT": round1(t.Frequency1), "ENABLE": t.Frequency1 > 0,
		}
		cmd["TURNTABLE_2"] = map[string]interface{}{
			"FREQ_SETPOINT": round1(t.Frequency2), "ENABLE": t.Frequency2 > 0,
		}
		cmd["TURNTABLE_3"] = map[string]interface{}{
			"FREQ_SETPOINT": round1(t.Frequency3), "ENABLE": t.StandbyTriggered,
		}
		cmd["ALARM_LEVEL"] = turntableAlarmLevel(t)

	case KindMBR:
		m := d.MBR
		cmd["CMD_TYPE"] = "MBR_CONTROL"
		cmd["AERATION"] = map[string]interface{}{"RATE_SETPOINT": round1(m.AerationRate)}
		cmd["FLUX"] = map[string]interface{}{"SETPOINT": round1(m.FluxSetpoint)}
		cmd["BACKWASH"] = map[string]interface{}{"TRIGGER": m.BackwashNeeded}
		cmd["CHEMICAL_CLEAN"] = map[string]interface{}{"REQUEST": m.ChemicalCleaningNeeded}
		cmd["MODE"] = strings.ToUpper(m.FoulingStatus)
		cmd["ALARM_LEVEL"] = m.AlarmLevel

	case KindRegeneration:
		r := d.Regeneration
		cmd["CMD_TYPE"] = "REGENERATION_CONTROL"
		cmd["FURNACE"] = map[string]interface{}{
			"TEMP_SETPOINT": math.Round(r.FurnaceTemperature),
			"FEED_RATE":     round1(r.FeedRate),
			"ENABLE":        r.Needed,
		}
		cmd["MODE"] = strings.ToUpper(r.Mode)
		cmd["ALARM_LEVEL"] = regenerationAlarmLevel(r)
	}

	return cmd
}

// turntableAlarmLevel follows the plant convention: standby engagement is the
// highest turntable alarm, high-frequency duty running the next.
func turntableAlarmLevel(t *TurntableDecision) int {
	switch {
	case t.StandbyTriggered:
		return 3
	case t.Frequency1 > 35:
		return 2
	default:
		return 1
	}
}

func regenerationAlarmLevel(r *RegenerationDecision) int {
	switch r.Mode {
	case ModeIntensive:
		return 2
	case ModeNormal:
		return 1
	default:
		return 0
	}
}

// round1 rounds to one decimal place for setpoint fields.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
