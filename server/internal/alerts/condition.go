package alerts

import (
	"strconv"
	"strings"

	"github.com/aquamind/aquamind/pkg/types"
)

// evalCondition evaluates a rule condition string against a PlantReadings
// snapshot.
//
// Supported expressions (field operator value):
//
//	toxicity_value > 5
//	toxicity_level == high
//	trend == rising
//	tmp > 35
//	flux < 12
//	aeration > 100
//	frequency > 45
//	removal_rate < 50
//	adsorption_efficiency < 60
//	operating_hours > 720
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed, the field is
// unknown, or the instrument section carrying the field is absent.
func evalCondition(cond string, snap *types.PlantReadings) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	switch field {
	case "toxicity_level":
		if op == "==" && snap.Toxicity != nil {
			return string(snap.Toxicity.Level) == rhs, snap.Toxicity.Value
		}
		return false, 0

	case "trend":
		if op == "==" && snap.Toxicity != nil {
			return string(snap.Toxicity.Trend) == rhs, snap.Toxicity.Value
		}
		return false, 0

	default:
		v, ok := numericField(field, snap)
		if !ok {
			return false, 0
		}
		threshold, err := strconv.ParseFloat(rhs, 64)
		if err != nil {
			return false, 0
		}
		return compareFloat(v, op, threshold), v
	}
}

// numericField maps a field name to its value in the snapshot. The second
// return value is false when the field's instrument section is absent.
func numericField(field string, snap *types.PlantReadings) (float64, bool) {
	switch field {
	case "toxicity_value":
		if snap.Toxicity == nil {
			return 0, false
		}
		return snap.Toxicity.Value, true
	case "frequency":
		if snap.Turntable == nil {
			return 0, false
		}
		return snap.Turntable.Frequency, true
	case "removal_rate":
		if snap.Turntable == nil {
			return 0, false
		}
		return snap.Turntable.RemovalRate, true
	case "tmp":
		if snap.MBR == nil {
			return 0, false
		}
		return snap.MBR.TMP, true
	case "flux":
		if snap.MBR == nil {
			return 0, false
		}
		return snap.MBR.Flux, true
	case "aeration":
		if snap.MBR == nil {
			return 0, false
		}
		return snap.MBR.Aeration, true
	case "adsorption_efficiency":
		if snap.Carbon == nil {
			return 0, false
		}
		return snap.Carbon.AdsorptionEfficiency, true
	case "operating_hours":
		if snap.Carbon == nil {
			return 0, false
		}
		return snap.Carbon.OperatingHours, true
	default:
		return 0, false
	}
}

// conditionField returns the reading field a condition tests, "" when the
// expression cannot be parsed.
func conditionField(cond string) string {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return ""
	}
	return parts[0]
}

// subsystemForField maps a reading field to the plant subsystem it belongs to.
func subsystemForField(field string) string {
	switch field {
	case "toxicity_value", "toxicity_level", "trend":
		return "toxicity"
	case "frequency":
		return "turntable"
	case "tmp", "flux", "aeration":
		return "mbr"
	case "adsorption_efficiency", "operating_hours":
		return "regeneration"
	case "removal_rate":
		return "turntable"
	default:
		return ""
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
