package intent

import "strings"

// Intent is a closed task category. Route never returns a value outside
// this set.
type Intent string

const (
	CollectFeedback  Intent = "collect_feedback"
	CheckRegen       Intent = "check_regeneration"
	SystemDiagnostic Intent = "system_diagnostic"
	PredictToxicity  Intent = "predict_toxicity"
	ControlMBR       Intent = "control_mbr"
	ControlTurntable Intent = "control_turntable"
	FullAnalysis     Intent = "full_analysis"
	GeneralQuery     Intent = "general_query"
)

// rules is evaluated top-to-bottom; the first matching keyword set wins.
// Feedback outranks everything because it is the operator volunteering
// information; regeneration outranks turntable because both mention
// activated carbon.
var rules = []struct {
	intent   Intent
	keywords []string
}{
	{CollectFeedback, []string{"feedback", "record", "suggest", "opinion", "improve"}},
	{CheckRegen, []string{"regenerat", "saturat", "furnace", "reactivat"}},
	{SystemDiagnostic, []string{"diagnos", "evaluat", "status", "health", "inspect"}},
	{PredictToxicity, []string{"predict", "toxicity", "forecast"}},
	{ControlMBR, []string{"mbr", "membrane", "flux", "tmp", "transmembrane"}},
	{ControlTurntable, []string{"turntable", "adsorption", "frequency", "rpm"}},
	{FullAnalysis, []string{"full", "overall", "complete", "everything"}},
}

// Route classifies a request. Matching is case-insensitive substring
// containment; unmatched requests fall through to GeneralQuery.
func Route(request string) Intent {
	lower := strings.ToLower(request)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.intent
			}
		}
	}
	return GeneralQuery
}
