package learning

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultTolerance is the relative-error tolerance of the effectiveness
// calculation: a 20% miss scores zero.
const DefaultTolerance = 0.2

// DefaultHistorySize bounds the feedback history.
const DefaultHistorySize = 100

// Feedback is one observed outcome of a control decision. Immutable once
// recorded.
type Feedback struct {
	Agent          string             `json:"agent"`
	Action         string             `json:"action"`
	ExpectedResult string             `json:"expected_result"`
	ActualResult   string             `json:"actual_result"`
	Effectiveness  float64            `json:"effectiveness"`
	Parameters     map[string]float64 `json:"parameters"`
	Timestamp      time.Time          `json:"timestamp"`
}

// Record is the per-scenario learning aggregate.
type Record struct {
	Scenario          string             `json:"scenario"`
	OptimalParameters map[string]float64 `json:"optimal_parameters"`
	SuccessRate       float64            `json:"success_rate"`
	SampleCount       int                `json:"sample_count"`
	LastUpdated       time.Time          `json:"last_updated"`
}

// Analysis summarizes the accumulated feedback for operators.
type Analysis struct {
	EffectivenessScore     float64                       `json:"effectiveness_score"`
	SuccessfulActions      []string                      `json:"successful_actions"`
	FailedActions          []string                      `json:"failed_actions"`
	ParameterAdjustments   map[string]map[string]float64 `json:"parameter_adjustments"`
	LearningInsights       []string                      `json:"learning_insights"`
	ImprovementSuggestions []string                      `json:"improvement_suggestions"`
	Timestamp              time.Time                     `json:"timestamp"`
}

// Effectiveness scores how close an actual outcome came to the expected one,
// in [0, 1], rounded to two decimals. expected == 0 is guarded explicitly:
// the score is 1 only when actual is also 0.
func Effectiveness(expected, actual, tolerance float64) float64 {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if expected == 0 {
		if actual == 0 {
			return 1.0
		}
		return 0.0
	}
	relErr := math.Abs(expected-actual) / math.Abs(expected)
	eff := 1 - relErr/tolerance
	if eff < 0 {
		eff = 0
	}
	return math.Round(eff*100) / 100
}

// Learner accumulates feedback and learns per-scenario optimal parameters.
// Safe for concurrent use; all read-modify-write on records happens under
// the mutex.
type Learner struct {
	mu        sync.Mutex
	history   []Feedback
	capacity  int
	records   map[string]*Record
	baselines map[string]map[string]float64

	now func() time.Time
}

// NewLearner builds a Learner with the given history capacity (values <= 0
// fall back to DefaultHistorySize).
func NewLearner(capacity int) *Learner {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &Learner{
		capacity: capacity,
		records:  make(map[string]*Record),
		baselines: map[string]map[string]float64{
			"turntable":    {"frequency": 25.0, "reactors": 2},
			"mbr":          {"aeration": 50.0, "flux": 18.0},
			"regeneration": {"temperature": 800.0, "feed_rate": 30.0},
		},
		now: time.Now,
	}
}

func scenarioKey(agent, action string) string {
	return agent + "_" + action
}

// RecordFeedback appends fb to the bounded history (oldest evicted first)
// and folds its effectiveness into the scenario's learning record.
func (l *Learner) RecordFeedback(fb Feedback) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fb.Timestamp.IsZero() {
		fb.Timestamp = l.now()
	}

	l.history = append(l.history, fb)
	if len(l.history) > l.capacity {
		l.history = l.history[len(l.history)-l.capacity:]
	}

	key := scenarioKey(fb.Agent, fb.Action)
	rec, ok := l.records[key]
	if !ok {
		l.records[key] = &Record{
			Scenario:          key,
			OptimalParameters: copyParams(fb.Parameters),
			SuccessRate:       fb.Effectiveness,
			SampleCount:       1,
			LastUpdated:       fb.Timestamp,
		}
		return
	}

	n := float64(rec.SampleCount)
	rec.SuccessRate = (rec.SuccessRate*n + fb.Effectiveness) / (n + 1)
	rec.SampleCount++
	rec.LastUpdated = fb.Timestamp
	if fb.Effectiveness > 0.8 {
		rec.OptimalParameters = copyParams(fb.Parameters)
	}
}

// RecommendedParameters returns the learned optimal parameters for the
// scenario when its success rate exceeds 0.7, else the agent's static
// baseline. The returned map is a copy.
func (l *Learner) RecommendedParameters(agent, action string) map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec, ok := l.records[scenarioKey(agent, action)]; ok && rec.SuccessRate > 0.7 {
		return copyParams(rec.OptimalParameters)
	}
	return copyParams(l.baselines[agent])
}

// LearnedParameters returns the scenario's learned optimal parameters and
// true only when the scenario has proven out (success rate > 0.7). Unlike
// RecommendedParameters it never falls back to a baseline, letting callers
// tell a learned recommendation from a default.
func (l *Learner) LearnedParameters(agent, action string) (map[string]float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[scenarioKey(agent, action)]
	if !ok || rec.SuccessRate <= 0.7 {
		return nil, false
	}
	return copyParams(rec.OptimalParameters), true
}

// History returns a copy of the feedback history, oldest first.
func (l *Learner) History() []Feedback {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Feedback, len(l.history))
	copy(out, l.history)
	return out
}

// Records returns a snapshot of all learning records.
func (l *Learner) Records() map[string]Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]Record, len(l.records))
	for k, rec := range l.records {
		r := *rec
		r.OptimalParameters = copyParams(rec.OptimalParameters)
		out[k] = r
	}
	return out
}

// Analysis summarizes the feedback history: average effectiveness,
// successful vs failed actions, per-agent parameter adjustments taken from
// the best high-effectiveness sample, and improvement suggestions.
func (l *Learner) Analysis() Analysis {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.history) == 0 {
		return Analysis{
			LearningInsights:       []string{"no feedback history yet"},
			ImprovementSuggestions: []string{"start collecting operation feedback"},
			Timestamp:              now,
		}
	}

	var (
		successful, failed []string
		sum                float64
	)
	for _, fb := range l.history {
		sum += fb.Effectiveness
		label := fmt.Sprintf("%s: %s", fb.Agent, fb.Action)
		if fb.Effectiveness >= 0.7 {
			successful = append(successful, label)
		} else {
			failed = append(failed, fmt.Sprintf("%s (effectiveness %.0f%%)", label, fb.Effectiveness*100))
		}
	}
	avg := sum / float64(len(l.history))

	adjustments := make(map[string]map[string]float64)
	for agent := range l.baselines {
		var best *Feedback
		for i := range l.history {
			fb := &l.history[i]
			if fb.Agent != agent || fb.Effectiveness < 0.8 {
				continue
			}
			if best == nil || fb.Effectiveness > best.Effectiveness {
				best = fb
			}
		}
		if best != nil {
			adjustments[agent] = copyParams(best.Parameters)
		}
	}

	var insights []string
	keys := make([]string, 0, len(l.records))
	for k := range l.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec := l.records[k]
		if rec.SampleCount >= 3 {
			insights = append(insights, fmt.Sprintf("%s: success rate %.0f%% over %d samples",
				rec.Scenario, rec.SuccessRate*100, rec.SampleCount))
		}
	}

	var suggestions []string
	if avg < 0.6 {
		suggestions = append(suggestions, "overall control effectiveness poor, review the control strategy")
	} else if avg < 0.8 {
		suggestions = append(suggestions, "control effectiveness moderate, tune key parameters")
	}
	if len(failed) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("focus on the %d failed actions", len(failed)))
	}
	for _, agent := range []string{"turntable", "mbr", "regeneration"} {
		var agentSum float64
		var agentN int
		for _, fb := range l.history {
			if fb.Agent == agent {
				agentSum += fb.Effectiveness
				agentN++
			}
		}
		if agentN > 0 && agentSum/float64(agentN) < 0.7 {
			suggestions = append(suggestions, fmt.Sprintf(
				"%s control underperforming (%.0f%% average), inspect the subsystem",
				agent, agentSum/float64(agentN)*100))
		}
	}

	return Analysis{
		EffectivenessScore:     avg,
		SuccessfulActions:      truncate(successful, 10),
		FailedActions:          truncate(failed, 10),
		ParameterAdjustments:   adjustments,
		LearningInsights:       truncate(insights, 10),
		ImprovementSuggestions: truncate(suggestions, 5),
		Timestamp:              now,
	}
}

// TurntableFeedback derives a feedback sample from toxicity measured before
// and after a frequency decision was applied.
func (l *Learner) TurntableFeedback(toxicityBefore, toxicityAfter, frequency, expectedRemoval float64) Feedback {
	actualRemoval := 0.0
	if toxicityBefore > 0 {
		actualRemoval = (toxicityBefore - toxicityAfter) / toxicityBefore * 100
	}
	return Feedback{
		Agent:          "turntable",
		Action:         "frequency_control",
		ExpectedResult: fmt.Sprintf("expected removal %.1f%%", expectedRemoval),
		ActualResult:   fmt.Sprintf("actual removal %.1f%%", actualRemoval),
		Effectiveness:  Effectiveness(expectedRemoval, actualRemoval, DefaultTolerance),
		Parameters: map[string]float64{
			"frequency":       frequency,
			"toxicity_before": toxicityBefore,
			"toxicity_after":  toxicityAfter,
		},
		Timestamp: l.now(),
	}
}

// MBRFeedback derives a feedback sample from TMP measured before and after
// an aeration/flux decision was applied. Stable or falling TMP scores 1.
func (l *Learner) MBRFeedback(tmpBefore, tmpAfter, aerationRate, flux float64) Feedback {
	eff := 1.0
	if tmpAfter > tmpBefore {
		eff = 1 - (tmpAfter-tmpBefore)/10
		if eff < 0 {
			eff = 0
		}
	}
	return Feedback{
		Agent:          "mbr",
		Action:         "tmp_control",
		ExpectedResult: "TMP stable or falling",
		ActualResult:   fmt.Sprintf("TMP moved from %.1f to %.1f kPa", tmpBefore, tmpAfter),
		Effectiveness:  eff,
		Parameters: map[string]float64{
			"aeration_rate": aerationRate,
			"flux":          flux,
			"tmp_change":    tmpAfter - tmpBefore,
		},
		Timestamp: l.now(),
	}
}

func copyParams(p map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func truncate(s []string, max int) []string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
