package diagnosis

import (
	"time"
)

// HealthLevel is the banded health classification of a score.
type HealthLevel string

const (
	HealthExcellent HealthLevel = "excellent" // ≥90
	HealthGood      HealthLevel = "good"      // ≥75
	HealthAttention HealthLevel = "attention" // ≥60
	HealthWarning   HealthLevel = "warning"   // ≥40
	HealthCritical  HealthLevel = "critical"  // <40
	HealthUnknown   HealthLevel = "unknown"   // no data
)

// SubsystemStatus is one subsystem's evaluation result.
type SubsystemStatus struct {
	Name            string      `json:"name"`
	HealthLevel     HealthLevel `json:"health_level"`
	Score           float64     `json:"score"`
	Issues          []string    `json:"issues"`
	Recommendations []string    `json:"recommendations"`

	// Unavailable marks a subsystem whose readings could not be acquired.
	// Unavailable subsystems are excluded from the overall mean.
	Unavailable bool `json:"unavailable,omitempty"`
}

// Report is the aggregate diagnostic report.
type Report struct {
	OverallHealth   HealthLevel                `json:"overall_health"`
	OverallScore    float64                    `json:"overall_score"`
	SubsystemStatus map[string]SubsystemStatus `json:"subsystem_status"`
	CriticalIssues  []string                   `json:"critical_issues"`
	Warnings        []string                   `json:"warnings"`
	Recommendations []string                   `json:"recommendations"`
	Timestamp       time.Time                  `json:"timestamp"`
}

// ToxicityInput feeds the toxicity-prediction subsystem evaluation.
type ToxicityInput struct {
	Value              float64
	Confidence         float64
	PredictionAccuracy float64
}

// TurntableInput feeds the turntable subsystem evaluation.
type TurntableInput struct {
	Frequency        float64
	RemovalRate      float64
	StandbyTriggered bool
}

// MBRInput feeds the membrane subsystem evaluation.
type MBRInput struct {
	TMP           float64
	Flux          float64
	FoulingStatus string
}

// RegenerationInput feeds the regeneration subsystem evaluation.
type RegenerationInput struct {
	AdsorptionEfficiency float64
	RegenerationNeeded   bool
}

// Input carries the reading snapshot to evaluate. A nil section marks that
// subsystem unavailable.
type Input struct {
	Toxicity     *ToxicityInput
	Turntable    *TurntableInput
	MBR          *MBRInput
	Regeneration *RegenerationInput
}

// Evaluate scores all four subsystems and assembles the report.
func Evaluate(in Input, now time.Time) Report {
	statuses := map[string]SubsystemStatus{
		"toxicity":     evaluateToxicity(in.Toxicity),
		"turntable":    evaluateTurntable(in.Turntable),
		"mbr":          evaluateMBR(in.MBR),
		"regeneration": evaluateRegeneration(in.Regeneration),
	}

	var (
		sum       float64
		available int
	)
	for _, s := range statuses {
		if s.Unavailable {
			continue
		}
		sum += s.Score
		available++
	}

	overall := 0.0
	overallLevel := HealthUnknown
	if available > 0 {
		overall = sum / float64(available)
		overallLevel = levelForScore(overall)
	}

	var criticalIssues, warnings []string
	// Fixed iteration order keeps report assembly deterministic.
	for _, name := range []string{"toxicity", "turntable", "mbr", "regeneration"} {
		s := statuses[name]
		if s.Unavailable {
			continue
		}
		switch s.HealthLevel {
		case HealthWarning, HealthCritical:
			criticalIssues = append(criticalIssues, s.Issues...)
		case HealthAttention:
			warnings = append(warnings, s.Issues...)
		}
	}

	return Report{
		OverallHealth:   overallLevel,
		OverallScore:    overall,
		SubsystemStatus: statuses,
		CriticalIssues:  criticalIssues,
		Warnings:        warnings,
		Recommendations: mergeRecommendations(statuses, 10),
		Timestamp:       now,
	}
}

func evaluateToxicity(in *ToxicityInput) SubsystemStatus {
	if in == nil {
		return unavailable("toxicity prediction")
	}

	var issues, recs []string
	score := 100.0

	if in.Confidence < 0.6 {
		score -= 20
		issues = append(issues, "prediction confidence low")
		recs = append(recs, "extend the training window with recent analyzer data")
	} else if in.Confidence < 0.8 {
		score -= 10
		issues = append(issues, "prediction confidence moderate")
	}

	if in.PredictionAccuracy < 70 {
		score -= 25
		issues = append(issues, "prediction accuracy insufficient")
		recs = append(recs, "retrain the toxicity prediction model")
	} else if in.PredictionAccuracy < 85 {
		score -= 10
	}

	if in.Value > 5.0 {
		score -= 15
		issues = append(issues, "inlet toxicity elevated")
		recs = append(recs, "review inlet sources and strengthen pretreatment")
	}

	return status("toxicity prediction", score, issues, recs)
}

func evaluateTurntable(in *TurntableInput) SubsystemStatus {
	if in == nil {
		return unavailable("turntable adsorption")
	}

	var issues, recs []string
	score := 100.0

	if in.RemovalRate < 50 {
		score -= 30
		issues = append(issues, "toxicity removal rate low")
		recs = append(recs,
			"check activated-carbon adsorption capacity",
			"consider raising turntable frequency")
	} else if in.RemovalRate < 70 {
		score -= 15
		issues = append(issues, "removal rate below target")
	}

	if in.Frequency > 45 {
		score -= 10
		issues = append(issues, "drive frequency high")
		recs = append(recs, "watch drive energy consumption")
	}

	if in.StandbyTriggered {
		score -= 15
		issues = append(issues, "standby line engaged")
		recs = append(recs, "inspect duty lines for degraded performance")
	}

	return status("turntable adsorption", score, issues, recs)
}

func evaluateMBR(in *MBRInput) SubsystemStatus {
	if in == nil {
		return unavailable("MBR membrane")
	}

	var issues, recs []string
	score := 100.0

	switch {
	case in.TMP >= 40:
		score -= 35
		issues = append(issues, "TMP severely elevated")
		recs = append(recs, "run chemical cleaning immediately")
	case in.TMP >= 30:
		score -= 20
		issues = append(issues, "TMP elevated")
		recs = append(recs, "intensify backwash and prepare for cleaning")
	case in.TMP >= 25:
		score -= 10
		issues = append(issues, "TMP approaching warning level")
	}

	if in.Flux < 10 {
		score -= 25
		issues = append(issues, "permeate flux severely low")
	} else if in.Flux < 15 {
		score -= 15
		issues = append(issues, "permeate flux low")
	}

	switch in.FoulingStatus {
	case "critical":
		score -= 30
		issues = append(issues, "membrane fouling severe")
	case "warning":
		score -= 15
		issues = append(issues, "membrane fouling present")
	}

	return status("MBR membrane", score, issues, recs)
}

func evaluateRegeneration(in *RegenerationInput) SubsystemStatus {
	if in == nil {
		return unavailable("carbon regeneration")
	}

	var issues, recs []string
	score := 100.0

	if in.AdsorptionEfficiency < 60 {
		score -= 30
		issues = append(issues, "adsorption efficiency severely degraded")
		recs = append(recs, "schedule regeneration immediately")
	} else if in.AdsorptionEfficiency < 80 {
		score -= 15
		issues = append(issues, "adsorption efficiency degraded")
	}

	if in.RegenerationNeeded {
		score -= 10
		issues = append(issues, "regeneration pending")
		recs = append(recs, "plan the regeneration run")
	}

	return status("carbon regeneration", score, issues, recs)
}

func status(name string, score float64, issues, recs []string) SubsystemStatus {
	if score < 0 {
		score = 0
	}
	return SubsystemStatus{
		Name:            name,
		HealthLevel:     levelForScore(score),
		Score:           score,
		Issues:          issues,
		Recommendations: recs,
	}
}

func unavailable(name string) SubsystemStatus {
	return SubsystemStatus{
		Name:        name,
		HealthLevel: HealthUnknown,
		Unavailable: true,
		Issues:      []string{"readings unavailable"},
	}
}

func levelForScore(score float64) HealthLevel {
	switch {
	case score >= 90:
		return HealthExcellent
	case score >= 75:
		return HealthGood
	case score >= 60:
		return HealthAttention
	case score >= 40:
		return HealthWarning
	default:
		return HealthCritical
	}
}

// mergeRecommendations unions subsystem recommendations in fixed subsystem
// order, dropping duplicates and truncating to max entries.
func mergeRecommendations(statuses map[string]SubsystemStatus, max int) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, name := range []string{"toxicity", "turntable", "mbr", "regeneration"} {
		for _, rec := range statuses[name].Recommendations {
			if _, dup := seen[rec]; dup {
				continue
			}
			seen[rec] = struct{}{}
			merged = append(merged, rec)
			if len(merged) == max {
				return merged
			}
		}
	}
	return merged
}
