package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aquamind/aquamind/pkg/types"
	"github.com/aquamind/aquamind/server/internal/control"
	"github.com/aquamind/aquamind/server/internal/diagnosis"
	"github.com/aquamind/aquamind/server/internal/intent"
	"github.com/aquamind/aquamind/server/internal/knowledge"
	"github.com/aquamind/aquamind/server/internal/learning"
)

// ReadingsProvider supplies the latest combined plant readings.
// *store.Store satisfies it.
type ReadingsProvider interface {
	Latest() (types.PlantReadings, bool)
}

// Dispatcher sends a PLC command document to the actuation bus.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd map[string]interface{}) error
}

// SystemState is the orchestrator's view of the plant, updated once per
// completed request. Callers receive copies and must not retain them across
// requests.
type SystemState struct {
	ToxicityValue    float64             `json:"toxicity_value"`
	ToxicityLevel    types.ToxicityLevel `json:"toxicity_level"`
	ToxicityTrend    types.Trend         `json:"toxicity_trend"`
	MembranePressure float64             `json:"membrane_pressure"`
	CarbonEfficiency float64             `json:"carbon_efficiency"`
	LastFrequency    float64             `json:"last_frequency"`
	LastIntent       intent.Intent       `json:"last_intent"`
	LastDecisionAt   time.Time           `json:"last_decision_at"`
	RequestCount     int                 `json:"request_count"`
}

// Response is the merged result of one request cycle. Sections not implied
// by the intent, or whose collaborator failed, are nil; Unavailable lists
// the omissions with their reasons.
type Response struct {
	Intent      intent.Intent      `json:"intent"`
	Decisions   []control.Decision `json:"decisions,omitempty"`
	Diagnostic  *diagnosis.Report  `json:"diagnostic,omitempty"`
	Prediction  *Prediction        `json:"prediction,omitempty"`
	Learning    *learning.Analysis `json:"learning,omitempty"`
	Answer      string             `json:"answer,omitempty"`
	Unavailable []string           `json:"unavailable,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// Prediction answers a toxicity forecast request: the analyzer's current
// state plus the removal the turntable controller would expect at its
// recommended setpoint. It is advisory only; no PLC command is issued for it.
type Prediction struct {
	Value               float64             `json:"value"`
	Level               types.ToxicityLevel `json:"level"`
	Trend               types.Trend         `json:"trend"`
	Confidence          float64             `json:"confidence"`
	ExpectedRemovalRate float64             `json:"expected_removal_rate,omitempty"`
}

// Orchestrator sequences one request at a time over shared state. Safe for
// concurrent use; the decision computations themselves are pure and run
// outside the lock.
type Orchestrator struct {
	kb       *knowledge.Store
	learner  *learning.Learner
	readings ReadingsProvider
	plc      Dispatcher

	mu    sync.Mutex
	state SystemState

	now func() time.Time
}

// New wires an Orchestrator. plc may be nil when actuation is disabled;
// decisions are then computed but not dispatched.
func New(kb *knowledge.Store, learner *learning.Learner, readings ReadingsProvider, plc Dispatcher) *Orchestrator {
	return &Orchestrator{
		kb:       kb,
		learner:  learner,
		readings: readings,
		plc:      plc,
		now:      time.Now,
	}
}

// State returns a copy of the current system state.
func (o *Orchestrator) State() SystemState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Handle runs one request cycle. It never returns an error: collaborator
// failures degrade the response instead.
func (o *Orchestrator) Handle(ctx context.Context, request string) Response {
	now := o.now()
	in := intent.Route(request)
	resp := Response{Intent: in, Timestamp: now}

	snapshot, haveReadings := o.readings.Latest()
	if !haveReadings {
		resp.Unavailable = append(resp.Unavailable, "readings: no live sources")
	}

	switch in {
	case intent.ControlTurntable:
		o.runTurntable(&resp, snapshot, haveReadings, now)

	case intent.PredictToxicity:
		o.runPrediction(&resp, snapshot, haveReadings, now)

	case intent.ControlMBR:
		o.runMBR(&resp, snapshot, haveReadings, now)

	case intent.CheckRegen:
		o.runRegeneration(&resp, snapshot, haveReadings, now)

	case intent.SystemDiagnostic:
		o.runDiagnostic(&resp, snapshot, haveReadings, now)

	case intent.CollectFeedback:
		a := o.learner.Analysis()
		resp.Learning = &a

	case intent.FullAnalysis:
		o.runTurntable(&resp, snapshot, haveReadings, now)
		o.runMBR(&resp, snapshot, haveReadings, now)
		o.runRegeneration(&resp, snapshot, haveReadings, now)
		o.runDiagnostic(&resp, snapshot, haveReadings, now)
		a := o.learner.Analysis()
		resp.Learning = &a

	case intent.GeneralQuery:
		resp.Answer = "supported requests: turntable control, MBR control, regeneration check, system diagnosis, toxicity prediction, feedback, full analysis"
	}

	// Dispatch outside the state lock; a failed dispatch degrades the
	// response but keeps the computed decisions in it.
	if o.plc != nil {
		for i := range resp.Decisions {
			if err := o.plc.Dispatch(ctx, resp.Decisions[i].PLCCommand()); err != nil {
				slog.Error("orchestrator: plc dispatch failed",
					"kind", resp.Decisions[i].Kind, "err", err)
				resp.Unavailable = append(resp.Unavailable,
					fmt.Sprintf("plc: %s dispatch failed", resp.Decisions[i].Kind))
			}
		}
	}

	o.updateState(&resp, snapshot, haveReadings, now)
	return resp
}

func (o *Orchestrator) runTurntable(resp *Response, snapshot types.PlantReadings, haveReadings bool, now time.Time) {
	if !haveReadings || snapshot.Toxicity == nil {
		resp.Unavailable = append(resp.Unavailable, "turntable: toxicity readings unavailable")
		return
	}

	ti := control.TurntableInput{
		ToxicityValue: snapshot.Toxicity.Value,
		Level:         snapshot.Toxicity.Level,
		Trend:         snapshot.Toxicity.Trend,
	}
	// A proven learned frequency for this level's scenario overrides the
	// expert-rule base.
	if params, ok := o.learner.LearnedParameters("turntable", "frequency_control"); ok {
		ti.BaseFrequencyOverride = params["frequency"]
	}

	d, err := control.DecideTurntable(ti, o.kb, now)
	if err != nil {
		slog.Warn("orchestrator: turntable decision rejected", "err", err)
		resp.Unavailable = append(resp.Unavailable, "turntable: "+err.Error())
		return
	}
	resp.Decisions = append(resp.Decisions, d)
}

// runPrediction answers a forecast request from the analyzer's current state.
// It consults the turntable controller only for the expected removal figure;
// the decision is never issued or dispatched.
func (o *Orchestrator) runPrediction(resp *Response, snapshot types.PlantReadings, haveReadings bool, now time.Time) {
	if !haveReadings || snapshot.Toxicity == nil {
		resp.Unavailable = append(resp.Unavailable, "prediction: toxicity readings unavailable")
		return
	}

	t := snapshot.Toxicity
	p := Prediction{
		Value:      t.Value,
		Level:      t.Level,
		Trend:      t.Trend,
		Confidence: t.Confidence,
	}
	if d, err := control.DecideTurntable(control.TurntableInput{
		ToxicityValue: t.Value,
		Level:         t.Level,
		Trend:         t.Trend,
	}, o.kb, now); err == nil {
		p.ExpectedRemovalRate = d.Turntable.ExpectedRemovalRate
	}

	resp.Prediction = &p
	resp.Answer = fmt.Sprintf("toxicity %.1f (%s, trend %s), confidence %.2f",
		t.Value, t.Level, t.Trend, t.Confidence)
}

func (o *Orchestrator) runMBR(resp *Response, snapshot types.PlantReadings, haveReadings bool, now time.Time) {
	if !haveReadings || snapshot.MBR == nil {
		resp.Unavailable = append(resp.Unavailable, "mbr: membrane readings unavailable")
		return
	}

	d, err := control.DecideMBR(control.MBRInput{
		TMP:      snapshot.MBR.TMP,
		Flux:     snapshot.MBR.Flux,
		Aeration: snapshot.MBR.Aeration,
	}, o.kb, now)
	if err != nil {
		slog.Warn("orchestrator: mbr decision rejected", "err", err)
		resp.Unavailable = append(resp.Unavailable, "mbr: "+err.Error())
		return
	}
	resp.Decisions = append(resp.Decisions, d)
}

func (o *Orchestrator) runRegeneration(resp *Response, snapshot types.PlantReadings, haveReadings bool, now time.Time) {
	if !haveReadings || snapshot.Carbon == nil {
		resp.Unavailable = append(resp.Unavailable, "regeneration: carbon readings unavailable")
		return
	}

	d, err := control.DecideRegeneration(control.RegenerationInput{
		AdsorptionEfficiency: snapshot.Carbon.AdsorptionEfficiency,
		RemovalRate:          snapshot.Carbon.RemovalRate,
		OperatingHours:       snapshot.Carbon.OperatingHours,
	}, o.kb, now)
	if err != nil {
		slog.Warn("orchestrator: regeneration decision rejected", "err", err)
		resp.Unavailable = append(resp.Unavailable, "regeneration: "+err.Error())
		return
	}
	resp.Decisions = append(resp.Decisions, d)
}

func (o *Orchestrator) runDiagnostic(resp *Response, snapshot types.PlantReadings, haveReadings bool, now time.Time) {
	report := o.buildDiagnostic(snapshot, haveReadings, now)
	resp.Diagnostic = &report
}

// Diagnose scores the latest readings without recording a request. Health
// polls read the plant rather than act on it, so SystemState is untouched.
func (o *Orchestrator) Diagnose() diagnosis.Report {
	snapshot, haveReadings := o.readings.Latest()
	return o.buildDiagnostic(snapshot, haveReadings, o.now())
}

func (o *Orchestrator) buildDiagnostic(snapshot types.PlantReadings, haveReadings bool, now time.Time) diagnosis.Report {
	var in diagnosis.Input
	if haveReadings {
		if t := snapshot.Toxicity; t != nil {
			in.Toxicity = &diagnosis.ToxicityInput{
				Value:              t.Value,
				Confidence:         t.Confidence,
				PredictionAccuracy: t.PredictionAccuracy,
			}
		}
		if t := snapshot.Turntable; t != nil {
			in.Turntable = &diagnosis.TurntableInput{
				Frequency:        t.Frequency,
				RemovalRate:      t.RemovalRate,
				StandbyTriggered: t.StandbyActive,
			}
		}
		if m := snapshot.MBR; m != nil {
			in.MBR = &diagnosis.MBRInput{
				TMP:           m.TMP,
				Flux:          m.Flux,
				FoulingStatus: foulingForTMP(m.TMP, o.kb),
			}
		}
		if c := snapshot.Carbon; c != nil {
			regenNeeded := false
			if d, err := control.DecideRegeneration(control.RegenerationInput{
				AdsorptionEfficiency: c.AdsorptionEfficiency,
				RemovalRate:          c.RemovalRate,
				OperatingHours:       c.OperatingHours,
			}, o.kb, now); err == nil {
				regenNeeded = d.Regeneration.Needed
			}
			in.Regeneration = &diagnosis.RegenerationInput{
				AdsorptionEfficiency: c.AdsorptionEfficiency,
				RegenerationNeeded:   regenNeeded,
			}
		}
	}

	return diagnosis.Evaluate(in, now)
}

// foulingForTMP classifies measured TMP the same way the MBR controller
// tiers it, for the scorer's fouling-status input.
func foulingForTMP(tmp float64, kb *knowledge.Store) string {
	warning := kb.RuleValue("mbr_control", "thresholds", "tmp_warning", 30.0)
	alarm := kb.RuleValue("mbr_control", "thresholds", "tmp_alarm", 40.0)
	switch {
	case tmp >= alarm:
		return control.FoulingCritical
	case tmp >= warning:
		return control.FoulingWarning
	case tmp >= warning*0.8:
		return control.FoulingAttention
	default:
		return control.FoulingNormal
	}
}

// updateState folds the completed request into the shared system state.
func (o *Orchestrator) updateState(resp *Response, snapshot types.PlantReadings, haveReadings bool, now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if haveReadings {
		if t := snapshot.Toxicity; t != nil {
			o.state.ToxicityValue = t.Value
			o.state.ToxicityLevel = t.Level
			o.state.ToxicityTrend = t.Trend
		}
		if m := snapshot.MBR; m != nil {
			o.state.MembranePressure = m.TMP
		}
		if c := snapshot.Carbon; c != nil {
			o.state.CarbonEfficiency = c.AdsorptionEfficiency
		}
	}
	for i := range resp.Decisions {
		if t := resp.Decisions[i].Turntable; t != nil {
			o.state.LastFrequency = t.Frequency1
		}
	}
	o.state.LastIntent = resp.Intent
	o.state.LastDecisionAt = now
	o.state.RequestCount++
}
