package trend

import (
	"sync"

	"github.com/aquamind/aquamind/pkg/types"
)

// relThreshold is the relative delta beyond which the signal counts as
// moving. ±5% of the previous value.
const relThreshold = 0.05

// Engine maintains the previous toxicity sample per source and derives
// level and trend for new samples.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu   sync.Mutex
	prev map[string]float64
}

// NewEngine returns a ready-to-use Engine.
func NewEngine() *Engine {
	return &Engine{prev: make(map[string]float64)}
}

// Annotate fills in Level and Trend on snap's toxicity section from the
// previous sample recorded for snap.SourceID, then records the new sample
// as the baseline. Snapshots without a toxicity section pass through
// unchanged.
func (e *Engine) Annotate(snap *types.PlantReadings) {
	if snap == nil || snap.Toxicity == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	value := snap.Toxicity.Value
	snap.Toxicity.Level = types.LevelForToxicity(value)

	prev, seen := e.prev[snap.SourceID]
	snap.Toxicity.Trend = trendOf(value, prev, seen)
	e.prev[snap.SourceID] = value
}

// trendOf classifies the move from prev to current. Without a previous
// sample the trend is stable. A zero previous value with a non-zero current
// counts as rising; the relative delta is undefined there.
func trendOf(current, prev float64, seen bool) types.Trend {
	if !seen {
		return types.TrendStable
	}
	if prev == 0 {
		if current > 0 {
			return types.TrendRising
		}
		return types.TrendStable
	}

	rel := (current - prev) / prev
	switch {
	case rel > relThreshold:
		return types.TrendRising
	case rel < -relThreshold:
		return types.TrendFalling
	default:
		return types.TrendStable
	}
}
