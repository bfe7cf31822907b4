package alerts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aquamind/aquamind/pkg/types"
	"github.com/aquamind/aquamind/server/internal/config"
)

func tmpSnapshot(tmp float64) *types.PlantReadings {
	return &types.PlantReadings{
		SourceID:  "plc-gateway",
		Timestamp: time.Now(),
		MBR:       &types.MBRReading{TMP: tmp, Flux: 18, Aeration: 50},
	}
}

func TestEvalCondition(t *testing.T) {
	snap := &types.PlantReadings{
		SourceID: "src",
		Toxicity: &types.ToxicityReading{Value: 4.2, Level: types.ToxicityHigh, Trend: types.TrendRising},
		MBR:      &types.MBRReading{TMP: 36, Flux: 11, Aeration: 105},
		Carbon:   &types.CarbonReading{AdsorptionEfficiency: 55, OperatingHours: 800},
	}

	tests := []struct {
		cond      string
		wantFires bool
		wantValue float64
	}{
		{"tmp > 35", true, 36},
		{"tmp > 40", false, 36},
		{"tmp >= 36", true, 36},
		{"flux < 12", true, 11},
		{"aeration > 100", true, 105},
		{"toxicity_value > 5", false, 4.2},
		{"toxicity_value > 3", true, 4.2},
		{"toxicity_level == high", true, 4.2},
		{"toxicity_level == low", false, 4.2},
		{"trend == rising", true, 4.2},
		{"adsorption_efficiency < 60", true, 55},
		{"operating_hours > 720", true, 800},
		// Unknown field, bad operator, unparseable expressions.
		{"pressure > 5", false, 0},
		{"tmp !! 5", false, 36},
		{"tmp >", false, 0},
		{"tmp > abc", false, 36},
	}
	for _, tt := range tests {
		fires, value := evalCondition(tt.cond, snap)
		if fires != tt.wantFires {
			t.Errorf("%q: fires = %v, want %v", tt.cond, fires, tt.wantFires)
		}
		if fires && value != tt.wantValue {
			t.Errorf("%q: value = %v, want %v", tt.cond, value, tt.wantValue)
		}
	}
}

func TestEvalCondition_MissingSection(t *testing.T) {
	snap := &types.PlantReadings{SourceID: "src"} // no sections at all
	for _, cond := range []string{"tmp > 35", "toxicity_value > 5", "toxicity_level == high", "adsorption_efficiency < 60"} {
		if fires, _ := evalCondition(cond, snap); fires {
			t.Errorf("%q fired with no instrument section", cond)
		}
	}
}

func TestEngine_FireAndResolve(t *testing.T) {
	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{
			{Name: "tmp-high", Condition: "tmp > 35", Severity: "critical"},
		},
	})

	e.Evaluate(tmpSnapshot(38))

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("active alerts: got %d, want 1", len(active))
	}
	a := active[0]
	if a.State != "firing" || a.RuleName != "tmp-high" || a.Severity != "critical" {
		t.Errorf("unexpected alert: %+v", a)
	}
	if a.Value != 38 {
		t.Errorf("alert value: got %v, want 38", a.Value)
	}
	if a.Subsystem != "mbr" || a.Field != "tmp" {
		t.Errorf("plant context: got subsystem %q field %q, want mbr/tmp", a.Subsystem, a.Field)
	}

	// Pressure returns to normal; the alert resolves but stays visible in the
	// recent window.
	e.Evaluate(tmpSnapshot(20))

	active = e.Active()
	if len(active) != 1 {
		t.Fatalf("active after resolve: got %d, want 1 (recently resolved)", len(active))
	}
	if active[0].State != "resolved" || active[0].ResolvedAt == nil {
		t.Errorf("alert not resolved: %+v", active[0])
	}
}

func TestEngine_CooldownSuppressesRefire(t *testing.T) {
	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{
			{Name: "tmp-high", Condition: "tmp > 35", Cooldown: time.Hour},
		},
	})

	e.Evaluate(tmpSnapshot(38))
	e.Evaluate(tmpSnapshot(39))
	e.Evaluate(tmpSnapshot(40))

	if n := len(e.Active()); n != 1 {
		t.Errorf("active alerts: got %d, want 1 (cooldown must suppress re-fires)", n)
	}
}

func TestEngine_DefaultSeverity(t *testing.T) {
	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{{Name: "tmp-high", Condition: "tmp > 35"}},
	})
	e.Evaluate(tmpSnapshot(38))

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("active alerts: got %d, want 1", len(active))
	}
	if active[0].Severity != "warning" {
		t.Errorf("severity: got %q, want warning (default)", active[0].Severity)
	}
}

func TestEngine_PerSourceDeduplication(t *testing.T) {
	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{{Name: "tmp-high", Condition: "tmp > 35"}},
	})

	a := tmpSnapshot(38)
	b := tmpSnapshot(39)
	b.SourceID = "plc-gateway-2"
	e.Evaluate(a)
	e.Evaluate(b)

	if n := len(e.Active()); n != 2 {
		t.Errorf("active alerts: got %d, want 2 (one per source)", n)
	}
}

func TestEngine_NoRulesIsNoop(t *testing.T) {
	e := New(config.AlertsConfig{})
	e.Evaluate(tmpSnapshot(99))
	if n := len(e.Active()); n != 0 {
		t.Errorf("active alerts: got %d, want 0", n)
	}
}

func TestEngine_WebhookDelivery(t *testing.T) {
	var mu sync.Mutex
	var bodies []map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		mu.Lock()
		bodies = append(bodies, payload)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("ALERT_WEBHOOK_URL", srv.URL)

	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{
			{Name: "tmp-high", Condition: "tmp > 35", Severity: "critical"},
		},
		Webhooks: []config.WebhookConfig{
			{Type: "http", URLEnv: "ALERT_WEBHOOK_URL"},
		},
	})

	e.Evaluate(tmpSnapshot(38))

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(bodies)
		mu.Unlock()
		if n >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("webhook not delivered before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	got := bodies[0]
	if got["rule"] != "tmp-high" || got["event"] != "firing" {
		t.Errorf("unexpected webhook event: %v", got)
	}
	if got["subsystem"] != "mbr" || got["field"] != "tmp" {
		t.Errorf("webhook plant context: got subsystem %v field %v, want mbr/tmp", got["subsystem"], got["field"])
	}
	if got["source"] != "plc-gateway" {
		t.Errorf("webhook source: got %v, want plc-gateway", got["source"])
	}
	if got["value"].(float64) != 38 {
		t.Errorf("webhook value: got %v, want 38", got["value"])
	}
}
