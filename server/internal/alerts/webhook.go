package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// deliver fans one alert event out to every configured webhook target.
// Delivery failures are logged; they never propagate back to the rule engine.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		body, ok := renderPayload(wh.Type, a)
		if !ok {
			slog.Warn("alerts: unknown webhook type — skipping", "type", wh.Type)
			continue
		}

		if err := e.post(url, body); err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"subsystem", a.Subsystem,
				"err", err,
			)
			continue
		}
		slog.Debug("alerts: webhook delivered",
			"type", wh.Type,
			"rule", a.RuleName,
			"state", a.State,
		)
	}
}

// renderPayload builds the request body for one webhook flavour. Chat targets
// get a readable line with the plant context; plain HTTP and PagerDuty
// targets get the full structured event.
func renderPayload(whType string, a *Alert) ([]byte, bool) {
	switch whType {
	case "slack":
		body, _ := json.Marshal(map[string]string{
			"text": fmt.Sprintf("%s %s %s on %s/%s: %s = %.2f",
				severityLabel(a.Severity), a.RuleName, a.State,
				a.SourceID, a.Subsystem, a.Field, a.Value),
		})
		return body, true

	case "teams":
		body, _ := json.Marshal(map[string]interface{}{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": severityColor(a.Severity),
			"summary":    a.RuleName,
			"title":      fmt.Sprintf("Plant alert %s: %s", a.State, a.RuleName),
			"text":       a.Message,
			"sections": []map[string]interface{}{{
				"facts": []map[string]string{
					{"name": "Source", "value": a.SourceID},
					{"name": "Subsystem", "value": a.Subsystem},
					{"name": "Reading", "value": fmt.Sprintf("%s = %.2f", a.Field, a.Value)},
					{"name": "Severity", "value": a.Severity},
				},
			}},
		})
		return body, true

	case "pagerduty", "http":
		payload := map[string]interface{}{
			"event":     a.State,
			"rule":      a.RuleName,
			"source":    a.SourceID,
			"subsystem": a.Subsystem,
			"field":     a.Field,
			"value":     a.Value,
			"severity":  a.Severity,
			"message":   a.Message,
			"fired_at":  a.FiredAt.UTC().Format(time.RFC3339),
		}
		if a.ResolvedAt != nil {
			payload["resolved_at"] = a.ResolvedAt.UTC().Format(time.RFC3339)
		}
		body, _ := json.Marshal(payload)
		return body, true

	default:
		return nil, false
	}
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "E53935"
	case "warning":
		return "FB8C00"
	default:
		return "1E88E5"
	}
}
