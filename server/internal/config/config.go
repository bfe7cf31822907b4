package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "tmp > 35", "adsorption_efficiency < 60",
	// "toxicity_value > 5", "toxicity_level == high".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | pagerduty | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Default values for the server configuration.
const (
	DefaultHTTPPort    = 8080
	DefaultReadingsTTL = 5 * time.Minute
	DefaultPLCTopic    = "plc/write"
	DefaultPLCClientID = "aquamind-server"
)

// Config holds the server-side configuration parsed from the `server:` section
// of config.yaml. The `agent:` key in the same file is ignored.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the ingest endpoint, REST API, and WebSocket hub
	// listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates incoming clients.
	Auth AuthConfig `yaml:"auth"`

	// Readings controls in-memory readings retention.
	Readings ReadingsConfig `yaml:"readings"`

	// Knowledge points at an optional YAML overlay for the compiled-in
	// expert rules, equipment sheets, and PLC variable sheet.
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// Learning controls the feedback learner.
	Learning LearningConfig `yaml:"learning"`

	// PLC configures the actuation bus.
	PLC PLCConfig `yaml:"plc"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// ReadingsConfig controls in-memory readings retention.
type ReadingsConfig struct {
	// TTL is how long a source's readings remain in the store after its last
	// update. When TTL elapses without a new snapshot from a source, the
	// entry is evicted. Default: 5m.
	TTL time.Duration `yaml:"ttl"`
}

// KnowledgeConfig points at the optional knowledge overlay file.
type KnowledgeConfig struct {
	// Path is the YAML overlay merged over the compiled-in knowledge
	// defaults. Empty means defaults only.
	Path string `yaml:"path"`
}

// LearningConfig controls the feedback learner.
type LearningConfig struct {
	// HistorySize bounds the feedback FIFO. Default 100.
	HistorySize int `yaml:"history_size"`
}

// PLCConfig configures the MQTT actuation bus. An empty Broker disables
// dispatch: decisions are computed and logged but not sent.
type PLCConfig struct {
	// Broker is the MQTT broker URL, e.g. "tcp://plc-gateway:1883".
	Broker string `yaml:"broker"`

	// Topic is the command topic. Default "plc/write".
	Topic string `yaml:"topic"`

	// ClientID identifies this server on the broker. Default "aquamind-server".
	ClientID string `yaml:"client_id"`

	// QoS is the MQTT quality-of-service for commands (0-2). Default 1.
	QoS byte `yaml:"qos"`
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Readings: ReadingsConfig{
				TTL: DefaultReadingsTTL,
			},
			PLC: PLCConfig{
				Topic:    DefaultPLCTopic,
				ClientID: DefaultPLCClientID,
				QoS:      1,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Readings.TTL < 0 {
		return fmt.Errorf("server.readings.ttl must not be negative")
	}
	if cfg.Server.Learning.HistorySize < 0 {
		return fmt.Errorf("server.learning.history_size must not be negative")
	}
	if cfg.Server.PLC.QoS > 2 {
		return fmt.Errorf("server.plc.qos %d is out of range [0, 2]", cfg.Server.PLC.QoS)
	}
	return nil
}
