package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	// Minimal config — only server_endpoint for agent side; server section absent.
	p := writeConfig(t, `agent:
  server_endpoint: "http://localhost:8080"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.Readings.TTL != DefaultReadingsTTL {
		t.Errorf("readings.ttl: got %v, want %v", cfg.Server.Readings.TTL, DefaultReadingsTTL)
	}
	if cfg.Server.PLC.Topic != DefaultPLCTopic {
		t.Errorf("plc.topic: got %q, want %q", cfg.Server.PLC.Topic, DefaultPLCTopic)
	}
	if cfg.Server.PLC.QoS != 1 {
		t.Errorf("plc.qos: got %d, want 1", cfg.Server.PLC.QoS)
	}
}

func TestLoad_FullServer(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  auth:
    mode: apikey
    key_env: MY_KEY
    header: x-aqua-key
  readings:
    ttl: 10m
  knowledge:
    path: /etc/aquamind/knowledge.yaml
  learning:
    history_size: 250
  plc:
    broker: tcp://plc-gateway:1883
    topic: plant/plc/write
    client_id: aquamind-1
    qos: 2
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.Server.HTTPPort)
	}
	if cfg.Server.Auth.Mode != "apikey" {
		t.Errorf("auth.mode: got %q, want apikey", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Auth.EffectiveHeader() != "x-aqua-key" {
		t.Errorf("header: got %q, want x-aqua-key", cfg.Server.Auth.EffectiveHeader())
	}
	if cfg.Server.Readings.TTL != 10*time.Minute {
		t.Errorf("readings.ttl: got %v, want 10m", cfg.Server.Readings.TTL)
	}
	if cfg.Server.Knowledge.Path != "/etc/aquamind/knowledge.yaml" {
		t.Errorf("knowledge.path: got %q", cfg.Server.Knowledge.Path)
	}
	if cfg.Server.Learning.HistorySize != 250 {
		t.Errorf("learning.history_size: got %d, want 250", cfg.Server.Learning.HistorySize)
	}
	if cfg.Server.PLC.Broker != "tcp://plc-gateway:1883" {
		t.Errorf("plc.broker: got %q", cfg.Server.PLC.Broker)
	}
	if cfg.Server.PLC.QoS != 2 {
		t.Errorf("plc.qos: got %d, want 2", cfg.Server.PLC.QoS)
	}
}

func TestLoad_DefaultHeader(t *testing.T) {
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: K
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h := cfg.Server.Auth.EffectiveHeader(); h != "x-api-key" {
		t.Errorf("EffectiveHeader: got %q, want x-api-key", h)
	}
}

func TestLoad_KeyEnvResolution(t *testing.T) {
	t.Setenv("TEST_SERVER_KEY", "supersecret")
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: TEST_SERVER_KEY
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k := cfg.Server.Auth.Key(); k != "supersecret" {
		t.Errorf("Key(): got %q, want supersecret", k)
	}
}

func TestLoad_UnknownAuthMode(t *testing.T) {
	p := writeConfig(t, `server:
  auth:
    mode: oauth2
`)
	_, err := Load(p)
	if err == nil {
		t.Fatal("expected error for unknown auth mode, got nil")
	}
}

func TestLoad_QoSOutOfRange(t *testing.T) {
	p := writeConfig(t, `server:
  plc:
    qos: 3
`)
	_, err := Load(p)
	if err == nil {
		t.Fatal("expected error for qos 3, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
