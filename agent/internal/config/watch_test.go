package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const watchBase = `agent:
  server_endpoint: http://127.0.0.1:9090
`

const watchRevised = `agent:
  server_endpoint: http://127.0.0.1:9090
  buffer_size: 5
`

func writeConfigFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// startWatch runs Watch in the background and returns the channel of applied
// revisions. The brief sleep lets the watcher register the path before the
// test rewrites it.
func startWatch(t *testing.T, ctx context.Context, path string) chan *Config {
	t.Helper()
	applied := make(chan *Config, 8)
	go func() {
		_ = Watch(ctx, path, func(c *Config) { applied <- c })
	}()
	time.Sleep(50 * time.Millisecond)
	return applied
}

func TestWatch_AppliesNewRevision(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, p, watchBase)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	applied := startWatch(t, ctx, p)

	writeConfigFile(t, p, watchRevised)

	select {
	case cfg := <-applied:
		if cfg.Agent.BufferSize != 5 {
			t.Errorf("BufferSize = %d, want 5 from the new revision", cfg.Agent.BufferSize)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("revision not applied before deadline")
	}
}

func TestWatch_InvalidRevisionKeepsRunningConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, p, watchBase)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	applied := startWatch(t, ctx, p)

	writeConfigFile(t, p, "agent: [broken")

	select {
	case cfg := <-applied:
		t.Fatalf("broken revision applied: %+v", cfg)
	case <-time.After(250 * time.Millisecond):
	}

	// The watcher must survive the bad revision and pick up the next good one.
	writeConfigFile(t, p, watchRevised)
	select {
	case cfg := <-applied:
		if cfg.Agent.BufferSize != 5 {
			t.Errorf("BufferSize = %d, want 5", cfg.Agent.BufferSize)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("good revision after a bad one not applied")
	}
}

func TestWatch_NoopRewriteSkipped(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, p, watchBase)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	applied := startWatch(t, ctx, p)

	// Same bytes, same effective configuration — nothing to apply.
	writeConfigFile(t, p, watchBase)

	select {
	case cfg := <-applied:
		t.Fatalf("unchanged revision applied: %+v", cfg)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, p, watchBase)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, func(*Config) {})
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v, want nil on cancel", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after context cancel")
	}
}
