package config

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/fsnotify/fsnotify"
)

// Watch re-reads the agent configuration whenever the file at path is
// rewritten on disk and hands each parsed revision to apply. It blocks until
// ctx is cancelled.
//
// Revisions that fail to parse are logged and skipped, so a half-saved or
// invalid file never displaces the running instrument set. Rewrites that do
// not change the effective configuration are ignored.
func Watch(ctx context.Context, path string, apply func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return err
	}

	rl := &reloader{path: path, apply: apply}
	rl.prev, _ = Load(path)

	slog.Info("agent config: watching", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			rl.onEvent(ev, w)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("agent config: watch error", "err", err)
		}
	}
}

// reloader remembers the last applied revision so no-op rewrites and failed
// parses leave the running configuration alone.
type reloader struct {
	path  string
	apply func(*Config)
	prev  *Config
}

// onEvent reloads the file for write-like events. Editors that save
// atomically replace the inode (rename over the path), so rename counts as a
// rewrite and the path is re-registered after every reload attempt.
func (rl *reloader) onEvent(ev fsnotify.Event, w *fsnotify.Watcher) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	defer func() { _ = w.Add(rl.path) }()

	cfg, err := Load(rl.path)
	if err != nil {
		slog.Error("agent config: reload rejected, keeping running sources",
			"path", rl.path, "err", err)
		return
	}
	if reflect.DeepEqual(cfg, rl.prev) {
		return
	}
	rl.prev = cfg

	slog.Info("agent config: applied new revision",
		"path", rl.path, "sources", len(cfg.Agent.Sources))
	rl.apply(cfg)
}
