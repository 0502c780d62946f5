package xlog

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func singleFileConfig(t *testing.T, name string) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Base = filepath.Join(t.TempDir(), name)
	cfg.CreateFiles = false
	return cfg
}

func TestManagerReplaceClosesPrevious(t *testing.T) {
	m := NewManager(WithConsole(io.Discard))
	defer m.Reset()

	first, err := m.Replace(singleFileConfig(t, "first"))
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if slog.Default() != first.Logger {
		t.Error("first logger should be the process default")
	}

	second, err := m.Replace(singleFileConfig(t, "second"))
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if m.Active() != second || slog.Default() != second.Logger {
		t.Error("second logger should be active")
	}

	first.Info("late write")
	content, _ := os.ReadFile(first.Config().Base)
	if strings.Contains(string(content), "late write") {
		t.Error("replaced logger must not write after being closed")
	}

	slog.Info("through default")
	content, _ = os.ReadFile(second.Config().Base)
	if !strings.Contains(string(content), "through default") {
		t.Errorf("default logger should write to the active sinks: %s", content)
	}
}

func TestManagerReplaceFailureKeepsActive(t *testing.T) {
	m := NewManager(WithConsole(io.Discard))
	defer m.Reset()

	active, err := m.Replace(singleFileConfig(t, "active"))
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	bad := DefaultConfig()
	bad.Base = filepath.Join(t.TempDir(), "missing", "run")
	if _, err := m.Replace(bad); err == nil {
		t.Fatal("expected error")
	}
	if m.Active() != active {
		t.Fatal("failed replacement must keep the active logger")
	}

	active.Info("still writing")
	content, _ := os.ReadFile(active.Config().Base)
	if !strings.Contains(string(content), "still writing") {
		t.Error("active logger should remain open")
	}
}

func TestManagerReset(t *testing.T) {
	before := slog.Default()
	m := NewManager(WithConsole(io.Discard))

	l, err := m.Replace(singleFileConfig(t, "reset"))
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if err := m.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if slog.Default() != before {
		t.Error("Reset should restore the previous default logger")
	}
	if m.Active() != nil {
		t.Error("Reset should clear the active logger")
	}

	log.Print("after reset")
	content, _ := os.ReadFile(l.Config().Base)
	if strings.Contains(string(content), "after reset") {
		t.Error("standard log output should no longer reach the closed logger")
	}
}

func TestConfigure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Console = "none"
	base := filepath.Join(t.TempDir(), "global")

	l, err := Configure(base, cfg)
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	defer Reset()

	if Active() != l {
		t.Error("Configure should install the logger globally")
	}
	if l.Config().Base != base {
		t.Errorf("Base = %q, want %q", l.Config().Base, base)
	}
	for _, path := range l.Config().FilePaths() {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s: %v", path, err)
		}
	}
}

func TestContext(t *testing.T) {
	cfg := singleFileConfig(t, "ctx")
	l := newTestLogger(t, cfg, nil)

	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("FromContext should return the stored logger")
	}

	ctx = WithModule(ctx, "jobs")
	ctx = WithAttrs(ctx, "job_id", 42)
	FromContext(ctx).Info("job done")
	l.Close()

	content, _ := os.ReadFile(cfg.Base)
	if !strings.Contains(string(content), "jobs[") || !strings.Contains(string(content), "job_id=42") {
		t.Errorf("context logger attributes missing: %s", content)
	}
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil || l.Logger == nil {
		t.Fatal("FromContext should never return nil")
	}
	if err := l.Close(); err != nil {
		t.Errorf("fallback Close() error = %v", err)
	}
}
