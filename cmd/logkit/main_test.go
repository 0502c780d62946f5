package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HorseArcher567/logkit/pkg/app"
	"github.com/HorseArcher567/logkit/pkg/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func requireContains(t *testing.T, s, want string) {
	t.Helper()
	if !strings.Contains(s, want) {
		t.Fatalf("expected %q in:\n%s", want, s)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	requireContains(t, out, "logkit version "+version)
}

func TestEmitCommand(t *testing.T) {
	base := filepath.Join(t.TempDir(), "run")

	out, err := runCLI(t, "emit", "--base", base, "--level", "warn", "--module", "cli", "disk", "almost", "full")
	if err != nil {
		t.Fatalf("emit failed: %v\n%s", err, out)
	}
	requireContains(t, out, "disk almost full")

	for _, name := range []string{"run_error.log", "run_warn.log", "run_info.log", "run_debug.log"} {
		content, err := os.ReadFile(filepath.Join(filepath.Dir(base), name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		has := strings.Contains(string(content), "disk almost full")
		if want := name != "run_error.log"; has != want {
			t.Errorf("%s contains record = %v, want %v", name, has, want)
		}
	}
}

func TestEmitCommandSingleFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "combined.log")

	if out, err := runCLI(t, "emit", "--base", base, "--create-files=false", "--format", "readable", "hello"); err != nil {
		t.Fatalf("emit failed: %v\n%s", err, out)
	}

	content, err := os.ReadFile(base)
	if err != nil {
		t.Fatalf("read combined file: %v", err)
	}
	requireContains(t, string(content), "only one sink provided")
	requireContains(t, string(content), "└ hello")
}

func TestEmitCommandErrors(t *testing.T) {
	if _, err := runCLI(t, "emit", "hello"); err == nil {
		t.Error("expected error without base path")
	}

	base := filepath.Join(t.TempDir(), "run")
	if _, err := runCLI(t, "emit", "--base", base, "--level", "loud", "hello"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := runCLI(t, "emit", "--base", filepath.Join(base, "missing", "run"), "hello"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logkit.yaml")
	content := `logging:
  base: ` + filepath.Join(dir, "run") + `
  filtered_sources_info_only: [http]
  filtered_sources_all: [noisy]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCLI(t, "check", "--config", path)
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	requireContains(t, out, "console")
	requireContains(t, out, "run_info.log")
	requireContains(t, out, "http, noisy")

	if matches, _ := filepath.Glob(filepath.Join(dir, "run*")); len(matches) != 0 {
		t.Errorf("check must not create files, found %v", matches)
	}
}

func TestInitCommand(t *testing.T) {
	for _, ext := range []string{"yaml", "json", "toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "logkit."+ext)

			out, err := runCLI(t, "init", path)
			if err != nil {
				t.Fatalf("init failed: %v\n%s", err, out)
			}

			framework := app.DefaultFramework()
			if err := config.Load(path, &framework); err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if framework.Logging.Base != "./logs/run" || framework.ApiServer == nil || framework.ApiServer.Port != 9090 {
				t.Errorf("unexpected sample config: %+v", framework)
			}

			if _, err := runCLI(t, "init", path); err == nil {
				t.Error("expected error when the file exists")
			}
			if _, err := runCLI(t, "init", "--force", path); err != nil {
				t.Errorf("init --force failed: %v", err)
			}
		})
	}
}
