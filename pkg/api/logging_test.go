package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HorseArcher567/logkit/pkg/xlog"
)

func newTestServer(t *testing.T) (*Server, *xlog.Manager) {
	t.Helper()
	m := xlog.NewManager(xlog.WithConsole(io.Discard))
	t.Cleanup(func() { m.Reset() })

	s := NewServer(&ServerConfig{Name: "test", Mode: "test"})
	s.Register(NewLoggingHandler(m))
	return s, m
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func combinedConfig(t *testing.T) xlog.Config {
	t.Helper()
	cfg := xlog.DefaultConfig()
	cfg.Base = filepath.Join(t.TempDir(), "admin.log")
	cfg.CreateFiles = false
	cfg.Console = "none"
	return cfg
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated request id header")
	}
}

func TestLoggingStatusWithoutLogger(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/logging", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestLoggingReplace(t *testing.T) {
	s, m := newTestServer(t)
	initial := combinedConfig(t)
	if _, err := m.Replace(initial); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	cfg := initial
	cfg.Base = filepath.Join(filepath.Dir(initial.Base), "next.log")
	w := doJSON(t, s, http.MethodPut, "/logging", cfg)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}

	var resp LoggingStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID == "" || resp.ID != m.Active().ID() {
		t.Fatalf("unexpected id %q", resp.ID)
	}
	if len(resp.Sinks) != 1 || resp.Sinks[0].Target != cfg.Base {
		t.Fatalf("unexpected sinks: %+v", resp.Sinks)
	}

	w = doJSON(t, s, http.MethodGet, "/logging", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var status LoggingStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.ID != resp.ID || status.Config.Base != cfg.Base {
		t.Errorf("status mismatch: %+v", status)
	}
}

func TestLoggingReplaceWithoutLogger(t *testing.T) {
	s, m := newTestServer(t)

	w := doJSON(t, s, http.MethodPut, "/logging", combinedConfig(t))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if m.Active() != nil {
		t.Error("nothing should be installed")
	}
}

func TestLoggingReplaceErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(t *testing.T, cfg *xlog.Config)
		want   int
	}{
		{name: "bad format", modify: func(t *testing.T, cfg *xlog.Config) { cfg.Format = "xml" }, want: http.StatusBadRequest},
		{name: "empty base", modify: func(t *testing.T, cfg *xlog.Config) { cfg.Base = "" }, want: http.StatusBadRequest},
		{name: "subdirectory", modify: func(t *testing.T, cfg *xlog.Config) {
			cfg.Base = filepath.Join(filepath.Dir(cfg.Base), "missing", "run")
		}, want: http.StatusBadRequest},
		{name: "base is a directory", modify: func(t *testing.T, cfg *xlog.Config) {
			cfg.Base = filepath.Join(filepath.Dir(cfg.Base), "sub")
			if err := os.Mkdir(cfg.Base, 0o755); err != nil {
				t.Fatal(err)
			}
		}, want: http.StatusBadRequest},
		{name: "unopenable file", modify: func(t *testing.T, cfg *xlog.Config) {
			cfg.Base = filepath.Join(filepath.Dir(cfg.Base), "locked.log")
			if err := os.WriteFile(cfg.Base, nil, 0o444); err != nil {
				t.Fatal(err)
			}
			if os.Geteuid() == 0 {
				t.Skip("root ignores file permissions")
			}
		}, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := newTestServer(t)

			cfg := combinedConfig(t)
			active, err := m.Replace(cfg)
			if err != nil {
				t.Fatalf("Replace() error = %v", err)
			}

			tt.modify(t, &cfg)
			w := doJSON(t, s, http.MethodPut, "/logging", cfg)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if m.Active() != active {
				t.Error("failed replacement must keep the active logger")
			}
		})
	}
}

func TestLoggingReplaceOutsideLogDir(t *testing.T) {
	s, m := newTestServer(t)
	if _, err := m.Replace(combinedConfig(t)); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	outside := filepath.Join(t.TempDir(), "important.db")
	if err := os.WriteFile(outside, []byte("precious data\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg := combinedConfig(t)
	cfg.Base = outside
	cfg.Overwrite = true
	w := doJSON(t, s, http.MethodPut, "/logging", cfg)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	content, err := os.ReadFile(outside)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(content) != "precious data\n" {
		t.Errorf("file outside the log directory was modified: %q", content)
	}
}

func TestLoggingReplaceSymlink(t *testing.T) {
	s, m := newTestServer(t)
	cfg := combinedConfig(t)
	if _, err := m.Replace(cfg); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	outside := filepath.Join(t.TempDir(), "important.db")
	if err := os.WriteFile(outside, []byte("precious data\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	link := filepath.Join(filepath.Dir(cfg.Base), "link.log")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	cfg.Base = link
	cfg.Overwrite = true
	if w := doJSON(t, s, http.MethodPut, "/logging", cfg); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if content, _ := os.ReadFile(outside); string(content) != "precious data\n" {
		t.Errorf("symlink target was modified: %q", content)
	}
}

func TestLoggingReplaceInvalidBody(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/logging", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestEmitRecord(t *testing.T) {
	s, m := newTestServer(t)
	cfg := combinedConfig(t)
	if _, err := m.Replace(cfg); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	w := doJSON(t, s, http.MethodPost, "/logging/records", RecordRequest{
		Level:   "warn",
		Module:  "probe",
		Message: "probe record",
		Attrs:   map[string]any{"attempt": 3},
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	content, err := os.ReadFile(cfg.Base)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(content)
	for _, want := range []string{"WARN  probe[", "probe record", "attempt=3", "http request", "http["} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log:\n%s", want, out)
		}
	}
}

func TestEmitRecordValidation(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/logging/records", RecordRequest{Level: "loud", Message: "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad level: expected 400, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodPost, "/logging/records", RecordRequest{Level: "info"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing message: expected 400, got %d", w.Code)
	}
}
