package rpc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HorseArcher567/logkit/pkg/xlog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServerConfig
		wantErr bool
	}{
		{name: "ok", cfg: ServerConfig{Name: "svc"}},
		{name: "no name", cfg: ServerConfig{}, wantErr: true},
		{name: "negative port", cfg: ServerConfig{Name: "svc", Port: -1}, wantErr: true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}

	if _, err := NewServer(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestClientConfig(t *testing.T) {
	cfg := &ClientConfig{}
	if _, err := NewClient(cfg); err == nil {
		t.Error("expected error without target")
	}

	cfg.EnableKeepalive = true
	opts := cfg.BuildDialOptions()
	if len(opts) != 3 {
		t.Errorf("expected 3 dial options, got %d", len(opts))
	}
	if cfg.LoadBalancingPolicy != "round_robin" || cfg.KeepaliveTime != 10*time.Second {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestServerHealthRoundTrip(t *testing.T) {
	logCfg := xlog.DefaultConfig()
	logCfg.Base = filepath.Join(t.TempDir(), "rpc.log")
	logCfg.CreateFiles = false

	m := xlog.NewManager(xlog.WithConsole(io.Discard))
	defer m.Reset()
	if _, err := m.Replace(logCfg); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	s, err := NewServer(&ServerConfig{Name: "logkit", EnableHealth: true})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	conn, err := NewClient(&ClientConfig{Target: s.Addr()})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "logkit"})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", resp.GetStatus())
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	content, err := os.ReadFile(logCfg.Base)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(content)
	for _, want := range []string{"starting rpc server", "grpc request completed", "method=/grpc.health.v1.Health/Check", "grpc client request completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log:\n%s", want, out)
		}
	}
}

func TestServerRun(t *testing.T) {
	s := MustNewServer(&ServerConfig{Name: "logkit", ShutdownTimeout: time.Second}, WithGRPCOptions(grpc.MaxRecvMsgSize(1<<20)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for s.Addr() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Addr() == "" {
		t.Fatal("server did not start")
	}
	if err := s.Start(); err == nil {
		t.Error("second Start should fail")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
