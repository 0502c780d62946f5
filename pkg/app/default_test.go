package app

import (
	"context"
	"testing"
)

func TestDefaultApp(t *testing.T) {
	defer func() { defaultApp = nil }()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Default should panic before Init")
		}
	}()

	m := testManager()
	Init(testFramework(t), WithManager(m))
	if Default().Manager() != m {
		t.Fatal("Default should return the initialized app")
	}

	var hooked bool
	OnBeforeRun(func(context.Context, *App) error {
		hooked = true
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !hooked {
		t.Error("before run hook should run on the default app")
	}

	defaultApp = nil
	Default()
}
