package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/HorseArcher567/logkit/pkg/api"
	"github.com/HorseArcher567/logkit/pkg/etcd"
	"github.com/HorseArcher567/logkit/pkg/job"
	"github.com/HorseArcher567/logkit/pkg/rpc"
	"github.com/HorseArcher567/logkit/pkg/xlog"
	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"
)

// BeforeRunHook is executed before the components start. If it returns an error, the startup process will be aborted.
type BeforeRunHook func(ctx context.Context, a *App) error

// ShutdownHook is executed during shutdown, after all components stopped.
type ShutdownHook func(ctx context.Context, a *App)

// App encapsulates the lifecycle of the process logger and the components
// around it: the admin API server, the gRPC server and the etcd watcher.
type App struct {
	// manager owns the installed logger; the watcher and admin API replace through it.
	manager *xlog.Manager

	// apiServer is the admin HTTP API server, nil when not configured.
	apiServer *api.Server
	// rpcServer is the gRPC server, nil when not configured.
	rpcServer *rpc.Server

	// etcdClient and watcher are nil when no etcd key is configured.
	etcdClient *clientv3.Client
	watcher    *etcd.Watcher

	// scheduler runs every component and user job in the background.
	scheduler *job.Scheduler

	beforeRunHooks []BeforeRunHook
	shutdownHooks  []ShutdownHook

	shutdownTimeout time.Duration
}

// Option customizes App construction.
type Option func(a *App)

// WithManager installs loggers through m instead of the global xlog Manager.
func WithManager(m *xlog.Manager) Option {
	return func(a *App) {
		if m != nil {
			a.manager = m
		}
	}
}

// WithShutdownTimeout bounds how long Run waits for components to stop (default 10s).
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// New installs the configured logger and builds the configured components.
// On error nothing stays installed.
func New(framework *Framework, opts ...Option) (*App, error) {
	if framework == nil {
		return nil, errors.New("app: framework config cannot be nil")
	}

	a := &App{
		manager:         xlog.Default(),
		scheduler:       job.NewScheduler(),
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}

	if _, err := a.manager.Replace(framework.Logging); err != nil {
		return nil, fmt.Errorf("app: failed to configure logging: %w", err)
	}

	if framework.ApiServer != nil {
		a.initApiServer(framework.ApiServer)
	}

	if framework.RpcServer != nil {
		if err := a.initRpcServer(framework.RpcServer); err != nil {
			a.manager.Reset()
			return nil, err
		}
	}

	if framework.Etcd != nil {
		if err := a.initWatcher(framework.Etcd); err != nil {
			a.manager.Reset()
			return nil, err
		}
	}

	return a, nil
}

// MustNew is like New but panics on error.
func MustNew(framework *Framework, opts ...Option) *App {
	a, err := New(framework, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// initApiServer creates the admin API server and schedules it.
func (a *App) initApiServer(cfg *api.ServerConfig) {
	a.apiServer = api.NewServer(cfg)
	a.apiServer.Register(api.NewLoggingHandler(a.manager))
	a.scheduler.AddJob(&job.Job{Name: "api", Func: a.apiServer.Run})
}

// initRpcServer creates the gRPC server and schedules it.
func (a *App) initRpcServer(cfg *rpc.ServerConfig) error {
	s, err := rpc.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("app: invalid rpc server config: %w", err)
	}
	a.rpcServer = s
	a.scheduler.AddJob(&job.Job{Name: "rpc", Func: s.Run})
	return nil
}

// initWatcher connects to etcd and schedules the logging key watcher.
func (a *App) initWatcher(cfg *etcd.WatchConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("app: invalid etcd config: %w", err)
	}

	client, err := etcd.NewClient(&cfg.Config)
	if err != nil {
		return fmt.Errorf("app: failed to create etcd client: %w", err)
	}
	a.etcdClient = client
	a.watcher = etcd.NewWatcher(client, cfg, a.manager)
	a.scheduler.AddJob(&job.Job{Name: "etcd", Func: a.watcher.Run})
	return nil
}

// Manager returns the Manager holding the installed logger.
func (a *App) Manager() *xlog.Manager {
	return a.manager
}

// ApiServer returns the admin API server, or nil when not configured.
func (a *App) ApiServer() *api.Server {
	return a.apiServer
}

// OnBeforeRun registers a hook to be executed before Run.
// Hooks are executed in registration order. The first error encountered will abort the startup process.
func (a *App) OnBeforeRun(h BeforeRunHook) *App {
	if h != nil {
		a.beforeRunHooks = append(a.beforeRunHooks, h)
	}
	return a
}

// OnShutdown registers a hook to be executed during shutdown.
func (a *App) OnShutdown(h ShutdownHook) *App {
	if h != nil {
		a.shutdownHooks = append(a.shutdownHooks, h)
	}
	return a
}

// RegisterRpcServices registers gRPC services.
func (a *App) RegisterRpcServices(register func(s *grpc.Server)) *App {
	if a.rpcServer == nil {
		panic("app: rpc server is not initialized (check RpcServer config)")
	}
	a.rpcServer.RegisterService(register)
	return a
}

// RegisterApiRoutes registers additional HTTP API routes.
func (a *App) RegisterApiRoutes(register func(engine *api.Engine)) *App {
	if a.apiServer == nil {
		panic("app: api server is not initialized (check ApiServer config)")
	}
	if register != nil {
		register(a.apiServer.Engine())
	}
	return a
}

// AddJob schedules a background job that runs until shutdown.
func (a *App) AddJob(name string, fn job.Func) error {
	return a.scheduler.AddJob(&job.Job{Name: name, Func: fn})
}

// Run starts the application and blocks until ctx is cancelled, a shutdown
// signal is received, or a component fails.
//
// Execution order:
// 1) Run OnBeforeRun hooks (any error aborts startup);
// 2) Start all components and jobs in the background;
// 3) Wait for SIGTERM/SIGINT, ctx cancellation or a failing component;
// 4) Stop all components within the shutdown timeout;
// 5) Run OnShutdown hooks, close the etcd client and reset logging.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 1. BeforeRun hooks
	for _, h := range a.beforeRunHooks {
		if err := h(ctx, a); err != nil {
			logger().Error("before run hook failed, aborting startup", "error", err)
			return fmt.Errorf("app: before run hook: %w", err)
		}
	}

	// 2. Start components (non-blocking)
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	// 3. Wait; without components only the signal or ctx ends Run
	var done <-chan struct{}
	if a.scheduler.Len() > 0 {
		done = a.scheduler.Done()
	}
	select {
	case <-ctx.Done():
		logger().Info("received shutdown signal, stopping all components")
	case <-done:
		logger().Warn("a component stopped, shutting down", "error", a.scheduler.Err())
	}

	// 4. Stop components
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
	defer cancel()

	stopErr := a.scheduler.Stop(shutdownCtx)
	if stopErr != nil {
		logger().Error("error stopping components", "error", stopErr)
	}

	// 5. Shutdown hooks (execute even if components reported errors)
	for _, h := range a.shutdownHooks {
		h(shutdownCtx, a)
	}

	logger().Info("application shutdown complete")
	return stopErr
}

func (a *App) cleanup() {
	if a.etcdClient != nil {
		if err := a.etcdClient.Close(); err != nil {
			logger().Warn("failed to close etcd client", "error", err)
		}
	}
	if err := a.manager.Reset(); err != nil {
		slog.Warn("failed to close logger", "error", err)
	}
}

func logger() *slog.Logger {
	return slog.Default().With(xlog.ModuleKey, "app")
}
