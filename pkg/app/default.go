package app

import (
	"context"

	"github.com/HorseArcher567/logkit/pkg/api"
	"github.com/HorseArcher567/logkit/pkg/job"
	"google.golang.org/grpc"
)

// defaultApp 是类似 slog.Default() 的全局默认应用实例。
var defaultApp *App

// Init 初始化默认应用实例，失败时 panic。
// 应在 main 函数启动阶段调用一次。
func Init(framework *Framework, opts ...Option) {
	defaultApp = MustNew(framework, opts...)
}

// Default 返回当前默认应用实例。
// 如果尚未调用 Init，则 panic。
func Default() *App {
	if defaultApp == nil {
		panic("app: defaultApp is not initialized, call app.Init() first")
	}
	return defaultApp
}

// OnBeforeRun 注册在 Run 之前执行的 Hook（默认实例）。
func OnBeforeRun(h BeforeRunHook) {
	Default().OnBeforeRun(h)
}

// OnShutdown 注册在关闭阶段执行的 Hook（默认实例）。
func OnShutdown(h ShutdownHook) {
	Default().OnShutdown(h)
}

// RegisterRpcServices 在默认应用上注册 gRPC 服务。
func RegisterRpcServices(register func(s *grpc.Server)) {
	Default().RegisterRpcServices(register)
}

// RegisterApiRoutes 在默认应用上注册 HTTP API 路由。
func RegisterApiRoutes(register func(engine *api.Engine)) {
	Default().RegisterApiRoutes(register)
}

// AddJob 在默认应用上添加后台任务。
func AddJob(name string, fn job.Func) error {
	return Default().AddJob(name, fn)
}

// Run 启动默认应用
func Run(ctx context.Context) error {
	return Default().Run(ctx)
}
