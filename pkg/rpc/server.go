package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/HorseArcher567/logkit/pkg/rpc/middleware"
	"github.com/HorseArcher567/logkit/pkg/xlog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server RPC 服务器封装，默认安装日志拦截器
type Server struct {
	config       *ServerConfig
	grpcOptions  []grpc.ServerOption
	grpcServer   *grpc.Server
	healthServer *health.Server // 健康检查服务器
	serviceNames []string       // 已注册的服务名称列表

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// NewServer 创建 RPC 服务器
func NewServer(cfg *ServerConfig, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("rpc: server config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{config: cfg}
	for _, opt := range opts {
		opt(s)
	}

	serverOpts := append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(middleware.UnaryServerLogging()),
		grpc.ChainStreamInterceptor(middleware.StreamServerLogging()),
	}, s.grpcOptions...)
	s.grpcServer = grpc.NewServer(serverOpts...)

	if cfg.EnableHealth {
		s.healthServer = health.NewServer()
		grpc_health_v1.RegisterHealthServer(s.grpcServer, s.healthServer)
	}

	// 启用反射（方便使用 grpcurl 等工具调试）
	if cfg.EnableReflection {
		reflection.Register(s.grpcServer)
	}

	return s, nil
}

// MustNewServer 创建 RPC 服务器，失败时 panic
func MustNewServer(cfg *ServerConfig, opts ...Option) *Server {
	s, err := NewServer(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// RegisterService 注册 gRPC 服务，需在 Start 之前调用
// serviceName 参数可选，用于健康检查
func (s *Server) RegisterService(register func(*grpc.Server), serviceName ...string) {
	register(s.grpcServer)

	if len(serviceName) > 0 && serviceName[0] != "" {
		s.serviceNames = append(s.serviceNames, serviceName[0])
	}
}

// Start 监听端口并在后台提供服务，立即返回
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("rpc: server already started")
	}

	addr := s.config.addr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc: failed to listen on %s: %w", addr, err)
	}
	s.listener = lis
	s.serveErr = make(chan error, 1)

	// 设置健康状态，空字符串代表整个服务器
	if s.healthServer != nil {
		s.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		s.healthServer.SetServingStatus(s.config.Name, grpc_health_v1.HealthCheckResponse_SERVING)
		for _, name := range s.serviceNames {
			s.healthServer.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_SERVING)
		}
	}

	logger().Info("starting rpc server", "name", s.config.Name, "addr", lis.Addr().String())

	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			logger().Error("rpc server stopped", "error", err)
			s.serveErr <- err
		}
		close(s.serveErr)
	}()

	return nil
}

// Addr 返回实际监听地址，未启动时返回空字符串
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run 启动服务器并阻塞，直到 ctx 取消后优雅关闭，或服务异常退出
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	select {
	case err, ok := <-s.serveErr:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.shutdownTimeout())
	defer cancel()
	return s.Stop(stopCtx)
}

// Stop 优雅关闭，ctx 到期后强制关闭
func (s *Server) Stop(ctx context.Context) error {
	logger().Info("shutting down rpc server gracefully", "name", s.config.Name)

	if s.healthServer != nil {
		s.healthServer.Shutdown()
	}

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		logger().Info("rpc server shutdown complete")
		return nil
	case <-ctx.Done():
		s.grpcServer.Stop()
		logger().Warn("rpc server shutdown timeout, connections closed forcibly")
		return ctx.Err()
	}
}

func logger() *slog.Logger {
	return slog.Default().With(xlog.ModuleKey, middleware.Module)
}
