package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/HorseArcher567/logkit/pkg/api/middleware"
	"github.com/HorseArcher567/logkit/pkg/xlog"
	"github.com/gin-gonic/gin"
)

// Engine 是 gin.Engine 的类型别名，便于在其他包中引用而不直接依赖 gin。
type Engine = gin.Engine

// Server 封装 Gin HTTP 服务的生命周期。
type Server struct {
	config *ServerConfig

	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	serveErr   chan error

	mu  sync.Mutex
	log *slog.Logger
}

// NewServer 创建 HTTP API 服务器。
// 未通过 WithLogger 指定 logger 时，每次记录日志都使用当前安装的全局 logger，
// 运行期间替换日志配置后服务器日志随之切换。
func NewServer(cfg *ServerConfig, opts ...Option) *Server {
	if cfg == nil {
		panic("api: server config is nil")
	}

	s := &Server{config: cfg}

	for _, opt := range opts {
		opt(s)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	s.engine = gin.New()
	s.engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logging(),
	)

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 如果配置了 pprof，则挂载到 /debug/pprof
	if cfg.EnablePProf {
		s.registerPProf()
	}

	return s
}

// Engine 返回内部的 gin.Engine，便于注册路由和中间件。
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Use 向 Engine 添加中间件。
func (s *Server) Use(middlewares ...gin.HandlerFunc) {
	s.engine.Use(middlewares...)
}

// Routes 由需要挂载到 admin API 上的处理器实现，例如 LoggingHandler。
type Routes interface {
	RegisterRoutes(engine *gin.Engine)
}

// Register 依次挂载 routes，nil 会被跳过。
func (s *Server) Register(routes ...Routes) {
	for _, r := range routes {
		if r != nil {
			r.RegisterRoutes(s.engine)
		}
	}
}

// Start 监听端口并在后台提供服务，立即返回。
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return errors.New("api: server already started")
	}

	addr := s.config.addr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api: failed to listen on %s: %w", addr, err)
	}
	s.listener = lis

	server := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.httpServer = server
	s.serveErr = make(chan error, 1)

	s.logger().Info("starting api server", "addr", lis.Addr().String())

	go func() {
		err := server.Serve(lis)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger().Error("api server stopped", "error", err)
			s.serveErr <- err
		}
		close(s.serveErr)
	}()

	return nil
}

// Addr 返回实际监听地址，未启动时返回空字符串。
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run 启动服务器并阻塞，直到 ctx 取消后优雅关闭，或服务异常退出。
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

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.shutdownTimeout())
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown 优雅关闭 HTTP 服务器。
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.httpServer
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	s.logger().Info("shutting down api server gracefully")
	if err := server.Shutdown(ctx); err != nil {
		s.logger().Error("failed to shutdown api server", "error", err)
		return err
	}
	s.logger().Info("api server shutdown complete")
	return nil
}

func (s *Server) logger() *slog.Logger {
	if s.log != nil {
		return s.log
	}
	return slog.Default().With(xlog.ModuleKey, "api", "name", s.config.Name)
}

// registerPProf 将 pprof 路由挂载到 /debug/pprof。
func (s *Server) registerPProf() {
	g := s.engine.Group("/debug/pprof")
	{
		g.GET("/", gin.WrapF(pprof.Index))
		g.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		g.GET("/profile", gin.WrapF(pprof.Profile))
		g.POST("/symbol", gin.WrapF(pprof.Symbol))
		g.GET("/symbol", gin.WrapF(pprof.Symbol))
		g.GET("/trace", gin.WrapF(pprof.Trace))
		g.GET("/heap", gin.WrapH(pprof.Handler("heap")))
		g.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	}
}
