package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/HorseArcher567/logkit/pkg/xlog"
	"github.com/gin-gonic/gin"
)

// LoggingStatus 是 GET /logging 的响应体
type LoggingStatus struct {
	ID     string      `json:"id"`
	Config xlog.Config `json:"config"`
	Sinks  []xlog.Sink `json:"sinks"`
}

// RecordRequest 是 POST /logging/records 的请求体
type RecordRequest struct {
	Level   string         `json:"level"`
	Module  string         `json:"module"`
	Message string         `json:"message" binding:"required"`
	Attrs   map[string]any `json:"attrs"`
}

// LoggingHandler 提供运行时查看和替换日志配置的接口
type LoggingHandler struct {
	manager *xlog.Manager
}

// NewLoggingHandler 创建 LoggingHandler，manager 为 nil 时使用全局 Manager
func NewLoggingHandler(manager *xlog.Manager) *LoggingHandler {
	if manager == nil {
		manager = xlog.Default()
	}
	return &LoggingHandler{manager: manager}
}

// RegisterRoutes 实现 Routes
func (h *LoggingHandler) RegisterRoutes(engine *gin.Engine) {
	g := engine.Group("/logging")
	{
		g.GET("", h.status)
		g.PUT("", h.replace)
		g.POST("/records", h.emit)
	}
}

func (h *LoggingHandler) status(c *gin.Context) {
	active := h.manager.Active()
	if active == nil {
		abort(c, http.StatusNotFound, "no logger installed")
		return
	}
	c.JSON(http.StatusOK, statusOf(active))
}

func (h *LoggingHandler) replace(c *gin.Context) {
	cfg := xlog.DefaultConfig()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		abort(c, http.StatusBadRequest, "invalid logging config: "+err.Error())
		return
	}

	active := h.manager.Active()
	if active == nil {
		abort(c, http.StatusConflict, "no logger installed")
		return
	}
	if err := confine(cfg, active.Config().Base); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	l, err := h.manager.Replace(cfg)
	switch {
	case errors.Is(err, xlog.ErrArgument):
		abort(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, statusOf(l))
}

func (h *LoggingHandler) emit(c *gin.Context) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid record: "+err.Error())
		return
	}

	if req.Level == "" {
		req.Level = "info"
	}
	level, err := xlog.ParseLevel(req.Level)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	log := h.manager.Active()
	if log == nil {
		log = xlog.FromContext(c.Request.Context())
	}
	if m := strings.TrimSpace(req.Module); m != "" {
		log = log.Module(m)
	}

	args := make([]any, 0, len(req.Attrs)*2)
	for k, v := range req.Attrs {
		args = append(args, k, v)
	}
	log.Log(c.Request.Context(), level, req.Message, args...)

	c.JSON(http.StatusAccepted, gin.H{"code": 0, "message": "accepted"})
}

// confine 要求新配置的文件都位于当前 base 所在目录，且不能是已有的非普通文件（例如符号链接）
func confine(cfg xlog.Config, activeBase string) error {
	dir, err := filepath.Abs(filepath.Dir(activeBase))
	if err != nil {
		return err
	}
	for _, path := range cfg.FilePaths() {
		abs, err := filepath.Abs(path)
		if err != nil || filepath.Dir(abs) != dir {
			return &xlog.ArgumentError{Field: "base", Value: cfg.Base}
		}
		if fi, err := os.Lstat(abs); err == nil && !fi.Mode().IsRegular() {
			return &xlog.ArgumentError{Field: "base", Value: cfg.Base}
		}
	}
	return nil
}

func statusOf(l *xlog.Logger) LoggingStatus {
	return LoggingStatus{
		ID:     l.ID(),
		Config: l.Config(),
		Sinks:  l.Sinks(),
	}
}

func abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{
		"code":    code,
		"message": message,
	})
}
