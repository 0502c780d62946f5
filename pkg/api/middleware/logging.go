package middleware

import (
	"log/slog"
	"time"

	"github.com/HorseArcher567/logkit/pkg/xlog"
	"github.com/gin-gonic/gin"
)

// Module HTTP 中间件记录日志使用的来源
const Module = "http"

// Logging 返回 HTTP 请求日志中间件。
// 会记录 method、path、status、latency 等信息，5xx 记为 error，4xx 记为 warn。
// logger 在请求结束后获取，请求期间替换日志配置时写入新的 logger。
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// 处理请求
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		log := xlog.FromContext(c.Request.Context()).Module(Module)
		log.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
			"request_id", GetRequestID(c),
		)
	}
}
