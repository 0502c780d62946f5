package api

import (
	"log/slog"
)

// Option 用于自定义 HTTP Server 的行为。
type Option func(s *Server)

// WithLogger 固定使用指定的 logger，不再跟随全局 logger 的替换。
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}
