package xlog

import (
	"log/slog"
	"strings"
)

// fileLevels 按文件创建顺序排列的级别
var fileLevels = []slog.Level{
	slog.LevelError,
	slog.LevelWarn,
	slog.LevelInfo,
	slog.LevelDebug,
}

// ParseLevel 解析日志级别：debug/info/warn/error
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, &ArgumentError{Field: "level", Value: level}
	}
}

// levelLabel 返回大写级别名称，非标准级别归入最近的下级
func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// levelSuffix 返回文件名中使用的小写级别名称
func levelSuffix(level slog.Level) string {
	return strings.ToLower(levelLabel(level))
}
