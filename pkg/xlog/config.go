package xlog

import (
	"log/slog"
	"strconv"
	"strings"
)

// Format 文件 sink 的输出格式
type Format string

const (
	// FormatStructured 单行格式：2025-02-12 08:28:08 ERROR main[app.go:12] - message
	FormatStructured Format = "structured"
	// FormatReadable 与控制台相同的多行框线格式
	FormatReadable Format = "readable"
)

// ParseFormat 解析输出格式，log4j 与 pretty 为别名
func ParseFormat(format string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "structured", "log4j":
		return FormatStructured, nil
	case "readable", "pretty":
		return FormatReadable, nil
	default:
		return "", &ArgumentError{Field: "format", Value: format}
	}
}

// Config 日志配置
//
// 示例配置:
//
//	base: /var/log/app/run
//	create_files: true
//	overwrite: false
//	format: structured
//	filtered_sources_info_only: [cache]
//	filtered_sources_all: [transport]
type Config struct {
	// Base 日志文件基础路径。CreateFiles 为 true 时生成 <base>_<level>.log，否则直接写入 <base>
	Base string `yaml:"base" json:"base" toml:"base"`

	// CreateFiles 是否按级别拆分为四个文件（error/warn/info/debug）
	CreateFiles bool `yaml:"create_files" json:"create_files" toml:"create_files"`

	// Overwrite 打开文件时截断（true）或追加（false）
	Overwrite bool `yaml:"overwrite" json:"overwrite" toml:"overwrite"`

	// Format 文件输出格式：structured/readable（默认 structured）
	Format string `yaml:"format" json:"format" toml:"format"`

	// FilteredSourcesInfoOnly 仅在控制台和 info 文件中屏蔽的来源
	FilteredSourcesInfoOnly []string `yaml:"filtered_sources_info_only" json:"filtered_sources_info_only" toml:"filtered_sources_info_only"`

	// FilteredSourcesAll 在所有 sink 中屏蔽的来源
	FilteredSourcesAll []string `yaml:"filtered_sources_all" json:"filtered_sources_all" toml:"filtered_sources_all"`

	// Console 控制台输出：stdout/stderr/none（默认 stdout）
	Console string `yaml:"console" json:"console" toml:"console"`

	// ConsoleLevel 控制台最低级别（默认 debug）
	ConsoleLevel string `yaml:"console_level" json:"console_level" toml:"console_level"`

	// Color 控制台着色：auto/always/never（默认 auto，仅终端着色）
	Color string `yaml:"color" json:"color" toml:"color"`

	// PathWidth 来源文件路径的最大显示宽度，0 表示不截断
	PathWidth int `yaml:"path_width" json:"path_width" toml:"path_width"`

	// Rotate 文件 sink 是否按天轮转
	Rotate bool `yaml:"rotate" json:"rotate" toml:"rotate"`

	// MaxAge 轮转文件保留天数，0 表示不删除
	MaxAge int `yaml:"max_age" json:"max_age" toml:"max_age"`
}

// DefaultConfig 返回默认配置：按级别拆分文件、追加写入、structured 格式
func DefaultConfig() Config {
	return Config{
		CreateFiles:  true,
		Format:       string(FormatStructured),
		Console:      "stdout",
		ConsoleLevel: "debug",
		Color:        "auto",
	}
}

func normalize(cfg Config) Config {
	if cfg.Format == "" {
		cfg.Format = string(FormatStructured)
	}
	if cfg.Console == "" {
		cfg.Console = "stdout"
	}
	if cfg.ConsoleLevel == "" {
		cfg.ConsoleLevel = "debug"
	}
	if cfg.Color == "" {
		cfg.Color = "auto"
	}
	return cfg
}

// Validate 检查配置取值，返回 *ArgumentError
func (c Config) Validate() error {
	c = normalize(c)
	if strings.TrimSpace(c.Base) == "" {
		return &ArgumentError{Field: "base", Value: c.Base}
	}
	if _, err := ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := ParseLevel(c.ConsoleLevel); err != nil {
		return &ArgumentError{Field: "console_level", Value: c.ConsoleLevel}
	}
	switch strings.ToLower(c.Console) {
	case "stdout", "stderr", "none":
	default:
		return &ArgumentError{Field: "console", Value: c.Console}
	}
	switch strings.ToLower(c.Color) {
	case "auto", "always", "never":
	default:
		return &ArgumentError{Field: "color", Value: c.Color}
	}
	if c.PathWidth < 0 {
		return &ArgumentError{Field: "path_width", Value: strconv.Itoa(c.PathWidth)}
	}
	return nil
}

// FilePaths 返回该配置会创建的文件路径
func (c Config) FilePaths() []string {
	if !c.CreateFiles {
		return []string{c.Base}
	}
	paths := make([]string, 0, len(fileLevels))
	for _, level := range fileLevels {
		paths = append(paths, levelPath(c.Base, level))
	}
	return paths
}

func levelPath(base string, level slog.Level) string {
	return base + "_" + levelSuffix(level) + ".log"
}
