package xlog

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration 表示某个 sink 无法打开
	ErrConfiguration = errors.New("xlog: configuration error")

	// ErrArgument 表示配置项取值非法
	ErrArgument = errors.New("xlog: invalid argument")
)

// ConfigError 记录打开失败的 sink 路径
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("xlog: cannot open sink %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// ArgumentError 记录非法的配置字段及其取值
type ArgumentError struct {
	Field string
	Value string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("xlog: invalid %s: %q", e.Field, e.Value)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrArgument }
