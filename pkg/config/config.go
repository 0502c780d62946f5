package config

import (
	"fmt"
	"os"
	"strings"
)

// Load 读取配置文件（按扩展名识别格式）并解析到 target
// 解析前替换环境变量，格式: ${ENV_VAR} 或 ${ENV_VAR:default_value}
// target 中已有的字段值在文件未设置时保留，可先填入默认值
func Load(path string, target any) error {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return fmt.Errorf("cannot detect format from file extension: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config from file %s: %w", path, err)
	}

	if err := LoadBytes(data, format, target); err != nil {
		return fmt.Errorf("failed to load config from file %s: %w", path, err)
	}
	return nil
}

// LoadBytes 从字节流解析配置，同样替换环境变量
func LoadBytes(data []byte, format Format, target any) error {
	return decode([]byte(expandEnvVars(string(data))), format, target)
}

// LoadWithoutEnv 读取配置文件但不替换环境变量
func LoadWithoutEnv(path string, target any) error {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return fmt.Errorf("cannot detect format from file extension: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config from file %s: %w", path, err)
	}
	return decode(data, format, target)
}

// MustLoad 读取配置文件，失败时 panic
// 适用于程序启动阶段，配置加载失败时程序无法继续运行
func MustLoad(path string, target any) {
	if err := Load(path, target); err != nil {
		panic(fmt.Errorf("config: %w", err))
	}
}

// Write 将 v 按扩展名对应的格式写入文件
// 适用于生成示例配置、保存运行时修改后的配置
func Write(path string, v any) error {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return fmt.Errorf("cannot detect format from file extension: %s", path)
	}

	data, err := encode(v, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// expandEnvVars 展开环境变量
// 支持格式: ${ENV_VAR} 或 ${ENV_VAR:default_value}，未闭合的 ${ 原样保留
func expandEnvVars(value string) string {
	if !strings.Contains(value, "${") {
		return value
	}

	var b strings.Builder
	b.Grow(len(value))

	rest := value
	for {
		startIdx := strings.Index(rest, "${")
		if startIdx == -1 {
			b.WriteString(rest)
			break
		}
		endIdx := strings.Index(rest[startIdx:], "}")
		if endIdx == -1 {
			b.WriteString(rest)
			break
		}
		endIdx += startIdx

		envExpr := rest[startIdx+2 : endIdx]
		envName, defaultValue, _ := strings.Cut(envExpr, ":")

		envValue := os.Getenv(envName)
		if envValue == "" {
			envValue = defaultValue
		}

		b.WriteString(rest[:startIdx])
		b.WriteString(envValue)
		rest = rest[endIdx+1:]
	}

	return b.String()
}
