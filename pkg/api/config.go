package api

import (
	"net"
	"strconv"
	"time"
)

// ServerConfig 是管理 API 服务器配置。
//
// 示例配置:
// apiServer:
//
//	name: logkit
//	host: 127.0.0.1
//	port: 9090
//	mode: release
//	enablePProf: false
//	readTimeout: 5s
//	writeTimeout: 10s
//	idleTimeout: 60s
type ServerConfig struct {
	// Name 服务名称，写入 server 日志。
	Name string `yaml:"name" json:"name" toml:"name"`

	// Host 监听地址（如 0.0.0.0, 127.0.0.1），默认 127.0.0.1。
	Host string `yaml:"host" json:"host" toml:"host"`

	// Port 监听端口，0 表示由系统分配。
	Port int `yaml:"port" json:"port" toml:"port"`

	// Mode Gin 运行模式: debug / release / test。
	Mode string `yaml:"mode" json:"mode" toml:"mode"`

	// EnablePProf 是否启用 pprof 路由。
	EnablePProf bool `yaml:"enablePProf" json:"enablePProf" toml:"enablePProf"`

	// ReadTimeout 读超时时间。
	ReadTimeout time.Duration `yaml:"readTimeout" json:"readTimeout" toml:"readTimeout"`

	// WriteTimeout 写超时时间。
	WriteTimeout time.Duration `yaml:"writeTimeout" json:"writeTimeout" toml:"writeTimeout"`

	// IdleTimeout 空闲连接超时时间。
	IdleTimeout time.Duration `yaml:"idleTimeout" json:"idleTimeout" toml:"idleTimeout"`

	// ShutdownTimeout 优雅关闭的最长等待时间，默认 5s。
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout" toml:"shutdownTimeout"`
}

func (c *ServerConfig) addr() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return c.ShutdownTimeout
}
