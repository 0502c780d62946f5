package xlog

import (
	"io"
	"log"
	"log/slog"
	"sync"
)

// Manager 持有当前生效的 Logger，替换时关闭旧 Logger 的文件
type Manager struct {
	mu     sync.Mutex
	active *Logger
	opts   []Option

	// 安装前的进程默认值，Reset 时恢复
	fallback *slog.Logger
	logOut   io.Writer
	logFlags int
}

// NewManager 创建 Manager，记录当前的 slog/log 默认设置
func NewManager(opts ...Option) *Manager {
	return &Manager{
		opts:     opts,
		fallback: slog.Default(),
		logOut:   log.Writer(),
		logFlags: log.Flags(),
	}
}

// Replace 按 cfg 创建新的 Logger 并安装
// 创建失败时当前 Logger 保持不变
func (m *Manager) Replace(cfg Config) (*Logger, error) {
	l, err := New(cfg, m.opts...)
	if err != nil {
		return nil, err
	}
	if err := m.Install(l); err != nil {
		l.Logger.Warn("failed to close previous logger", "error", err)
	}
	return l, nil
}

// Install 将 l 设为进程默认 Logger，并关闭之前安装的 Logger
func (m *Manager) Install(l *Logger) error {
	if l == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.active
	m.active = l
	slog.SetDefault(l.Logger)

	if prev != nil && prev != l {
		return prev.Close()
	}
	return nil
}

// Active 返回当前安装的 Logger，未安装时返回 nil
func (m *Manager) Active() *Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Reset 关闭当前 Logger 并恢复安装前的默认设置
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slog.SetDefault(m.fallback)
	// slog.SetDefault 不会撤销对标准库 log 输出的重定向
	log.SetOutput(m.logOut)
	log.SetFlags(m.logFlags)

	prev := m.active
	m.active = nil
	if prev != nil {
		return prev.Close()
	}
	return nil
}

var std = NewManager()

// Configure 以 base 为基础路径创建并安装全局 Logger
// 之前通过 Configure/Install 安装的 Logger 会被关闭
func Configure(base string, cfg Config) (*Logger, error) {
	cfg.Base = base
	return std.Replace(cfg)
}

// Install 将 l 安装为全局 Logger
func Install(l *Logger) error {
	return std.Install(l)
}

// Active 返回全局安装的 Logger，未安装时返回 nil
func Active() *Logger {
	return std.Active()
}

// Reset 关闭全局 Logger 并恢复进程默认设置
func Reset() error {
	return std.Reset()
}

// Default 返回全局 Manager
func Default() *Manager {
	return std
}
