package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/HorseArcher567/logkit/pkg/xlog/rotate"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

// Logger 封装了 slog.Logger 和它拥有的 sink
// 通过嵌入 *slog.Logger，可以直接调用所有 slog 的方法
type Logger struct {
	*slog.Logger

	id     string
	config Config
	sinks  []Sink

	// owner 为 nil 表示自身拥有文件句柄；Module 等派生出的 Logger 指向拥有者
	owner     *Logger
	closers   []io.Closer
	closeOnce sync.Once
	closeErr  error
}

// Sink 描述一个已建立的输出目标
type Sink struct {
	Target     string   `json:"target"`
	Level      string   `json:"level"`
	Format     string   `json:"format"`
	Suppressed []string `json:"suppressed"`
}

// Option 自定义 Logger 的构建过程
type Option func(o *options)

type options struct {
	console io.Writer
}

// WithConsole 使用指定的 writer 作为控制台输出，覆盖 Config.Console
func WithConsole(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.console = w
		}
	}
}

// New 根据配置创建一个新的 Logger
// 所有文件要么全部打开成功，要么全部关闭并返回 *ConfigError
// 返回的 Logger 实现了 io.Closer，使用完毕后应调用 Close() 关闭资源
func New(cfg Config, opts ...Option) (*Logger, error) {
	cfg = normalize(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	format, _ := ParseFormat(cfg.Format)
	consoleLevel, _ := ParseLevel(cfg.ConsoleLevel)

	writers, closers, err := openFiles(cfg)
	if err != nil {
		return nil, err
	}

	infoOnly := sourceSet(cfg.FilteredSourcesInfoOnly)
	all := sourceSet(cfg.FilteredSourcesAll)

	var handlers []slog.Handler

	console := resolveConsole(cfg, o)
	if console != nil {
		color := resolveColor(cfg.Color, console)
		h := newLineHandler(console, FormatReadable, color, cfg.PathWidth)
		handlers = append(handlers, newSourceFilterHandler(newMinLevelHandler(h, consoleLevel), infoOnly))
	}

	if cfg.CreateFiles {
		for i, level := range fileLevels {
			var h slog.Handler = newMinLevelHandler(newLineHandler(writers[i], format, false, cfg.PathWidth), level)
			if level == slog.LevelInfo {
				h = newSourceFilterHandler(h, infoOnly)
			}
			handlers = append(handlers, h)
		}
	} else {
		handlers = append(handlers, newMinLevelHandler(newLineHandler(writers[0], format, false, cfg.PathWidth), slog.LevelDebug))
	}

	sinks := planSinks(cfg, console != nil)
	root := newSourceFilterHandler(newFanoutHandler(handlers...), all)

	l := &Logger{
		Logger:  slog.New(root),
		id:      uuid.NewString(),
		config:  cfg,
		sinks:   sinks,
		closers: closers,
	}
	l.notice()
	return l, nil
}

// Plan 校验配置并返回 New 将建立的 sink，不打开任何文件
func Plan(cfg Config) ([]Sink, error) {
	cfg = normalize(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return planSinks(cfg, !strings.EqualFold(cfg.Console, "none")), nil
}

// planSinks 按控制台、文件的顺序描述每个 sink 的级别与屏蔽来源
func planSinks(cfg Config, console bool) []Sink {
	format, _ := ParseFormat(cfg.Format)
	all := sourceSet(cfg.FilteredSourcesAll)
	restricted := sourceSet(cfg.FilteredSourcesInfoOnly, cfg.FilteredSourcesAll)

	var sinks []Sink
	if console {
		level, _ := ParseLevel(cfg.ConsoleLevel)
		sinks = append(sinks, Sink{
			Target:     "console",
			Level:      levelSuffix(level),
			Format:     string(FormatReadable),
			Suppressed: sortedSources(restricted),
		})
	}

	paths := cfg.FilePaths()
	if !cfg.CreateFiles {
		return append(sinks, Sink{
			Target:     paths[0],
			Level:      levelSuffix(slog.LevelDebug),
			Format:     string(format),
			Suppressed: sortedSources(all),
		})
	}
	for i, level := range fileLevels {
		suppressed := all
		if level == slog.LevelInfo {
			suppressed = restricted
		}
		sinks = append(sinks, Sink{
			Target:     paths[i],
			Level:      levelSuffix(level),
			Format:     string(format),
			Suppressed: sortedSources(suppressed),
		})
	}
	return sinks
}

// MustNew 根据配置创建一个新的 Logger（失败时 panic）
func MustNew(cfg Config, opts ...Option) *Logger {
	logger, err := New(cfg, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return logger
}

// ID 返回本次配置的会话标识
func (l *Logger) ID() string { return l.id }

// Config 返回规范化后的配置
func (l *Logger) Config() Config { return l.config }

// Sinks 返回已建立的输出目标
func (l *Logger) Sinks() []Sink { return slices.Clone(l.sinks) }

// Module 返回来源为 name 的 Logger，与原 Logger 共享 sink
func (l *Logger) Module(name string) *Logger {
	return l.derive(l.Logger.With(ModuleKey, name))
}

// With 返回附加属性的 Logger，与原 Logger 共享 sink
func (l *Logger) With(args ...any) *Logger {
	return l.derive(l.Logger.With(args...))
}

func (l *Logger) derive(sl *slog.Logger) *Logger {
	owner := l.owner
	if owner == nil {
		owner = l
	}
	return &Logger{
		Logger: sl,
		id:     l.id,
		config: l.config,
		sinks:  l.sinks,
		owner:  owner,
	}
}

// Close 关闭所有文件 sink，重复调用返回第一次的结果
// 派生的 Logger 不拥有文件，Close 为空操作
func (l *Logger) Close() error {
	if l == nil || l.owner != nil {
		return nil
	}
	l.closeOnce.Do(func() {
		var errs []error
		for _, c := range l.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		l.closeErr = errors.Join(errs...)
	})
	return l.closeErr
}

// notice 提示本次创建的文件
func (l *Logger) notice() {
	log := l.Logger.With(ModuleKey, "xlog", "session", l.id)
	if !l.config.CreateFiles {
		log.Info("only one sink provided ...\nall logs will be written without differentiation on " + l.config.Base)
		return
	}
	log.Info("creating four different files for logging ...\n" + strings.Join(l.config.FilePaths(), "\n"))
}

// openFiles 并发打开全部文件，任一失败时关闭已打开的文件
func openFiles(cfg Config) ([]io.Writer, []io.Closer, error) {
	paths := cfg.FilePaths()
	writers := make([]io.Writer, len(paths))
	closers := make([]io.Closer, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			w, c, err := rotate.New(rotate.Config{
				Filename:  path,
				Overwrite: cfg.Overwrite,
				Daily:     cfg.Rotate,
				MaxAge:    cfg.MaxAge,
			})
			if err != nil {
				return &ConfigError{Path: path, Err: err}
			}
			writers[i], closers[i] = w, c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, c := range closers {
			if c != nil {
				c.Close()
			}
		}
		return nil, nil, err
	}
	return writers, closers, nil
}

func resolveConsole(cfg Config, o options) io.Writer {
	if o.console != nil {
		return o.console
	}
	switch strings.ToLower(cfg.Console) {
	case "stderr":
		return os.Stderr
	case "none":
		return nil
	default:
		return os.Stdout
	}
}

func resolveColor(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
