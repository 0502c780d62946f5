package xlog

import (
	"context"
	"log/slog"
	"slices"
)

// ModuleKey 标识记录来源的属性名，过滤规则按该属性的值匹配
const ModuleKey = "module"

// defaultModule 未设置 ModuleKey 时的来源
const defaultModule = "main"

// NoopHandler 丢弃所有记录
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h NoopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h NoopHandler) WithGroup(string) slog.Handler           { return h }

// moduleScope 跟踪 WithAttrs 链上设置的来源。进入 group 之后的同名属性不再视为来源
type moduleScope struct {
	module  string
	grouped bool
}

func (s moduleScope) withAttrs(attrs []slog.Attr) moduleScope {
	if s.grouped {
		return s
	}
	for _, attr := range attrs {
		if attr.Key == ModuleKey {
			s.module = attr.Value.Resolve().String()
		}
	}
	return s
}

func (s moduleScope) withGroup(name string) moduleScope {
	if name != "" {
		s.grouped = true
	}
	return s
}

// resolve 返回记录的来源，记录自身的属性优先
func (s moduleScope) resolve(record slog.Record) string {
	module := s.module
	if !s.grouped {
		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key == ModuleKey {
				module = attr.Value.Resolve().String()
			}
			return true
		})
	}
	if module == "" {
		return defaultModule
	}
	return module
}

type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	filtered := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	if len(filtered) == 0 {
		return NoopHandler{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &fanoutHandler{handlers: filtered}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle 同步写入每个接受该级别的 sink，返回第一个错误
func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for idx, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		rec := record
		if idx < len(h.handlers)-1 {
			rec = record.Clone()
		}
		if err := handler.Handle(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

// minLevelHandler 为单个 sink 设定最低级别
type minLevelHandler struct {
	next  slog.Handler
	level slog.Level
}

func newMinLevelHandler(next slog.Handler, level slog.Level) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	return &minLevelHandler{next: next, level: level}
}

func (h *minLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.level {
		return false
	}
	return h.next.Enabled(ctx, level)
}

func (h *minLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.level {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *minLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &minLevelHandler{next: h.next.WithAttrs(attrs), level: h.level}
}

func (h *minLevelHandler) WithGroup(name string) slog.Handler {
	return &minLevelHandler{next: h.next.WithGroup(name), level: h.level}
}

// sourceFilterHandler 丢弃来源在屏蔽集合中的记录
type sourceFilterHandler struct {
	next    slog.Handler
	blocked map[string]struct{}
	scope   moduleScope
}

func newSourceFilterHandler(next slog.Handler, blocked map[string]struct{}) slog.Handler {
	if len(blocked) == 0 {
		return next
	}
	return &sourceFilterHandler{next: next, blocked: blocked}
}

// Enabled 不做来源判断：记录自身的 module 属性可以覆盖 With 设置的来源，只有 Handle 能确定
func (h *sourceFilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *sourceFilterHandler) Handle(ctx context.Context, record slog.Record) error {
	if _, ok := h.blocked[h.scope.resolve(record)]; ok {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *sourceFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sourceFilterHandler{
		next:    h.next.WithAttrs(attrs),
		blocked: h.blocked,
		scope:   h.scope.withAttrs(attrs),
	}
}

func (h *sourceFilterHandler) WithGroup(name string) slog.Handler {
	return &sourceFilterHandler{
		next:    h.next.WithGroup(name),
		blocked: h.blocked,
		scope:   h.scope.withGroup(name),
	}
}

func sourceSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, name := range list {
			if name != "" {
				set[name] = struct{}{}
			}
		}
	}
	return set
}

func sortedSources(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
