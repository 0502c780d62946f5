package xlog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	structuredTimeFormat = "2006-01-02 15:04:05"
	readableTimeFormat   = "15:04:05 2006-01-02"

	// lineSeparator 替换消息中的换行，保证 structured 格式每条记录只占一行
	lineSeparator = " | "
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiCyan   = "\x1b[36m"
)

// lineHandler 将记录渲染为文本并写入单个 writer
type lineHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	format    Format
	color     bool
	pathWidth int
	scope     moduleScope
	attrs     []kv
	groups    []string
}

func newLineHandler(w io.Writer, format Format, color bool, pathWidth int) *lineHandler {
	return &lineHandler{
		mu:        &sync.Mutex{},
		writer:    w,
		format:    format,
		color:     color,
		pathWidth: pathWidth,
	}
}

func (h *lineHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *lineHandler) Handle(_ context.Context, record slog.Record) error {
	e := entry{
		time:    record.Time,
		level:   record.Level,
		module:  h.scope.resolve(record),
		message: record.Message,
	}
	if e.time.IsZero() {
		e.time = time.Now()
	}
	e.origin = origin(e.module, record.Source(), h.pathWidth)

	kvs := make([]kv, 0, len(h.attrs)+record.NumAttrs())
	kvs = append(kvs, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		if len(h.groups) == 0 && attr.Key == ModuleKey {
			return true
		}
		flattenAttr(&kvs, h.groups, attr)
		return true
	})
	e.attrs = kvs

	var buf bytes.Buffer
	buf.Grow(128 + len(kvs)*24)
	if h.format == FormatReadable {
		writeReadable(&buf, e, h.color)
	} else {
		writeStructured(&buf, e)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.scope = h.scope.withAttrs(attrs)
	for _, attr := range attrs {
		if len(h.groups) == 0 && attr.Key == ModuleKey {
			continue
		}
		flattenAttr(&clone.attrs, h.groups, attr)
	}
	return clone
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.scope = h.scope.withGroup(name)
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *lineHandler) clone() *lineHandler {
	return &lineHandler{
		mu:        h.mu,
		writer:    h.writer,
		format:    h.format,
		color:     h.color,
		pathWidth: h.pathWidth,
		scope:     h.scope,
		attrs:     append([]kv(nil), h.attrs...),
		groups:    append([]string(nil), h.groups...),
	}
}

type entry struct {
	time    time.Time
	level   slog.Level
	module  string
	origin  string
	message string
	attrs   []kv
}

// writeStructured 输出：2025-02-12 08:28:08 WARN  main[/src/app.go:12] - first | second key=value
func writeStructured(buf *bytes.Buffer, e entry) {
	buf.WriteString(e.time.Format(structuredTimeFormat))
	buf.WriteByte(' ')
	fmt.Fprintf(buf, "%-5s", levelLabel(e.level))
	buf.WriteByte(' ')
	buf.WriteString(e.origin)
	buf.WriteString(" - ")
	buf.WriteString(flattenMessage(e.message))
	for _, kv := range e.attrs {
		if kv.key == "" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(flattenMessage(kv.key))
		buf.WriteByte('=')
		buf.WriteString(formatValue(kv.value))
	}
	buf.WriteByte('\n')
}

// writeReadable 输出框线格式：
//
//	┌ [08:28:08 2025-02-12] ERROR |  @ main[/src/app.go:12]
//	│ first line
//	└ key=value
func writeReadable(buf *bytes.Buffer, e entry, color bool) {
	label := fmt.Sprintf("%-5s", levelLabel(e.level))
	if color {
		label = levelColor(e.level) + label + ansiReset
	}
	buf.WriteString("┌ [")
	buf.WriteString(e.time.Format(readableTimeFormat))
	buf.WriteString("] ")
	buf.WriteString(label)
	buf.WriteString(" |  @ ")
	buf.WriteString(e.origin)
	buf.WriteByte('\n')

	lines := splitLines(e.message)
	for _, kv := range e.attrs {
		if kv.key == "" {
			continue
		}
		lines = append(lines, "  "+flattenMessage(kv.key)+"="+formatValue(kv.value))
	}
	for i, line := range lines {
		if i == len(lines)-1 {
			buf.WriteString("└ ")
		} else {
			buf.WriteString("│ ")
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiCyan
	default:
		return ansiBlue
	}
}

func splitLines(message string) []string {
	message = strings.ReplaceAll(message, "\r\n", "\n")
	message = strings.ReplaceAll(message, "\r", "\n")
	return strings.Split(message, "\n")
}

func flattenMessage(message string) string {
	return strings.Join(splitLines(message), lineSeparator)
}

// origin 返回 module[file:line]，没有调用位置时只返回 module。module 中的换行同消息一样被替换
func origin(module string, src *slog.Source, width int) string {
	module = flattenMessage(module)
	if src == nil || src.File == "" {
		return module
	}
	return module + "[" + shortenPath(src.File, width) + ":" + strconv.Itoa(src.Line) + "]"
}

// shortenPath 把路径压缩到 width 个字符以内：先将目录缩写为首字母，仍超长时从左侧截断
func shortenPath(path string, width int) string {
	if width <= 0 || utf8.RuneCountInString(path) <= width {
		return path
	}

	dir, base := filepath.Split(path)
	parts := strings.Split(filepath.ToSlash(dir), "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(part)
		parts[i] = string(r)
	}
	short := strings.Join(parts, "/") + base
	if utf8.RuneCountInString(short) <= width {
		return short
	}

	runes := []rune(short)
	if width == 1 {
		return "…"
	}
	return "…" + string(runes[len(runes)-(width-1):])
}

type kv struct {
	key   string
	value slog.Value
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		for _, child := range attr.Value.Group() {
			flattenAttr(dst, next, child)
		}
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string(nil), prefix...), key), ".")
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' || r == utf8.RuneError {
			return true
		}
	}
	return false
}
