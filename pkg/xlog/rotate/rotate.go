package rotate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// 日期格式（固定）
const dateFormat = "2006-01-02"

// ErrClosed 写入已关闭的 Writer
var ErrClosed = errors.New("rotate: writer closed")

// Writer 实现了 io.WriteCloser 接口，可选按天轮转
type Writer struct {
	config Config
	file   *os.File
	mu     sync.Mutex
	closed bool

	// 当前文件对应的日期
	curYear  int
	curMonth time.Month
	curDay   int

	// 文件名的基础部分和扩展名，扩展名可以为空
	basename string
	ext      string

	now func() time.Time
}

// New 打开文件并返回写入器。目录不存在或无写权限时返回错误
func New(config Config) (io.Writer, io.Closer, error) {
	w, err := newWriter(config, time.Now)
	if err != nil {
		return nil, nil, err
	}
	return w, w, nil
}

// MustNew 打开文件并返回写入器（失败时 panic）
func MustNew(config Config) (io.Writer, io.Closer) {
	writer, closer, err := New(config)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize rotate writer: %v", err))
	}
	return writer, closer
}

func newWriter(config Config, now func() time.Time) (*Writer, error) {
	if config.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}

	w := &Writer{config: config, now: now}
	w.basename, w.ext = splitFilename(config.Filename)

	if err := w.init(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write 实现 io.Writer 接口
func (w *Writer) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrClosed
	}

	if w.config.Daily {
		now := w.now()
		if now.Day() != w.curDay || now.Month() != w.curMonth || now.Year() != w.curYear {
			if err := w.rotate(); err != nil {
				return 0, err
			}
		}
	}

	return w.file.Write(p)
}

// Close 实现 io.Closer 接口，重复调用返回 nil
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Name 返回当前写入的文件路径
func (w *Writer) Name() string {
	return w.config.Filename
}

func (w *Writer) init() error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if w.config.Overwrite {
		flags |= os.O_TRUNC
	}

	// 追加模式下，前一天留下的文件先归档
	if w.config.Daily && !w.config.Overwrite {
		info, err := os.Stat(w.config.Filename)
		switch {
		case err == nil:
			modTime := info.ModTime()
			now := w.now()
			if modTime.Year() != now.Year() || modTime.Month() != now.Month() || modTime.Day() != now.Day() {
				if err := w.checkWritable(); err != nil {
					return err
				}
				w.curYear, w.curMonth, w.curDay = modTime.Date()
				return w.rotate()
			}
		case !os.IsNotExist(err):
			return fmt.Errorf("failed to stat log file: %w", err)
		}
	}

	return w.openFile(flags)
}

// checkWritable 确认目录可写，避免在无法打开新文件时先重命名旧文件
func (w *Writer) checkWritable() error {
	f, err := os.OpenFile(w.config.Filename, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	return f.Close()
}

func (w *Writer) openFile(flags int) error {
	w.curYear, w.curMonth, w.curDay = w.now().Date()

	file, err := os.OpenFile(w.config.Filename, flags, 0o666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	w.file = file
	return nil
}

// rotate 将当前文件归档为 {basename}-{date}{ext} 并打开新文件
func (w *Writer) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
		w.file = nil
	}

	backupName := w.backupName(w.curYear, w.curMonth, w.curDay)

	if _, err := os.Stat(backupName); err == nil {
		// 备份文件已存在，追加内容
		if err := appendFile(w.config.Filename, backupName); err != nil {
			return fmt.Errorf("failed to append log file: %w", err)
		}
		if err := os.Remove(w.config.Filename); err != nil {
			return fmt.Errorf("failed to remove rotated file: %w", err)
		}
	} else if err := os.Rename(w.config.Filename, backupName); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	if err := w.openFile(os.O_CREATE | os.O_WRONLY | os.O_APPEND); err != nil {
		return err
	}

	if w.config.MaxAge > 0 {
		go w.cleanup()
	}
	return nil
}

// backupName 例如：logs/app_info.log -> logs/app_info-2023-12-08.log
func (w *Writer) backupName(year int, month time.Month, day int) string {
	date := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	return fmt.Sprintf("%s-%s%s", w.basename, date.Format(dateFormat), w.ext)
}

// cleanup 删除早于 MaxAge 天的备份
func (w *Writer) cleanup() {
	dir := filepath.Dir(w.config.Filename)
	files, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	now := w.now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, -w.config.MaxAge)
	baseNameOnly := filepath.Base(w.basename)

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		fileDate, ok := w.parseBackupDate(name, baseNameOnly)
		if !ok {
			continue
		}
		if fileDate.Before(cutoff) {
			os.Remove(filepath.Join(dir, name))
		}
	}
}

func (w *Writer) parseBackupDate(filename, baseName string) (time.Time, bool) {
	if !strings.HasPrefix(filename, baseName+"-") || !strings.HasSuffix(filename, w.ext) {
		return time.Time{}, false
	}
	datePart := filename[len(baseName)+1 : len(filename)-len(w.ext)]
	date, err := time.ParseInLocation(dateFormat, datePart, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// splitFilename "logs/app.log" -> ("logs/app", ".log")；无扩展名时 ext 为空
func splitFilename(filename string) (basename, ext string) {
	ext = filepath.Ext(filename)
	basename = filename[:len(filename)-len(ext)]
	return basename, ext
}

func appendFile(src, dst string) error {
	s, err := os.Open(src)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := os.OpenFile(dst, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o666)
	if err != nil {
		return err
	}
	defer d.Close()

	_, err = io.Copy(d, s)
	return err
}
