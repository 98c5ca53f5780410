package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type FileWriterOptions struct {
	Path string `cfg:"path" validate:"required"`
	// 单个文件最大大小（MB），超过后轮转，0 表示不轮转
	MaxSize int `cfg:"maxSize" def:"0"`
}

// FileWriter 追加写文件，按大小轮转为 <path>.<timestamp>
type FileWriter struct {
	path    string
	maxSize int64

	mu   sync.Mutex
	file *os.File
	size int64
}

func NewFileWriterWithOptions(options *FileWriterOptions) (*FileWriter, error) {
	if options == nil || options.Path == "" {
		return nil, errors.New("file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(options.Path), 0755); err != nil {
		return nil, errors.Wrapf(err, "os.MkdirAll [%s] failed", filepath.Dir(options.Path))
	}

	w := &FileWriter{path: options.Path, maxSize: int64(options.MaxSize) * 1024 * 1024}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *FileWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrapf(err, "os.OpenFile [%s] failed", w.path)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return errors.Wrapf(err, "file.Stat [%s] failed", w.path)
	}
	w.file = file
	w.size = info.Size()
	return nil
}

func (w *FileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return errors.Wrap(err, "file.Close failed")
	}
	backup := fmt.Sprintf("%s.%s", w.path, time.Now().Format("20060102150405.000000"))
	if err := os.Rename(w.path, backup); err != nil {
		return errors.Wrapf(err, "os.Rename [%s] failed", w.path)
	}
	return w.open()
}

func (w *FileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, errors.New("file writer is closed")
	}
	if w.maxSize > 0 && w.size > 0 && w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
