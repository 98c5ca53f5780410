package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hatlonely/schemagraph/ref"
)

func TestConsoleWriter(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   *os.File
	}{
		{"stdout", "stdout", os.Stdout},
		{"stderr", "stderr", os.Stderr},
		{"empty defaults to stdout", "", os.Stdout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewConsoleWriterWithOptions(&ConsoleWriterOptions{Target: tt.target})
			if w.w != tt.want {
				t.Errorf("expected %v, got %v", tt.want.Name(), w.w)
			}
			if err := w.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}

	if w := NewConsoleWriterWithOptions(nil); w.w != os.Stdout {
		t.Errorf("nil options should write to stdout")
	}
}

func TestFileWriter(t *testing.T) {
	if _, err := NewFileWriterWithOptions(nil); err == nil {
		t.Fatal("expected error for nil options")
	}

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	w, err := NewFileWriterWithOptions(&FileWriterOptions{Path: path})
	if err != nil {
		t.Fatalf("NewFileWriterWithOptions() error = %v", err)
	}
	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := w.Write([]byte("closed\n")); err == nil {
		t.Errorf("expected error writing to closed writer")
	}

	data, _ := os.ReadFile(path)
	if string(data) != "hello\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestFileWriterRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	w, err := NewFileWriterWithOptions(&FileWriterOptions{Path: path, MaxSize: 1})
	if err != nil {
		t.Fatalf("NewFileWriterWithOptions() error = %v", err)
	}
	defer w.Close()

	chunk := []byte(strings.Repeat("x", 700*1024))
	for i := 0; i < 2; i++ {
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("expected current file and one backup, got %d entries", len(entries))
	}
}

func TestRegisteredWriters(t *testing.T) {
	obj, err := ref.New("github.com/hatlonely/schemagraph/log/writer", "FileWriter", &FileWriterOptions{
		Path: filepath.Join(t.TempDir(), "ref.log"),
	})
	if err != nil {
		t.Fatalf("ref.New() error = %v", err)
	}
	w, ok := obj.(Writer)
	if !ok {
		t.Fatalf("%T is not a Writer", obj)
	}
	_ = w.Close()

	if _, err := ref.New("github.com/hatlonely/schemagraph/log/writer", "ConsoleWriter", nil); err != nil {
		t.Errorf("ref.New() console error = %v", err)
	}
}
