package writer

import (
	"io"
	"os"
)

type ConsoleWriterOptions struct {
	// 输出目标：stdout, stderr
	Target string `cfg:"target" def:"stdout" validate:"omitempty,oneof=stdout stderr"`
}

type ConsoleWriter struct {
	w io.Writer
}

func NewConsoleWriterWithOptions(options *ConsoleWriterOptions) *ConsoleWriter {
	if options != nil && options.Target == "stderr" {
		return &ConsoleWriter{w: os.Stderr}
	}
	return &ConsoleWriter{w: os.Stdout}
}

func (c *ConsoleWriter) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

// Close 标准输出不关闭
func (c *ConsoleWriter) Close() error {
	return nil
}
