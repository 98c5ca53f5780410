package writer

import (
	"io"

	"github.com/hatlonely/schemagraph/ref"
)

func init() {
	ref.MustRegisterT[*ConsoleWriter](NewConsoleWriterWithOptions)
	ref.MustRegisterT[*FileWriter](NewFileWriterWithOptions)
}

// Writer 日志输出目标
type Writer interface {
	io.Writer
	io.Closer
}
