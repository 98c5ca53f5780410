package log

import (
	"sync/atomic"

	"github.com/hatlonely/schemagraph/log/logger"
	"github.com/pkg/errors"
)

var defaultLogger atomic.Value

func init() {
	l, err := logger.NewSLogWithOptions(&logger.SLogOptions{Level: "info", Format: "text"})
	if err != nil {
		panic(err)
	}
	defaultLogger.Store(logger.Logger(l))
}

// Default 进程级默认 logger，输出到 stdout
func Default() logger.Logger {
	return defaultLogger.Load().(logger.Logger)
}

// SetDefault 替换默认 logger
func SetDefault(l logger.Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// NewLoggerWithOptions 按配置创建 logger
func NewLoggerWithOptions(options *logger.SLogOptions) (logger.Logger, error) {
	l, err := logger.NewSLogWithOptions(options)
	if err != nil {
		return nil, errors.WithMessage(err, "logger.NewSLogWithOptions failed")
	}
	return l, nil
}
