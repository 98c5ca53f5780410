package logger

import (
	"context"
	"log/slog"
)

// Logger 结构化日志接口，args 为交替的 key/value
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

// NewNop 丢弃所有输出
func NewNop() Logger {
	return &SLog{slogger: slog.New(slog.DiscardHandler)}
}
