// Package kv 字符串键的 KV 存储，值通过 Serializer 编码，用于发布表变更版本
package kv

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrConditionFailed = errors.New("condition failed")
)

type setOptions struct {
	Expiration time.Duration
	IfNotExist bool
}

type SetOption func(*setOptions)

// WithExpiration 为 0 时使用存储的默认过期时间
func WithExpiration(expiration time.Duration) SetOption {
	return func(options *setOptions) {
		options.Expiration = expiration
	}
}

func WithIfNotExist() SetOption {
	return func(options *setOptions) {
		options.IfNotExist = true
	}
}

func newSetOptions(opts []SetOption) *setOptions {
	options := &setOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

type Store[V any] interface {
	// Set WithIfNotExist 时键存在则返回 ErrConditionFailed
	Set(ctx context.Context, key string, value V, opts ...SetOption) error
	// Get 键不存在时返回 ErrKeyNotFound
	Get(ctx context.Context, key string) (V, error)
	// Del 键不存在时也返回成功
	Del(ctx context.Context, key string) error
	// BatchGet 返回每个键的值和错误
	BatchGet(ctx context.Context, keys []string) ([]V, []error, error)
	Close() error
}
