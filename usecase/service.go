// Package usecase 对外提供的 schema 图修改操作，每个操作在一个事务内完成校验和级联
package usecase

import (
	"context"

	"github.com/hatlonely/schemagraph/autorel"
	"github.com/hatlonely/schemagraph/cascade"
	"github.com/hatlonely/schemagraph/log/logger"
	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/store"
	"github.com/hatlonely/schemagraph/uid/strgen"
	"github.com/hatlonely/schemagraph/validate"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome 操作结果，AffectedTableIDs 为结构发生变化的表，供下游缓存失效
type Outcome struct {
	AffectedTableIDs []string `json:"affectedTableIds"`
}

// Result 带返回值的操作结果
type Result[T any] struct {
	Value T `json:"value"`
	Outcome
}

// Notifier 事务提交后发布受影响的表
type Notifier interface {
	Publish(ctx context.Context, operation string, tableIDs []string) error
}

type serviceOptions struct {
	dialect    *validate.Dialect
	logger     logger.Logger
	notifier   Notifier
	registerer prometheus.Registerer
	name       string
}

type Option func(*serviceOptions)

func WithDialect(dialect *validate.Dialect) Option {
	return func(o *serviceOptions) {
		o.dialect = dialect
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = l
	}
}

func WithNotifier(n Notifier) Option {
	return func(o *serviceOptions) {
		o.notifier = n
	}
}

// WithRegisterer 指标注册位置，不设置时不记录指标
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(o *serviceOptions) {
		o.registerer = registerer
	}
}

// WithName 指标名前缀
func WithName(name string) Option {
	return func(o *serviceOptions) {
		o.name = name
	}
}

type Service struct {
	store       store.Store
	dialect     *validate.Dialect
	coordinator *cascade.Coordinator
	builder     *autorel.Builder
	observer    *Observer
	notifier    Notifier
	logger      logger.Logger
}

func NewService(s store.Store, idgen strgen.StrGenerator, opts ...Option) (*Service, error) {
	if s == nil {
		return nil, errors.New("store is nil")
	}
	if idgen == nil {
		return nil, errors.New("id generator is nil")
	}

	options := &serviceOptions{
		dialect: validate.MySQL(),
		logger:  logger.NewNop(),
		name:    "schemagraph",
	}
	for _, opt := range opts {
		opt(options)
	}

	observer, err := NewObserver(options.name, options.registerer, options.logger)
	if err != nil {
		return nil, errors.WithMessage(err, "NewObserver failed")
	}

	coordinator := cascade.NewCoordinator(options.dialect, idgen)
	return &Service{
		store:       s,
		dialect:     options.dialect,
		coordinator: coordinator,
		builder:     autorel.NewBuilder(coordinator),
		observer:    observer,
		notifier:    options.notifier,
		logger:      options.logger,
	}, nil
}

func (s *Service) Dialect() *validate.Dialect {
	return s.dialect
}

type mutation func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error

// run 校验命令，在事务中执行 fn，提交后发布受影响的表
func (s *Service) run(ctx context.Context, operation string, cmd any, fn mutation) (*Outcome, error) {
	outcome := &Outcome{}
	err := s.observer.Observe(ctx, operation, func(ctx context.Context) ([]string, error) {
		if err := validate.Struct(operation, cmd); err != nil {
			return nil, err
		}
		affected := model.NewAffectedTables()
		if err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return fn(ctx, tx, affected)
		}); err != nil {
			return nil, err
		}
		outcome.AffectedTableIDs = affected.IDs()
		return outcome.AffectedTableIDs, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, operation, outcome.AffectedTableIDs)
	return outcome, nil
}

// execute 与 run 相同，fn 额外返回一个值
func execute[T any](ctx context.Context, s *Service, operation string, cmd any, fn func(ctx context.Context, tx store.Tx, affected model.AffectedTables) (T, error)) (*Result[T], error) {
	var value T
	outcome, err := s.run(ctx, operation, cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		var err error
		value, err = fn(ctx, tx, affected)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Result[T]{Value: value, Outcome: *outcome}, nil
}

// read 只读操作，同样在事务中执行以得到一致的快照
func read[T any](ctx context.Context, s *Service, operation string, fn func(ctx context.Context, tx store.Tx) (T, error)) (T, error) {
	var value T
	err := s.observer.Observe(ctx, operation, func(ctx context.Context) ([]string, error) {
		return nil, s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			var err error
			value, err = fn(ctx, tx)
			return err
		})
	})
	return value, err
}

func (s *Service) publish(ctx context.Context, operation string, tableIDs []string) {
	if s.notifier == nil || len(tableIDs) == 0 {
		return
	}
	if err := s.notifier.Publish(ctx, operation, tableIDs); err != nil {
		s.logger.WarnContext(ctx, "publish table change failed",
			"operation", operation,
			"affected_tables", tableIDs,
			"error", err.Error(),
		)
	}
}
