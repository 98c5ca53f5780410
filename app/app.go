// Package app 按配置组装存储、日志、id 生成器、变更通知和用例服务
package app

import (
	"context"

	"github.com/hatlonely/schemagraph/cfg"
	"github.com/hatlonely/schemagraph/log"
	"github.com/hatlonely/schemagraph/log/logger"
	"github.com/hatlonely/schemagraph/notify"
	"github.com/hatlonely/schemagraph/rdb"
	"github.com/hatlonely/schemagraph/ref"
	"github.com/hatlonely/schemagraph/store"
	"github.com/hatlonely/schemagraph/uid"
	"github.com/hatlonely/schemagraph/usecase"
	"github.com/hatlonely/schemagraph/validate"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const EnvPrefix = "SCHEMAGRAPH"

type MetricsOptions struct {
	// 指标名前缀
	Name string `cfg:"name" def:"schemagraph"`
	// 命令结束时以 textfile 格式写出指标，为空时不写
	Textfile string `cfg:"textfile"`
}

type Options struct {
	Store       rdb.Options        `cfg:"store"`
	Logger      logger.SLogOptions `cfg:"logger"`
	IDGenerator *ref.TypeOptions   `cfg:"idGenerator"`
	// 为空时不发布变更
	Notifier *notify.Options `cfg:"notifier"`
	Dialect  string          `cfg:"dialect" def:"mysql" validate:"oneof=mysql mariadb postgres postgresql"`
	Metrics  MetricsOptions  `cfg:"metrics"`
}

// Load path 为空时只使用环境变量和默认值
func Load(path string, opts ...cfg.Option) (*Options, error) {
	options := &Options{}
	opts = append([]cfg.Option{cfg.WithEnvPrefix(EnvPrefix)}, opts...)
	if err := cfg.Load(path, options, opts...); err != nil {
		return nil, errors.WithMessage(err, "cfg.Load failed")
	}
	return options, nil
}

type App struct {
	options   *Options
	Store     *store.GormStore
	Service   *usecase.Service
	Publisher *notify.Publisher
	Registry  *prometheus.Registry
	Logger    logger.Logger
}

func New(ctx context.Context, options *Options) (*App, error) {
	l, err := log.NewLoggerWithOptions(&options.Logger)
	if err != nil {
		return nil, errors.WithMessage(err, "log.NewLoggerWithOptions failed")
	}
	dialect, err := validate.DialectByName(options.Dialect)
	if err != nil {
		return nil, err
	}
	idgen, err := uid.NewStrGeneratorWithOptions(options.IDGenerator)
	if err != nil {
		return nil, errors.WithMessage(err, "uid.NewStrGeneratorWithOptions failed")
	}

	a := &App{
		options:  options,
		Registry: prometheus.NewRegistry(),
		Logger:   l,
	}
	if a.Store, err = store.NewGormStoreWithOptions(ctx, &options.Store); err != nil {
		return nil, errors.WithMessage(err, "store.NewGormStoreWithOptions failed")
	}

	serviceOpts := []usecase.Option{
		usecase.WithDialect(dialect),
		usecase.WithLogger(l),
		usecase.WithRegisterer(a.Registry),
		usecase.WithName(options.Metrics.Name),
	}
	if options.Notifier != nil {
		if a.Publisher, err = notify.NewPublisherWithOptions(options.Notifier); err != nil {
			_ = a.Store.Close()
			return nil, errors.WithMessage(err, "notify.NewPublisherWithOptions failed")
		}
		serviceOpts = append(serviceOpts, usecase.WithNotifier(a.Publisher))
	}

	if a.Service, err = usecase.NewService(a.Store, idgen, serviceOpts...); err != nil {
		_ = a.Close()
		return nil, errors.WithMessage(err, "usecase.NewService failed")
	}
	return a, nil
}

// Close 写出指标并释放连接
func (a *App) Close() error {
	var errs []error
	if a.options.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(a.options.Metrics.Textfile, a.Registry); err != nil {
			errs = append(errs, errors.Wrap(err, "prometheus.WriteToTextfile failed"))
		}
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			errs = append(errs, errors.WithMessage(err, "publisher.Close failed"))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, errors.WithMessage(err, "store.Close failed"))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
