package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/log/logger"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ObserverMetrics 用例的 prometheus 指标
type ObserverMetrics struct {
	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	affectedTables    *prometheus.HistogramVec
}

// NewObserverMetrics 创建指标并注册到 registerer，已注册过的同名指标直接复用
func NewObserverMetrics(name string, registerer prometheus.Registerer) (*ObserverMetrics, error) {
	metrics := &ObserverMetrics{
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_operations_total",
				Help: "Total number of schema graph operations",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_operation_duration_seconds",
				Help:    "Duration of schema graph operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		),
		affectedTables: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_affected_tables",
				Help:    "Number of tables structurally affected by one operation",
				Buckets: []float64{0, 1, 2, 5, 10, 50, 100},
			},
			[]string{"operation"},
		),
	}

	var err error
	if metrics.operationCounter, err = register(registerer, metrics.operationCounter); err != nil {
		return nil, err
	}
	if metrics.operationDuration, err = register(registerer, metrics.operationDuration); err != nil {
		return nil, err
	}
	if metrics.affectedTables, err = register(registerer, metrics.affectedTables); err != nil {
		return nil, err
	}
	return metrics, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "prometheus.Register failed")
	}
	return c, nil
}

// Observer 为每个用例记录指标、日志和 trace
type Observer struct {
	name    string
	logger  logger.Logger
	metrics *ObserverMetrics
	tracer  trace.Tracer
}

// NewObserver registerer 为 nil 时不记录指标
func NewObserver(name string, registerer prometheus.Registerer, l logger.Logger) (*Observer, error) {
	if l == nil {
		l = logger.NewNop()
	}
	obs := &Observer{
		name:   name,
		logger: l.WithGroup("usecase"),
		tracer: otel.Tracer(fmt.Sprintf("usecase.%s", name)),
	}
	if registerer != nil {
		metrics, err := NewObserverMetrics(name, registerer)
		if err != nil {
			return nil, errors.WithMessage(err, "NewObserverMetrics failed")
		}
		obs.metrics = metrics
	}
	return obs, nil
}

// Observe 执行 fn，fn 返回受影响的表
func (obs *Observer) Observe(ctx context.Context, operation string, fn func(ctx context.Context) ([]string, error)) error {
	start := time.Now()

	ctx, span := obs.tracer.Start(ctx, fmt.Sprintf("usecase.%s", operation),
		trace.WithAttributes(
			attribute.String("component", obs.name),
			attribute.String("operation", operation),
		),
	)
	defer span.End()

	affected, err := fn(ctx)
	duration := time.Since(start)

	span.SetAttributes(
		attribute.Int64("duration_ms", duration.Milliseconds()),
		attribute.StringSlice("affected_tables", affected),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if obs.metrics != nil {
		obs.metrics.operationCounter.WithLabelValues(operation, status(err)).Inc()
		obs.metrics.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
		if err == nil {
			obs.metrics.affectedTables.WithLabelValues(operation).Observe(float64(len(affected)))
		}
	}

	switch {
	case err == nil:
		obs.logger.InfoContext(ctx, "operation done",
			"operation", operation,
			"duration_ms", duration.Milliseconds(),
			"affected_tables", affected,
		)
	case errs.IsDomain(err):
		obs.logger.WarnContext(ctx, "operation rejected",
			"operation", operation,
			"duration_ms", duration.Milliseconds(),
			"code", string(errs.CodeOf(err)),
			"error", err.Error(),
		)
	default:
		obs.logger.ErrorContext(ctx, "operation failed",
			"operation", operation,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
	}
	return err
}

// status 指标中的结果标签，领域错误使用错误码
func status(err error) string {
	if err == nil {
		return "success"
	}
	if code := errs.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}
