package store

import (
	"context"

	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/rdb/query"
)

// Repository 单一实体类型的存储端口，只返回未软删除的记录
type Repository[T model.Entity] interface {
	// FindByID 不存在时返回 errs.NotFound
	FindByID(ctx context.Context, id string) (T, error)
	// FindByIDs 忽略不存在的 id，结果按 id 排序
	FindByIDs(ctx context.Context, ids ...string) ([]T, error)
	// FindByParent 有序实体按 seq_no 排序，其余按 name 排序
	FindByParent(ctx context.Context, parentIDs ...string) ([]T, error)
	Find(ctx context.Context, q query.Query) ([]T, error)
	Exists(ctx context.Context, q query.Query) (bool, error)
	Create(ctx context.Context, entities ...T) error
	// Update 按列名更新字段，记录不存在时返回 errs.NotFound
	Update(ctx context.Context, id string, fields map[string]any) error
	SoftDelete(ctx context.Context, ids ...string) error
}

// Tx 一个事务内的全部仓储
type Tx interface {
	Tables() Repository[*model.Table]
	Columns() Repository[*model.Column]
	Constraints() Repository[*model.Constraint]
	ConstraintColumns() Repository[*model.ConstraintColumn]
	Indexes() Repository[*model.Index]
	IndexColumns() Repository[*model.IndexColumn]
	Relationships() Repository[*model.Relationship]
	RelationshipColumns() Repository[*model.RelationshipColumn]
}

// Store 事务边界，fn 返回 nil 时提交，返回错误、panic 或 ctx 取消时回滚
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Migrate(ctx context.Context) error
	Close() error
}

// GroupBy 按 key 分组，保持原有顺序
func GroupBy[T any](items []T, key func(T) string) map[string][]T {
	groups := make(map[string][]T)
	for _, item := range items {
		k := key(item)
		groups[k] = append(groups[k], item)
	}
	return groups
}

// Index 按 id 建立索引
func Index[T interface{ GetID() string }](items []T) map[string]T {
	m := make(map[string]T, len(items))
	for _, item := range items {
		m[item.GetID()] = item
	}
	return m
}
