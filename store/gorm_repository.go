package store

import (
	"context"

	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/rdb"
	"github.com/hatlonely/schemagraph/rdb/query"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type entityPtr[T any] interface {
	*T
	model.Entity
}

// GormRepository 基于 gorm 的通用仓储，PT 为实体指针类型
type GormRepository[T any, PT entityPtr[T]] struct {
	db     *gorm.DB
	entity string
	order  string
}

func NewGormRepository[T any, PT entityPtr[T]](db *gorm.DB, entity string) *GormRepository[T, PT] {
	order := "name, id"
	if _, ok := any(PT(new(T))).(model.Sequenced); ok {
		order = "seq_no, id"
	}
	return &GormRepository[T, PT]{db: db, entity: entity, order: order}
}

func (r *GormRepository[T, PT]) session(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(PT(new(T)))
}

func (r *GormRepository[T, PT]) FindByID(ctx context.Context, id string) (PT, error) {
	var entity T
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&entity).Error
	if err != nil {
		if errors.Is(rdb.TranslateError(err), rdb.ErrRecordNotFound) {
			return nil, errs.NotFound(r.entity, id)
		}
		return nil, errors.Wrapf(err, "find %s [%s] failed", r.entity, id)
	}
	return PT(&entity), nil
}

func (r *GormRepository[T, PT]) FindByIDs(ctx context.Context, ids ...string) ([]PT, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var entities []PT
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&entities).Error; err != nil {
		return nil, errors.Wrapf(err, "find %s by ids failed", r.entity)
	}
	return entities, nil
}

func (r *GormRepository[T, PT]) FindByParent(ctx context.Context, parentIDs ...string) ([]PT, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var entities []PT
	parentKey := PT(new(T)).ParentKey()
	err := r.db.WithContext(ctx).Where(parentKey+" IN ?", parentIDs).Order(r.order).Find(&entities).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find %s by %s failed", r.entity, parentKey)
	}
	return entities, nil
}

func (r *GormRepository[T, PT]) Find(ctx context.Context, q query.Query) ([]PT, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, errors.WithMessage(err, "q.ToSQL failed")
	}
	var entities []PT
	if err := r.db.WithContext(ctx).Where(sql, args...).Order(r.order).Find(&entities).Error; err != nil {
		return nil, errors.Wrapf(err, "find %s failed", r.entity)
	}
	return entities, nil
}

func (r *GormRepository[T, PT]) Exists(ctx context.Context, q query.Query) (bool, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return false, errors.WithMessage(err, "q.ToSQL failed")
	}
	var count int64
	if err := r.session(ctx).Where(sql, args...).Limit(1).Count(&count).Error; err != nil {
		return false, errors.Wrapf(err, "count %s failed", r.entity)
	}
	return count > 0, nil
}

func (r *GormRepository[T, PT]) Create(ctx context.Context, entities ...PT) error {
	if len(entities) == 0 {
		return nil
	}
	for _, e := range entities {
		if e.GetID() == "" {
			return errors.Errorf("create %s with empty id", r.entity)
		}
	}
	if err := r.db.WithContext(ctx).Create(entities).Error; err != nil {
		return errors.Wrapf(rdb.TranslateError(err), "create %s failed", r.entity)
	}
	return nil
}

func (r *GormRepository[T, PT]) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.session(ctx).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return errors.Wrapf(rdb.TranslateError(result.Error), "update %s [%s] failed", r.entity, id)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound(r.entity, id)
	}
	return nil
}

func (r *GormRepository[T, PT]) SoftDelete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(PT(new(T))).Error; err != nil {
		return errors.Wrapf(err, "delete %s failed", r.entity)
	}
	return nil
}
