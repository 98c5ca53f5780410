package store

import (
	"context"

	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/rdb"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Models 需要迁移的实体表
func Models() []any {
	return []any{
		&model.Table{},
		&model.Column{},
		&model.Constraint{},
		&model.ConstraintColumn{},
		&model.Index{},
		&model.IndexColumn{},
		&model.Relationship{},
		&model.RelationshipColumn{},
	}
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func NewGormStoreWithOptions(ctx context.Context, options *rdb.Options) (*GormStore, error) {
	db, err := rdb.Open(ctx, options)
	if err != nil {
		return nil, errors.WithMessage(err, "rdb.Open failed")
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return errors.Wrap(err, "db.AutoMigrate failed")
	}
	return nil
}

func (s *GormStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "context done before transaction")
	}
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, newGormTx(db))
	})
}

func (s *GormStore) Close() error {
	return rdb.Close(s.db)
}

type gormTx struct {
	tables              *GormRepository[model.Table, *model.Table]
	columns             *GormRepository[model.Column, *model.Column]
	constraints         *GormRepository[model.Constraint, *model.Constraint]
	constraintColumns   *GormRepository[model.ConstraintColumn, *model.ConstraintColumn]
	indexes             *GormRepository[model.Index, *model.Index]
	indexColumns        *GormRepository[model.IndexColumn, *model.IndexColumn]
	relationships       *GormRepository[model.Relationship, *model.Relationship]
	relationshipColumns *GormRepository[model.RelationshipColumn, *model.RelationshipColumn]
}

func newGormTx(db *gorm.DB) *gormTx {
	return &gormTx{
		tables:              NewGormRepository[model.Table](db, "table"),
		columns:             NewGormRepository[model.Column](db, "column"),
		constraints:         NewGormRepository[model.Constraint](db, "constraint"),
		constraintColumns:   NewGormRepository[model.ConstraintColumn](db, "constraint column"),
		indexes:             NewGormRepository[model.Index](db, "index"),
		indexColumns:        NewGormRepository[model.IndexColumn](db, "index column"),
		relationships:       NewGormRepository[model.Relationship](db, "relationship"),
		relationshipColumns: NewGormRepository[model.RelationshipColumn](db, "relationship column"),
	}
}

func (t *gormTx) Tables() Repository[*model.Table] {
	return t.tables
}

func (t *gormTx) Columns() Repository[*model.Column] {
	return t.columns
}

func (t *gormTx) Constraints() Repository[*model.Constraint] {
	return t.constraints
}

func (t *gormTx) ConstraintColumns() Repository[*model.ConstraintColumn] {
	return t.constraintColumns
}

func (t *gormTx) Indexes() Repository[*model.Index] {
	return t.indexes
}

func (t *gormTx) IndexColumns() Repository[*model.IndexColumn] {
	return t.indexColumns
}

func (t *gormTx) Relationships() Repository[*model.Relationship] {
	return t.relationships
}

func (t *gormTx) RelationshipColumns() Repository[*model.RelationshipColumn] {
	return t.relationshipColumns
}
