// Package storetest 提供基于临时 sqlite 文件的存储和实体构造工具，供各包测试使用
package storetest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/rdb"
	"github.com/hatlonely/schemagraph/store"
	"github.com/stretchr/testify/require"
)

// SeqGenerator 递增的 id 生成器，生成的 id 定长可排序
type SeqGenerator struct {
	prefix string
	n      int64
}

func NewSeqGenerator(prefix string) *SeqGenerator {
	return &SeqGenerator{prefix: prefix}
}

func (g *SeqGenerator) Generate() string {
	return fmt.Sprintf("%s%06d", g.prefix, atomic.AddInt64(&g.n, 1))
}

// NewStore 在 t.TempDir() 下创建已迁移的 sqlite 存储
func NewStore(t testing.TB) *store.GormStore {
	t.Helper()
	s, err := store.NewGormStoreWithOptions(context.Background(), &rdb.Options{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "schemagraph.db"),
	})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Fixture 直接写入实体，绕过业务校验，用于搭建测试场景
type Fixture struct {
	t     testing.TB
	Store *store.GormStore
	IDs   *SeqGenerator
}

func New(t testing.TB) *Fixture {
	return &Fixture{t: t, Store: NewStore(t), IDs: NewSeqGenerator("f")}
}

func (f *Fixture) Tx(fn func(ctx context.Context, tx store.Tx) error) error {
	return f.Store.WithTx(context.Background(), fn)
}

func (f *Fixture) must(fn func(ctx context.Context, tx store.Tx) error) {
	f.t.Helper()
	require.NoError(f.t, f.Tx(fn))
}

func (f *Fixture) Table(schemaID string, name string) *model.Table {
	f.t.Helper()
	table := &model.Table{SchemaID: schemaID, Name: name}
	table.ID = f.IDs.Generate()
	f.must(func(ctx context.Context, tx store.Tx) error {
		return tx.Tables().Create(ctx, table)
	})
	return table
}

// Column 追加一列，ls 可省略
func (f *Fixture) Column(tableID string, name string, dataType string, ls ...model.LengthScale) *model.Column {
	f.t.Helper()
	column := &model.Column{TableID: tableID, Name: name, DataType: dataType}
	if len(ls) > 0 {
		column.LengthScale = ls[0]
	}
	column.ID = f.IDs.Generate()
	f.must(func(ctx context.Context, tx store.Tx) error {
		siblings, err := tx.Columns().FindByParent(ctx, tableID)
		if err != nil {
			return err
		}
		column.SeqNo = len(siblings)
		return tx.Columns().Create(ctx, column)
	})
	return column
}

func (f *Fixture) Constraint(tableID string, name string, kind model.ConstraintKind, columnIDs ...string) *model.Constraint {
	f.t.Helper()
	con := &model.Constraint{TableID: tableID, Name: name, Kind: kind}
	switch kind {
	case model.ConstraintCheck:
		con.CheckExpr = "1 = 1"
	case model.ConstraintDefault:
		con.DefaultExpr = "0"
	}
	con.ID = f.IDs.Generate()
	f.must(func(ctx context.Context, tx store.Tx) error {
		if err := tx.Constraints().Create(ctx, con); err != nil {
			return err
		}
		for i, columnID := range columnIDs {
			cc := &model.ConstraintColumn{ConstraintID: con.ID, ColumnID: columnID, SeqNo: i}
			cc.ID = f.IDs.Generate()
			if err := tx.ConstraintColumns().Create(ctx, cc); err != nil {
				return err
			}
		}
		return nil
	})
	return con
}

func (f *Fixture) Index(tableID string, name string, typ model.IndexType, columnIDs ...string) *model.Index {
	f.t.Helper()
	idx := &model.Index{TableID: tableID, Name: name, Type: typ}
	idx.ID = f.IDs.Generate()
	f.must(func(ctx context.Context, tx store.Tx) error {
		if err := tx.Indexes().Create(ctx, idx); err != nil {
			return err
		}
		for i, columnID := range columnIDs {
			ic := &model.IndexColumn{IndexID: idx.ID, ColumnID: columnID, SeqNo: i}
			ic.ID = f.IDs.Generate()
			if err := tx.IndexColumns().Create(ctx, ic); err != nil {
				return err
			}
		}
		return nil
	})
	return idx
}

// Relationship pairs 为 pk 列 id, fk 列 id 交替排列
func (f *Fixture) Relationship(fkTableID string, pkTableID string, name string, kind model.RelationshipKind, pairs ...string) *model.Relationship {
	f.t.Helper()
	rel := &model.Relationship{
		FKTableID:   fkTableID,
		PKTableID:   pkTableID,
		Name:        name,
		Kind:        kind,
		Cardinality: model.CardinalityOneToMany,
	}
	rel.ID = f.IDs.Generate()
	f.must(func(ctx context.Context, tx store.Tx) error {
		if err := tx.Relationships().Create(ctx, rel); err != nil {
			return err
		}
		for i := 0; i+1 < len(pairs); i += 2 {
			rc := &model.RelationshipColumn{RelationshipID: rel.ID, PKColumnID: pairs[i], FKColumnID: pairs[i+1], SeqNo: i / 2}
			rc.ID = f.IDs.Generate()
			if err := tx.RelationshipColumns().Create(ctx, rc); err != nil {
				return err
			}
		}
		return nil
	})
	return rel
}

// Load 在只读事务中执行 fn 并返回其结果
func Load[T any](f *Fixture, fn func(ctx context.Context, tx store.Tx) (T, error)) T {
	f.t.Helper()
	var result T
	f.must(func(ctx context.Context, tx store.Tx) error {
		var err error
		result, err = fn(ctx, tx)
		return err
	})
	return result
}

func (f *Fixture) Columns(tableID string) []*model.Column {
	return Load(f, func(ctx context.Context, tx store.Tx) ([]*model.Column, error) {
		return tx.Columns().FindByParent(ctx, tableID)
	})
}

func (f *Fixture) GetColumn(id string) *model.Column {
	return Load(f, func(ctx context.Context, tx store.Tx) (*model.Column, error) {
		return tx.Columns().FindByID(ctx, id)
	})
}

func (f *Fixture) Constraints(tableID string) []*model.Constraint {
	return Load(f, func(ctx context.Context, tx store.Tx) ([]*model.Constraint, error) {
		return tx.Constraints().FindByParent(ctx, tableID)
	})
}

func (f *Fixture) ConstraintColumns(constraintID string) []*model.ConstraintColumn {
	return Load(f, func(ctx context.Context, tx store.Tx) ([]*model.ConstraintColumn, error) {
		return tx.ConstraintColumns().FindByParent(ctx, constraintID)
	})
}

func (f *Fixture) Indexes(tableID string) []*model.Index {
	return Load(f, func(ctx context.Context, tx store.Tx) ([]*model.Index, error) {
		return tx.Indexes().FindByParent(ctx, tableID)
	})
}

func (f *Fixture) IndexColumns(indexID string) []*model.IndexColumn {
	return Load(f, func(ctx context.Context, tx store.Tx) ([]*model.IndexColumn, error) {
		return tx.IndexColumns().FindByParent(ctx, indexID)
	})
}

// Relationships 以 tableID 为 FK 端的关系
func (f *Fixture) Relationships(tableID string) []*model.Relationship {
	return Load(f, func(ctx context.Context, tx store.Tx) ([]*model.Relationship, error) {
		return tx.Relationships().FindByParent(ctx, tableID)
	})
}

func (f *Fixture) RelationshipColumns(relationshipID string) []*model.RelationshipColumn {
	return Load(f, func(ctx context.Context, tx store.Tx) ([]*model.RelationshipColumn, error) {
		return tx.RelationshipColumns().FindByParent(ctx, relationshipID)
	})
}

// PrimaryKeyColumns 表主键的列 id，按 seqNo 排序，没有主键时为空
func (f *Fixture) PrimaryKeyColumns(tableID string) []string {
	var ids []string
	for _, con := range f.Constraints(tableID) {
		if con.Kind != model.ConstraintPrimaryKey {
			continue
		}
		for _, cc := range f.ConstraintColumns(con.ID) {
			ids = append(ids, cc.ColumnID)
		}
	}
	return ids
}

// SeqNos 提取 seqNo 列表
func SeqNos[T model.Sequenced](items []T) []int {
	seqNos := make([]int, 0, len(items))
	for _, item := range items {
		seqNos = append(seqNos, item.GetSeqNo())
	}
	return seqNos
}
