package cascade

import (
	"context"
	"sort"
	"strconv"

	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/rdb/query"
	"github.com/hatlonely/schemagraph/sequence"
	"github.com/hatlonely/schemagraph/store"
	"github.com/hatlonely/schemagraph/uid/strgen"
	"github.com/hatlonely/schemagraph/validate"
	"github.com/pkg/errors"
)

// Coordinator 在同一个事务内执行跨实体的级联修改
// 所有方法把结构发生变化的表记入 affected
type Coordinator struct {
	dialect *validate.Dialect
	idgen   strgen.StrGenerator
}

func NewCoordinator(dialect *validate.Dialect, idgen strgen.StrGenerator) *Coordinator {
	return &Coordinator{dialect: dialect, idgen: idgen}
}

func (c *Coordinator) Dialect() *validate.Dialect {
	return c.dialect
}

func (c *Coordinator) NewID() string {
	return c.idgen.Generate()
}

type sequencedEntity interface {
	model.Entity
	GetSeqNo() int
}

// ApplySeqNos 写回 seqNo 变化
func ApplySeqNos[T model.Entity](ctx context.Context, repo store.Repository[T], updates []sequence.Update) error {
	for _, u := range updates {
		if err := repo.Update(ctx, u.ID, map[string]any{"seq_no": u.SeqNo}); err != nil {
			return errors.WithMessage(err, "update seq_no failed")
		}
	}
	return nil
}

// detach 软删除 removed 中的子实体，并把同一父实体下剩余的子实体重新编号
// 返回被删空的父实体 id，由调用方删除父实体
func detach[T sequencedEntity](ctx context.Context, repo store.Repository[T], parentOf func(T) string, removed []T) ([]string, error) {
	if len(removed) == 0 {
		return nil, nil
	}

	removedIDs := make(map[string]struct{}, len(removed))
	for _, r := range removed {
		removedIDs[r.GetID()] = struct{}{}
	}
	parentIDs := sortedKeys(store.GroupBy(removed, parentOf))

	siblings, err := repo.FindByParent(ctx, parentIDs...)
	if err != nil {
		return nil, err
	}
	groups := store.GroupBy(siblings, parentOf)

	var emptied []string
	for _, parentID := range parentIDs {
		var remaining []T
		for _, s := range groups[parentID] {
			if _, ok := removedIDs[s.GetID()]; !ok {
				remaining = append(remaining, s)
			}
		}
		if len(remaining) == 0 {
			emptied = append(emptied, parentID)
			continue
		}
		if err := ApplySeqNos(ctx, repo, sequence.Compact(remaining)); err != nil {
			return nil, err
		}
	}

	if err := repo.SoftDelete(ctx, model.IDs(removed)...); err != nil {
		return nil, err
	}
	return emptied, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PrimaryKey 返回表的主键约束及其有序列，没有主键时返回 nil
func PrimaryKey(ctx context.Context, tx store.Tx, tableID string) (*model.Constraint, []*model.ConstraintColumn, error) {
	pks, err := tx.Constraints().Find(ctx, query.And(
		query.Term("table_id", tableID),
		query.Term("kind", string(model.ConstraintPrimaryKey)),
	))
	if err != nil {
		return nil, nil, err
	}
	if len(pks) == 0 {
		return nil, nil, nil
	}
	ccs, err := tx.ConstraintColumns().FindByParent(ctx, pks[0].ID)
	if err != nil {
		return nil, nil, err
	}
	model.SortBySeqNo(ccs)
	return pks[0], ccs, nil
}

// ConstraintDefs 加载表上全部约束的定义，用于重复性校验
func ConstraintDefs(ctx context.Context, tx store.Tx, tableID string) ([]validate.ConstraintDef, error) {
	constraints, err := tx.Constraints().FindByParent(ctx, tableID)
	if err != nil {
		return nil, err
	}
	ccs, err := tx.ConstraintColumns().FindByParent(ctx, model.IDs(constraints)...)
	if err != nil {
		return nil, err
	}
	groups := store.GroupBy(ccs, func(cc *model.ConstraintColumn) string { return cc.ConstraintID })

	defs := make([]validate.ConstraintDef, 0, len(constraints))
	for _, con := range constraints {
		defs = append(defs, ToConstraintDef(con, groups[con.ID]))
	}
	return defs, nil
}

func ToConstraintDef(con *model.Constraint, ccs []*model.ConstraintColumn) validate.ConstraintDef {
	model.SortBySeqNo(ccs)
	columnIDs := make([]string, 0, len(ccs))
	for _, cc := range ccs {
		columnIDs = append(columnIDs, cc.ColumnID)
	}
	return validate.ConstraintDef{
		ID:          con.ID,
		Name:        con.Name,
		Kind:        con.Kind,
		ColumnIDs:   columnIDs,
		CheckExpr:   con.CheckExpr,
		DefaultExpr: con.DefaultExpr,
	}
}

// SchemaRelationships 加载 schema 内全部关系，供环检测使用
func SchemaRelationships(ctx context.Context, tx store.Tx, schemaID string) ([]*model.Relationship, error) {
	tables, err := tx.Tables().FindByParent(ctx, schemaID)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, nil
	}
	return tx.Relationships().Find(ctx, query.Terms("fk_table_id", anys(model.IDs(tables))...))
}

// UniqueName 在 taken 中为 base 找一个不冲突的名字：base, base_1, base_2, ...
func UniqueName(d *validate.Dialect, base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[d.FoldName(t)] = struct{}{}
	}
	name := base
	for i := 1; ; i++ {
		if _, ok := used[d.FoldName(name)]; !ok {
			return name
		}
		name = base + "_" + strconv.Itoa(i)
	}
}

func anys(ids []string) []any {
	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	return values
}

func names[T model.Named](items []T) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		result = append(result, item.GetName())
	}
	return result
}

func mustBelong(entity string, id string, tableID string, actual string) error {
	if tableID != actual {
		return errs.InvalidValue(entity, "[%s] does not belong to table [%s]", id, tableID)
	}
	return nil
}
