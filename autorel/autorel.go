package autorel

import (
	"context"

	"github.com/hatlonely/schemagraph/cascade"
	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/graph"
	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/store"
	"github.com/hatlonely/schemagraph/validate"
	"github.com/pkg/errors"
)

// Request 新建关系的参数，Name 为空时自动生成
type Request struct {
	FKTableID   string
	PKTableID   string
	Kind        model.RelationshipKind
	Cardinality model.Cardinality
	Name        string
	Extra       string
}

// Pair 显式指定的列对
type Pair struct {
	PKColumnID string
	FKColumnID string
}

// Result 新建的关系及其有序列对
type Result struct {
	Relationship *model.Relationship        `json:"relationship"`
	Columns      []*model.RelationshipColumn `json:"columns"`
}

// Builder 创建关系：自动从主键派生外键列，或使用显式列对
type Builder struct {
	coordinator *cascade.Coordinator
}

func NewBuilder(coordinator *cascade.Coordinator) *Builder {
	return &Builder{coordinator: coordinator}
}

// Build 按 PK 表主键的列顺序，在 FK 表中派生外键列
// 标识关系先做环检测，再把派生列并入 FK 表的主键
func (b *Builder) Build(ctx context.Context, tx store.Tx, affected model.AffectedTables, req Request) (*Result, error) {
	rel, pkTable, err := b.prepare(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	pk, ccs, err := cascade.PrimaryKey(ctx, tx, req.PKTableID)
	if err != nil {
		return nil, err
	}
	if pk == nil {
		return nil, errs.InvalidValue("relationship", "table [%s] has no primary key", pkTable.Name)
	}
	pkColumns, err := orderedColumns(ctx, tx, ccs)
	if err != nil {
		return nil, err
	}

	if err := tx.Relationships().Create(ctx, rel); err != nil {
		return nil, errors.WithMessage(err, "create relationship failed")
	}
	affected.Add(rel.FKTableID, rel.PKTableID)

	result := &Result{Relationship: rel}
	fkColumns := make([]*model.Column, 0, len(pkColumns))
	for i, pkColumn := range pkColumns {
		fk, err := b.coordinator.DeriveColumn(ctx, tx, pkColumn, rel.FKTableID)
		if err != nil {
			return nil, err
		}
		rc, err := b.createPair(ctx, tx, rel, pkColumn.ID, fk.ID, i)
		if err != nil {
			return nil, err
		}
		fkColumns = append(fkColumns, fk)
		result.Columns = append(result.Columns, rc)
	}

	if err := b.fold(ctx, tx, affected, rel, fkColumns); err != nil {
		return nil, err
	}
	return result, nil
}

// BuildExplicit 使用调用方给定的列对，外键列类型跟随主键列
func (b *Builder) BuildExplicit(ctx context.Context, tx store.Tx, affected model.AffectedTables, req Request, pairs []Pair) (*Result, error) {
	rel, _, err := b.prepare(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	columnIDs := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		columnIDs = append(columnIDs, p.PKColumnID, p.FKColumnID)
	}
	columns, err := tx.Columns().FindByIDs(ctx, columnIDs...)
	if err != nil {
		return nil, err
	}
	byID := store.Index(columns)

	var existing []*model.RelationshipColumn
	for i, p := range pairs {
		pkColumn, ok := byID[p.PKColumnID]
		if !ok {
			return nil, errs.NotFound("column", p.PKColumnID)
		}
		fkColumn, ok := byID[p.FKColumnID]
		if !ok {
			return nil, errs.NotFound("column", p.FKColumnID)
		}
		if err := validate.RelationshipColumn(rel, pkColumn, fkColumn, existing); err != nil {
			return nil, err
		}
		existing = append(existing, &model.RelationshipColumn{PKColumnID: p.PKColumnID, FKColumnID: p.FKColumnID, SeqNo: i})
	}

	if err := tx.Relationships().Create(ctx, rel); err != nil {
		return nil, errors.WithMessage(err, "create relationship failed")
	}
	affected.Add(rel.FKTableID, rel.PKTableID)

	result := &Result{Relationship: rel}
	fkColumns := make([]*model.Column, 0, len(pairs))
	for i, p := range pairs {
		rc, err := b.createPair(ctx, tx, rel, p.PKColumnID, p.FKColumnID, i)
		if err != nil {
			return nil, err
		}
		if err := b.coordinator.CoerceForeignKey(ctx, tx, affected, byID[p.PKColumnID], byID[p.FKColumnID]); err != nil {
			return nil, err
		}
		fkColumns = append(fkColumns, byID[p.FKColumnID])
		result.Columns = append(result.Columns, rc)
	}

	if err := b.fold(ctx, tx, affected, rel, fkColumns); err != nil {
		return nil, err
	}
	return result, nil
}

// prepare 校验参数并在任何写入之前完成环检测，返回待创建的关系
func (b *Builder) prepare(ctx context.Context, tx store.Tx, req Request) (*model.Relationship, *model.Table, error) {
	if err := validate.Relationship(req.Kind, req.Cardinality); err != nil {
		return nil, nil, err
	}
	fkTable, err := tx.Tables().FindByID(ctx, req.FKTableID)
	if err != nil {
		return nil, nil, err
	}
	pkTable, err := tx.Tables().FindByID(ctx, req.PKTableID)
	if err != nil {
		return nil, nil, err
	}
	if fkTable.SchemaID != pkTable.SchemaID {
		return nil, nil, errs.InvalidValue("relationship", "tables [%s] and [%s] belong to different schemas", fkTable.Name, pkTable.Name)
	}

	if req.Kind == model.RelationshipIdentifying {
		if err := CheckCycle(ctx, tx, fkTable.SchemaID, graph.Change{
			FKTableID: req.FKTableID,
			PKTableID: req.PKTableID,
			Kind:      req.Kind,
		}); err != nil {
			return nil, nil, err
		}
	}

	siblings, err := tx.Relationships().FindByParent(ctx, req.FKTableID)
	if err != nil {
		return nil, nil, err
	}
	d := b.coordinator.Dialect()
	name := req.Name
	if name == "" {
		taken := make([]string, 0, len(siblings))
		for _, s := range siblings {
			taken = append(taken, s.Name)
		}
		name = cascade.UniqueName(d, "rel_"+fkTable.Name+"_to_"+pkTable.Name, taken)
	} else {
		if err := d.CheckName("relationship", name); err != nil {
			return nil, nil, err
		}
		if err := validate.UniqueName(d, "relationship", name, "", siblings); err != nil {
			return nil, nil, err
		}
	}

	rel := &model.Relationship{
		PKTableID:   req.PKTableID,
		FKTableID:   req.FKTableID,
		Name:        name,
		Kind:        req.Kind,
		Cardinality: req.Cardinality,
		Extra:       req.Extra,
	}
	rel.ID = b.coordinator.NewID()
	return rel, pkTable, nil
}

func (b *Builder) createPair(ctx context.Context, tx store.Tx, rel *model.Relationship, pkColumnID, fkColumnID string, seqNo int) (*model.RelationshipColumn, error) {
	rc := &model.RelationshipColumn{
		RelationshipID: rel.ID,
		PKColumnID:     pkColumnID,
		FKColumnID:     fkColumnID,
		SeqNo:          seqNo,
	}
	rc.ID = b.coordinator.NewID()
	if err := tx.RelationshipColumns().Create(ctx, rc); err != nil {
		return nil, errors.WithMessage(err, "create relationship column failed")
	}
	return rc, nil
}

// fold 标识关系把外键列并入 FK 表主键，更深的标识链随之继承
func (b *Builder) fold(ctx context.Context, tx store.Tx, affected model.AffectedTables, rel *model.Relationship, fkColumns []*model.Column) error {
	if rel.Kind != model.RelationshipIdentifying {
		return nil
	}
	for _, fk := range fkColumns {
		if err := b.coordinator.AddPrimaryKeyColumn(ctx, tx, affected, rel.FKTableID, fk.ID, -1); err != nil {
			return err
		}
	}
	return nil
}

// CheckCycle 在 schema 的全部关系上检查 change 是否引入标识关系环
func CheckCycle(ctx context.Context, tx store.Tx, schemaID string, change graph.Change) error {
	rels, err := cascade.SchemaRelationships(ctx, tx, schemaID)
	if err != nil {
		return err
	}
	if path := graph.WouldCycle(rels, change); path != nil {
		return errs.CyclicReference(path)
	}
	return nil
}

func orderedColumns(ctx context.Context, tx store.Tx, ccs []*model.ConstraintColumn) ([]*model.Column, error) {
	ids := make([]string, 0, len(ccs))
	for _, cc := range ccs {
		ids = append(ids, cc.ColumnID)
	}
	columns, err := tx.Columns().FindByIDs(ctx, ids...)
	if err != nil {
		return nil, err
	}
	byID := store.Index(columns)

	ordered := make([]*model.Column, 0, len(ids))
	for _, id := range ids {
		column, ok := byID[id]
		if !ok {
			return nil, errs.NotFound("column", id)
		}
		ordered = append(ordered, column)
	}
	return ordered, nil
}
