package cascade

import (
	"context"

	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/rdb/query"
	"github.com/hatlonely/schemagraph/sequence"
	"github.com/hatlonely/schemagraph/store"
	"github.com/pkg/errors"
)

func constraintOf(cc *model.ConstraintColumn) string {
	return cc.ConstraintID
}

func indexOf(ic *model.IndexColumn) string {
	return ic.IndexID
}

func relationshipOf(rc *model.RelationshipColumn) string {
	return rc.RelationshipID
}

// DeleteColumns 删除同一张表的若干列
// 引用这些列的约束列、索引列、关系列（任一端）一并删除，被删空的约束、索引、关系随之删除，其余重新编号
func (c *Coordinator) DeleteColumns(ctx context.Context, tx store.Tx, affected model.AffectedTables, tableID string, columnIDs []string) error {
	if len(columnIDs) == 0 {
		return nil
	}
	affected.Add(tableID)
	ids := anys(columnIDs)

	ccs, err := tx.ConstraintColumns().Find(ctx, query.Terms("column_id", ids...))
	if err != nil {
		return err
	}
	emptied, err := detach(ctx, tx.ConstraintColumns(), constraintOf, ccs)
	if err != nil {
		return errors.WithMessage(err, "detach constraint columns failed")
	}
	if err := tx.Constraints().SoftDelete(ctx, emptied...); err != nil {
		return err
	}

	ics, err := tx.IndexColumns().Find(ctx, query.Terms("column_id", ids...))
	if err != nil {
		return err
	}
	emptied, err = detach(ctx, tx.IndexColumns(), indexOf, ics)
	if err != nil {
		return errors.WithMessage(err, "detach index columns failed")
	}
	if err := tx.Indexes().SoftDelete(ctx, emptied...); err != nil {
		return err
	}

	rcs, err := tx.RelationshipColumns().Find(ctx, &query.BoolQuery{Should: []query.Query{
		query.Terms("fk_column_id", ids...),
		query.Terms("pk_column_id", ids...),
	}})
	if err != nil {
		return err
	}
	if err := c.detachRelationshipColumns(ctx, tx, affected, rcs); err != nil {
		return err
	}

	if err := tx.Columns().SoftDelete(ctx, columnIDs...); err != nil {
		return err
	}
	remaining, err := tx.Columns().FindByParent(ctx, tableID)
	if err != nil {
		return err
	}
	return ApplySeqNos(ctx, tx.Columns(), sequence.Compact(remaining))
}

// detachRelationshipColumns 删除关系列，关系两端的表记为受影响，被删空的关系随之删除
func (c *Coordinator) detachRelationshipColumns(ctx context.Context, tx store.Tx, affected model.AffectedTables, rcs []*model.RelationshipColumn) error {
	if len(rcs) == 0 {
		return nil
	}
	rels, err := tx.Relationships().FindByIDs(ctx, sortedKeys(store.GroupBy(rcs, relationshipOf))...)
	if err != nil {
		return err
	}
	for _, rel := range rels {
		affected.Add(rel.FKTableID, rel.PKTableID)
	}

	emptied, err := detach(ctx, tx.RelationshipColumns(), relationshipOf, rcs)
	if err != nil {
		return errors.WithMessage(err, "detach relationship columns failed")
	}
	return tx.Relationships().SoftDelete(ctx, emptied...)
}

// DeleteTable 删除表：先走列级联，再删除剩余的约束、索引，以及以该表为任一端的关系
// 其他表中的外键列保留
func (c *Coordinator) DeleteTable(ctx context.Context, tx store.Tx, affected model.AffectedTables, tableID string) error {
	if _, err := tx.Tables().FindByID(ctx, tableID); err != nil {
		return err
	}
	affected.Add(tableID)

	columns, err := tx.Columns().FindByParent(ctx, tableID)
	if err != nil {
		return err
	}
	if err := c.DeleteColumns(ctx, tx, affected, tableID, model.IDs(columns)); err != nil {
		return err
	}

	constraints, err := tx.Constraints().FindByParent(ctx, tableID)
	if err != nil {
		return err
	}
	for _, con := range constraints {
		if err := c.DeleteConstraint(ctx, tx, affected, con); err != nil {
			return err
		}
	}

	indexes, err := tx.Indexes().FindByParent(ctx, tableID)
	if err != nil {
		return err
	}
	for _, idx := range indexes {
		if err := c.DeleteIndex(ctx, tx, affected, idx); err != nil {
			return err
		}
	}

	rels, err := tx.Relationships().Find(ctx, &query.BoolQuery{Should: []query.Query{
		query.Term("fk_table_id", tableID),
		query.Term("pk_table_id", tableID),
	}})
	if err != nil {
		return err
	}
	for _, rel := range rels {
		if err := c.DeleteRelationship(ctx, tx, affected, rel); err != nil {
			return err
		}
	}

	return tx.Tables().SoftDelete(ctx, tableID)
}

// DeleteConstraint 删除约束及其列，主键约束会一并删除引用主键列的关系列
func (c *Coordinator) DeleteConstraint(ctx context.Context, tx store.Tx, affected model.AffectedTables, con *model.Constraint) error {
	affected.Add(con.TableID)
	ccs, err := tx.ConstraintColumns().FindByParent(ctx, con.ID)
	if err != nil {
		return err
	}
	if con.Kind == model.ConstraintPrimaryKey {
		if err := c.detachPrimaryKeyColumns(ctx, tx, affected, con.TableID, columnIDsOf(ccs)); err != nil {
			return err
		}
	}
	if err := tx.ConstraintColumns().SoftDelete(ctx, model.IDs(ccs)...); err != nil {
		return err
	}
	return tx.Constraints().SoftDelete(ctx, con.ID)
}

func (c *Coordinator) DeleteIndex(ctx context.Context, tx store.Tx, affected model.AffectedTables, idx *model.Index) error {
	affected.Add(idx.TableID)
	ics, err := tx.IndexColumns().FindByParent(ctx, idx.ID)
	if err != nil {
		return err
	}
	if err := tx.IndexColumns().SoftDelete(ctx, model.IDs(ics)...); err != nil {
		return err
	}
	return tx.Indexes().SoftDelete(ctx, idx.ID)
}

// DeleteRelationship 删除关系及其列对，外键列保留
func (c *Coordinator) DeleteRelationship(ctx context.Context, tx store.Tx, affected model.AffectedTables, rel *model.Relationship) error {
	affected.Add(rel.FKTableID, rel.PKTableID)
	rcs, err := tx.RelationshipColumns().FindByParent(ctx, rel.ID)
	if err != nil {
		return err
	}
	if err := tx.RelationshipColumns().SoftDelete(ctx, model.IDs(rcs)...); err != nil {
		return err
	}
	return tx.Relationships().SoftDelete(ctx, rel.ID)
}

// RemoveConstraintColumn 从约束中移除一列，主键列会级联删除引用它的关系列，最后一列移除时删除约束
func (c *Coordinator) RemoveConstraintColumn(ctx context.Context, tx store.Tx, affected model.AffectedTables, con *model.Constraint, columnID string) error {
	ccs, err := tx.ConstraintColumns().FindByParent(ctx, con.ID)
	if err != nil {
		return err
	}
	var target *model.ConstraintColumn
	for _, cc := range ccs {
		if cc.ColumnID == columnID {
			target = cc
		}
	}
	if target == nil {
		return errs.NotFound("constraint column", columnID)
	}
	affected.Add(con.TableID)

	if con.Kind == model.ConstraintPrimaryKey {
		if err := c.detachPrimaryKeyColumns(ctx, tx, affected, con.TableID, []string{columnID}); err != nil {
			return err
		}
	}

	emptied, err := detach(ctx, tx.ConstraintColumns(), constraintOf, []*model.ConstraintColumn{target})
	if err != nil {
		return err
	}
	return tx.Constraints().SoftDelete(ctx, emptied...)
}

// RemovePrimaryKeyColumn 列不在主键中时什么也不做
func (c *Coordinator) RemovePrimaryKeyColumn(ctx context.Context, tx store.Tx, affected model.AffectedTables, tableID string, columnID string) error {
	pk, ccs, err := PrimaryKey(ctx, tx, tableID)
	if err != nil || pk == nil {
		return err
	}
	for _, cc := range ccs {
		if cc.ColumnID == columnID {
			return c.RemoveConstraintColumn(ctx, tx, affected, pk, columnID)
		}
	}
	return nil
}

// detachPrimaryKeyColumns 删除以这些主键列为 PK 端的关系列
func (c *Coordinator) detachPrimaryKeyColumns(ctx context.Context, tx store.Tx, affected model.AffectedTables, tableID string, columnIDs []string) error {
	if len(columnIDs) == 0 {
		return nil
	}
	rels, err := tx.Relationships().Find(ctx, query.Term("pk_table_id", tableID))
	if err != nil || len(rels) == 0 {
		return err
	}
	rcs, err := tx.RelationshipColumns().Find(ctx, query.And(
		query.Terms("relationship_id", anys(model.IDs(rels))...),
		query.Terms("pk_column_id", anys(columnIDs)...),
	))
	if err != nil {
		return err
	}
	return c.detachRelationshipColumns(ctx, tx, affected, rcs)
}

// RemoveIndexColumn 从索引中移除一列，最后一列移除时删除索引
func (c *Coordinator) RemoveIndexColumn(ctx context.Context, tx store.Tx, affected model.AffectedTables, idx *model.Index, columnID string) error {
	ics, err := tx.IndexColumns().FindByParent(ctx, idx.ID)
	if err != nil {
		return err
	}
	var removed []*model.IndexColumn
	for _, ic := range ics {
		if ic.ColumnID == columnID {
			removed = append(removed, ic)
		}
	}
	if len(removed) == 0 {
		return errs.NotFound("index column", columnID)
	}
	affected.Add(idx.TableID)

	emptied, err := detach(ctx, tx.IndexColumns(), indexOf, removed)
	if err != nil {
		return err
	}
	return tx.Indexes().SoftDelete(ctx, emptied...)
}

// RemoveRelationshipColumn 移除一个列对，最后一个列对移除时删除关系
func (c *Coordinator) RemoveRelationshipColumn(ctx context.Context, tx store.Tx, affected model.AffectedTables, rel *model.Relationship, relationshipColumnID string) error {
	rc, err := tx.RelationshipColumns().FindByID(ctx, relationshipColumnID)
	if err != nil {
		return err
	}
	if rc.RelationshipID != rel.ID {
		return errs.NotFound("relationship column", relationshipColumnID)
	}
	return c.detachRelationshipColumns(ctx, tx, affected, []*model.RelationshipColumn{rc})
}

func columnIDsOf(ccs []*model.ConstraintColumn) []string {
	ids := make([]string, 0, len(ccs))
	for _, cc := range ccs {
		ids = append(ids, cc.ColumnID)
	}
	return ids
}
