package cascade

import (
	"context"

	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/rdb/query"
	"github.com/hatlonely/schemagraph/store"
)

// ColumnTypeFields 列类型相关的更新字段，非文本类型清空字符集和排序规则，非整数类型取消自增
func (c *Coordinator) ColumnTypeFields(column *model.Column, dataType string, ls model.LengthScale) map[string]any {
	column.DataType = dataType
	column.LengthScale = ls
	fields := map[string]any{
		"data_type":    dataType,
		"ls_kind":      string(ls.Kind),
		"ls_length":    ls.Length,
		"ls_precision": ls.Precision,
		"ls_scale":     ls.Scale,
	}
	if !c.dialect.IsText(dataType) {
		column.Charset, column.Collation = "", ""
		fields["charset"], fields["collation"] = "", ""
	}
	if column.AutoIncrement && !c.dialect.IsInteger(dataType) {
		column.AutoIncrement = false
		fields["auto_increment"] = false
	}
	return fields
}

// IsForeignKeyColumn 列是否为某个关系列的 FK 端
func IsForeignKeyColumn(ctx context.Context, tx store.Tx, columnID string) (bool, error) {
	return tx.RelationshipColumns().Exists(ctx, query.Term("fk_column_id", columnID))
}

// ChangeColumnType 修改列类型，外键列不允许直接修改
// 列在主键中时，把新类型传播到所有以该表为 PK 端的关系中配对的外键列，外键列若又在其所在表的主键中则继续传播
func (c *Coordinator) ChangeColumnType(ctx context.Context, tx store.Tx, affected model.AffectedTables, column *model.Column, dataType string, ls model.LengthScale) error {
	isFK, err := IsForeignKeyColumn(ctx, tx, column.ID)
	if err != nil {
		return err
	}
	if isFK {
		return errs.ForeignKeyProtected(column.ID)
	}

	canonical, ls, err := c.dialect.DataType(dataType, ls)
	if err != nil {
		return err
	}
	if column.AutoIncrement && !c.dialect.IsInteger(canonical) {
		return errs.InvalidValue("column", "auto increment column [%s] requires an integer type, got [%s]", column.Name, canonical)
	}

	if err := tx.Columns().Update(ctx, column.ID, c.ColumnTypeFields(column, canonical, ls)); err != nil {
		return err
	}
	affected.Add(column.TableID)

	return c.propagateType(ctx, tx, affected, column, map[string]struct{}{})
}

func (c *Coordinator) propagateType(ctx context.Context, tx store.Tx, affected model.AffectedTables, column *model.Column, visited map[string]struct{}) error {
	if _, ok := visited[column.ID]; ok {
		return nil
	}
	visited[column.ID] = struct{}{}

	inPK, err := InPrimaryKey(ctx, tx, column.TableID, column.ID)
	if err != nil || !inPK {
		return err
	}

	rels, err := tx.Relationships().Find(ctx, query.Term("pk_table_id", column.TableID))
	if err != nil || len(rels) == 0 {
		return err
	}
	rcs, err := tx.RelationshipColumns().Find(ctx, query.And(
		query.Terms("relationship_id", anys(model.IDs(rels))...),
		query.Term("pk_column_id", column.ID),
	))
	if err != nil || len(rcs) == 0 {
		return err
	}

	fkIDs := make([]string, 0, len(rcs))
	for _, rc := range rcs {
		fkIDs = append(fkIDs, rc.FKColumnID)
	}
	fkColumns, err := tx.Columns().FindByIDs(ctx, fkIDs...)
	if err != nil {
		return err
	}

	for _, fk := range fkColumns {
		if _, ok := visited[fk.ID]; ok {
			continue
		}
		if err := tx.Columns().Update(ctx, fk.ID, c.ColumnTypeFields(fk, column.DataType, column.LengthScale)); err != nil {
			return err
		}
		affected.Add(fk.TableID)
		if err := c.propagateType(ctx, tx, affected, fk, visited); err != nil {
			return err
		}
	}
	return nil
}

// InPrimaryKey 列是否在其所在表的主键中
func InPrimaryKey(ctx context.Context, tx store.Tx, tableID string, columnID string) (bool, error) {
	pk, ccs, err := PrimaryKey(ctx, tx, tableID)
	if err != nil || pk == nil {
		return false, err
	}
	for _, cc := range ccs {
		if cc.ColumnID == columnID {
			return true, nil
		}
	}
	return false, nil
}

// CoerceForeignKey 外键列的类型跟随主键列，并继续向下传播
func (c *Coordinator) CoerceForeignKey(ctx context.Context, tx store.Tx, affected model.AffectedTables, pk *model.Column, fk *model.Column) error {
	if fk.DataType != pk.DataType || fk.LengthScale != pk.LengthScale {
		if err := tx.Columns().Update(ctx, fk.ID, c.ColumnTypeFields(fk, pk.DataType, pk.LengthScale)); err != nil {
			return err
		}
		affected.Add(fk.TableID)
	}
	return c.propagateType(ctx, tx, affected, fk, map[string]struct{}{pk.ID: {}})
}
