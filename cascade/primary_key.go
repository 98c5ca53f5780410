package cascade

import (
	"context"

	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/rdb/query"
	"github.com/hatlonely/schemagraph/sequence"
	"github.com/hatlonely/schemagraph/store"
	"github.com/hatlonely/schemagraph/validate"
	"github.com/pkg/errors"
)

// DeriveColumn 把 pk 列克隆到 fkTableID 作为外键列，追加在末尾，名字冲突时加 _1, _2 后缀
func (c *Coordinator) DeriveColumn(ctx context.Context, tx store.Tx, pk *model.Column, fkTableID string) (*model.Column, error) {
	columns, err := tx.Columns().FindByParent(ctx, fkTableID)
	if err != nil {
		return nil, err
	}
	fk := &model.Column{
		TableID:     fkTableID,
		Name:        UniqueName(c.dialect, pk.Name, names(columns)),
		DataType:    pk.DataType,
		LengthScale: pk.LengthScale,
		SeqNo:       len(columns),
		Charset:     pk.Charset,
		Collation:   pk.Collation,
	}
	fk.ID = c.NewID()
	if err := tx.Columns().Create(ctx, fk); err != nil {
		return nil, errors.WithMessage(err, "create derived column failed")
	}
	return fk, nil
}

// AddPrimaryKeyColumn 把列加入表的主键，pos < 0 表示追加到末尾，表没有主键时创建 pk_<table>
// 每个以该表为 PK 端的关系都派生一个新的外键列和列对，标识关系把新外键列继续并入其所在表的主键
func (c *Coordinator) AddPrimaryKeyColumn(ctx context.Context, tx store.Tx, affected model.AffectedTables, tableID string, columnID string, pos int) error {
	return c.addPrimaryKeyColumn(ctx, tx, affected, tableID, columnID, pos, map[string]struct{}{})
}

func (c *Coordinator) addPrimaryKeyColumn(ctx context.Context, tx store.Tx, affected model.AffectedTables, tableID string, columnID string, pos int, visited map[string]struct{}) error {
	if _, ok := visited[columnID]; ok {
		return nil
	}
	visited[columnID] = struct{}{}

	table, err := tx.Tables().FindByID(ctx, tableID)
	if err != nil {
		return err
	}
	column, err := tx.Columns().FindByID(ctx, columnID)
	if err != nil {
		return err
	}
	if err := mustBelong("column", columnID, tableID, column.TableID); err != nil {
		return err
	}

	defs, err := ConstraintDefs(ctx, tx, tableID)
	if err != nil {
		return err
	}
	pk, ccs, err := PrimaryKey(ctx, tx, tableID)
	if err != nil {
		return err
	}
	for _, cc := range ccs {
		if cc.ColumnID == columnID {
			return nil
		}
	}

	cc := &model.ConstraintColumn{ColumnID: columnID}
	cc.ID = c.NewID()

	if pk == nil {
		taken := make([]string, 0, len(defs))
		for _, d := range defs {
			taken = append(taken, d.Name)
		}
		pk = &model.Constraint{
			TableID: tableID,
			Name:    UniqueName(c.dialect, "pk_"+table.Name, taken),
			Kind:    model.ConstraintPrimaryKey,
		}
		pk.ID = c.NewID()
		def := validate.ConstraintDef{ID: pk.ID, Name: pk.Name, Kind: pk.Kind, ColumnIDs: []string{columnID}}
		if err := validate.ConstraintDefinition(def, defs); err != nil {
			return err
		}
		if err := tx.Constraints().Create(ctx, pk); err != nil {
			return err
		}
	} else {
		if pos < 0 {
			pos = len(ccs)
		}
		order, updates, err := sequence.Plan("constraint column", ccs, sequence.Insert(cc.ID, pos))
		if err != nil {
			return err
		}
		columnOf := map[string]string{cc.ID: columnID}
		for _, existing := range ccs {
			columnOf[existing.ID] = existing.ColumnID
		}
		def := validate.ConstraintDef{ID: pk.ID, Name: pk.Name, Kind: pk.Kind}
		for _, id := range order {
			def.ColumnIDs = append(def.ColumnIDs, columnOf[id])
		}
		if err := validate.ConstraintDefinition(def, defs); err != nil {
			return err
		}
		if err := ApplySeqNos(ctx, tx.ConstraintColumns(), updates); err != nil {
			return err
		}
		cc.SeqNo = pos
	}

	cc.ConstraintID = pk.ID
	if err := tx.ConstraintColumns().Create(ctx, cc); err != nil {
		return err
	}
	affected.Add(tableID)

	rels, err := tx.Relationships().Find(ctx, query.Term("pk_table_id", tableID))
	if err != nil {
		return err
	}
	for _, rel := range rels {
		rcs, err := tx.RelationshipColumns().FindByParent(ctx, rel.ID)
		if err != nil {
			return err
		}
		fk, err := c.DeriveColumn(ctx, tx, column, rel.FKTableID)
		if err != nil {
			return err
		}
		rc := &model.RelationshipColumn{
			RelationshipID: rel.ID,
			PKColumnID:     column.ID,
			FKColumnID:     fk.ID,
			SeqNo:          len(rcs),
		}
		rc.ID = c.NewID()
		if err := tx.RelationshipColumns().Create(ctx, rc); err != nil {
			return err
		}
		affected.Add(rel.FKTableID)

		if rel.Kind == model.RelationshipIdentifying {
			if err := c.addPrimaryKeyColumn(ctx, tx, affected, rel.FKTableID, fk.ID, -1, visited); err != nil {
				return err
			}
		}
	}
	return nil
}
