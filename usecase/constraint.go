package usecase

import (
	"context"

	"github.com/hatlonely/schemagraph/cascade"
	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/sequence"
	"github.com/hatlonely/schemagraph/store"
	"github.com/hatlonely/schemagraph/validate"
	"github.com/pkg/errors"
)

// CreateConstraint 主键由给定的列直接组成，不派生外键列
func (s *Service) CreateConstraint(ctx context.Context, cmd *CreateConstraintCommand) (*Result[*model.Constraint], error) {
	return execute(ctx, s, "CreateConstraint", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) (*model.Constraint, error) {
		if _, err := tx.Tables().FindByID(ctx, cmd.TableID); err != nil {
			return nil, err
		}
		if err := s.dialect.CheckName("constraint", cmd.Name); err != nil {
			return nil, err
		}
		siblings, err := tx.Constraints().FindByParent(ctx, cmd.TableID)
		if err != nil {
			return nil, err
		}
		if err := validate.UniqueName(s.dialect, "constraint", cmd.Name, "", siblings); err != nil {
			return nil, err
		}
		if _, err := tableColumns(ctx, tx, cmd.TableID, cmd.ColumnIDs); err != nil {
			return nil, err
		}

		con := &model.Constraint{
			TableID:     cmd.TableID,
			Name:        cmd.Name,
			Kind:        cmd.Kind,
			CheckExpr:   cmd.CheckExpr,
			DefaultExpr: cmd.DefaultExpr,
		}
		con.ID = s.coordinator.NewID()

		defs, err := cascade.ConstraintDefs(ctx, tx, cmd.TableID)
		if err != nil {
			return nil, err
		}
		def := validate.ConstraintDef{
			ID:          con.ID,
			Name:        con.Name,
			Kind:        con.Kind,
			ColumnIDs:   cmd.ColumnIDs,
			CheckExpr:   con.CheckExpr,
			DefaultExpr: con.DefaultExpr,
		}
		if err := validate.ConstraintDefinition(def, defs); err != nil {
			return nil, err
		}

		if err := tx.Constraints().Create(ctx, con); err != nil {
			return nil, errors.WithMessage(err, "create constraint failed")
		}
		for i, columnID := range cmd.ColumnIDs {
			cc := &model.ConstraintColumn{ConstraintID: con.ID, ColumnID: columnID, SeqNo: i}
			cc.ID = s.coordinator.NewID()
			if err := tx.ConstraintColumns().Create(ctx, cc); err != nil {
				return nil, errors.WithMessage(err, "create constraint column failed")
			}
		}
		affected.Add(con.TableID)
		return con, nil
	})
}

func (s *Service) ChangeConstraintName(ctx context.Context, cmd *ChangeConstraintNameCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeConstraintName", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		con, err := tx.Constraints().FindByID(ctx, cmd.ConstraintID)
		if err != nil {
			return err
		}
		if err := s.dialect.CheckName("constraint", cmd.Name); err != nil {
			return err
		}
		siblings, err := tx.Constraints().FindByParent(ctx, con.TableID)
		if err != nil {
			return err
		}
		if err := validate.UniqueName(s.dialect, "constraint", cmd.Name, con.ID, siblings); err != nil {
			return err
		}
		if err := tx.Constraints().Update(ctx, con.ID, map[string]any{"name": cmd.Name}); err != nil {
			return err
		}
		affected.Add(con.TableID)
		return nil
	})
}

// AddConstraintColumn 主键列的加入会为每个依赖该表的关系派生外键列
func (s *Service) AddConstraintColumn(ctx context.Context, cmd *AddConstraintColumnCommand) (*Outcome, error) {
	return s.run(ctx, "AddConstraintColumn", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		con, ccs, err := loadConstraint(ctx, tx, cmd.ConstraintID)
		if err != nil {
			return err
		}
		if _, err := tableColumns(ctx, tx, con.TableID, []string{cmd.ColumnID}); err != nil {
			return err
		}
		for _, cc := range ccs {
			if cc.ColumnID == cmd.ColumnID {
				return errs.InvalidValue("constraint column", "column [%s] already in constraint [%s]", cmd.ColumnID, con.Name)
			}
		}

		if con.Kind == model.ConstraintPrimaryKey {
			pos := -1
			if cmd.Position != nil {
				pos = *cmd.Position
			}
			return s.coordinator.AddPrimaryKeyColumn(ctx, tx, affected, con.TableID, cmd.ColumnID, pos)
		}

		cc := &model.ConstraintColumn{ConstraintID: con.ID, ColumnID: cmd.ColumnID, SeqNo: len(ccs)}
		cc.ID = s.coordinator.NewID()
		if cmd.Position != nil {
			cc.SeqNo = *cmd.Position
		}
		order, updates, err := sequence.Plan("constraint column", ccs, sequence.Insert(cc.ID, cc.SeqNo))
		if err != nil {
			return err
		}
		if err := s.checkConstraint(ctx, tx, con, order, append(ccs, cc)); err != nil {
			return err
		}
		if err := cascade.ApplySeqNos(ctx, tx.ConstraintColumns(), updates); err != nil {
			return err
		}
		if err := tx.ConstraintColumns().Create(ctx, cc); err != nil {
			return errors.WithMessage(err, "create constraint column failed")
		}
		affected.Add(con.TableID)
		return nil
	})
}

// RemoveConstraintColumn 移除主键列会删除引用它的关系列，最后一列移除时删除约束
func (s *Service) RemoveConstraintColumn(ctx context.Context, cmd *RemoveConstraintColumnCommand) (*Outcome, error) {
	return s.run(ctx, "RemoveConstraintColumn", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		con, ccs, err := loadConstraint(ctx, tx, cmd.ConstraintID)
		if err != nil {
			return err
		}
		var order []string
		for _, cc := range ccs {
			if cc.ColumnID != cmd.ColumnID {
				order = append(order, cc.ID)
			}
		}
		if len(order) > 0 && len(order) < len(ccs) {
			if err := s.checkConstraint(ctx, tx, con, order, ccs); err != nil {
				return err
			}
		}
		return s.coordinator.RemoveConstraintColumn(ctx, tx, affected, con, cmd.ColumnID)
	})
}

func (s *Service) ChangeConstraintColumnPosition(ctx context.Context, cmd *ChangeConstraintColumnPositionCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeConstraintColumnPosition", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		con, ccs, err := loadConstraint(ctx, tx, cmd.ConstraintID)
		if err != nil {
			return err
		}
		var target *model.ConstraintColumn
		for _, cc := range ccs {
			if cc.ColumnID == cmd.ColumnID {
				target = cc
			}
		}
		if target == nil {
			return errs.NotFound("constraint column", cmd.ColumnID)
		}

		order, updates, err := sequence.Plan("constraint column", ccs, sequence.MoveTo(target.ID, cmd.Position))
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := s.checkConstraint(ctx, tx, con, order, ccs); err != nil {
			return err
		}
		if err := cascade.ApplySeqNos(ctx, tx.ConstraintColumns(), updates); err != nil {
			return err
		}
		affected.Add(con.TableID)
		return nil
	})
}

// DeleteConstraint 删除主键会一并删除引用主键列的关系列，外键列保留
func (s *Service) DeleteConstraint(ctx context.Context, cmd *DeleteConstraintCommand) (*Outcome, error) {
	return s.run(ctx, "DeleteConstraint", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		con, err := tx.Constraints().FindByID(ctx, cmd.ConstraintID)
		if err != nil {
			return err
		}
		return s.coordinator.DeleteConstraint(ctx, tx, affected, con)
	})
}

func loadConstraint(ctx context.Context, tx store.Tx, constraintID string) (*model.Constraint, []*model.ConstraintColumn, error) {
	con, err := tx.Constraints().FindByID(ctx, constraintID)
	if err != nil {
		return nil, nil, err
	}
	ccs, err := tx.ConstraintColumns().FindByParent(ctx, con.ID)
	if err != nil {
		return nil, nil, err
	}
	return con, ccs, nil
}

// checkConstraint 按 order 给出的新顺序校验约束定义，ccs 提供 id 到列的映射
func (s *Service) checkConstraint(ctx context.Context, tx store.Tx, con *model.Constraint, order []string, ccs []*model.ConstraintColumn) error {
	byID := store.Index(ccs)
	def := cascade.ToConstraintDef(con, nil)
	for _, id := range order {
		def.ColumnIDs = append(def.ColumnIDs, byID[id].ColumnID)
	}
	defs, err := cascade.ConstraintDefs(ctx, tx, con.TableID)
	if err != nil {
		return err
	}
	return validate.ConstraintDefinition(def, defs)
}

// tableColumns 加载列并确认都属于 tableID
func tableColumns(ctx context.Context, tx store.Tx, tableID string, columnIDs []string) (map[string]*model.Column, error) {
	columns, err := tx.Columns().FindByIDs(ctx, columnIDs...)
	if err != nil {
		return nil, err
	}
	byID := store.Index(columns)
	for _, id := range columnIDs {
		column, ok := byID[id]
		if !ok {
			return nil, errs.NotFound("column", id)
		}
		if column.TableID != tableID {
			return nil, errs.InvalidValue("column", "[%s] does not belong to table [%s]", id, tableID)
		}
	}
	return byID, nil
}
