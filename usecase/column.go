package usecase

import (
	"context"

	"github.com/hatlonely/schemagraph/cascade"
	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/sequence"
	"github.com/hatlonely/schemagraph/store"
	"github.com/hatlonely/schemagraph/validate"
	"github.com/pkg/errors"
)

func (s *Service) CreateColumn(ctx context.Context, cmd *CreateColumnCommand) (*Result[*model.Column], error) {
	return execute(ctx, s, "CreateColumn", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) (*model.Column, error) {
		if _, err := tx.Tables().FindByID(ctx, cmd.TableID); err != nil {
			return nil, err
		}
		siblings, err := tx.Columns().FindByParent(ctx, cmd.TableID)
		if err != nil {
			return nil, err
		}

		if err := s.dialect.CheckName("column", cmd.Name); err != nil {
			return nil, err
		}
		if err := validate.UniqueName(s.dialect, "column", cmd.Name, "", siblings); err != nil {
			return nil, err
		}
		dataType, ls, err := s.dialect.DataType(cmd.DataType, cmd.LengthScale)
		if err != nil {
			return nil, err
		}
		if err := s.dialect.CharsetCollation(dataType, cmd.Charset, cmd.Collation); err != nil {
			return nil, err
		}

		column := &model.Column{
			TableID:       cmd.TableID,
			Name:          cmd.Name,
			DataType:      dataType,
			LengthScale:   ls,
			AutoIncrement: cmd.AutoIncrement,
			Charset:       cmd.Charset,
			Collation:     cmd.Collation,
			Comment:       cmd.Comment,
		}
		column.ID = s.coordinator.NewID()
		if err := s.dialect.AutoIncrement(column, siblings); err != nil {
			return nil, err
		}

		pos := len(siblings)
		if cmd.Position != nil {
			pos = *cmd.Position
		}
		_, updates, err := sequence.Plan("column", siblings, sequence.Insert(column.ID, pos))
		if err != nil {
			return nil, err
		}
		if err := cascade.ApplySeqNos(ctx, tx.Columns(), updates); err != nil {
			return nil, err
		}
		column.SeqNo = pos

		if err := tx.Columns().Create(ctx, column); err != nil {
			return nil, errors.WithMessage(err, "create column failed")
		}
		affected.Add(column.TableID)
		return column, nil
	})
}

func (s *Service) ChangeColumnName(ctx context.Context, cmd *ChangeColumnNameCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeColumnName", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		column, err := tx.Columns().FindByID(ctx, cmd.ColumnID)
		if err != nil {
			return err
		}
		if err := s.dialect.CheckName("column", cmd.Name); err != nil {
			return err
		}
		siblings, err := tx.Columns().FindByParent(ctx, column.TableID)
		if err != nil {
			return err
		}
		if err := validate.UniqueName(s.dialect, "column", cmd.Name, column.ID, siblings); err != nil {
			return err
		}
		if err := tx.Columns().Update(ctx, column.ID, map[string]any{"name": cmd.Name}); err != nil {
			return err
		}
		affected.Add(column.TableID)
		return nil
	})
}

// ChangeColumnType 外键列不允许直接修改，主键列的新类型沿关系传播到外键列
func (s *Service) ChangeColumnType(ctx context.Context, cmd *ChangeColumnTypeCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeColumnType", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		column, err := tx.Columns().FindByID(ctx, cmd.ColumnID)
		if err != nil {
			return err
		}
		return s.coordinator.ChangeColumnType(ctx, tx, affected, column, cmd.DataType, cmd.LengthScale)
	})
}

func (s *Service) ChangeColumnMeta(ctx context.Context, cmd *ChangeColumnMetaCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeColumnMeta", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		column, err := tx.Columns().FindByID(ctx, cmd.ColumnID)
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if cmd.AutoIncrement != nil {
			column.AutoIncrement = *cmd.AutoIncrement
			fields["auto_increment"] = column.AutoIncrement
		}
		if cmd.Charset != nil {
			column.Charset = *cmd.Charset
			fields["charset"] = column.Charset
		}
		if cmd.Collation != nil {
			column.Collation = *cmd.Collation
			fields["collation"] = column.Collation
		}
		if cmd.Comment != nil {
			column.Comment = *cmd.Comment
			fields["comment"] = column.Comment
		}
		if len(fields) == 0 {
			return nil
		}

		if err := s.dialect.CharsetCollation(column.DataType, column.Charset, column.Collation); err != nil {
			return err
		}
		if cmd.AutoIncrement != nil {
			siblings, err := tx.Columns().FindByParent(ctx, column.TableID)
			if err != nil {
				return err
			}
			if err := s.dialect.AutoIncrement(column, siblings); err != nil {
				return err
			}
		}

		if err := tx.Columns().Update(ctx, column.ID, fields); err != nil {
			return err
		}
		affected.Add(column.TableID)
		return nil
	})
}

func (s *Service) ChangeColumnPosition(ctx context.Context, cmd *ChangeColumnPositionCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeColumnPosition", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		column, err := tx.Columns().FindByID(ctx, cmd.ColumnID)
		if err != nil {
			return err
		}
		siblings, err := tx.Columns().FindByParent(ctx, column.TableID)
		if err != nil {
			return err
		}
		_, updates, err := sequence.Plan("column", siblings, sequence.MoveTo(column.ID, cmd.Position))
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := cascade.ApplySeqNos(ctx, tx.Columns(), updates); err != nil {
			return err
		}
		affected.Add(column.TableID)
		return nil
	})
}

// DeleteColumn 引用该列的约束列、索引列、关系列一并删除，被删空的约束、索引、关系随之删除
func (s *Service) DeleteColumn(ctx context.Context, cmd *DeleteColumnCommand) (*Outcome, error) {
	return s.run(ctx, "DeleteColumn", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		column, err := tx.Columns().FindByID(ctx, cmd.ColumnID)
		if err != nil {
			return err
		}
		return s.coordinator.DeleteColumns(ctx, tx, affected, column.TableID, []string{column.ID})
	})
}
