package usecase

import (
	"context"

	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/store"
	"github.com/hatlonely/schemagraph/validate"
	"github.com/pkg/errors"
)

// CreateTable 表名在 schema 内唯一，schema 本身不做存在性校验
func (s *Service) CreateTable(ctx context.Context, cmd *CreateTableCommand) (*Result[*model.Table], error) {
	return execute(ctx, s, "CreateTable", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) (*model.Table, error) {
		if err := s.dialect.CheckName("table", cmd.Name); err != nil {
			return nil, err
		}
		if err := s.dialect.TableCharsetCollation(cmd.Charset, cmd.Collation); err != nil {
			return nil, err
		}
		siblings, err := tx.Tables().FindByParent(ctx, cmd.SchemaID)
		if err != nil {
			return nil, err
		}
		if err := validate.UniqueName(s.dialect, "table", cmd.Name, "", siblings); err != nil {
			return nil, err
		}

		table := &model.Table{
			SchemaID:  cmd.SchemaID,
			Name:      cmd.Name,
			Charset:   cmd.Charset,
			Collation: cmd.Collation,
			Comment:   cmd.Comment,
		}
		table.ID = s.coordinator.NewID()
		if err := tx.Tables().Create(ctx, table); err != nil {
			return nil, errors.WithMessage(err, "create table failed")
		}
		affected.Add(table.ID)
		return table, nil
	})
}

func (s *Service) ChangeTableName(ctx context.Context, cmd *ChangeTableNameCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeTableName", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		table, err := tx.Tables().FindByID(ctx, cmd.TableID)
		if err != nil {
			return err
		}
		if err := s.dialect.CheckName("table", cmd.Name); err != nil {
			return err
		}
		siblings, err := tx.Tables().FindByParent(ctx, table.SchemaID)
		if err != nil {
			return err
		}
		if err := validate.UniqueName(s.dialect, "table", cmd.Name, table.ID, siblings); err != nil {
			return err
		}
		if err := tx.Tables().Update(ctx, table.ID, map[string]any{"name": cmd.Name}); err != nil {
			return err
		}
		affected.Add(table.ID)
		return nil
	})
}

// DeleteTable 删除表及其全部列、约束、索引，以及以该表为任一端的关系
func (s *Service) DeleteTable(ctx context.Context, cmd *DeleteTableCommand) (*Outcome, error) {
	return s.run(ctx, "DeleteTable", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		return s.coordinator.DeleteTable(ctx, tx, affected, cmd.TableID)
	})
}
