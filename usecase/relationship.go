package usecase

import (
	"context"

	"github.com/hatlonely/schemagraph/autorel"
	"github.com/hatlonely/schemagraph/graph"
	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/store"
	"github.com/hatlonely/schemagraph/validate"
	"github.com/pkg/errors"
)

// CreateRelationship 没有给出列对时从 PK 表的主键派生外键列
// 标识关系先做环检测，外键列随后并入 FK 表的主键
func (s *Service) CreateRelationship(ctx context.Context, cmd *CreateRelationshipCommand) (*Result[*autorel.Result], error) {
	return execute(ctx, s, "CreateRelationship", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) (*autorel.Result, error) {
		req := autorel.Request{
			FKTableID:   cmd.FKTableID,
			PKTableID:   cmd.PKTableID,
			Kind:        cmd.Kind,
			Cardinality: cmd.Cardinality,
			Name:        cmd.Name,
			Extra:       cmd.Extra,
		}
		if len(cmd.Columns) == 0 {
			return s.builder.Build(ctx, tx, affected, req)
		}
		pairs := make([]autorel.Pair, 0, len(cmd.Columns))
		for _, c := range cmd.Columns {
			pairs = append(pairs, autorel.Pair{PKColumnID: c.PKColumnID, FKColumnID: c.FKColumnID})
		}
		return s.builder.BuildExplicit(ctx, tx, affected, req, pairs)
	})
}

func (s *Service) ChangeRelationshipName(ctx context.Context, cmd *ChangeRelationshipNameCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeRelationshipName", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		rel, err := tx.Relationships().FindByID(ctx, cmd.RelationshipID)
		if err != nil {
			return err
		}
		if err := s.dialect.CheckName("relationship", cmd.Name); err != nil {
			return err
		}
		siblings, err := tx.Relationships().FindByParent(ctx, rel.FKTableID)
		if err != nil {
			return err
		}
		if err := validate.UniqueName(s.dialect, "relationship", cmd.Name, rel.ID, siblings); err != nil {
			return err
		}
		return updateRelationship(ctx, tx, affected, rel, map[string]any{"name": cmd.Name})
	})
}

// ChangeRelationshipKind 改为标识关系时先做环检测，再把外键列并入 FK 表主键
// 改为非标识关系时把外键列移出 FK 表主键
func (s *Service) ChangeRelationshipKind(ctx context.Context, cmd *ChangeRelationshipKindCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeRelationshipKind", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		rel, rcs, err := loadRelationship(ctx, tx, cmd.RelationshipID)
		if err != nil {
			return err
		}
		if err := validate.Relationship(cmd.Kind, rel.Cardinality); err != nil {
			return err
		}
		if rel.Kind == cmd.Kind {
			return nil
		}

		if cmd.Kind == model.RelationshipIdentifying {
			fkTable, err := tx.Tables().FindByID(ctx, rel.FKTableID)
			if err != nil {
				return err
			}
			if err := autorel.CheckCycle(ctx, tx, fkTable.SchemaID, graph.Change{
				RelationshipID: rel.ID,
				FKTableID:      rel.FKTableID,
				PKTableID:      rel.PKTableID,
				Kind:           cmd.Kind,
			}); err != nil {
				return err
			}
		}

		if err := updateRelationship(ctx, tx, affected, rel, map[string]any{"kind": string(cmd.Kind)}); err != nil {
			return err
		}
		for _, rc := range rcs {
			if cmd.Kind == model.RelationshipIdentifying {
				err = s.coordinator.AddPrimaryKeyColumn(ctx, tx, affected, rel.FKTableID, rc.FKColumnID, -1)
			} else {
				err = s.coordinator.RemovePrimaryKeyColumn(ctx, tx, affected, rel.FKTableID, rc.FKColumnID)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) ChangeRelationshipCardinality(ctx context.Context, cmd *ChangeRelationshipCardinalityCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeRelationshipCardinality", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		rel, err := tx.Relationships().FindByID(ctx, cmd.RelationshipID)
		if err != nil {
			return err
		}
		if err := validate.Relationship(rel.Kind, cmd.Cardinality); err != nil {
			return err
		}
		return updateRelationship(ctx, tx, affected, rel, map[string]any{"cardinality": string(cmd.Cardinality)})
	})
}

func (s *Service) ChangeRelationshipExtra(ctx context.Context, cmd *ChangeRelationshipExtraCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeRelationshipExtra", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		rel, err := tx.Relationships().FindByID(ctx, cmd.RelationshipID)
		if err != nil {
			return err
		}
		return updateRelationship(ctx, tx, affected, rel, map[string]any{"extra": cmd.Extra})
	})
}

// AddRelationshipColumn 追加一个列对，外键列类型跟随主键列，标识关系的外键列并入 FK 表主键
func (s *Service) AddRelationshipColumn(ctx context.Context, cmd *AddRelationshipColumnCommand) (*Outcome, error) {
	return s.run(ctx, "AddRelationshipColumn", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		rel, rcs, err := loadRelationship(ctx, tx, cmd.RelationshipID)
		if err != nil {
			return err
		}
		pk, err := tx.Columns().FindByID(ctx, cmd.PKColumnID)
		if err != nil {
			return err
		}
		fk, err := tx.Columns().FindByID(ctx, cmd.FKColumnID)
		if err != nil {
			return err
		}
		if err := validate.RelationshipColumn(rel, pk, fk, rcs); err != nil {
			return err
		}

		rc := &model.RelationshipColumn{
			RelationshipID: rel.ID,
			PKColumnID:     pk.ID,
			FKColumnID:     fk.ID,
			SeqNo:          len(rcs),
		}
		rc.ID = s.coordinator.NewID()
		if err := tx.RelationshipColumns().Create(ctx, rc); err != nil {
			return errors.WithMessage(err, "create relationship column failed")
		}
		affected.Add(rel.FKTableID, rel.PKTableID)

		if err := s.coordinator.CoerceForeignKey(ctx, tx, affected, pk, fk); err != nil {
			return err
		}
		if rel.Kind == model.RelationshipIdentifying {
			return s.coordinator.AddPrimaryKeyColumn(ctx, tx, affected, rel.FKTableID, fk.ID, -1)
		}
		return nil
	})
}

// RemoveRelationshipColumn 外键列保留，最后一个列对移除时删除关系
func (s *Service) RemoveRelationshipColumn(ctx context.Context, cmd *RemoveRelationshipColumnCommand) (*Outcome, error) {
	return s.run(ctx, "RemoveRelationshipColumn", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		rel, err := tx.Relationships().FindByID(ctx, cmd.RelationshipID)
		if err != nil {
			return err
		}
		return s.coordinator.RemoveRelationshipColumn(ctx, tx, affected, rel, cmd.RelationshipColumnID)
	})
}

// DeleteRelationship 外键列保留
func (s *Service) DeleteRelationship(ctx context.Context, cmd *DeleteRelationshipCommand) (*Outcome, error) {
	return s.run(ctx, "DeleteRelationship", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		rel, err := tx.Relationships().FindByID(ctx, cmd.RelationshipID)
		if err != nil {
			return err
		}
		return s.coordinator.DeleteRelationship(ctx, tx, affected, rel)
	})
}

func loadRelationship(ctx context.Context, tx store.Tx, relationshipID string) (*model.Relationship, []*model.RelationshipColumn, error) {
	rel, err := tx.Relationships().FindByID(ctx, relationshipID)
	if err != nil {
		return nil, nil, err
	}
	rcs, err := tx.RelationshipColumns().FindByParent(ctx, rel.ID)
	if err != nil {
		return nil, nil, err
	}
	return rel, rcs, nil
}

func updateRelationship(ctx context.Context, tx store.Tx, affected model.AffectedTables, rel *model.Relationship, fields map[string]any) error {
	if err := tx.Relationships().Update(ctx, rel.ID, fields); err != nil {
		return err
	}
	affected.Add(rel.FKTableID, rel.PKTableID)
	return nil
}
