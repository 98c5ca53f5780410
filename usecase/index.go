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

func (s *Service) CreateIndex(ctx context.Context, cmd *CreateIndexCommand) (*Result[*model.Index], error) {
	return execute(ctx, s, "CreateIndex", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) (*model.Index, error) {
		if _, err := tx.Tables().FindByID(ctx, cmd.TableID); err != nil {
			return nil, err
		}
		if err := s.dialect.CheckName("index", cmd.Name); err != nil {
			return nil, err
		}
		siblings, err := tx.Indexes().FindByParent(ctx, cmd.TableID)
		if err != nil {
			return nil, err
		}
		if err := validate.UniqueName(s.dialect, "index", cmd.Name, "", siblings); err != nil {
			return nil, err
		}

		idx := &model.Index{TableID: cmd.TableID, Name: cmd.Name, Type: cmd.Type}
		idx.ID = s.coordinator.NewID()
		def := validate.IndexDef{ID: idx.ID, Name: idx.Name, Type: idx.Type}
		for _, c := range cmd.Columns {
			def.Columns = append(def.Columns, validate.IndexColumnDef{ColumnID: c.ColumnID, SortDirection: c.SortDirection})
		}
		if err := s.checkIndex(ctx, tx, idx.TableID, def); err != nil {
			return nil, err
		}

		if err := tx.Indexes().Create(ctx, idx); err != nil {
			return nil, errors.WithMessage(err, "create index failed")
		}
		for i, c := range def.Columns {
			ic := &model.IndexColumn{IndexID: idx.ID, ColumnID: c.ColumnID, SeqNo: i, SortDirection: c.SortDirection}
			ic.ID = s.coordinator.NewID()
			if err := tx.IndexColumns().Create(ctx, ic); err != nil {
				return nil, errors.WithMessage(err, "create index column failed")
			}
		}
		affected.Add(idx.TableID)
		return idx, nil
	})
}

func (s *Service) ChangeIndexName(ctx context.Context, cmd *ChangeIndexNameCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeIndexName", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		idx, err := tx.Indexes().FindByID(ctx, cmd.IndexID)
		if err != nil {
			return err
		}
		if err := s.dialect.CheckName("index", cmd.Name); err != nil {
			return err
		}
		siblings, err := tx.Indexes().FindByParent(ctx, idx.TableID)
		if err != nil {
			return err
		}
		if err := validate.UniqueName(s.dialect, "index", cmd.Name, idx.ID, siblings); err != nil {
			return err
		}
		if err := tx.Indexes().Update(ctx, idx.ID, map[string]any{"name": cmd.Name}); err != nil {
			return err
		}
		affected.Add(idx.TableID)
		return nil
	})
}

// ChangeIndexType 新类型不允许排序方向时先清除，再按新类型校验列
func (s *Service) ChangeIndexType(ctx context.Context, cmd *ChangeIndexTypeCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeIndexType", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		idx, ics, err := loadIndex(ctx, tx, cmd.IndexID)
		if err != nil {
			return err
		}
		if idx.Type == cmd.Type {
			return nil
		}

		var cleared []string
		def := validate.IndexDef{ID: idx.ID, Name: idx.Name, Type: cmd.Type}
		for _, ic := range ics {
			dir := ic.SortDirection
			if !cmd.Type.AllowsSortDirection() && dir != model.SortNone {
				dir = model.SortNone
				cleared = append(cleared, ic.ID)
			}
			def.Columns = append(def.Columns, validate.IndexColumnDef{ColumnID: ic.ColumnID, SortDirection: dir})
		}
		if err := s.checkIndex(ctx, tx, idx.TableID, def); err != nil {
			return err
		}

		for _, id := range cleared {
			if err := tx.IndexColumns().Update(ctx, id, map[string]any{"sort_direction": string(model.SortNone)}); err != nil {
				return err
			}
		}
		if err := tx.Indexes().Update(ctx, idx.ID, map[string]any{"index_type": string(cmd.Type)}); err != nil {
			return err
		}
		affected.Add(idx.TableID)
		return nil
	})
}

func (s *Service) AddIndexColumn(ctx context.Context, cmd *AddIndexColumnCommand) (*Outcome, error) {
	return s.run(ctx, "AddIndexColumn", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		idx, ics, err := loadIndex(ctx, tx, cmd.IndexID)
		if err != nil {
			return err
		}

		ic := &model.IndexColumn{IndexID: idx.ID, ColumnID: cmd.ColumnID, SeqNo: len(ics), SortDirection: cmd.SortDirection}
		ic.ID = s.coordinator.NewID()
		if cmd.Position != nil {
			ic.SeqNo = *cmd.Position
		}
		order, updates, err := sequence.Plan("index column", ics, sequence.Insert(ic.ID, ic.SeqNo))
		if err != nil {
			return err
		}
		if err := s.checkIndex(ctx, tx, idx.TableID, indexDef(idx, order, append(ics, ic))); err != nil {
			return err
		}

		if err := cascade.ApplySeqNos(ctx, tx.IndexColumns(), updates); err != nil {
			return err
		}
		if err := tx.IndexColumns().Create(ctx, ic); err != nil {
			return errors.WithMessage(err, "create index column failed")
		}
		affected.Add(idx.TableID)
		return nil
	})
}

func (s *Service) ChangeIndexColumnSortDirection(ctx context.Context, cmd *ChangeIndexColumnSortDirectionCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeIndexColumnSortDirection", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		idx, ics, err := loadIndex(ctx, tx, cmd.IndexID)
		if err != nil {
			return err
		}
		target, err := indexColumnOf(ics, cmd.ColumnID)
		if err != nil {
			return err
		}
		if target.SortDirection == cmd.SortDirection {
			return nil
		}

		target.SortDirection = cmd.SortDirection
		if err := s.checkIndex(ctx, tx, idx.TableID, indexDef(idx, model.IDs(ics), ics)); err != nil {
			return err
		}
		if err := tx.IndexColumns().Update(ctx, target.ID, map[string]any{"sort_direction": string(cmd.SortDirection)}); err != nil {
			return err
		}
		affected.Add(idx.TableID)
		return nil
	})
}

func (s *Service) ChangeIndexColumnPosition(ctx context.Context, cmd *ChangeIndexColumnPositionCommand) (*Outcome, error) {
	return s.run(ctx, "ChangeIndexColumnPosition", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		idx, ics, err := loadIndex(ctx, tx, cmd.IndexID)
		if err != nil {
			return err
		}
		target, err := indexColumnOf(ics, cmd.ColumnID)
		if err != nil {
			return err
		}

		order, updates, err := sequence.Plan("index column", ics, sequence.MoveTo(target.ID, cmd.Position))
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := s.checkIndex(ctx, tx, idx.TableID, indexDef(idx, order, ics)); err != nil {
			return err
		}
		if err := cascade.ApplySeqNos(ctx, tx.IndexColumns(), updates); err != nil {
			return err
		}
		affected.Add(idx.TableID)
		return nil
	})
}

// RemoveIndexColumn 最后一列移除时删除索引
func (s *Service) RemoveIndexColumn(ctx context.Context, cmd *RemoveIndexColumnCommand) (*Outcome, error) {
	return s.run(ctx, "RemoveIndexColumn", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		idx, ics, err := loadIndex(ctx, tx, cmd.IndexID)
		if err != nil {
			return err
		}
		var order []string
		for _, ic := range ics {
			if ic.ColumnID != cmd.ColumnID {
				order = append(order, ic.ID)
			}
		}
		if len(order) > 0 && len(order) < len(ics) {
			if err := s.checkIndex(ctx, tx, idx.TableID, indexDef(idx, order, ics)); err != nil {
				return err
			}
		}
		return s.coordinator.RemoveIndexColumn(ctx, tx, affected, idx, cmd.ColumnID)
	})
}

func (s *Service) DeleteIndex(ctx context.Context, cmd *DeleteIndexCommand) (*Outcome, error) {
	return s.run(ctx, "DeleteIndex", cmd, func(ctx context.Context, tx store.Tx, affected model.AffectedTables) error {
		idx, err := tx.Indexes().FindByID(ctx, cmd.IndexID)
		if err != nil {
			return err
		}
		return s.coordinator.DeleteIndex(ctx, tx, affected, idx)
	})
}

func loadIndex(ctx context.Context, tx store.Tx, indexID string) (*model.Index, []*model.IndexColumn, error) {
	idx, err := tx.Indexes().FindByID(ctx, indexID)
	if err != nil {
		return nil, nil, err
	}
	ics, err := tx.IndexColumns().FindByParent(ctx, idx.ID)
	if err != nil {
		return nil, nil, err
	}
	return idx, ics, nil
}

func indexColumnOf(ics []*model.IndexColumn, columnID string) (*model.IndexColumn, error) {
	for _, ic := range ics {
		if ic.ColumnID == columnID {
			return ic, nil
		}
	}
	return nil, errs.NotFound("index column", columnID)
}

// indexDef 按 order 给出的顺序组装索引定义，ics 提供 id 到索引列的映射
func indexDef(idx *model.Index, order []string, ics []*model.IndexColumn) validate.IndexDef {
	byID := store.Index(ics)
	def := validate.IndexDef{ID: idx.ID, Name: idx.Name, Type: idx.Type}
	for _, id := range order {
		ic := byID[id]
		def.Columns = append(def.Columns, validate.IndexColumnDef{ColumnID: ic.ColumnID, SortDirection: ic.SortDirection})
	}
	return def
}

// IndexDefs 加载表上全部索引的定义
func IndexDefs(ctx context.Context, tx store.Tx, tableID string) ([]validate.IndexDef, error) {
	indexes, err := tx.Indexes().FindByParent(ctx, tableID)
	if err != nil {
		return nil, err
	}
	ics, err := tx.IndexColumns().FindByParent(ctx, model.IDs(indexes)...)
	if err != nil {
		return nil, err
	}
	groups := store.GroupBy(ics, func(ic *model.IndexColumn) string { return ic.IndexID })

	defs := make([]validate.IndexDef, 0, len(indexes))
	for _, idx := range indexes {
		columns := groups[idx.ID]
		model.SortBySeqNo(columns)
		defs = append(defs, indexDef(idx, model.IDs(columns), columns))
	}
	return defs, nil
}

// checkIndex 校验索引定义：列属于该表、类型族匹配、定义不与其他索引重复
func (s *Service) checkIndex(ctx context.Context, tx store.Tx, tableID string, def validate.IndexDef) error {
	ids := make([]string, 0, len(def.Columns))
	for _, c := range def.Columns {
		ids = append(ids, c.ColumnID)
	}
	columns, err := tableColumns(ctx, tx, tableID, ids)
	if err != nil {
		return err
	}
	defs, err := IndexDefs(ctx, tx, tableID)
	if err != nil {
		return err
	}
	return s.dialect.IndexDefinition(def, columns, defs)
}
