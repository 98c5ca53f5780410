package usecase

import (
	"context"
	"fmt"

	"github.com/hatlonely/schemagraph/cascade"
	"github.com/hatlonely/schemagraph/graph"
	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/rdb/query"
	"github.com/hatlonely/schemagraph/sequence"
	"github.com/hatlonely/schemagraph/store"
)

type ConstraintSnapshot struct {
	Constraint *model.Constraint         `json:"constraint"`
	Columns    []*model.ConstraintColumn `json:"columns"`
}

type IndexSnapshot struct {
	Index   *model.Index         `json:"index"`
	Columns []*model.IndexColumn `json:"columns"`
}

type RelationshipSnapshot struct {
	Relationship *model.Relationship        `json:"relationship"`
	Columns      []*model.RelationshipColumn `json:"columns"`
}

// TableSnapshot 表及其全部子实体，子实体按 seqNo 排序
// Relationships 为该表作为 FK 端的关系，ReferencedBy 为该表作为 PK 端的关系
type TableSnapshot struct {
	Table         *model.Table           `json:"table"`
	Columns       []*model.Column        `json:"columns"`
	Constraints   []ConstraintSnapshot   `json:"constraints"`
	Indexes       []IndexSnapshot        `json:"indexes"`
	Relationships []RelationshipSnapshot `json:"relationships"`
	ReferencedBy  []RelationshipSnapshot `json:"referencedBy"`
}

// PrimaryKey 主键列，按主键中的顺序
func (t *TableSnapshot) PrimaryKey() []*model.Column {
	byID := store.Index(t.Columns)
	for _, c := range t.Constraints {
		if c.Constraint.Kind != model.ConstraintPrimaryKey {
			continue
		}
		columns := make([]*model.Column, 0, len(c.Columns))
		for _, cc := range c.Columns {
			if column, ok := byID[cc.ColumnID]; ok {
				columns = append(columns, column)
			}
		}
		return columns
	}
	return nil
}

func (s *Service) GetTableSnapshot(ctx context.Context, tableID string) (*TableSnapshot, error) {
	return read(ctx, s, "GetTableSnapshot", func(ctx context.Context, tx store.Tx) (*TableSnapshot, error) {
		return LoadTableSnapshot(ctx, tx, tableID)
	})
}

// LoadTableSnapshot 每类子实体一次批量查询，按父实体分组后组装
func LoadTableSnapshot(ctx context.Context, tx store.Tx, tableID string) (*TableSnapshot, error) {
	table, err := tx.Tables().FindByID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	snapshot := &TableSnapshot{Table: table}

	if snapshot.Columns, err = tx.Columns().FindByParent(ctx, tableID); err != nil {
		return nil, err
	}

	constraints, err := tx.Constraints().FindByParent(ctx, tableID)
	if err != nil {
		return nil, err
	}
	ccs, err := tx.ConstraintColumns().FindByParent(ctx, model.IDs(constraints)...)
	if err != nil {
		return nil, err
	}
	ccGroups := store.GroupBy(ccs, func(cc *model.ConstraintColumn) string { return cc.ConstraintID })
	for _, con := range constraints {
		snapshot.Constraints = append(snapshot.Constraints, ConstraintSnapshot{Constraint: con, Columns: ccGroups[con.ID]})
	}

	indexes, err := tx.Indexes().FindByParent(ctx, tableID)
	if err != nil {
		return nil, err
	}
	ics, err := tx.IndexColumns().FindByParent(ctx, model.IDs(indexes)...)
	if err != nil {
		return nil, err
	}
	icGroups := store.GroupBy(ics, func(ic *model.IndexColumn) string { return ic.IndexID })
	for _, idx := range indexes {
		snapshot.Indexes = append(snapshot.Indexes, IndexSnapshot{Index: idx, Columns: icGroups[idx.ID]})
	}

	rels, err := tx.Relationships().Find(ctx, &query.BoolQuery{Should: []query.Query{
		query.Term("fk_table_id", tableID),
		query.Term("pk_table_id", tableID),
	}})
	if err != nil {
		return nil, err
	}
	rcs, err := tx.RelationshipColumns().FindByParent(ctx, model.IDs(rels)...)
	if err != nil {
		return nil, err
	}
	rcGroups := store.GroupBy(rcs, func(rc *model.RelationshipColumn) string { return rc.RelationshipID })
	for _, rel := range rels {
		rs := RelationshipSnapshot{Relationship: rel, Columns: rcGroups[rel.ID]}
		if rel.FKTableID == tableID {
			snapshot.Relationships = append(snapshot.Relationships, rs)
		}
		if rel.PKTableID == tableID {
			snapshot.ReferencedBy = append(snapshot.ReferencedBy, rs)
		}
	}
	return snapshot, nil
}

// Problem 一致性检查发现的问题
type Problem struct {
	Entity  string `json:"entity"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// SchemaReport Cycle 非空表示标识关系成环，Dependents 为每张表经标识关系链依赖它的表
type SchemaReport struct {
	SchemaID   string              `json:"schemaId"`
	TableIDs   []string            `json:"tableIds"`
	Cycle      []string            `json:"cycle,omitempty"`
	Dependents map[string][]string `json:"dependents,omitempty"`
	Problems   []Problem           `json:"problems,omitempty"`
}

func (r *SchemaReport) OK() bool {
	return len(r.Cycle) == 0 && len(r.Problems) == 0
}

func (r *SchemaReport) addf(entity string, id string, format string, args ...any) {
	r.Problems = append(r.Problems, Problem{Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)})
}

// CheckSchema 检查整个 schema：标识关系无环、seqNo 连续、子实体引用的列存在且属于正确的表
func (s *Service) CheckSchema(ctx context.Context, schemaID string) (*SchemaReport, error) {
	return read(ctx, s, "CheckSchema", func(ctx context.Context, tx store.Tx) (*SchemaReport, error) {
		return s.checkSchema(ctx, tx, schemaID)
	})
}

func (s *Service) checkSchema(ctx context.Context, tx store.Tx, schemaID string) (*SchemaReport, error) {
	report := &SchemaReport{SchemaID: schemaID}

	tables, err := tx.Tables().FindByParent(ctx, schemaID)
	if err != nil {
		return nil, err
	}
	report.TableIDs = model.IDs(tables)
	tableIDs := report.TableIDs

	columns, err := tx.Columns().FindByParent(ctx, tableIDs...)
	if err != nil {
		return nil, err
	}
	columnByID := store.Index(columns)
	for tableID, group := range store.GroupBy(columns, func(c *model.Column) string { return c.TableID }) {
		checkSeqNos(report, "table", tableID, group)
	}

	constraints, err := tx.Constraints().FindByParent(ctx, tableIDs...)
	if err != nil {
		return nil, err
	}
	ccs, err := tx.ConstraintColumns().FindByParent(ctx, model.IDs(constraints)...)
	if err != nil {
		return nil, err
	}
	ccGroups := store.GroupBy(ccs, func(cc *model.ConstraintColumn) string { return cc.ConstraintID })
	primaryKeys := map[string]int{}
	for _, con := range constraints {
		group := ccGroups[con.ID]
		if len(group) == 0 {
			report.addf("constraint", con.ID, "constraint [%s] has no column", con.Name)
		}
		checkSeqNos(report, "constraint", con.ID, group)
		for _, cc := range group {
			checkColumn(report, "constraint column", cc.ID, columnByID, cc.ColumnID, con.TableID)
		}
		if con.Kind == model.ConstraintPrimaryKey {
			primaryKeys[con.TableID]++
		}
	}
	for tableID, n := range primaryKeys {
		if n > 1 {
			report.addf("table", tableID, "table has %d primary keys", n)
		}
	}

	indexes, err := tx.Indexes().FindByParent(ctx, tableIDs...)
	if err != nil {
		return nil, err
	}
	ics, err := tx.IndexColumns().FindByParent(ctx, model.IDs(indexes)...)
	if err != nil {
		return nil, err
	}
	icGroups := store.GroupBy(ics, func(ic *model.IndexColumn) string { return ic.IndexID })
	for _, idx := range indexes {
		group := icGroups[idx.ID]
		if len(group) == 0 {
			report.addf("index", idx.ID, "index [%s] has no column", idx.Name)
		}
		checkSeqNos(report, "index", idx.ID, group)
		for _, ic := range group {
			checkColumn(report, "index column", ic.ID, columnByID, ic.ColumnID, idx.TableID)
		}
	}

	rels, err := cascade.SchemaRelationships(ctx, tx, schemaID)
	if err != nil {
		return nil, err
	}
	rcs, err := tx.RelationshipColumns().FindByParent(ctx, model.IDs(rels)...)
	if err != nil {
		return nil, err
	}
	rcGroups := store.GroupBy(rcs, func(rc *model.RelationshipColumn) string { return rc.RelationshipID })
	for _, rel := range rels {
		group := rcGroups[rel.ID]
		if len(group) == 0 {
			report.addf("relationship", rel.ID, "relationship [%s] has no column", rel.Name)
		}
		checkSeqNos(report, "relationship", rel.ID, group)
		for _, rc := range group {
			pkOK := checkColumn(report, "relationship column", rc.ID, columnByID, rc.PKColumnID, rel.PKTableID)
			fkOK := checkColumn(report, "relationship column", rc.ID, columnByID, rc.FKColumnID, rel.FKTableID)
			if !pkOK || !fkOK {
				continue
			}
			pk, fk := columnByID[rc.PKColumnID], columnByID[rc.FKColumnID]
			if pk.DataType != fk.DataType || pk.LengthScale != fk.LengthScale {
				report.addf("relationship column", rc.ID, "fk column [%s] %s%s differs from pk column [%s] %s%s",
					fk.Name, fk.DataType, fk.LengthScale, pk.Name, pk.DataType, pk.LengthScale)
			}
		}
	}

	report.Cycle = graph.FindCycle(rels)
	for _, tableID := range tableIDs {
		if dependents := graph.Dependents(rels, tableID); len(dependents) > 0 {
			if report.Dependents == nil {
				report.Dependents = map[string][]string{}
			}
			report.Dependents[tableID] = dependents
		}
	}
	return report, nil
}

func checkSeqNos[T model.Sequenced](report *SchemaReport, entity string, parentID string, children []T) {
	seqNos := make([]int, 0, len(children))
	for _, c := range children {
		seqNos = append(seqNos, c.GetSeqNo())
	}
	if err := sequence.Check(entity, seqNos); err != nil {
		report.addf(entity, parentID, "%s", err.Error())
	}
}

// checkColumn 列存在且属于 tableID
func checkColumn(report *SchemaReport, entity string, id string, columns map[string]*model.Column, columnID string, tableID string) bool {
	column, ok := columns[columnID]
	if !ok {
		report.addf(entity, id, "column [%s] not found in schema", columnID)
		return false
	}
	if column.TableID != tableID {
		report.addf(entity, id, "column [%s] does not belong to table [%s]", columnID, tableID)
		return false
	}
	return true
}
