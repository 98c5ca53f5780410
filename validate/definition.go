package validate

import (
	"strings"

	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/model"
)

// ConstraintDef 约束及其有序列，用于定义级别的校验
type ConstraintDef struct {
	ID          string
	Name        string
	Kind        model.ConstraintKind
	ColumnIDs   []string
	CheckExpr   string
	DefaultExpr string
}

// ConstraintDefinition 校验约束定义
// PRIMARY_KEY 与 UNIQUE 在同一有序列集上互斥，CHECK 与 DEFAULT 只和同类比较
func ConstraintDefinition(def ConstraintDef, existing []ConstraintDef) error {
	if !def.Kind.Valid() {
		return errs.InvalidValue("constraint", "unknown constraint kind [%s]", def.Kind)
	}
	if len(def.ColumnIDs) == 0 {
		return errs.InvalidValue("constraint", "constraint [%s] has no column", def.Name)
	}
	if dup := firstDuplicate(def.ColumnIDs); dup != "" {
		return errs.InvalidValue("constraint", "column [%s] appears twice in constraint [%s]", dup, def.Name)
	}

	switch def.Kind {
	case model.ConstraintCheck:
		if strings.TrimSpace(def.CheckExpr) == "" {
			return errs.InvalidValue("constraint", "CHECK constraint [%s] requires checkExpr", def.Name)
		}
	case model.ConstraintDefault:
		if strings.TrimSpace(def.DefaultExpr) == "" {
			return errs.InvalidValue("constraint", "DEFAULT constraint [%s] requires defaultExpr", def.Name)
		}
		if len(def.ColumnIDs) != 1 {
			return errs.InvalidValue("constraint", "DEFAULT constraint [%s] applies to exactly one column", def.Name)
		}
	}

	for _, e := range existing {
		if e.ID == def.ID {
			continue
		}
		if def.Kind == model.ConstraintPrimaryKey && e.Kind == model.ConstraintPrimaryKey {
			return errs.InvalidValue("constraint", "table already has primary key [%s]", e.Name)
		}
		if !sameKindGroup(def.Kind, e.Kind) {
			continue
		}
		if equalStrings(def.ColumnIDs, e.ColumnIDs) {
			return errs.DefinitionDuplicate("constraint", e.Name)
		}
	}
	return nil
}

func sameKindGroup(a, b model.ConstraintKind) bool {
	if a == b {
		return true
	}
	key := func(k model.ConstraintKind) bool {
		return k == model.ConstraintPrimaryKey || k == model.ConstraintUnique
	}
	return key(a) && key(b)
}

// IndexColumnDef 索引列
type IndexColumnDef struct {
	ColumnID      string
	SortDirection model.SortDirection
}

// IndexDef 索引及其有序列
type IndexDef struct {
	ID      string
	Name    string
	Type    model.IndexType
	Columns []IndexColumnDef
}

// IndexDefinition 校验索引定义，columns 为表中列，用于类型族检查
func (d *Dialect) IndexDefinition(def IndexDef, columns map[string]*model.Column, existing []IndexDef) error {
	if !def.Type.Valid() {
		return errs.InvalidValue("index", "unknown index type [%s]", def.Type)
	}
	if len(def.Columns) == 0 {
		return errs.InvalidValue("index", "index [%s] has no column", def.Name)
	}

	ids := make([]string, 0, len(def.Columns))
	for _, c := range def.Columns {
		ids = append(ids, c.ColumnID)
		if err := SortDirection(def.Type, c.SortDirection); err != nil {
			return err
		}
		column, ok := columns[c.ColumnID]
		if !ok {
			return errs.NotFound("column", c.ColumnID)
		}
		if def.Type == model.IndexFullText && !d.IsText(column.DataType) {
			return errs.InvalidValue("index", "FULLTEXT index requires text column, [%s] is %s", column.Name, column.DataType)
		}
		if def.Type == model.IndexSpatial && !d.IsSpatial(column.DataType) {
			return errs.InvalidValue("index", "SPATIAL index requires spatial column, [%s] is %s", column.Name, column.DataType)
		}
	}
	if dup := firstDuplicate(ids); dup != "" {
		return errs.InvalidValue("index", "column [%s] appears twice in index [%s]", dup, def.Name)
	}

	for _, e := range existing {
		if e.ID == def.ID || e.Type != def.Type || len(e.Columns) != len(def.Columns) {
			continue
		}
		same := true
		for i := range e.Columns {
			if e.Columns[i] != def.Columns[i] {
				same = false
				break
			}
		}
		if same {
			return errs.DefinitionDuplicate("index", e.Name)
		}
	}
	return nil
}

// SortDirection FULLTEXT 和 SPATIAL 不允许排序方向
func SortDirection(indexType model.IndexType, dir model.SortDirection) error {
	if !dir.Valid() {
		return errs.InvalidValue("index column", "unknown sort direction [%s]", dir)
	}
	if dir != model.SortNone && !indexType.AllowsSortDirection() {
		return errs.InvalidValue("index column", "%s index does not accept sort direction", indexType)
	}
	return nil
}

// Relationship 校验关系类型与基数
func Relationship(kind model.RelationshipKind, cardinality model.Cardinality) error {
	if !kind.Valid() {
		return errs.InvalidValue("relationship", "unknown relationship kind [%s]", kind)
	}
	if !cardinality.Valid() {
		return errs.InvalidValue("relationship", "unknown cardinality [%s]", cardinality)
	}
	return nil
}

// RelationshipColumn 校验列对归属于关系两端的表，且在关系内不重复
func RelationshipColumn(rel *model.Relationship, pk *model.Column, fk *model.Column, existing []*model.RelationshipColumn) error {
	if pk.TableID != rel.PKTableID {
		return errs.InvalidValue("relationship column", "pk column [%s] does not belong to table [%s]", pk.ID, rel.PKTableID)
	}
	if fk.TableID != rel.FKTableID {
		return errs.InvalidValue("relationship column", "fk column [%s] does not belong to table [%s]", fk.ID, rel.FKTableID)
	}
	if pk.ID == fk.ID {
		return errs.InvalidValue("relationship column", "column [%s] cannot reference itself", pk.ID)
	}
	for _, e := range existing {
		if e.PKColumnID == pk.ID {
			return errs.InvalidValue("relationship column", "pk column [%s] already paired in relationship [%s]", pk.ID, rel.Name)
		}
		if e.FKColumnID == fk.ID {
			return errs.InvalidValue("relationship column", "fk column [%s] already paired in relationship [%s]", fk.ID, rel.Name)
		}
	}
	return nil
}

func firstDuplicate(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return ""
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
