package usecase

import "github.com/hatlonely/schemagraph/model"

type CreateTableCommand struct {
	SchemaID  string `json:"schemaId" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Charset   string `json:"charset"`
	Collation string `json:"collation"`
	Comment   string `json:"comment" validate:"max=1024"`
}

type ChangeTableNameCommand struct {
	TableID string `json:"tableId" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

type DeleteTableCommand struct {
	TableID string `json:"tableId" validate:"required"`
}

// CreateColumnCommand Position 为空时追加到末尾
type CreateColumnCommand struct {
	TableID       string            `json:"tableId" validate:"required"`
	Name          string            `json:"name" validate:"required"`
	DataType      string            `json:"dataType" validate:"required"`
	LengthScale   model.LengthScale `json:"lengthScale"`
	AutoIncrement bool              `json:"autoIncrement"`
	Charset       string            `json:"charset"`
	Collation     string            `json:"collation"`
	Comment       string            `json:"comment" validate:"max=1024"`
	Position      *int              `json:"position" validate:"omitempty,min=0"`
}

type ChangeColumnNameCommand struct {
	ColumnID string `json:"columnId" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type ChangeColumnTypeCommand struct {
	ColumnID    string            `json:"columnId" validate:"required"`
	DataType    string            `json:"dataType" validate:"required"`
	LengthScale model.LengthScale `json:"lengthScale"`
}

// ChangeColumnMetaCommand 只修改非空字段
type ChangeColumnMetaCommand struct {
	ColumnID      string  `json:"columnId" validate:"required"`
	AutoIncrement *bool   `json:"autoIncrement"`
	Charset       *string `json:"charset"`
	Collation     *string `json:"collation"`
	Comment       *string `json:"comment" validate:"omitempty,max=1024"`
}

type ChangeColumnPositionCommand struct {
	ColumnID string `json:"columnId" validate:"required"`
	Position int    `json:"position" validate:"min=0"`
}

type DeleteColumnCommand struct {
	ColumnID string `json:"columnId" validate:"required"`
}

type CreateConstraintCommand struct {
	TableID     string               `json:"tableId" validate:"required"`
	Name        string               `json:"name" validate:"required"`
	Kind        model.ConstraintKind `json:"kind" validate:"required"`
	ColumnIDs   []string             `json:"columnIds" validate:"required,min=1,dive,required"`
	CheckExpr   string               `json:"checkExpr" validate:"max=1024"`
	DefaultExpr string               `json:"defaultExpr" validate:"max=1024"`
}

type ChangeConstraintNameCommand struct {
	ConstraintID string `json:"constraintId" validate:"required"`
	Name         string `json:"name" validate:"required"`
}

// AddConstraintColumnCommand Position 为空时追加到末尾
type AddConstraintColumnCommand struct {
	ConstraintID string `json:"constraintId" validate:"required"`
	ColumnID     string `json:"columnId" validate:"required"`
	Position     *int   `json:"position" validate:"omitempty,min=0"`
}

type RemoveConstraintColumnCommand struct {
	ConstraintID string `json:"constraintId" validate:"required"`
	ColumnID     string `json:"columnId" validate:"required"`
}

type ChangeConstraintColumnPositionCommand struct {
	ConstraintID string `json:"constraintId" validate:"required"`
	ColumnID     string `json:"columnId" validate:"required"`
	Position     int    `json:"position" validate:"min=0"`
}

type DeleteConstraintCommand struct {
	ConstraintID string `json:"constraintId" validate:"required"`
}

type IndexColumnCommand struct {
	ColumnID      string              `json:"columnId" validate:"required"`
	SortDirection model.SortDirection `json:"sortDirection"`
}

type CreateIndexCommand struct {
	TableID string               `json:"tableId" validate:"required"`
	Name    string               `json:"name" validate:"required"`
	Type    model.IndexType      `json:"type" validate:"required"`
	Columns []IndexColumnCommand `json:"columns" validate:"required,min=1,dive"`
}

type ChangeIndexNameCommand struct {
	IndexID string `json:"indexId" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

// ChangeIndexTypeCommand 改为 FULLTEXT 或 SPATIAL 时清除列的排序方向
type ChangeIndexTypeCommand struct {
	IndexID string          `json:"indexId" validate:"required"`
	Type    model.IndexType `json:"type" validate:"required"`
}

type AddIndexColumnCommand struct {
	IndexID       string              `json:"indexId" validate:"required"`
	ColumnID      string              `json:"columnId" validate:"required"`
	SortDirection model.SortDirection `json:"sortDirection"`
	Position      *int                `json:"position" validate:"omitempty,min=0"`
}

type ChangeIndexColumnSortDirectionCommand struct {
	IndexID       string              `json:"indexId" validate:"required"`
	ColumnID      string              `json:"columnId" validate:"required"`
	SortDirection model.SortDirection `json:"sortDirection"`
}

type ChangeIndexColumnPositionCommand struct {
	IndexID  string `json:"indexId" validate:"required"`
	ColumnID string `json:"columnId" validate:"required"`
	Position int    `json:"position" validate:"min=0"`
}

type RemoveIndexColumnCommand struct {
	IndexID  string `json:"indexId" validate:"required"`
	ColumnID string `json:"columnId" validate:"required"`
}

type DeleteIndexCommand struct {
	IndexID string `json:"indexId" validate:"required"`
}

type RelationshipColumnCommand struct {
	PKColumnID string `json:"pkColumnId" validate:"required"`
	FKColumnID string `json:"fkColumnId" validate:"required"`
}

// CreateRelationshipCommand Columns 为空时从 PK 表主键派生外键列，Name 为空时自动命名
type CreateRelationshipCommand struct {
	FKTableID   string                      `json:"fkTableId" validate:"required"`
	PKTableID   string                      `json:"pkTableId" validate:"required"`
	Name        string                      `json:"name"`
	Kind        model.RelationshipKind      `json:"kind" validate:"required"`
	Cardinality model.Cardinality           `json:"cardinality" validate:"required"`
	Extra       string                      `json:"extra" validate:"max=1024"`
	Columns     []RelationshipColumnCommand `json:"columns" validate:"dive"`
}

type ChangeRelationshipNameCommand struct {
	RelationshipID string `json:"relationshipId" validate:"required"`
	Name           string `json:"name" validate:"required"`
}

type ChangeRelationshipKindCommand struct {
	RelationshipID string                 `json:"relationshipId" validate:"required"`
	Kind           model.RelationshipKind `json:"kind" validate:"required"`
}

type ChangeRelationshipCardinalityCommand struct {
	RelationshipID string            `json:"relationshipId" validate:"required"`
	Cardinality    model.Cardinality `json:"cardinality" validate:"required"`
}

type ChangeRelationshipExtraCommand struct {
	RelationshipID string `json:"relationshipId" validate:"required"`
	Extra          string `json:"extra" validate:"max=1024"`
}

type AddRelationshipColumnCommand struct {
	RelationshipID string `json:"relationshipId" validate:"required"`
	PKColumnID     string `json:"pkColumnId" validate:"required"`
	FKColumnID     string `json:"fkColumnId" validate:"required"`
}

type RemoveRelationshipColumnCommand struct {
	RelationshipID       string `json:"relationshipId" validate:"required"`
	RelationshipColumnID string `json:"relationshipColumnId" validate:"required"`
}

type DeleteRelationshipCommand struct {
	RelationshipID string `json:"relationshipId" validate:"required"`
}
