package model

import (
	"sort"
	"time"

	"gorm.io/gorm"
)

// Entity 所有实体的公共接口，供通用仓储使用
type Entity interface {
	GetID() string
	SetID(id string)
	TableName() string
	// ParentKey 父实体外键所在的列名
	ParentKey() string
}

// Named 有名字的实体，名字在父实体范围内唯一
type Named interface {
	GetID() string
	GetName() string
}

// Sequenced 在父实体下有序的子实体
type Sequenced interface {
	GetID() string
	GetSeqNo() int
}

// Base 实体公共字段，DeletedAt 非空即为软删除
type Base struct {
	ID        string         `gorm:"column:id;primaryKey;size:64" json:"id"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (b *Base) GetID() string {
	return b.ID
}

func (b *Base) SetID(id string) {
	b.ID = id
}

type Table struct {
	Base
	SchemaID  string `gorm:"column:schema_id;size:64;index" json:"schemaId"`
	Name      string `gorm:"column:name;size:128" json:"name"`
	Charset   string `gorm:"column:charset;size:64" json:"charset,omitempty"`
	Collation string `gorm:"column:collation;size:64" json:"collation,omitempty"`
	Comment   string `gorm:"column:comment;size:1024" json:"comment,omitempty"`
}

func (*Table) TableName() string { return "sg_tables" }
func (e *Table) GetName() string { return e.Name }
func (*Table) ParentKey() string { return "schema_id" }

type Column struct {
	Base
	TableID       string      `gorm:"column:table_id;size:64;index" json:"tableId"`
	Name          string      `gorm:"column:name;size:128" json:"name"`
	DataType      string      `gorm:"column:data_type;size:64" json:"dataType"`
	LengthScale   LengthScale `gorm:"embedded;embeddedPrefix:ls_" json:"lengthScale"`
	SeqNo         int         `gorm:"column:seq_no" json:"seqNo"`
	AutoIncrement bool        `gorm:"column:auto_increment" json:"autoIncrement"`
	Charset       string      `gorm:"column:charset;size:64" json:"charset,omitempty"`
	Collation     string      `gorm:"column:collation;size:64" json:"collation,omitempty"`
	Comment       string      `gorm:"column:comment;size:1024" json:"comment,omitempty"`
}

func (*Column) TableName() string { return "sg_columns" }
func (e *Column) GetName() string { return e.Name }
func (*Column) ParentKey() string { return "table_id" }
func (c *Column) GetSeqNo() int { return c.SeqNo }

type Constraint struct {
	Base
	TableID     string         `gorm:"column:table_id;size:64;index" json:"tableId"`
	Name        string         `gorm:"column:name;size:128" json:"name"`
	Kind        ConstraintKind `gorm:"column:kind;size:32" json:"kind"`
	CheckExpr   string         `gorm:"column:check_expr;size:1024" json:"checkExpr,omitempty"`
	DefaultExpr string         `gorm:"column:default_expr;size:1024" json:"defaultExpr,omitempty"`
}

func (*Constraint) TableName() string { return "sg_constraints" }
func (e *Constraint) GetName() string { return e.Name }
func (*Constraint) ParentKey() string { return "table_id" }

type ConstraintColumn struct {
	Base
	ConstraintID string `gorm:"column:constraint_id;size:64;index" json:"constraintId"`
	ColumnID     string `gorm:"column:column_id;size:64;index" json:"columnId"`
	SeqNo        int    `gorm:"column:seq_no" json:"seqNo"`
}

func (*ConstraintColumn) TableName() string { return "sg_constraint_columns" }
func (*ConstraintColumn) ParentKey() string { return "constraint_id" }
func (c *ConstraintColumn) GetSeqNo() int { return c.SeqNo }

type Index struct {
	Base
	TableID string    `gorm:"column:table_id;size:64;index" json:"tableId"`
	Name    string    `gorm:"column:name;size:128" json:"name"`
	Type    IndexType `gorm:"column:index_type;size:32" json:"type"`
}

func (*Index) TableName() string { return "sg_indexes" }
func (e *Index) GetName() string { return e.Name }
func (*Index) ParentKey() string { return "table_id" }

type IndexColumn struct {
	Base
	IndexID       string        `gorm:"column:index_id;size:64;index" json:"indexId"`
	ColumnID      string        `gorm:"column:column_id;size:64;index" json:"columnId"`
	SeqNo         int           `gorm:"column:seq_no" json:"seqNo"`
	SortDirection SortDirection `gorm:"column:sort_direction;size:8" json:"sortDirection,omitempty"`
}

func (*IndexColumn) TableName() string { return "sg_index_columns" }
func (*IndexColumn) ParentKey() string { return "index_id" }
func (c *IndexColumn) GetSeqNo() int { return c.SeqNo }

// Relationship 外键关系，归属于 FK 表
type Relationship struct {
	Base
	PKTableID   string           `gorm:"column:pk_table_id;size:64;index" json:"pkTableId"`
	FKTableID   string           `gorm:"column:fk_table_id;size:64;index" json:"fkTableId"`
	Name        string           `gorm:"column:name;size:128" json:"name"`
	Kind        RelationshipKind `gorm:"column:kind;size:32" json:"kind"`
	Cardinality Cardinality      `gorm:"column:cardinality;size:32" json:"cardinality"`
	Extra       string           `gorm:"column:extra;size:1024" json:"extra,omitempty"`
}

func (*Relationship) TableName() string { return "sg_relationships" }
func (e *Relationship) GetName() string { return e.Name }
func (*Relationship) ParentKey() string { return "fk_table_id" }

type RelationshipColumn struct {
	Base
	RelationshipID string `gorm:"column:relationship_id;size:64;index" json:"relationshipId"`
	PKColumnID     string `gorm:"column:pk_column_id;size:64;index" json:"pkColumnId"`
	FKColumnID     string `gorm:"column:fk_column_id;size:64;index" json:"fkColumnId"`
	SeqNo          int    `gorm:"column:seq_no" json:"seqNo"`
}

func (*RelationshipColumn) TableName() string { return "sg_relationship_columns" }
func (*RelationshipColumn) ParentKey() string { return "relationship_id" }
func (c *RelationshipColumn) GetSeqNo() int { return c.SeqNo }

// SortBySeqNo 按 SeqNo 升序排序，SeqNo 相同时按 ID 排序
func SortBySeqNo[T Sequenced](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].GetSeqNo() != items[j].GetSeqNo() {
			return items[i].GetSeqNo() < items[j].GetSeqNo()
		}
		return items[i].GetID() < items[j].GetID()
	})
}

// IDs 提取实体 ID 列表
func IDs[T interface{ GetID() string }](items []T) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.GetID())
	}
	return ids
}
