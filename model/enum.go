package model

type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "PRIMARY_KEY"
	ConstraintUnique     ConstraintKind = "UNIQUE"
	ConstraintCheck      ConstraintKind = "CHECK"
	ConstraintDefault    ConstraintKind = "DEFAULT"
)

func (k ConstraintKind) Valid() bool {
	switch k {
	case ConstraintPrimaryKey, ConstraintUnique, ConstraintCheck, ConstraintDefault:
		return true
	}
	return false
}

type IndexType string

const (
	IndexBTree    IndexType = "BTREE"
	IndexHash     IndexType = "HASH"
	IndexFullText IndexType = "FULLTEXT"
	IndexSpatial  IndexType = "SPATIAL"
)

func (t IndexType) Valid() bool {
	switch t {
	case IndexBTree, IndexHash, IndexFullText, IndexSpatial:
		return true
	}
	return false
}

// AllowsSortDirection FULLTEXT 和 SPATIAL 索引不允许指定排序方向
func (t IndexType) AllowsSortDirection() bool {
	return t == IndexBTree || t == IndexHash
}

type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

func (d SortDirection) Valid() bool {
	return d == SortNone || d == SortAsc || d == SortDesc
}

type RelationshipKind string

const (
	RelationshipIdentifying    RelationshipKind = "IDENTIFYING"
	RelationshipNonIdentifying RelationshipKind = "NON_IDENTIFYING"
)

func (k RelationshipKind) Valid() bool {
	return k == RelationshipIdentifying || k == RelationshipNonIdentifying
}

type Cardinality string

const (
	CardinalityOneToOne        Cardinality = "ONE_TO_ONE"
	CardinalityOneToZeroOrOne  Cardinality = "ONE_TO_ZERO_OR_ONE"
	CardinalityOneToMany       Cardinality = "ONE_TO_MANY"
	CardinalityOneToZeroOrMany Cardinality = "ONE_TO_ZERO_OR_MANY"
)

func (c Cardinality) Valid() bool {
	switch c {
	case CardinalityOneToOne, CardinalityOneToZeroOrOne, CardinalityOneToMany, CardinalityOneToZeroOrMany:
		return true
	}
	return false
}
