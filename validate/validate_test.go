package validate

import (
	"testing"

	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func column(id, name, dataType string) *model.Column {
	c := &model.Column{Name: name, DataType: dataType}
	c.ID = id
	return c
}

func TestCheckName(t *testing.T) {
	d := MySQL()
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"simple", "user_id", true},
		{"leading underscore", "_tmp", true},
		{"dollar", "price$", true},
		{"empty", "", false},
		{"blank", "   ", false},
		{"digit first", "1abc", false},
		{"space inside", "user id", false},
		{"keyword", "select", false},
		{"keyword upper", "ORDER", false},
		{"too long", "a1234567890123456789012345678901234567890123456789012345678901234", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.CheckName("column", tt.input)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, errs.ErrInvalidValue), "got %v", err)
			}
		})
	}

	assert.NoError(t, PostgreSQL().CheckName("column", "key"))
	assert.Error(t, PostgreSQL().CheckName("column", "user"))

	// 厂商名字段与名字校验方法互不冲突
	for _, name := range []string{"", "mysql", "postgres"} {
		d, err := DialectByName(name)
		require.NoError(t, err)
		assert.NotEmpty(t, d.Name)
		assert.NoError(t, d.CheckName("table", "orders"))
	}
}

func TestUniqueName(t *testing.T) {
	siblings := []*model.Column{column("c1", "id", "INT"), column("c2", "Name", "VARCHAR")}

	assert.NoError(t, UniqueName(MySQL(), "column", "email", "", siblings))
	assert.True(t, errors.Is(UniqueName(MySQL(), "column", "name", "", siblings), errs.ErrNameDuplicate))
	assert.NoError(t, UniqueName(MySQL(), "column", "NAME", "c2", siblings))
	assert.NoError(t, UniqueName(PostgreSQL(), "column", "name", "", siblings))
}

func TestDataType(t *testing.T) {
	d := MySQL()
	tests := []struct {
		name      string
		dataType  string
		ls        model.LengthScale
		canonical string
		ok        bool
	}{
		{"varchar with length", "varchar", model.Length(255), "VARCHAR", true},
		{"varchar without length", "VARCHAR", model.NoLengthScale(), "", false},
		{"varchar zero length", "VARCHAR", model.Length(0), "", false},
		{"varchar too long", "VARCHAR", model.Length(70000), "", false},
		{"decimal", "DECIMAL", model.PrecisionScale(10, 2), "DECIMAL", true},
		{"decimal without precision", "DECIMAL", model.NoLengthScale(), "", false},
		{"decimal scale above precision", "DECIMAL", model.PrecisionScale(5, 6), "", false},
		{"int", "int", model.NoLengthScale(), "INT", true},
		{"int with precision", "INT", model.PrecisionScale(10, 2), "", false},
		{"int with length", "BIGINT", model.Length(20), "", false},
		{"char optional", "CHAR", model.NoLengthScale(), "CHAR", true},
		{"datetime fsp", "DATETIME", model.Length(6), "DATETIME", true},
		{"datetime fsp too big", "DATETIME", model.Length(7), "", false},
		{"unknown", "MONEY", model.NoLengthScale(), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical, _, err := d.DataType(tt.dataType, tt.ls)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.canonical, canonical)
			} else {
				assert.True(t, errors.Is(err, errs.ErrInvalidValue), "got %v", err)
			}
		})
	}

	_, _, err := PostgreSQL().DataType("varchar", model.NoLengthScale())
	assert.NoError(t, err)
}

func TestAutoIncrement(t *testing.T) {
	d := MySQL()
	id := column("c1", "id", "BIGINT")
	id.AutoIncrement = true
	name := column("c2", "name", "VARCHAR")

	assert.NoError(t, d.AutoIncrement(id, []*model.Column{id, name}))

	name.AutoIncrement = true
	assert.True(t, errors.Is(d.AutoIncrement(name, nil), errs.ErrInvalidValue))

	other := column("c3", "seq", "INT")
	other.AutoIncrement = true
	assert.True(t, errors.Is(d.AutoIncrement(other, []*model.Column{id}), errs.ErrInvalidValue))
}

func TestCharsetCollation(t *testing.T) {
	d := MySQL()
	assert.NoError(t, d.CharsetCollation("INT", "", ""))
	assert.NoError(t, d.CharsetCollation("VARCHAR", "utf8mb4", "utf8mb4_bin"))
	assert.NoError(t, d.CharsetCollation("TEXT", "", "utf8mb4_general_ci"))
	assert.Error(t, d.CharsetCollation("INT", "utf8mb4", ""))
	assert.Error(t, d.CharsetCollation("VARCHAR", "utf8mb4", "latin1_bin"))
	assert.Error(t, d.CharsetCollation("VARCHAR", "klingon", ""))
	assert.Error(t, PostgreSQL().CharsetCollation("TEXT", "utf8", ""))
	assert.NoError(t, PostgreSQL().CharsetCollation("TEXT", "", "C"))
}

func TestConstraintDefinition(t *testing.T) {
	pk := ConstraintDef{ID: "k1", Name: "pk_user", Kind: model.ConstraintPrimaryKey, ColumnIDs: []string{"a", "b"}}
	existing := []ConstraintDef{pk}

	tests := []struct {
		name string
		def  ConstraintDef
		err  error
	}{
		{"unique on other columns", ConstraintDef{Name: "uk", Kind: model.ConstraintUnique, ColumnIDs: []string{"c"}}, nil},
		{"unique in other order", ConstraintDef{Name: "uk", Kind: model.ConstraintUnique, ColumnIDs: []string{"b", "a"}}, nil},
		{"unique same as pk", ConstraintDef{Name: "uk", Kind: model.ConstraintUnique, ColumnIDs: []string{"a", "b"}}, errs.ErrNameDuplicate},
		{"second pk", ConstraintDef{Name: "pk2", Kind: model.ConstraintPrimaryKey, ColumnIDs: []string{"c"}}, errs.ErrInvalidValue},
		{"pk itself", ConstraintDef{ID: "k1", Name: "pk_user", Kind: model.ConstraintPrimaryKey, ColumnIDs: []string{"a"}}, nil},
		{"check same columns as pk", ConstraintDef{Name: "ck", Kind: model.ConstraintCheck, ColumnIDs: []string{"a", "b"}, CheckExpr: "a > b"}, nil},
		{"check without expr", ConstraintDef{Name: "ck", Kind: model.ConstraintCheck, ColumnIDs: []string{"a"}}, errs.ErrInvalidValue},
		{"default on two columns", ConstraintDef{Name: "df", Kind: model.ConstraintDefault, ColumnIDs: []string{"a", "b"}, DefaultExpr: "0"}, errs.ErrInvalidValue},
		{"no column", ConstraintDef{Name: "uk", Kind: model.ConstraintUnique}, errs.ErrInvalidValue},
		{"repeated column", ConstraintDef{Name: "uk", Kind: model.ConstraintUnique, ColumnIDs: []string{"c", "c"}}, errs.ErrInvalidValue},
		{"unknown kind", ConstraintDef{Name: "x", Kind: "FOREIGN_KEY", ColumnIDs: []string{"c"}}, errs.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ConstraintDefinition(tt.def, existing)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
			}
		})
	}

	checks := []ConstraintDef{{ID: "k2", Name: "ck1", Kind: model.ConstraintCheck, ColumnIDs: []string{"a"}, CheckExpr: "a > 0"}}
	err := ConstraintDefinition(ConstraintDef{Name: "ck2", Kind: model.ConstraintCheck, ColumnIDs: []string{"a"}, CheckExpr: "a < 10"}, checks)
	assert.True(t, errors.Is(err, errs.ErrNameDuplicate))
}

func TestIndexDefinition(t *testing.T) {
	d := MySQL()
	columns := map[string]*model.Column{
		"a": column("a", "title", "VARCHAR"),
		"b": column("b", "id", "INT"),
		"g": column("g", "location", "POINT"),
	}
	existing := []IndexDef{{ID: "i1", Name: "idx_title", Type: model.IndexBTree, Columns: []IndexColumnDef{{ColumnID: "a", SortDirection: model.SortAsc}}}}

	tests := []struct {
		name string
		def  IndexDef
		err  error
	}{
		{"btree desc", IndexDef{Name: "x", Type: model.IndexBTree, Columns: []IndexColumnDef{{ColumnID: "a", SortDirection: model.SortDesc}}}, nil},
		{"duplicate", IndexDef{Name: "x", Type: model.IndexBTree, Columns: []IndexColumnDef{{ColumnID: "a", SortDirection: model.SortAsc}}}, errs.ErrNameDuplicate},
		{"same columns other type", IndexDef{Name: "x", Type: model.IndexHash, Columns: []IndexColumnDef{{ColumnID: "a", SortDirection: model.SortAsc}}}, nil},
		{"fulltext with direction", IndexDef{Name: "x", Type: model.IndexFullText, Columns: []IndexColumnDef{{ColumnID: "a", SortDirection: model.SortAsc}}}, errs.ErrInvalidValue},
		{"fulltext on int", IndexDef{Name: "x", Type: model.IndexFullText, Columns: []IndexColumnDef{{ColumnID: "b"}}}, errs.ErrInvalidValue},
		{"fulltext on text", IndexDef{Name: "x", Type: model.IndexFullText, Columns: []IndexColumnDef{{ColumnID: "a"}}}, nil},
		{"spatial on point", IndexDef{Name: "x", Type: model.IndexSpatial, Columns: []IndexColumnDef{{ColumnID: "g"}}}, nil},
		{"spatial on int", IndexDef{Name: "x", Type: model.IndexSpatial, Columns: []IndexColumnDef{{ColumnID: "b"}}}, errs.ErrInvalidValue},
		{"unknown column", IndexDef{Name: "x", Type: model.IndexBTree, Columns: []IndexColumnDef{{ColumnID: "z"}}}, errs.ErrNotFound},
		{"repeated column", IndexDef{Name: "x", Type: model.IndexBTree, Columns: []IndexColumnDef{{ColumnID: "b"}, {ColumnID: "b", SortDirection: model.SortDesc}}}, errs.ErrInvalidValue},
		{"empty", IndexDef{Name: "x", Type: model.IndexBTree}, errs.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.IndexDefinition(tt.def, columns, existing)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
			}
		})
	}
}

func TestRelationshipColumn(t *testing.T) {
	rel := &model.Relationship{PKTableID: "t1", FKTableID: "t2", Name: "rel"}
	pk := column("p1", "id", "INT")
	pk.TableID = "t1"
	fk := column("f1", "user_id", "INT")
	fk.TableID = "t2"

	assert.NoError(t, RelationshipColumn(rel, pk, fk, nil))
	assert.Error(t, RelationshipColumn(rel, fk, pk, nil))
	assert.Error(t, RelationshipColumn(rel, pk, fk, []*model.RelationshipColumn{{PKColumnID: "p1", FKColumnID: "f9"}}))

	assert.NoError(t, Relationship(model.RelationshipIdentifying, model.CardinalityOneToMany))
	assert.Error(t, Relationship("WEAK", model.CardinalityOneToMany))
	assert.Error(t, Relationship(model.RelationshipIdentifying, "MANY_TO_MANY"))
}

func TestStruct(t *testing.T) {
	type command struct {
		TableID string `validate:"required"`
		Kind    string `validate:"oneof=A B"`
	}
	assert.NoError(t, Struct("table", &command{TableID: "t1", Kind: "A"}))

	err := Struct("table", &command{Kind: "C"})
	assert.True(t, errors.Is(err, errs.ErrInvalidValue))
	assert.Contains(t, err.Error(), "TableID failed on required")
	assert.Contains(t, err.Error(), "Kind failed on oneof=A B")
}
