package autorel

import (
	"context"
	"testing"

	"github.com/hatlonely/schemagraph/cascade"
	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/model"
	"github.com/hatlonely/schemagraph/store"
	"github.com/hatlonely/schemagraph/store/storetest"
	"github.com/hatlonely/schemagraph/validate"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func newBuilder() *Builder {
	return NewBuilder(cascade.NewCoordinator(validate.MySQL(), storetest.NewSeqGenerator("r")))
}

func build(f *storetest.Fixture, b *Builder, req Request) (*Result, []string, error) {
	affected := model.NewAffectedTables()
	var result *Result
	err := f.Tx(func(ctx context.Context, tx store.Tx) error {
		var err error
		result, err = b.Build(ctx, tx, affected, req)
		return err
	})
	return result, affected.IDs(), err
}

func buildExplicit(f *storetest.Fixture, b *Builder, req Request, pairs ...Pair) (*Result, []string, error) {
	affected := model.NewAffectedTables()
	var result *Result
	err := f.Tx(func(ctx context.Context, tx store.Tx) error {
		var err error
		result, err = b.BuildExplicit(ctx, tx, affected, req, pairs)
		return err
	})
	return result, affected.IDs(), err
}

func TestBuild(t *testing.T) {
	Convey("从主键派生关系", t, func() {
		f := storetest.New(t)
		b := newBuilder()

		parent := f.Table("s1", "parent")
		id := f.Column(parent.ID, "id", "INT")
		code := f.Column(parent.ID, "code", "VARCHAR", model.Length(8))
		f.Constraint(parent.ID, "pk_parent", model.ConstraintPrimaryKey, id.ID, code.ID)

		child := f.Table("s1", "child")
		childID := f.Column(child.ID, "id", "BIGINT")
		f.Constraint(child.ID, "pk_child", model.ConstraintPrimaryKey, childID.ID)

		Convey("标识关系的列名冲突和主键合并", func() {
			result, affected, err := build(f, b, Request{
				FKTableID:   child.ID,
				PKTableID:   parent.ID,
				Kind:        model.RelationshipIdentifying,
				Cardinality: model.CardinalityOneToMany,
			})
			So(err, ShouldBeNil)
			So(affected, ShouldResemble, model.NewAffectedTables(parent.ID, child.ID).IDs())
			So(result.Relationship.Name, ShouldEqual, "rel_child_to_parent")
			So(result.Columns, ShouldHaveLength, 2)

			columns := f.Columns(child.ID)
			So(columns, ShouldHaveLength, 3)
			So(columns[1].Name, ShouldEqual, "id_1")
			So(columns[1].DataType, ShouldEqual, "INT")
			So(columns[2].Name, ShouldEqual, "code")
			So(columns[2].LengthScale, ShouldResemble, model.Length(8))

			rcs := f.RelationshipColumns(result.Relationship.ID)
			So(rcs[0].PKColumnID, ShouldEqual, id.ID)
			So(rcs[0].FKColumnID, ShouldEqual, columns[1].ID)
			So(rcs[1].PKColumnID, ShouldEqual, code.ID)
			So(rcs[1].FKColumnID, ShouldEqual, columns[2].ID)

			So(f.PrimaryKeyColumns(child.ID), ShouldResemble, []string{childID.ID, columns[1].ID, columns[2].ID})
			So(f.PrimaryKeyColumns(parent.ID), ShouldResemble, []string{id.ID, code.ID})
		})

		Convey("非标识关系不改变主键", func() {
			_, _, err := build(f, b, Request{
				FKTableID:   child.ID,
				PKTableID:   parent.ID,
				Kind:        model.RelationshipNonIdentifying,
				Cardinality: model.CardinalityOneToZeroOrOne,
			})
			So(err, ShouldBeNil)
			So(f.Columns(child.ID), ShouldHaveLength, 3)
			So(f.PrimaryKeyColumns(child.ID), ShouldResemble, []string{childID.ID})
		})

		Convey("自动命名加后缀", func() {
			req := Request{
				FKTableID:   child.ID,
				PKTableID:   parent.ID,
				Kind:        model.RelationshipNonIdentifying,
				Cardinality: model.CardinalityOneToMany,
			}
			_, _, err := build(f, b, req)
			So(err, ShouldBeNil)
			result, _, err := build(f, b, req)
			So(err, ShouldBeNil)
			So(result.Relationship.Name, ShouldEqual, "rel_child_to_parent_1")

			columns := f.Columns(child.ID)
			So(columns, ShouldHaveLength, 5)
			So(columns[3].Name, ShouldEqual, "id_2")
			So(columns[4].Name, ShouldEqual, "code_1")
		})

		Convey("显式名字重复", func() {
			req := Request{
				FKTableID:   child.ID,
				PKTableID:   parent.ID,
				Kind:        model.RelationshipNonIdentifying,
				Cardinality: model.CardinalityOneToMany,
				Name:        "fk_child_parent",
			}
			_, _, err := build(f, b, req)
			So(err, ShouldBeNil)
			req.Name = "FK_CHILD_PARENT"
			_, _, err = build(f, b, req)
			So(errors.Is(err, errs.ErrNameDuplicate), ShouldBeTrue)
			So(f.Relationships(child.ID), ShouldHaveLength, 1)
		})

		Convey("主键表没有主键", func() {
			other := f.Table("s1", "other")
			f.Column(other.ID, "id", "INT")
			_, _, err := build(f, b, Request{
				FKTableID:   child.ID,
				PKTableID:   other.ID,
				Kind:        model.RelationshipNonIdentifying,
				Cardinality: model.CardinalityOneToMany,
			})
			So(errors.Is(err, errs.ErrInvalidValue), ShouldBeTrue)
			So(f.Relationships(child.ID), ShouldBeEmpty)
		})

		Convey("跨 schema", func() {
			other := f.Table("s2", "other")
			_, _, err := build(f, b, Request{
				FKTableID:   other.ID,
				PKTableID:   parent.ID,
				Kind:        model.RelationshipNonIdentifying,
				Cardinality: model.CardinalityOneToMany,
			})
			So(errors.Is(err, errs.ErrInvalidValue), ShouldBeTrue)
		})

		Convey("非法的关系类型", func() {
			_, _, err := build(f, b, Request{
				FKTableID:   child.ID,
				PKTableID:   parent.ID,
				Kind:        "STRONG",
				Cardinality: model.CardinalityOneToMany,
			})
			So(errors.Is(err, errs.ErrInvalidValue), ShouldBeTrue)
		})
	})
}

func TestBuildCycle(t *testing.T) {
	Convey("标识关系环", t, func() {
		f := storetest.New(t)
		b := newBuilder()

		tables := map[string]*model.Table{}
		for _, name := range []string{"a", "b", "c"} {
			table := f.Table("s1", name)
			id := f.Column(table.ID, name+"_id", "INT")
			f.Constraint(table.ID, "pk_"+name, model.ConstraintPrimaryKey, id.ID)
			tables[name] = table
		}
		identify := func(fk, pk string) error {
			_, _, err := build(f, b, Request{
				FKTableID:   tables[fk].ID,
				PKTableID:   tables[pk].ID,
				Kind:        model.RelationshipIdentifying,
				Cardinality: model.CardinalityOneToMany,
			})
			return err
		}

		So(identify("a", "b"), ShouldBeNil)
		So(identify("b", "c"), ShouldBeNil)
		So(f.PrimaryKeyColumns(tables["a"].ID), ShouldHaveLength, 3)

		err := identify("c", "a")
		So(errors.Is(err, errs.ErrCyclicReference), ShouldBeTrue)
		So(f.Relationships(tables["c"].ID), ShouldBeEmpty)
		So(f.Columns(tables["c"].ID), ShouldHaveLength, 1)

		So(errors.Is(identify("a", "a"), errs.ErrCyclicReference), ShouldBeTrue)

		Convey("非标识关系允许成环", func() {
			_, _, err := build(f, b, Request{
				FKTableID:   tables["c"].ID,
				PKTableID:   tables["a"].ID,
				Kind:        model.RelationshipNonIdentifying,
				Cardinality: model.CardinalityOneToMany,
			})
			So(err, ShouldBeNil)
			So(f.Columns(tables["c"].ID), ShouldHaveLength, 4)
		})
	})
}

func TestBuildExplicit(t *testing.T) {
	Convey("显式列对", t, func() {
		f := storetest.New(t)
		b := newBuilder()

		parent := f.Table("s1", "parent")
		id := f.Column(parent.ID, "id", "BIGINT")
		f.Constraint(parent.ID, "pk_parent", model.ConstraintPrimaryKey, id.ID)

		child := f.Table("s1", "child")
		childID := f.Column(child.ID, "id", "INT")
		parentID := f.Column(child.ID, "parent_id", "INT")
		f.Constraint(child.ID, "pk_child", model.ConstraintPrimaryKey, childID.ID)

		req := Request{
			FKTableID:   child.ID,
			PKTableID:   parent.ID,
			Kind:        model.RelationshipNonIdentifying,
			Cardinality: model.CardinalityOneToMany,
		}

		Convey("外键列类型跟随主键列", func() {
			result, affected, err := buildExplicit(f, b, req, Pair{PKColumnID: id.ID, FKColumnID: parentID.ID})
			So(err, ShouldBeNil)
			So(affected, ShouldResemble, model.NewAffectedTables(parent.ID, child.ID).IDs())
			So(result.Columns, ShouldHaveLength, 1)
			So(f.GetColumn(parentID.ID).DataType, ShouldEqual, "BIGINT")
			So(f.Columns(child.ID), ShouldHaveLength, 2)
			So(f.PrimaryKeyColumns(child.ID), ShouldResemble, []string{childID.ID})
		})

		Convey("标识关系合并主键", func() {
			req.Kind = model.RelationshipIdentifying
			_, _, err := buildExplicit(f, b, req, Pair{PKColumnID: id.ID, FKColumnID: parentID.ID})
			So(err, ShouldBeNil)
			So(f.PrimaryKeyColumns(child.ID), ShouldResemble, []string{childID.ID, parentID.ID})
		})

		Convey("列不属于对应的表", func() {
			_, _, err := buildExplicit(f, b, req, Pair{PKColumnID: parentID.ID, FKColumnID: id.ID})
			So(errors.Is(err, errs.ErrInvalidValue), ShouldBeTrue)
			So(f.Relationships(child.ID), ShouldBeEmpty)
		})

		Convey("重复的外键列", func() {
			_, _, err := buildExplicit(f, b, req,
				Pair{PKColumnID: id.ID, FKColumnID: parentID.ID},
				Pair{PKColumnID: id.ID, FKColumnID: childID.ID},
			)
			So(errors.Is(err, errs.ErrInvalidValue), ShouldBeTrue)
		})

		Convey("列不存在", func() {
			_, _, err := buildExplicit(f, b, req, Pair{PKColumnID: id.ID, FKColumnID: "missing"})
			So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
		})
	})
}
