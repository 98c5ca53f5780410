package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTermQueryToSQL(t *testing.T) {
	Convey("测试 TermQuery ToSQL 方法", t, func() {
		Convey("普通值", func() {
			sql, args, err := Term("table_id", "t1").ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "table_id = ?")
			So(args, ShouldResemble, []any{"t1"})
		})

		Convey("nil 值", func() {
			sql, args, err := Term("deleted_at", nil).ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "deleted_at IS NULL")
			So(args, ShouldBeNil)
		})

		Convey("非法字段名", func() {
			_, _, err := Term("id; drop table", 1).ToSQL()
			So(err, ShouldNotBeNil)
		})
	})
}

func TestTermsQueryToSQL(t *testing.T) {
	Convey("测试 TermsQuery ToSQL 方法", t, func() {
		Convey("多个值", func() {
			sql, args, err := Terms("column_id", "c1", "c2").ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "column_id IN ?")
			So(args, ShouldResemble, []any{[]any{"c1", "c2"}})
		})

		Convey("空列表", func() {
			sql, args, err := Terms("column_id").ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "1 = 0")
			So(args, ShouldBeNil)
		})
	})
}

func TestBoolQueryToSQL(t *testing.T) {
	Convey("测试 BoolQuery ToSQL 方法", t, func() {
		Convey("空的 BoolQuery", func() {
			sql, args, err := (&BoolQuery{}).ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "1=1")
			So(args, ShouldBeNil)
		})

		Convey("组合条件", func() {
			q := &BoolQuery{
				Must:    []Query{Term("table_id", "t1"), Term("kind", "PRIMARY_KEY")},
				Should:  []Query{Term("name", "a"), Term("name", "b")},
				MustNot: []Query{Terms("id", "x")},
			}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "(table_id = ? AND kind = ?) AND (name = ? OR name = ?) AND (NOT (id IN ?))")
			So(args, ShouldResemble, []any{"t1", "PRIMARY_KEY", "a", "b", []any{"x"}})
		})

		Convey("子条件错误", func() {
			_, _, err := And(Term("", 1)).ToSQL()
			So(err, ShouldNotBeNil)
		})

		Convey("类型", func() {
			So(And().Type(), ShouldEqual, QueryTypeBool)
			So(Term("a", 1).Type(), ShouldEqual, QueryTypeTerm)
			So(Terms("a").Type(), ShouldEqual, QueryTypeTerms)
		})
	})
}
