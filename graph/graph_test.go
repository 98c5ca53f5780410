package graph

import (
	"testing"

	"github.com/hatlonely/schemagraph/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rel(id, fk, pk string, kind model.RelationshipKind) *model.Relationship {
	r := &model.Relationship{FKTableID: fk, PKTableID: pk, Kind: kind}
	r.ID = id
	return r
}

func TestBuild(t *testing.T) {
	Convey("只有标识关系会成为边", t, func() {
		g := Build([]*model.Relationship{
			rel("r1", "b", "a", model.RelationshipIdentifying),
			rel("r2", "c", "a", model.RelationshipNonIdentifying),
		})
		So(g.Edges("b"), ShouldResemble, []Edge{{RelationshipID: "r1", From: "b", To: "a"}})
		So(g.Edges("c"), ShouldBeEmpty)
		So(g.Path("b", "a"), ShouldResemble, []string{"b", "a"})
		So(g.Path("a", "b"), ShouldBeNil)
	})
}

func TestWouldCycle(t *testing.T) {
	Convey("环检测", t, func() {
		// A <- B <- C，边方向 FK -> PK
		rels := []*model.Relationship{
			rel("r1", "b", "a", model.RelationshipIdentifying),
			rel("r2", "c", "b", model.RelationshipIdentifying),
		}

		Convey("新增闭合的标识关系会成环", func() {
			cycle := WouldCycle(rels, Change{FKTableID: "a", PKTableID: "c", Kind: model.RelationshipIdentifying})
			So(cycle, ShouldResemble, []string{"a", "c", "b", "a"})
		})

		Convey("新增非标识关系永远不会成环", func() {
			cycle := WouldCycle(rels, Change{FKTableID: "a", PKTableID: "c", Kind: model.RelationshipNonIdentifying})
			So(cycle, ShouldBeNil)
		})

		Convey("自引用标识关系成环", func() {
			cycle := WouldCycle(rels, Change{FKTableID: "a", PKTableID: "a", Kind: model.RelationshipIdentifying})
			So(cycle, ShouldNotBeNil)
		})

		Convey("不相关的标识关系不成环", func() {
			cycle := WouldCycle(rels, Change{FKTableID: "d", PKTableID: "a", Kind: model.RelationshipIdentifying})
			So(cycle, ShouldBeNil)
		})

		Convey("修改已有关系时先从原图去掉该关系", func() {
			withBack := append(rels, rel("r3", "a", "c", model.RelationshipNonIdentifying))
			cycle := WouldCycle(withBack, Change{RelationshipID: "r3", FKTableID: "a", PKTableID: "c", Kind: model.RelationshipIdentifying})
			So(cycle, ShouldNotBeNil)

			// 把 r2 改回标识关系不会与自身旧形态冲突
			cycle = WouldCycle(rels, Change{RelationshipID: "r2", FKTableID: "c", PKTableID: "b", Kind: model.RelationshipIdentifying})
			So(cycle, ShouldBeNil)
		})

		Convey("场景：A -> B 非标识，B -> A 标识，再把 A -> B 改为标识", func() {
			scenario := []*model.Relationship{
				rel("ab", "a", "b", model.RelationshipNonIdentifying),
				rel("ba", "b", "a", model.RelationshipIdentifying),
			}
			cycle := WouldCycle(scenario, Change{RelationshipID: "ab", FKTableID: "a", PKTableID: "b", Kind: model.RelationshipIdentifying})
			So(cycle, ShouldResemble, []string{"a", "b", "a"})

			// 先删除 B -> A 后再修改成功
			cycle = WouldCycle(scenario[:1], Change{RelationshipID: "ab", FKTableID: "a", PKTableID: "b", Kind: model.RelationshipIdentifying})
			So(cycle, ShouldBeNil)
		})
	})
}

func TestFindCycle(t *testing.T) {
	Convey("整图环检测", t, func() {
		So(FindCycle(nil), ShouldBeNil)
		So(FindCycle([]*model.Relationship{
			rel("r1", "b", "a", model.RelationshipIdentifying),
			rel("r2", "c", "b", model.RelationshipIdentifying),
			rel("r3", "a", "c", model.RelationshipNonIdentifying),
		}), ShouldBeNil)

		cycle := FindCycle([]*model.Relationship{
			rel("r1", "b", "a", model.RelationshipIdentifying),
			rel("r2", "c", "b", model.RelationshipIdentifying),
			rel("r3", "a", "c", model.RelationshipIdentifying),
		})
		So(cycle, ShouldHaveLength, 4)
		So(cycle[0], ShouldEqual, cycle[3])
	})
}

func TestDependents(t *testing.T) {
	Convey("传递依赖", t, func() {
		rels := []*model.Relationship{
			rel("r1", "b", "a", model.RelationshipIdentifying),
			rel("r2", "c", "b", model.RelationshipIdentifying),
			rel("r3", "d", "a", model.RelationshipNonIdentifying),
		}
		So(Dependents(rels, "a"), ShouldResemble, []string{"b", "c"})
		So(Dependents(rels, "c"), ShouldBeEmpty)
	})
}
