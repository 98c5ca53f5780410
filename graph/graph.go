package graph

import (
	"sort"

	"github.com/hatlonely/schemagraph/model"
)

// Edge 标识关系边，方向为 FK 表 -> PK 表
type Edge struct {
	RelationshipID string
	From           string
	To             string
}

// Graph 只包含 IDENTIFYING 关系的有向图
type Graph struct {
	adjacency map[string][]Edge
}

// Build 由关系集合构建有向图，NON_IDENTIFYING 关系被忽略
func Build(rels []*model.Relationship) *Graph {
	g := &Graph{adjacency: map[string][]Edge{}}
	for _, rel := range rels {
		if rel == nil || rel.Kind != model.RelationshipIdentifying {
			continue
		}
		g.adjacency[rel.FKTableID] = append(g.adjacency[rel.FKTableID], Edge{
			RelationshipID: rel.ID,
			From:           rel.FKTableID,
			To:             rel.PKTableID,
		})
	}
	for _, edges := range g.adjacency {
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].To != edges[j].To {
				return edges[i].To < edges[j].To
			}
			return edges[i].RelationshipID < edges[j].RelationshipID
		})
	}
	return g
}

// Edges 从 table 出发的边
func (g *Graph) Edges(tableID string) []Edge {
	return g.adjacency[tableID]
}

// Path 深度优先查找 from 到 to 的路径，不存在返回 nil
func (g *Graph) Path(from, to string) []string {
	visited := map[string]bool{}
	var path []string

	var dfs func(node string) bool
	dfs = func(node string) bool {
		path = append(path, node)
		if node == to {
			return true
		}
		visited[node] = true
		for _, edge := range g.adjacency[node] {
			if !visited[edge.To] && dfs(edge.To) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}

	if dfs(from) {
		return path
	}
	return nil
}

// Change 待提交的关系变更：新建关系，或修改已有关系的类型
type Change struct {
	RelationshipID string
	FKTableID      string
	PKTableID      string
	Kind           model.RelationshipKind
}

// WouldCycle 判断在现有关系上应用 change 后是否出现标识关系环，返回环上的表
// 被修改的关系先从原图中去掉，再以新形态加入
func WouldCycle(rels []*model.Relationship, change Change) []string {
	if change.Kind != model.RelationshipIdentifying {
		return nil
	}
	if change.FKTableID == change.PKTableID {
		return []string{change.FKTableID, change.PKTableID}
	}

	patched := make([]*model.Relationship, 0, len(rels))
	for _, rel := range rels {
		if change.RelationshipID != "" && rel.ID == change.RelationshipID {
			continue
		}
		patched = append(patched, rel)
	}

	// 新边为 FK -> PK，若 PK 已能到达 FK 则成环
	path := Build(patched).Path(change.PKTableID, change.FKTableID)
	if path == nil {
		return nil
	}
	return append([]string{change.FKTableID}, path...)
}

// FindCycle 检查整张图是否存在环，返回第一个环上的表
func FindCycle(rels []*model.Relationship) []string {
	g := Build(rels)

	nodes := make([]string, 0, len(g.adjacency))
	for node := range g.adjacency {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	visited := map[string]bool{}
	onStack := map[string]bool{}
	var stack []string
	var cycle []string

	var dfs func(node string) bool
	dfs = func(node string) bool {
		visited[node] = true
		onStack[node] = true
		stack = append(stack, node)

		for _, edge := range g.adjacency[node] {
			if onStack[edge.To] {
				for i, n := range stack {
					if n == edge.To {
						cycle = append(append([]string{}, stack[i:]...), edge.To)
						break
					}
				}
				return true
			}
			if !visited[edge.To] && dfs(edge.To) {
				return true
			}
		}

		onStack[node] = false
		stack = stack[:len(stack)-1]
		return false
	}

	for _, node := range nodes {
		if !visited[node] && dfs(node) {
			return cycle
		}
	}
	return nil
}

// Dependents 通过标识关系链直接或间接依赖 tableID 的表（不含自身）
func Dependents(rels []*model.Relationship, tableID string) []string {
	reverse := map[string][]string{}
	for _, rel := range rels {
		if rel.Kind == model.RelationshipIdentifying {
			reverse[rel.PKTableID] = append(reverse[rel.PKTableID], rel.FKTableID)
		}
	}

	seen := map[string]bool{tableID: true}
	queue := []string{tableID}
	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range reverse[node] {
			if !seen[next] {
				seen[next] = true
				result = append(result, next)
				queue = append(queue, next)
			}
		}
	}
	sort.Strings(result)
	return result
}
