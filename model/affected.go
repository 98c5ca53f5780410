package model

import "sort"

// AffectedTables 一次操作中结构发生变化的表集合，在各级联步骤间累积
type AffectedTables map[string]struct{}

func NewAffectedTables(tableIDs ...string) AffectedTables {
	a := AffectedTables{}
	a.Add(tableIDs...)
	return a
}

func (a AffectedTables) Add(tableIDs ...string) {
	for _, id := range tableIDs {
		if id != "" {
			a[id] = struct{}{}
		}
	}
}

func (a AffectedTables) Merge(other AffectedTables) {
	for id := range other {
		a[id] = struct{}{}
	}
}

func (a AffectedTables) Contains(tableID string) bool {
	_, ok := a[tableID]
	return ok
}

// IDs 返回排序后的表 ID
func (a AffectedTables) IDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
