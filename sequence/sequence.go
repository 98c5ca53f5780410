package sequence

import (
	"sort"

	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/model"
)

type OpKind int

const (
	OpInsert OpKind = iota
	OpRemove
	OpMoveTo
)

// Op 对有序子集合的一次变更
type Op struct {
	Kind OpKind
	ID   string
	Pos  int
}

func Insert(id string, pos int) Op {
	return Op{Kind: OpInsert, ID: id, Pos: pos}
}

func Remove(id string) Op {
	return Op{Kind: OpRemove, ID: id}
}

func MoveTo(id string, pos int) Op {
	return Op{Kind: OpMoveTo, ID: id, Pos: pos}
}

// Update 需要写回存储的 seqNo
type Update struct {
	ID    string
	SeqNo int
}

// Reorder 对已按 seqNo 排好序的 ids 执行 op，返回新的顺序
// 插入位置范围 [0, n]，移动位置范围 [0, n-1]
func Reorder(entity string, ids []string, op Op) ([]string, error) {
	n := len(ids)
	idx := indexOf(ids, op.ID)

	switch op.Kind {
	case OpInsert:
		if idx >= 0 {
			return nil, errs.InvalidValue(entity, "id [%s] already in sequence", op.ID)
		}
		if op.Pos < 0 || op.Pos > n {
			return nil, errs.PositionInvalid(entity, op.Pos, n)
		}
		result := make([]string, 0, n+1)
		result = append(result, ids[:op.Pos]...)
		result = append(result, op.ID)
		result = append(result, ids[op.Pos:]...)
		return result, nil
	case OpRemove:
		if idx < 0 {
			return nil, errs.NotFound(entity, op.ID)
		}
		result := make([]string, 0, n-1)
		result = append(result, ids[:idx]...)
		result = append(result, ids[idx+1:]...)
		return result, nil
	case OpMoveTo:
		if idx < 0 {
			return nil, errs.NotFound(entity, op.ID)
		}
		if op.Pos < 0 || op.Pos > n-1 {
			return nil, errs.PositionInvalid(entity, op.Pos, n-1)
		}
		result := make([]string, 0, n)
		result = append(result, ids[:idx]...)
		result = append(result, ids[idx+1:]...)
		result = append(result[:op.Pos], append([]string{op.ID}, result[op.Pos:]...)...)
		return result, nil
	}

	return nil, errs.InvalidValue(entity, "unknown sequence op [%d]", op.Kind)
}

// Plan 计算 op 之后的新顺序，以及已有子实体中 seqNo 发生变化的部分
// 插入的新实体不在 updates 中，其 seqNo 为 op.Pos
func Plan[T model.Sequenced](entity string, children []T, op Op) ([]string, []Update, error) {
	sorted := make([]T, len(children))
	copy(sorted, children)
	model.SortBySeqNo(sorted)

	current := make(map[string]int, len(sorted))
	for _, c := range sorted {
		current[c.GetID()] = c.GetSeqNo()
	}

	order, err := Reorder(entity, model.IDs(sorted), op)
	if err != nil {
		return nil, nil, err
	}

	var updates []Update
	for i, id := range order {
		if seqNo, ok := current[id]; ok && seqNo != i {
			updates = append(updates, Update{ID: id, SeqNo: i})
		}
	}

	return order, updates, nil
}

// Compact 按现有顺序把 seqNo 重排为 0..n-1，只返回变化的部分
func Compact[T model.Sequenced](children []T) []Update {
	sorted := make([]T, len(children))
	copy(sorted, children)
	model.SortBySeqNo(sorted)

	var updates []Update
	for i, c := range sorted {
		if c.GetSeqNo() != i {
			updates = append(updates, Update{ID: c.GetID(), SeqNo: i})
		}
	}
	return updates
}

// Check seqNo 必须恰好是 0..n-1
func Check(entity string, seqNos []int) error {
	sorted := make([]int, len(seqNos))
	copy(sorted, seqNos)
	sort.Ints(sorted)

	for i, s := range sorted {
		if s != i {
			return errs.InvalidValue(entity, "seqNo %v is not contiguous from 0", seqNos)
		}
	}
	return nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
