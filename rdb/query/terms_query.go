package query

import "fmt"

// TermsQuery 多值匹配查询，翻译为 IN
type TermsQuery struct {
	Field  string `json:"field"`
	Values []any  `json:"values"`
}

func (q *TermsQuery) Type() QueryType {
	return QueryTypeTerms
}

// ToSQL 空列表不匹配任何记录
func (q *TermsQuery) ToSQL() (string, []any, error) {
	if err := checkField(q.Field); err != nil {
		return "", nil, err
	}
	if len(q.Values) == 0 {
		return "1 = 0", nil, nil
	}
	return fmt.Sprintf("%s IN ?", q.Field), []any{q.Values}, nil
}
