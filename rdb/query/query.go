package query

import (
	"regexp"

	"github.com/pkg/errors"
)

// QueryType 查询类型
type QueryType string

const (
	QueryTypeBool  QueryType = "bool"
	QueryTypeTerm  QueryType = "term"
	QueryTypeTerms QueryType = "terms"
)

// Query 查询节点，由仓储翻译为 gorm Where 条件
type Query interface {
	Type() QueryType
	ToSQL() (string, []any, error)
}

var fieldRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

func checkField(field string) error {
	if !fieldRegex.MatchString(field) {
		return errors.Errorf("invalid field name [%s]", field)
	}
	return nil
}

func Term(field string, value any) *TermQuery {
	return &TermQuery{Field: field, Value: value}
}

func Terms(field string, values ...any) *TermsQuery {
	return &TermsQuery{Field: field, Values: values}
}

// And 所有条件同时满足
func And(queries ...Query) *BoolQuery {
	return &BoolQuery{Must: queries}
}
