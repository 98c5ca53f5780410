package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code 领域错误类型
type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeNameDuplicate       Code = "NAME_DUPLICATE"
	CodeInvalidValue        Code = "INVALID_VALUE"
	CodeCyclicReference     Code = "CYCLIC_REFERENCE"
	CodeForeignKeyProtected Code = "FOREIGN_KEY_PROTECTED"
	CodePositionInvalid     Code = "POSITION_INVALID"
)

// Error 领域错误，Entity 为出错的实体类型（column, constraint, ...）
type Error struct {
	Code    Code
	Entity  string
	Message string
}

func (e *Error) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Entity, e.Message)
}

// Is 只比较 Code，使 errors.Is(err, ErrNotFound) 对任意实体生效
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotFound            = &Error{Code: CodeNotFound, Message: "not found"}
	ErrNameDuplicate       = &Error{Code: CodeNameDuplicate, Message: "name duplicate"}
	ErrInvalidValue        = &Error{Code: CodeInvalidValue, Message: "invalid value"}
	ErrCyclicReference     = &Error{Code: CodeCyclicReference, Message: "cyclic reference"}
	ErrForeignKeyProtected = &Error{Code: CodeForeignKeyProtected, Message: "foreign key protected"}
	ErrPositionInvalid     = &Error{Code: CodePositionInvalid, Message: "position invalid"}
)

func newError(code Code, entity string, format string, args ...any) error {
	return errors.WithStack(&Error{Code: code, Entity: entity, Message: fmt.Sprintf(format, args...)})
}

func NotFound(entity string, id string) error {
	return newError(CodeNotFound, entity, "id [%s] not found", id)
}

func NameDuplicate(entity string, name string) error {
	return newError(CodeNameDuplicate, entity, "name [%s] already exists", name)
}

// DefinitionDuplicate 定义重复也归入 NAME_DUPLICATE
func DefinitionDuplicate(entity string, existing string) error {
	return newError(CodeNameDuplicate, entity, "same definition as [%s]", existing)
}

func InvalidValue(entity string, format string, args ...any) error {
	return newError(CodeInvalidValue, entity, format, args...)
}

func CyclicReference(path []string) error {
	return newError(CodeCyclicReference, "relationship", "identifying cycle %v", path)
}

func ForeignKeyProtected(columnID string) error {
	return newError(CodeForeignKeyProtected, "column", "column [%s] is a foreign key, change the referenced column instead", columnID)
}

func PositionInvalid(entity string, pos int, n int) error {
	return newError(CodePositionInvalid, entity, "position [%d] out of range [0, %d]", pos, n)
}

// CodeOf 返回领域错误码，非领域错误返回空
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsDomain 是否为领域错误，否则为基础设施错误
func IsDomain(err error) bool {
	return CodeOf(err) != ""
}
