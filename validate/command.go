package validate

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hatlonely/schemagraph/errs"
	"github.com/pkg/errors"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Struct 按 validate tag 校验命令结构体，失败时返回 INVALID_VALUE
func Struct(entity string, object any) error {
	if object == nil {
		return errs.InvalidValue(entity, "command is nil")
	}
	err := structValidator.Struct(object)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		msgs := make([]string, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			if fe.Param() != "" {
				msgs = append(msgs, fe.Field()+" failed on "+fe.Tag()+"="+fe.Param())
			} else {
				msgs = append(msgs, fe.Field()+" failed on "+fe.Tag())
			}
		}
		return errs.InvalidValue(entity, "%s", strings.Join(msgs, "; "))
	}
	return errs.InvalidValue(entity, "%s", err.Error())
}
