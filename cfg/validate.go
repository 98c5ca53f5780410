package cfg

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var structValidator = validator.New()

// Validate 按 validate tag 校验结构体，nil 或非结构体直接通过
func Validate(object any) error {
	rv := reflect.ValueOf(object)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Struct || rv.Type() == timeType {
		return nil
	}
	if err := structValidator.Struct(rv.Interface()); err != nil {
		return errors.Wrap(err, "validate config failed")
	}
	return nil
}
