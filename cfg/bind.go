package cfg

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// Bind 把解析后的配置数据绑定到 object（指针），字段名取 cfg tag，缺省时大小写不敏感匹配字段名
func Bind(data any, object any) error {
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Errorf("bind target must be a non-nil pointer, got %T", object)
	}
	if data == nil {
		return nil
	}
	return bindValue(data, rv.Elem(), "")
}

func bindValue(src any, dst reflect.Value, path string) error {
	if src == nil {
		return nil
	}

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return bindValue(src, dst.Elem(), path)
	}

	sv := reflect.ValueOf(src)

	switch dst.Type() {
	case durationType:
		d, err := toDuration(sv)
		if err != nil {
			return errors.WithMessagef(err, "field [%s]", path)
		}
		dst.SetInt(int64(d))
		return nil
	case timeType:
		t, err := toTime(sv)
		if err != nil {
			return errors.WithMessagef(err, "field [%s]", path)
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}

	switch dst.Kind() {
	case reflect.Interface:
		// 嵌套结构保留为 Node，交给 ref 在构造时转换
		if sv.Kind() == reflect.Map || sv.Kind() == reflect.Slice {
			if reflect.TypeOf(&Node{}).Implements(dst.Type()) {
				dst.Set(reflect.ValueOf(NewNode(src)))
				return nil
			}
		}
		if sv.Type().Implements(dst.Type()) || dst.Type().NumMethod() == 0 {
			dst.Set(sv)
			return nil
		}
	case reflect.Struct:
		m, ok := toStringMap(src)
		if !ok {
			return errors.Errorf("field [%s] expects an object, got %T", path, src)
		}
		return bindStruct(m, dst, path)
	case reflect.Map:
		m, ok := toStringMap(src)
		if !ok {
			return errors.Errorf("field [%s] expects an object, got %T", path, src)
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMap(dst.Type()))
		}
		for k, v := range m {
			key := reflect.New(dst.Type().Key()).Elem()
			if err := bindScalar(k, key, path); err != nil {
				return err
			}
			val := reflect.New(dst.Type().Elem()).Elem()
			if err := bindValue(v, val, join(path, k)); err != nil {
				return err
			}
			dst.SetMapIndex(key, val)
		}
		return nil
	case reflect.Slice:
		if sv.Kind() == reflect.String && dst.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(sv.String(), ",")
			slice := reflect.MakeSlice(dst.Type(), len(parts), len(parts))
			for i, p := range parts {
				slice.Index(i).SetString(strings.TrimSpace(p))
			}
			dst.Set(slice)
			return nil
		}
		if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
			return errors.Errorf("field [%s] expects a list, got %T", path, src)
		}
		slice := reflect.MakeSlice(dst.Type(), sv.Len(), sv.Len())
		for i := 0; i < sv.Len(); i++ {
			if err := bindValue(sv.Index(i).Interface(), slice.Index(i), path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
		dst.Set(slice)
		return nil
	}

	return bindScalar(src, dst, path)
}

func bindStruct(m map[string]any, dst reflect.Value, path string) error {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous && field.Tag.Get("cfg") == "" {
			if err := bindValue(m, dst.Field(i), path); err != nil {
				return err
			}
			continue
		}
		name := fieldName(field)
		if name == "-" {
			continue
		}
		v, ok := lookup(m, name)
		if !ok {
			continue
		}
		if err := bindValue(v, dst.Field(i), join(path, name)); err != nil {
			return err
		}
	}
	return nil
}

func bindScalar(src any, dst reflect.Value, path string) error {
	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}

	if sv.Kind() == reflect.String {
		s := sv.String()
		switch dst.Kind() {
		case reflect.String:
			dst.SetString(s)
			return nil
		case reflect.Bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return errors.Wrapf(err, "field [%s]", path)
			}
			dst.SetBool(b)
			return nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(s, 0, dst.Type().Bits())
			if err != nil {
				return errors.Wrapf(err, "field [%s]", path)
			}
			dst.SetInt(n)
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(s, 0, dst.Type().Bits())
			if err != nil {
				return errors.Wrapf(err, "field [%s]", path)
			}
			dst.SetUint(n)
			return nil
		case reflect.Float32, reflect.Float64:
			f, err := strconv.ParseFloat(s, dst.Type().Bits())
			if err != nil {
				return errors.Wrapf(err, "field [%s]", path)
			}
			dst.SetFloat(f)
			return nil
		}
	}

	if dst.Kind() == reflect.String {
		dst.SetString(toString(sv))
		return nil
	}

	if isNumber(sv.Kind()) && isNumber(dst.Kind()) && sv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}

	return errors.Errorf("field [%s] cannot convert %T to %v", path, src, dst.Type())
}

func fieldName(field reflect.StructField) string {
	if tag := field.Tag.Get("cfg"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return field.Name
}

// lookup 先精确匹配，再大小写不敏感匹配
func lookup(m map[string]any, name string) (any, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func toStringMap(src any) (map[string]any, bool) {
	switch m := src.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		result := make(map[string]any, len(m))
		for k, v := range m {
			result[toString(reflect.ValueOf(k))] = v
		}
		return result, true
	}
	return nil, false
}

func toDuration(sv reflect.Value) (time.Duration, error) {
	switch {
	case sv.Kind() == reflect.String:
		d, err := time.ParseDuration(sv.String())
		return d, errors.Wrapf(err, "parse duration [%s] failed", sv.String())
	case sv.CanInt():
		return time.Duration(sv.Int()), nil
	case sv.CanFloat():
		return time.Duration(sv.Float() * float64(time.Second)), nil
	}
	return 0, errors.Errorf("cannot convert %v to duration", sv.Type())
}

func toTime(sv reflect.Value) (time.Time, error) {
	if t, ok := sv.Interface().(time.Time); ok {
		return t, nil
	}
	if sv.Kind() == reflect.String {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, sv.String()); err == nil {
				return t, nil
			}
		}
		return time.Time{}, errors.Errorf("parse time [%s] failed", sv.String())
	}
	if sv.CanInt() {
		return time.Unix(sv.Int(), 0), nil
	}
	return time.Time{}, errors.Errorf("cannot convert %v to time", sv.Type())
}

func toString(v reflect.Value) string {
	switch {
	case v.Kind() == reflect.String:
		return v.String()
	case v.CanInt():
		return strconv.FormatInt(v.Int(), 10)
	case v.CanUint():
		return strconv.FormatUint(v.Uint(), 10)
	case v.CanFloat():
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case v.Kind() == reflect.Bool:
		return strconv.FormatBool(v.Bool())
	}
	return ""
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
