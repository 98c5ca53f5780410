package cfg

import (
	"reflect"
	"strings"
)

// applyEnv 用环境变量覆盖已绑定的配置，变量名为 PREFIX_ 加上大写的 cfg 路径，如 SCHEMAGRAPH_STORE_DSN
func applyEnv(prefix string, rv reflect.Value, lookupEnv func(string) (string, bool)) error {
	_, err := applyEnvValue(strings.ToUpper(prefix), rv, lookupEnv)
	return err
}

func applyEnvValue(name string, rv reflect.Value, lookupEnv func(string) (string, bool)) (bool, error) {
	switch {
	case rv.Kind() == reflect.Ptr:
		if !rv.IsNil() {
			return applyEnvValue(name, rv.Elem(), lookupEnv)
		}
		// nil 指针只在确实有覆盖时才分配
		tmp := reflect.New(rv.Type().Elem())
		changed, err := applyEnvValue(name, tmp.Elem(), lookupEnv)
		if err != nil || !changed {
			return false, err
		}
		rv.Set(tmp)
		return true, nil
	case rv.Kind() == reflect.Struct && rv.Type() != timeType:
		changed := false
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			key := name
			if !field.Anonymous || field.Tag.Get("cfg") != "" {
				tag := fieldName(field)
				if tag == "-" {
					continue
				}
				key = name + "_" + strings.ToUpper(tag)
			}
			c, err := applyEnvValue(key, rv.Field(i), lookupEnv)
			if err != nil {
				return false, err
			}
			changed = changed || c
		}
		return changed, nil
	case rv.Kind() == reflect.Interface || rv.Kind() == reflect.Map:
		return false, nil
	}

	value, ok := lookupEnv(name)
	if !ok {
		return false, nil
	}
	if err := bindValue(value, rv, name); err != nil {
		return false, err
	}
	return true, nil
}
