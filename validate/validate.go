package validate

import (
	"regexp"
	"strings"

	"github.com/hatlonely/schemagraph/errs"
	"github.com/hatlonely/schemagraph/model"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// CheckName 名字合法性：非空、长度、字符集、非保留字
func (d *Dialect) CheckName(entity string, name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.InvalidValue(entity, "name is empty")
	}
	if name != strings.TrimSpace(name) {
		return errs.InvalidValue(entity, "name [%s] has leading or trailing spaces", name)
	}
	if len(name) > d.MaxIdentifierLength {
		return errs.InvalidValue(entity, "name [%s] is longer than %d", name, d.MaxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return errs.InvalidValue(entity, "name [%s] is not a legal identifier", name)
	}
	if d.IsKeyword(name) {
		return errs.InvalidValue(entity, "name [%s] is a reserved keyword of %s", name, d.Name)
	}
	return nil
}

// UniqueName 同一作用域内名字唯一，excludeID 为改名时的自身
func UniqueName[T model.Named](d *Dialect, entity string, name string, excludeID string, siblings []T) error {
	for _, s := range siblings {
		if s.GetID() == excludeID {
			continue
		}
		if d.SameName(s.GetName(), name) {
			return errs.NameDuplicate(entity, name)
		}
	}
	return nil
}

// DataType 校验类型与长度精度的组合，返回规范化的类型名
func (d *Dialect) DataType(dataType string, ls model.LengthScale) (string, model.LengthScale, error) {
	ts, ok := d.Type(dataType)
	if !ok {
		return "", ls, errs.InvalidValue("column", "unknown data type [%s] for %s", dataType, d.Name)
	}
	ls = ls.Normalize()

	switch ls.Kind {
	case model.LengthScaleNone:
		if ts.Length == Required {
			return "", ls, errs.InvalidValue("column", "%s requires length", ts.Name)
		}
		if ts.PrecisionScale == Required {
			return "", ls, errs.InvalidValue("column", "%s requires precision and scale", ts.Name)
		}
	case model.LengthScaleLength:
		if ts.Length == Forbidden {
			return "", ls, errs.InvalidValue("column", "%s does not accept length", ts.Name)
		}
		if ls.Length < ts.MinLength || (ts.MaxLength > 0 && ls.Length > ts.MaxLength) {
			return "", ls, errs.InvalidValue("column", "%s length [%d] out of range [%d, %d]", ts.Name, ls.Length, ts.MinLength, ts.MaxLength)
		}
	case model.LengthScalePrecisionScale:
		if ts.PrecisionScale == Forbidden {
			return "", ls, errs.InvalidValue("column", "%s does not accept precision and scale", ts.Name)
		}
		if ls.Precision < 1 || ls.Precision > ts.MaxPrecision {
			return "", ls, errs.InvalidValue("column", "%s precision [%d] out of range [1, %d]", ts.Name, ls.Precision, ts.MaxPrecision)
		}
		if ls.Scale < 0 || ls.Scale > ts.MaxScale || ls.Scale > ls.Precision {
			return "", ls, errs.InvalidValue("column", "%s scale [%d] out of range [0, %d]", ts.Name, ls.Scale, min(ts.MaxScale, ls.Precision))
		}
	default:
		return "", ls, errs.InvalidValue("column", "unknown length scale kind [%s]", ls.Kind)
	}

	return ts.Name, ls, nil
}

// AutoIncrement 只允许整数类型，每张表至多一个
func (d *Dialect) AutoIncrement(column *model.Column, siblings []*model.Column) error {
	if !column.AutoIncrement {
		return nil
	}
	if !d.IsInteger(column.DataType) {
		return errs.InvalidValue("column", "auto increment requires an integer type, got [%s]", column.DataType)
	}
	for _, s := range siblings {
		if s.ID != column.ID && s.AutoIncrement {
			return errs.InvalidValue("column", "table already has auto increment column [%s]", s.Name)
		}
	}
	return nil
}

// CharsetCollation 只有文本类型可以设置字符集和排序规则
func (d *Dialect) CharsetCollation(dataType string, charset string, collation string) error {
	if charset == "" && collation == "" {
		return nil
	}
	if !d.IsText(dataType) {
		return errs.InvalidValue("column", "charset and collation are only allowed on text types, got [%s]", dataType)
	}
	return d.TableCharsetCollation(charset, collation)
}

// TableCharsetCollation 字符集存在，且排序规则属于该字符集
func (d *Dialect) TableCharsetCollation(charset string, collation string) error {
	if charset != "" {
		collations, ok := d.charsets[strings.ToLower(charset)]
		if !ok {
			return errs.InvalidValue("charset", "unknown charset [%s] for %s", charset, d.Name)
		}
		if collation != "" && !containsFold(collations, collation) {
			return errs.InvalidValue("collation", "collation [%s] does not belong to charset [%s]", collation, charset)
		}
		return nil
	}
	if collation != "" {
		if _, ok := d.collations[collation]; !ok && !containsFoldKey(d.collations, collation) {
			return errs.InvalidValue("collation", "unknown collation [%s] for %s", collation, d.Name)
		}
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func containsFoldKey(m map[string]struct{}, s string) bool {
	for k := range m {
		if strings.EqualFold(k, s) {
			return true
		}
	}
	return false
}
