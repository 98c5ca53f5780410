package validate

import (
	"strings"

	"github.com/pkg/errors"
)

// Family 数据类型族
type Family string

const (
	FamilyInteger  Family = "integer"
	FamilyDecimal  Family = "decimal"
	FamilyFloat    Family = "float"
	FamilyText     Family = "text"
	FamilyBinary   Family = "binary"
	FamilyTemporal Family = "temporal"
	FamilyBoolean  Family = "boolean"
	FamilyJSON     Family = "json"
	FamilySpatial  Family = "spatial"
	FamilyOther    Family = "other"
)

// Rule 长度/精度参数是否允许
type Rule int

const (
	Forbidden Rule = iota
	Optional
	Required
)

// TypeSpec 数据类型定义
type TypeSpec struct {
	Name           string
	Family         Family
	Length         Rule
	MinLength      int
	MaxLength      int
	PrecisionScale Rule
	MaxPrecision   int
	MaxScale       int
}

// Dialect 数据库厂商相关的命名与类型规则
type Dialect struct {
	Name                string
	MaxIdentifierLength int
	CaseSensitive       bool

	keywords   map[string]struct{}
	types      map[string]TypeSpec
	charsets   map[string][]string
	collations map[string]struct{}
}

func newDialect(name string, maxIdentifierLength int, caseSensitive bool, keywords []string, types []TypeSpec, charsets map[string][]string, collations []string) *Dialect {
	d := &Dialect{
		Name:                name,
		MaxIdentifierLength: maxIdentifierLength,
		CaseSensitive:       caseSensitive,
		keywords:            map[string]struct{}{},
		types:               map[string]TypeSpec{},
		charsets:            charsets,
		collations:          map[string]struct{}{},
	}
	for _, kw := range keywords {
		d.keywords[kw] = struct{}{}
	}
	for _, t := range types {
		d.types[t.Name] = t
	}
	for _, list := range charsets {
		for _, c := range list {
			d.collations[c] = struct{}{}
		}
	}
	for _, c := range collations {
		d.collations[c] = struct{}{}
	}
	return d
}

// DialectByName 按名字获取方言
func DialectByName(name string) (*Dialect, error) {
	switch strings.ToLower(name) {
	case "", "mysql", "mariadb":
		return mysqlDialect, nil
	case "postgres", "postgresql":
		return postgresDialect, nil
	}
	return nil, errors.Errorf("unsupported dialect [%s]", name)
}

func MySQL() *Dialect {
	return mysqlDialect
}

func PostgreSQL() *Dialect {
	return postgresDialect
}

// FoldName 名字比较时使用的形式
func (d *Dialect) FoldName(name string) string {
	name = strings.TrimSpace(name)
	if d.CaseSensitive {
		return name
	}
	return strings.ToLower(name)
}

func (d *Dialect) SameName(a, b string) bool {
	return d.FoldName(a) == d.FoldName(b)
}

func (d *Dialect) IsKeyword(name string) bool {
	_, ok := d.keywords[strings.ToUpper(strings.TrimSpace(name))]
	return ok
}

// Type 查找数据类型，大小写不敏感
func (d *Dialect) Type(dataType string) (TypeSpec, bool) {
	spec, ok := d.types[strings.ToUpper(strings.TrimSpace(dataType))]
	return spec, ok
}

func (d *Dialect) FamilyOf(dataType string) Family {
	spec, ok := d.Type(dataType)
	if !ok {
		return ""
	}
	return spec.Family
}

func (d *Dialect) IsText(dataType string) bool {
	return d.FamilyOf(dataType) == FamilyText
}

func (d *Dialect) IsInteger(dataType string) bool {
	return d.FamilyOf(dataType) == FamilyInteger
}

func (d *Dialect) IsSpatial(dataType string) bool {
	return d.FamilyOf(dataType) == FamilySpatial
}

var mysqlDialect = newDialect("mysql", 64, false,
	[]string{
		"ACCESSIBLE", "ADD", "ALL", "ALTER", "ANALYZE", "AND", "AS", "ASC", "ASENSITIVE", "BEFORE",
		"BETWEEN", "BIGINT", "BINARY", "BLOB", "BOTH", "BY", "CALL", "CASCADE", "CASE", "CHANGE",
		"CHAR", "CHARACTER", "CHECK", "COLLATE", "COLUMN", "CONDITION", "CONSTRAINT", "CONTINUE",
		"CONVERT", "CREATE", "CROSS", "CUBE", "CUME_DIST", "CURRENT_DATE", "CURRENT_TIME",
		"CURRENT_TIMESTAMP", "CURRENT_USER", "CURSOR", "DATABASE", "DATABASES", "DAY_HOUR",
		"DAY_MICROSECOND", "DAY_MINUTE", "DAY_SECOND", "DEC", "DECIMAL", "DECLARE", "DEFAULT",
		"DELAYED", "DELETE", "DENSE_RANK", "DESC", "DESCRIBE", "DETERMINISTIC", "DISTINCT",
		"DISTINCTROW", "DIV", "DOUBLE", "DROP", "DUAL", "EACH", "ELSE", "ELSEIF", "EMPTY", "ENCLOSED",
		"ESCAPED", "EXCEPT", "EXISTS", "EXIT", "EXPLAIN", "FALSE", "FETCH", "FIRST_VALUE", "FLOAT",
		"FLOAT4", "FLOAT8", "FOR", "FORCE", "FOREIGN", "FROM", "FULLTEXT", "FUNCTION", "GENERATED",
		"GET", "GRANT", "GROUP", "GROUPING", "GROUPS", "HAVING", "HIGH_PRIORITY", "HOUR_MICROSECOND",
		"HOUR_MINUTE", "HOUR_SECOND", "IF", "IGNORE", "IN", "INDEX", "INFILE", "INNER", "INOUT",
		"INSENSITIVE", "INSERT", "INT", "INT1", "INT2", "INT3", "INT4", "INT8", "INTEGER", "INTERSECT",
		"INTERVAL", "INTO", "IS", "ITERATE", "JOIN", "JSON_TABLE", "KEY", "KEYS", "KILL", "LAG",
		"LAST_VALUE", "LATERAL", "LEAD", "LEADING", "LEAVE", "LEFT", "LIKE", "LIMIT", "LINEAR", "LINES",
		"LOAD", "LOCALTIME", "LOCALTIMESTAMP", "LOCK", "LONG", "LONGBLOB", "LONGTEXT", "LOOP",
		"LOW_PRIORITY", "MATCH", "MAXVALUE", "MEDIUMBLOB", "MEDIUMINT", "MEDIUMTEXT", "MIDDLEINT",
		"MINUTE_MICROSECOND", "MINUTE_SECOND", "MOD", "MODIFIES", "NATURAL", "NOT",
		"NO_WRITE_TO_BINLOG", "NTH_VALUE", "NTILE", "NULL", "NUMERIC", "OF", "ON", "OPTIMIZE",
		"OPTIMIZER_COSTS", "OPTION", "OPTIONALLY", "OR", "ORDER", "OUT", "OUTER", "OUTFILE", "OVER",
		"PARTITION", "PERCENT_RANK", "PRECISION", "PRIMARY", "PROCEDURE", "PURGE", "RANGE", "RANK",
		"READ", "READS", "READ_WRITE", "REAL", "RECURSIVE", "REFERENCES", "REGEXP", "RELEASE",
		"RENAME", "REPEAT", "REPLACE", "REQUIRE", "RESIGNAL", "RESTRICT", "RETURN", "REVOKE", "RIGHT",
		"RLIKE", "ROW", "ROWS", "ROW_NUMBER", "SCHEMA", "SCHEMAS", "SECOND_MICROSECOND", "SELECT",
		"SENSITIVE", "SEPARATOR", "SET", "SHOW", "SIGNAL", "SMALLINT", "SPATIAL", "SPECIFIC", "SQL",
		"SQLEXCEPTION", "SQLSTATE", "SQLWARNING", "SQL_BIG_RESULT", "SQL_CALC_FOUND_ROWS",
		"SQL_SMALL_RESULT", "SSL", "STARTING", "STORED", "STRAIGHT_JOIN", "SYSTEM", "TABLE",
		"TERMINATED", "THEN", "TINYBLOB", "TINYINT", "TINYTEXT", "TO", "TRAILING", "TRIGGER", "TRUE",
		"UNDO", "UNION", "UNIQUE", "UNLOCK", "UNSIGNED", "UPDATE", "USAGE", "USE", "USING", "UTC_DATE",
		"UTC_TIME", "UTC_TIMESTAMP", "VALUES", "VARBINARY", "VARCHAR", "VARCHARACTER", "VARYING",
		"VIRTUAL", "WHEN", "WHERE", "WHILE", "WINDOW", "WITH", "WRITE", "XOR", "YEAR_MONTH",
		"ZEROFILL",
	},
	[]TypeSpec{
		{Name: "TINYINT", Family: FamilyInteger},
		{Name: "SMALLINT", Family: FamilyInteger},
		{Name: "MEDIUMINT", Family: FamilyInteger},
		{Name: "INT", Family: FamilyInteger},
		{Name: "INTEGER", Family: FamilyInteger},
		{Name: "BIGINT", Family: FamilyInteger},
		{Name: "DECIMAL", Family: FamilyDecimal, PrecisionScale: Required, MaxPrecision: 65, MaxScale: 30},
		{Name: "NUMERIC", Family: FamilyDecimal, PrecisionScale: Required, MaxPrecision: 65, MaxScale: 30},
		{Name: "FLOAT", Family: FamilyFloat},
		{Name: "DOUBLE", Family: FamilyFloat},
		{Name: "REAL", Family: FamilyFloat},
		{Name: "BIT", Family: FamilyBinary, Length: Optional, MinLength: 1, MaxLength: 64},
		{Name: "CHAR", Family: FamilyText, Length: Optional, MinLength: 0, MaxLength: 255},
		{Name: "VARCHAR", Family: FamilyText, Length: Required, MinLength: 1, MaxLength: 65535},
		{Name: "TINYTEXT", Family: FamilyText},
		{Name: "TEXT", Family: FamilyText},
		{Name: "MEDIUMTEXT", Family: FamilyText},
		{Name: "LONGTEXT", Family: FamilyText},
		{Name: "BINARY", Family: FamilyBinary, Length: Optional, MinLength: 0, MaxLength: 255},
		{Name: "VARBINARY", Family: FamilyBinary, Length: Required, MinLength: 1, MaxLength: 65535},
		{Name: "TINYBLOB", Family: FamilyBinary},
		{Name: "BLOB", Family: FamilyBinary},
		{Name: "MEDIUMBLOB", Family: FamilyBinary},
		{Name: "LONGBLOB", Family: FamilyBinary},
		{Name: "DATE", Family: FamilyTemporal},
		{Name: "YEAR", Family: FamilyTemporal},
		{Name: "TIME", Family: FamilyTemporal, Length: Optional, MinLength: 0, MaxLength: 6},
		{Name: "DATETIME", Family: FamilyTemporal, Length: Optional, MinLength: 0, MaxLength: 6},
		{Name: "TIMESTAMP", Family: FamilyTemporal, Length: Optional, MinLength: 0, MaxLength: 6},
		{Name: "BOOLEAN", Family: FamilyBoolean},
		{Name: "BOOL", Family: FamilyBoolean},
		{Name: "JSON", Family: FamilyJSON},
		{Name: "GEOMETRY", Family: FamilySpatial},
		{Name: "POINT", Family: FamilySpatial},
		{Name: "LINESTRING", Family: FamilySpatial},
		{Name: "POLYGON", Family: FamilySpatial},
		{Name: "MULTIPOINT", Family: FamilySpatial},
		{Name: "MULTILINESTRING", Family: FamilySpatial},
		{Name: "MULTIPOLYGON", Family: FamilySpatial},
		{Name: "GEOMETRYCOLLECTION", Family: FamilySpatial},
	},
	map[string][]string{
		"utf8mb4": {"utf8mb4_general_ci", "utf8mb4_unicode_ci", "utf8mb4_unicode_520_ci", "utf8mb4_bin", "utf8mb4_0900_ai_ci", "utf8mb4_0900_as_cs", "utf8mb4_0900_bin"},
		"utf8mb3": {"utf8mb3_general_ci", "utf8mb3_unicode_ci", "utf8mb3_bin"},
		"utf8":    {"utf8_general_ci", "utf8_unicode_ci", "utf8_bin"},
		"latin1":  {"latin1_swedish_ci", "latin1_general_ci", "latin1_general_cs", "latin1_bin"},
		"ascii":   {"ascii_general_ci", "ascii_bin"},
		"binary":  {"binary"},
		"gbk":     {"gbk_chinese_ci", "gbk_bin"},
		"utf16":   {"utf16_general_ci", "utf16_unicode_ci", "utf16_bin"},
	},
	nil,
)

var postgresDialect = newDialect("postgres", 63, true,
	[]string{
		"ALL", "ANALYSE", "ANALYZE", "AND", "ANY", "ARRAY", "AS", "ASC", "ASYMMETRIC", "AUTHORIZATION",
		"BINARY", "BOTH", "CASE", "CAST", "CHECK", "COLLATE", "COLLATION", "COLUMN", "CONCURRENTLY",
		"CONSTRAINT", "CREATE", "CROSS", "CURRENT_CATALOG", "CURRENT_DATE", "CURRENT_ROLE",
		"CURRENT_SCHEMA", "CURRENT_TIME", "CURRENT_TIMESTAMP", "CURRENT_USER", "DEFAULT",
		"DEFERRABLE", "DESC", "DISTINCT", "DO", "ELSE", "END", "EXCEPT", "FALSE", "FETCH", "FOR",
		"FOREIGN", "FREEZE", "FROM", "FULL", "GRANT", "GROUP", "HAVING", "ILIKE", "IN", "INITIALLY",
		"INNER", "INTERSECT", "INTO", "IS", "ISNULL", "JOIN", "LATERAL", "LEADING", "LEFT", "LIKE",
		"LIMIT", "LOCALTIME", "LOCALTIMESTAMP", "NATURAL", "NOT", "NOTNULL", "NULL", "OFFSET", "ON",
		"ONLY", "OR", "ORDER", "OUTER", "OVERLAPS", "PLACING", "PRIMARY", "REFERENCES", "RETURNING",
		"RIGHT", "SELECT", "SESSION_USER", "SIMILAR", "SOME", "SYMMETRIC", "SYSTEM_USER", "TABLE",
		"TABLESAMPLE", "THEN", "TO", "TRAILING", "TRUE", "UNION", "UNIQUE", "USER", "USING",
		"VARIADIC", "VERBOSE", "WHEN", "WHERE", "WINDOW", "WITH",
	},
	[]TypeSpec{
		{Name: "SMALLINT", Family: FamilyInteger},
		{Name: "INTEGER", Family: FamilyInteger},
		{Name: "INT", Family: FamilyInteger},
		{Name: "BIGINT", Family: FamilyInteger},
		{Name: "NUMERIC", Family: FamilyDecimal, PrecisionScale: Optional, MaxPrecision: 1000, MaxScale: 1000},
		{Name: "DECIMAL", Family: FamilyDecimal, PrecisionScale: Optional, MaxPrecision: 1000, MaxScale: 1000},
		{Name: "REAL", Family: FamilyFloat},
		{Name: "DOUBLE PRECISION", Family: FamilyFloat},
		{Name: "CHAR", Family: FamilyText, Length: Optional, MinLength: 1, MaxLength: 10485760},
		{Name: "VARCHAR", Family: FamilyText, Length: Optional, MinLength: 1, MaxLength: 10485760},
		{Name: "TEXT", Family: FamilyText},
		{Name: "BYTEA", Family: FamilyBinary},
		{Name: "DATE", Family: FamilyTemporal},
		{Name: "TIME", Family: FamilyTemporal, Length: Optional, MinLength: 0, MaxLength: 6},
		{Name: "TIMESTAMP", Family: FamilyTemporal, Length: Optional, MinLength: 0, MaxLength: 6},
		{Name: "TIMESTAMPTZ", Family: FamilyTemporal, Length: Optional, MinLength: 0, MaxLength: 6},
		{Name: "INTERVAL", Family: FamilyTemporal},
		{Name: "BOOLEAN", Family: FamilyBoolean},
		{Name: "JSON", Family: FamilyJSON},
		{Name: "JSONB", Family: FamilyJSON},
		{Name: "UUID", Family: FamilyOther},
		{Name: "INET", Family: FamilyOther},
		{Name: "GEOMETRY", Family: FamilySpatial},
		{Name: "POINT", Family: FamilySpatial},
		{Name: "POLYGON", Family: FamilySpatial},
	},
	map[string][]string{},
	[]string{"C", "POSIX", "default", "und-x-icu", "en_US.utf8", "en-US-x-icu"},
)
