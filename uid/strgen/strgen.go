package strgen

import "github.com/hatlonely/schemagraph/ref"

func init() {
	ref.MustRegisterT[UUIDGenerator](NewUUIDGeneratorWithOptions)
	ref.MustRegisterT[SnowflakeGenerator](NewSnowflakeGeneratorWithOptions)
}

// StrGenerator 生成实体 id，生成的 id 按字典序大致随时间递增
type StrGenerator interface {
	Generate() string
}
