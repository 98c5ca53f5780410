package uid

import (
	"github.com/hatlonely/schemagraph/ref"
	"github.com/hatlonely/schemagraph/uid/strgen"
	"github.com/pkg/errors"
)

// NewStrGeneratorWithOptions 按 TypeOptions 创建 id 生成器，options 为 nil 时使用 UUID v7
func NewStrGeneratorWithOptions(options *ref.TypeOptions) (strgen.StrGenerator, error) {
	if options == nil || options.Type == "" {
		return strgen.NewUUIDGeneratorWithOptions(nil), nil
	}
	generator, err := ref.As[strgen.StrGenerator](options)
	if err != nil {
		return nil, errors.WithMessage(err, "ref.As failed")
	}
	return generator, nil
}
