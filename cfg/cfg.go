package cfg

import (
	"os"
	"reflect"

	"github.com/pkg/errors"
)

type loadOptions struct {
	envPrefix string
	lookupEnv func(string) (string, bool)
	format    string
}

type Option func(*loadOptions)

// WithEnvPrefix 启用环境变量覆盖，prefix 如 "SCHEMAGRAPH"
func WithEnvPrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// WithLookupEnv 替换环境变量来源，便于测试
func WithLookupEnv(lookupEnv func(string) (string, bool)) Option {
	return func(o *loadOptions) {
		o.lookupEnv = lookupEnv
	}
}

// WithFormat 指定格式，默认由文件扩展名推断
func WithFormat(format string) Option {
	return func(o *loadOptions) {
		o.format = format
	}
}

// Load 读取配置文件并绑定到 v，顺序为 解析 -> 绑定 -> 环境变量覆盖 -> 默认值 -> 校验
// path 为空时跳过文件，只应用环境变量和默认值
func Load(path string, v any, opts ...Option) error {
	options := &loadOptions{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(options)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read config file [%s] failed", path)
		}
		format := options.format
		if format == "" {
			format = FormatOf(path)
		}
		if err := LoadBytes(data, format, v); err != nil {
			return errors.WithMessagef(err, "load config file [%s] failed", path)
		}
	}

	if options.envPrefix != "" {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return errors.Errorf("config target must be a non-nil pointer, got %T", v)
		}
		if err := applyEnv(options.envPrefix, rv.Elem(), options.lookupEnv); err != nil {
			return errors.WithMessage(err, "apply env failed")
		}
	}

	if err := SetDefaults(v); err != nil {
		return errors.WithMessage(err, "set defaults failed")
	}
	return Validate(v)
}

// LoadBytes 解析并绑定，不设置默认值也不校验
func LoadBytes(data []byte, format string, v any) error {
	m, err := Decode(data, format)
	if err != nil {
		return err
	}
	return Bind(m, v)
}
