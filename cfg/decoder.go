package cfg

import (
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Decode 按格式把配置内容解析为 map，format 为 yaml, json, toml, ini
func Decode(data []byte, format string) (map[string]any, error) {
	result := map[string]any{}
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &result); err != nil {
			return nil, errors.Wrap(err, "yaml.Unmarshal failed")
		}
	case "json":
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, errors.Wrap(err, "json.Unmarshal failed")
		}
	case "toml":
		if err := toml.Unmarshal(data, &result); err != nil {
			return nil, errors.Wrap(err, "toml.Unmarshal failed")
		}
	case "ini":
		return decodeINI(data)
	default:
		return nil, errors.Errorf("unsupported config format [%s]", format)
	}
	return result, nil
}

// FormatOf 由文件扩展名得到格式
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// decodeINI section 名中的 "." 表示嵌套，如 [logger.output]
func decodeINI(data []byte) (map[string]any, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:         true,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "ini.LoadSources failed")
	}

	result := map[string]any{}
	for _, section := range file.Sections() {
		target := result
		if section.Name() != ini.DefaultSection {
			for _, part := range strings.Split(section.Name(), ".") {
				child, ok := target[part].(map[string]any)
				if !ok {
					child = map[string]any{}
					target[part] = child
				}
				target = child
			}
		}
		for _, key := range section.Keys() {
			target[key.Name()] = parseScalar(key.String())
		}
	}
	return result, nil
}

func parseScalar(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
