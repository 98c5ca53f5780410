package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/hatlonely/schemagraph/usecase"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Step 一次用例调用，Save 把结果中 value.id 这类路径的值保存为变量，供后续步骤以 ${name} 引用
type Step struct {
	Op   string            `yaml:"op"`
	Args map[string]any    `yaml:"args"`
	Save map[string]string `yaml:"save"`
}

type Script struct {
	Steps []Step `yaml:"steps"`
}

type StepResult struct {
	Op     string `json:"op"`
	Result any    `json:"result"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read script [%s] failed", path)
	}
	script := &Script{}
	if err := yaml.Unmarshal(data, script); err != nil {
		return nil, errors.Wrapf(err, "parse script [%s] failed", path)
	}
	return script, nil
}

type handler func(ctx context.Context, svc *usecase.Service, args []byte) (any, error)

func bind[C any, R any](fn func(*usecase.Service, context.Context, *C) (R, error)) handler {
	return func(ctx context.Context, svc *usecase.Service, args []byte) (any, error) {
		cmd := new(C)
		decoder := json.NewDecoder(bytes.NewReader(args))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(cmd); err != nil {
			return nil, errors.Wrap(err, "decode args failed")
		}
		return fn(svc, ctx, cmd)
	}
}

type tableQuery struct {
	TableID string `json:"tableId"`
}

type schemaQuery struct {
	SchemaID string `json:"schemaId"`
}

var handlers = map[string]handler{
	"CreateTable":     bind((*usecase.Service).CreateTable),
	"ChangeTableName": bind((*usecase.Service).ChangeTableName),
	"DeleteTable":     bind((*usecase.Service).DeleteTable),

	"CreateColumn":         bind((*usecase.Service).CreateColumn),
	"ChangeColumnName":     bind((*usecase.Service).ChangeColumnName),
	"ChangeColumnType":     bind((*usecase.Service).ChangeColumnType),
	"ChangeColumnMeta":     bind((*usecase.Service).ChangeColumnMeta),
	"ChangeColumnPosition": bind((*usecase.Service).ChangeColumnPosition),
	"DeleteColumn":         bind((*usecase.Service).DeleteColumn),

	"CreateConstraint":               bind((*usecase.Service).CreateConstraint),
	"ChangeConstraintName":           bind((*usecase.Service).ChangeConstraintName),
	"AddConstraintColumn":            bind((*usecase.Service).AddConstraintColumn),
	"RemoveConstraintColumn":         bind((*usecase.Service).RemoveConstraintColumn),
	"ChangeConstraintColumnPosition": bind((*usecase.Service).ChangeConstraintColumnPosition),
	"DeleteConstraint":               bind((*usecase.Service).DeleteConstraint),

	"CreateIndex":                    bind((*usecase.Service).CreateIndex),
	"ChangeIndexName":                bind((*usecase.Service).ChangeIndexName),
	"ChangeIndexType":                bind((*usecase.Service).ChangeIndexType),
	"AddIndexColumn":                 bind((*usecase.Service).AddIndexColumn),
	"ChangeIndexColumnSortDirection": bind((*usecase.Service).ChangeIndexColumnSortDirection),
	"ChangeIndexColumnPosition":      bind((*usecase.Service).ChangeIndexColumnPosition),
	"RemoveIndexColumn":              bind((*usecase.Service).RemoveIndexColumn),
	"DeleteIndex":                    bind((*usecase.Service).DeleteIndex),

	"CreateRelationship":            bind((*usecase.Service).CreateRelationship),
	"ChangeRelationshipName":        bind((*usecase.Service).ChangeRelationshipName),
	"ChangeRelationshipKind":        bind((*usecase.Service).ChangeRelationshipKind),
	"ChangeRelationshipCardinality": bind((*usecase.Service).ChangeRelationshipCardinality),
	"ChangeRelationshipExtra":       bind((*usecase.Service).ChangeRelationshipExtra),
	"AddRelationshipColumn":         bind((*usecase.Service).AddRelationshipColumn),
	"RemoveRelationshipColumn":      bind((*usecase.Service).RemoveRelationshipColumn),
	"DeleteRelationship":            bind((*usecase.Service).DeleteRelationship),

	"GetTableSnapshot": func(ctx context.Context, svc *usecase.Service, args []byte) (any, error) {
		q := &tableQuery{}
		if err := json.Unmarshal(args, q); err != nil {
			return nil, errors.Wrap(err, "decode args failed")
		}
		return svc.GetTableSnapshot(ctx, q.TableID)
	},
	"CheckSchema": func(ctx context.Context, svc *usecase.Service, args []byte) (any, error) {
		q := &schemaQuery{}
		if err := json.Unmarshal(args, q); err != nil {
			return nil, errors.Wrap(err, "decode args failed")
		}
		return svc.CheckSchema(ctx, q.SchemaID)
	},
}

// Run 依次执行每一步，遇到错误立即停止，已执行的步骤不回滚
func Run(ctx context.Context, svc *usecase.Service, script *Script) ([]StepResult, error) {
	vars := map[string]any{}
	results := make([]StepResult, 0, len(script.Steps))
	for i, step := range script.Steps {
		h, ok := handlers[step.Op]
		if !ok {
			return results, errors.Errorf("step %d: unknown op [%s]", i, step.Op)
		}
		args, err := json.Marshal(substitute(step.Args, vars))
		if err != nil {
			return results, errors.Wrapf(err, "step %d: marshal args failed", i)
		}
		result, err := h(ctx, svc, args)
		if err != nil {
			return results, errors.WithMessagef(err, "step %d [%s] failed", i, step.Op)
		}

		// 结果转成通用结构后按路径取值
		var generic any
		data, err := json.Marshal(result)
		if err != nil {
			return results, errors.Wrapf(err, "step %d: marshal result failed", i)
		}
		if err := json.Unmarshal(data, &generic); err != nil {
			return results, errors.Wrapf(err, "step %d: unmarshal result failed", i)
		}
		for name, path := range step.Save {
			v, ok := lookup(generic, path)
			if !ok {
				return results, errors.Errorf("step %d: path [%s] not found in result", i, path)
			}
			vars[name] = v
		}
		results = append(results, StepResult{Op: step.Op, Result: generic})
	}
	return results, nil
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z0-9_.-]+)\}`)

// substitute 整个字符串就是一个占位符时保留变量原始类型，否则按字符串替换
func substitute(v any, vars map[string]any) any {
	switch t := v.(type) {
	case string:
		if m := placeholder.FindStringSubmatch(t); m != nil && m[0] == t {
			if value, ok := vars[m[1]]; ok {
				return value
			}
			return t
		}
		return placeholder.ReplaceAllStringFunc(t, func(s string) string {
			value, ok := vars[placeholder.FindStringSubmatch(s)[1]]
			if !ok {
				return s
			}
			if str, ok := value.(string); ok {
				return str
			}
			data, _ := json.Marshal(value)
			return string(data)
		})
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = substitute(e, vars)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = substitute(e, vars)
		}
		return s
	}
	return v
}

// lookup 路径以 . 分隔，数组下标写作数字，如 value.columns.0.id
func lookup(v any, path string) (any, bool) {
	for _, key := range strings.Split(path, ".") {
		switch t := v.(type) {
		case map[string]any:
			var ok bool
			if v, ok = t[key]; !ok {
				return nil, false
			}
		case []any:
			i, ok := index(key, len(t))
			if !ok {
				return nil, false
			}
			v = t[i]
		default:
			return nil, false
		}
	}
	return v, true
}

func index(key string, n int) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}
