package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hatlonely/schemagraph/cfg"
	"github.com/hatlonely/schemagraph/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, env map[string]string) *App {
	t.Helper()
	dir := t.TempDir()
	vars := map[string]string{
		"SCHEMAGRAPH_STORE_DSN":        filepath.Join(dir, "schemagraph.db"),
		"SCHEMAGRAPH_METRICS_TEXTFILE": filepath.Join(dir, "metrics.prom"),
	}
	for k, v := range env {
		vars[k] = v
	}
	options, err := Load("testdata/app.yaml", cfg.WithLookupEnv(func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}))
	require.NoError(t, err)

	a, err := New(context.Background(), options)
	require.NoError(t, err)
	require.NoError(t, a.Store.Migrate(context.Background()))
	return a
}

func TestLoad(t *testing.T) {
	options, err := Load("testdata/app.yaml", cfg.WithLookupEnv(func(string) (string, bool) { return "", false }))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", options.Store.Driver)
	assert.Equal(t, "schemagraph.db", options.Store.DSN)
	assert.Equal(t, 10, options.Store.MaxConns)
	assert.Equal(t, "mysql", options.Dialect)
	assert.Equal(t, "UUIDGenerator", options.IDGenerator.Type)
	assert.Nil(t, options.Notifier)

	_, err = Load("testdata/app.yaml", cfg.WithLookupEnv(func(key string) (string, bool) {
		if key == "SCHEMAGRAPH_DIALECT" {
			return "oracle", true
		}
		return "", false
	}))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	a := newApp(t, nil)
	script, err := LoadScript("testdata/script.yaml")
	require.NoError(t, err)

	results, err := Run(context.Background(), a.Service, script)
	require.NoError(t, err)
	require.Len(t, results, len(script.Steps))

	// ChangeColumnType 传播到 orders 的外键列
	changed := results[7].Result.(map[string]any)
	assert.Len(t, changed["affectedTableIds"], 2)

	snapshot := results[8].Result.(map[string]any)
	columns := snapshot["columns"].([]any)
	require.Len(t, columns, 2)
	fk := columns[1].(map[string]any)
	assert.Equal(t, "id_1", fk["name"])
	assert.Equal(t, "BIGINT", fk["dataType"])

	report := results[9].Result.(map[string]any)
	assert.Nil(t, report["problems"])
	assert.Nil(t, report["cycle"])

	require.NoError(t, a.Close())
	data, err := os.ReadFile(a.options.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `schemagraph_operations_total{operation="CreateTable",status="success"} 2`)
}

func TestRunErrors(t *testing.T) {
	a := newApp(t, nil)
	defer a.Close()
	ctx := context.Background()

	tests := []struct {
		name   string
		script *Script
	}{
		{"unknown op", &Script{Steps: []Step{{Op: "DropDatabase"}}}},
		{"unknown field", &Script{Steps: []Step{{Op: "CreateTable", Args: map[string]any{"schemaId": "s1", "name": "t", "color": "red"}}}}},
		{"domain error", &Script{Steps: []Step{{Op: "CreateColumn", Args: map[string]any{"tableId": "missing", "name": "id", "dataType": "INT"}}}}},
		{"missing path", &Script{Steps: []Step{{Op: "CreateTable", Args: map[string]any{"schemaId": "s1", "name": "t2"}, Save: map[string]string{"x": "value.nothing"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(ctx, a.Service, tt.script)
			assert.Error(t, err)
		})
	}
}

func TestSubstitute(t *testing.T) {
	vars := map[string]any{"id": "t1", "n": float64(3)}
	got := substitute(map[string]any{
		"tableId":   "${id}",
		"position":  "${n}",
		"name":      "col_${id}_${n}",
		"columnIds": []any{"${id}", "${missing}"},
	}, vars)
	assert.Equal(t, map[string]any{
		"tableId":   "t1",
		"position":  float64(3),
		"name":      "col_t1_3",
		"columnIds": []any{"t1", "${missing}"},
	}, got)
}

func TestLookup(t *testing.T) {
	v := map[string]any{"value": map[string]any{"columns": []any{map[string]any{"id": "c1"}}}}

	got, ok := lookup(v, "value.columns.0.id")
	assert.True(t, ok)
	assert.Equal(t, "c1", got)

	_, ok = lookup(v, "value.columns.1.id")
	assert.False(t, ok)
	_, ok = lookup(v, "value.columns.x")
	assert.False(t, ok)
}

func TestNewWithNotifier(t *testing.T) {
	a := newApp(t, map[string]string{"SCHEMAGRAPH_NOTIFIER_TTL": "1h"})
	defer a.Close()
	require.NotNil(t, a.Publisher)

	ctx := context.Background()
	res, err := a.Service.CreateTable(ctx, &usecase.CreateTableCommand{SchemaID: "s1", Name: "users"})
	require.NoError(t, err)

	change, err := a.Publisher.Latest(ctx, res.Value.ID)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, int64(1), change.Version)
	assert.Equal(t, "CreateTable", change.Operation)
}
