package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SCHEMAGRAPH_STORE_DRIVER", "sqlite")
	t.Setenv("SCHEMAGRAPH_STORE_DSN", filepath.Join(dir, "schemagraph.db"))
	t.Setenv("SCHEMAGRAPH_LOGGER_LEVEL", "error")

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrate done")

	out, err = execute(t, "apply", "testdata/script.yaml")
	require.NoError(t, err)
	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 5)
	assert.Equal(t, "CreateRelationship", results[4]["op"])

	out, err = execute(t, "check", "s1")
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report["tableIds"], 2)

	_, err = execute(t, "apply")
	assert.Error(t, err)

	_, err = execute(t, "apply", "testdata/missing.yaml")
	assert.Error(t, err)
}
