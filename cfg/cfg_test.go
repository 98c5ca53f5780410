package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hatlonely/schemagraph/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStoreOptions struct {
	Driver   string        `cfg:"driver" def:"sqlite" validate:"oneof=sqlite mysql postgres"`
	DSN      string        `cfg:"dsn" validate:"required"`
	MaxConns int           `cfg:"maxConns" def:"10"`
	Timeout  time.Duration `cfg:"timeout" def:"3s"`
}

type testPluginOptions struct {
	Name  string `cfg:"name"`
	Level int    `cfg:"level" def:"2"`
}

type testOptions struct {
	Name    string            `cfg:"name"`
	Store   testStoreOptions  `cfg:"store"`
	Tags    []string          `cfg:"tags"`
	Labels  map[string]string `cfg:"labels"`
	Plugin  *ref.TypeOptions  `cfg:"plugin"`
	Verbose bool
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func noEnv(string) (string, bool) {
	return "", false
}

func TestLoad_Formats(t *testing.T) {
	files := map[string]string{
		"config.yaml": `
name: demo
verbose: true
store:
  driver: mysql
  dsn: "root@tcp(127.0.0.1)/sg"
  timeout: 5s
tags: [a, b]
labels:
  env: test
`,
		"config.json": `{
  "name": "demo",
  "Verbose": true,
  "store": {"driver": "mysql", "dsn": "root@tcp(127.0.0.1)/sg", "timeout": "5s"},
  "tags": ["a", "b"],
  "labels": {"env": "test"}
}`,
		"config.toml": `
name = "demo"
verbose = true
tags = ["a", "b"]

[store]
driver = "mysql"
dsn = "root@tcp(127.0.0.1)/sg"
timeout = "5s"

[labels]
env = "test"
`,
		"config.ini": `
name = demo
verbose = true
tags = a,b

[store]
driver = mysql
dsn = root@tcp(127.0.0.1)/sg
timeout = 5s

[labels]
env = test
`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			var options testOptions
			require.NoError(t, Load(writeFile(t, name, content), &options, WithLookupEnv(noEnv)))

			assert.Equal(t, "demo", options.Name)
			assert.True(t, options.Verbose)
			assert.Equal(t, "mysql", options.Store.Driver)
			assert.Equal(t, "root@tcp(127.0.0.1)/sg", options.Store.DSN)
			assert.Equal(t, 5*time.Second, options.Store.Timeout)
			assert.Equal(t, 10, options.Store.MaxConns)
			assert.Equal(t, []string{"a", "b"}, options.Tags)
			assert.Equal(t, map[string]string{"env": "test"}, options.Labels)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	var options testOptions
	path := writeFile(t, "config.yaml", "store:\n  dsn: file.db\n")
	require.NoError(t, Load(path, &options))

	assert.Equal(t, "sqlite", options.Store.Driver)
	assert.Equal(t, 10, options.Store.MaxConns)
	assert.Equal(t, 3*time.Second, options.Store.Timeout)
}

func TestLoad_Validate(t *testing.T) {
	var options testOptions
	path := writeFile(t, "config.yaml", "store:\n  driver: oracle\n  dsn: x\n")
	err := Load(path, &options)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Driver")

	options = testOptions{}
	path = writeFile(t, "config.yaml", "name: x\n")
	assert.Error(t, Load(path, &options))
}

func TestLoad_Env(t *testing.T) {
	env := map[string]string{
		"SG_STORE_DSN":      "from-env.db",
		"SG_STORE_MAXCONNS": "3",
		"SG_TAGS":           "x, y",
		"SG_VERBOSE":        "true",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	var options testOptions
	path := writeFile(t, "config.yaml", "store:\n  dsn: file.db\n  maxConns: 20\n")
	require.NoError(t, Load(path, &options, WithEnvPrefix("sg"), WithLookupEnv(lookup)))

	assert.Equal(t, "from-env.db", options.Store.DSN)
	assert.Equal(t, 3, options.Store.MaxConns)
	assert.Equal(t, []string{"x", "y"}, options.Tags)
	assert.True(t, options.Verbose)
	assert.Nil(t, options.Plugin)

	options = testOptions{}
	require.NoError(t, Load("", &options, WithEnvPrefix("SG"), WithLookupEnv(lookup)))
	assert.Equal(t, "from-env.db", options.Store.DSN)
}

func TestLoad_Errors(t *testing.T) {
	var options testOptions
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.yaml"), &options))
	assert.Error(t, Load(writeFile(t, "config.xml", "<a/>"), &options))
	assert.Error(t, Load(writeFile(t, "config.yaml", "store: [1, 2]\n"), &options))
	assert.Error(t, Load(writeFile(t, "config.yaml", "store:\n  timeout: soon\n"), &options))
}

func TestNode_ConvertTo(t *testing.T) {
	ns := "github.com/hatlonely/schemagraph/cfg/test"
	ref.MustRegister(ns, "Plugin", func(options *testPluginOptions) *testPluginOptions {
		return options
	})

	var options testOptions
	path := writeFile(t, "config.yaml", `
store:
  dsn: x
plugin:
  namespace: github.com/hatlonely/schemagraph/cfg/test
  type: Plugin
  options:
    name: p1
`)
	require.NoError(t, Load(path, &options))
	require.NotNil(t, options.Plugin)

	node, ok := options.Plugin.Options.(*Node)
	require.True(t, ok)
	assert.Equal(t, "p1", node.Sub("name").Data())
	assert.Nil(t, node.Sub("missing.key").Data())

	plugin, err := ref.As[*testPluginOptions](options.Plugin)
	require.NoError(t, err)
	assert.Equal(t, "p1", plugin.Name)
	assert.Equal(t, 2, plugin.Level)
}

func TestSetDefaults(t *testing.T) {
	type inner struct {
		Ratio float64 `def:"0.5"`
	}
	type outer struct {
		Name   string        `def:"x"`
		Count  uint          `def:"7"`
		Wait   time.Duration `def:"1500"`
		List   []int         `def:"1, 2,3"`
		Inner  inner
		Ptr    *inner
		PtrDef *int `def:"9"`
		Keep   string `def:"default"`
	}

	o := outer{Keep: "set", Ptr: &inner{}}
	require.NoError(t, SetDefaults(&o))
	assert.Equal(t, "x", o.Name)
	assert.Equal(t, uint(7), o.Count)
	assert.Equal(t, time.Duration(1500), o.Wait)
	assert.Equal(t, []int{1, 2, 3}, o.List)
	assert.Equal(t, 0.5, o.Inner.Ratio)
	assert.Equal(t, 0.5, o.Ptr.Ratio)
	require.NotNil(t, o.PtrDef)
	assert.Equal(t, 9, *o.PtrDef)
	assert.Equal(t, "set", o.Keep)

	assert.Error(t, SetDefaults(o))
	assert.Error(t, SetDefaults(nil))

	type bad struct {
		M map[string]int `def:"a=1"`
	}
	assert.Error(t, SetDefaults(&bad{}))
}
