package ref

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct {
	Name string
}

type GreeterOptions struct {
	Name string
}

func NewGreeterWithOptions(options *GreeterOptions) (*greeter, error) {
	if options == nil {
		return &greeter{Name: "default"}, nil
	}
	if options.Name == "" {
		return nil, errors.New("name is empty")
	}
	return &greeter{Name: options.Name}, nil
}

func NewFixedGreeter() *greeter {
	return &greeter{Name: "fixed"}
}

type mapOptions map[string]string

func (m mapOptions) ConvertTo(object any) error {
	object.(*GreeterOptions).Name = m["name"]
	return nil
}

type namer interface {
	name() string
}

func (g *greeter) name() string {
	return g.Name
}

func TestRegisterAndNew(t *testing.T) {
	require.NoError(t, Register("ref-test", "Greeter", NewGreeterWithOptions))
	require.NoError(t, Register("ref-test", "Greeter", NewGreeterWithOptions))
	require.Error(t, Register("ref-test", "Greeter", NewFixedGreeter))
	require.NoError(t, Register("ref-test", "Fixed", NewFixedGreeter))

	tests := []struct {
		name     string
		typ      string
		options  any
		expected string
		hasError bool
	}{
		{"pointer options", "Greeter", &GreeterOptions{Name: "a"}, "a", false},
		{"value options", "Greeter", GreeterOptions{Name: "b"}, "b", false},
		{"nil options", "Greeter", nil, "default", false},
		{"convertable options", "Greeter", mapOptions{"name": "c"}, "c", false},
		{"constructor error", "Greeter", &GreeterOptions{}, "", true},
		{"wrong options type", "Greeter", 42, "", true},
		{"no parameter", "Fixed", nil, "fixed", false},
		{"not registered", "Missing", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := New("ref-test", tt.typ, tt.options)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, obj.(*greeter).Name)
		})
	}
}

func TestRegisterInvalid(t *testing.T) {
	assert.Error(t, Register("ref-test", "NotFunc", 1))
	assert.Error(t, Register("ref-test", "TwoParams", func(a, b int) int { return a + b }))
	assert.Error(t, Register("ref-test", "BadReturn", func() (int, int) { return 1, 2 }))
}

func TestRegisterT(t *testing.T) {
	MustRegisterT[*greeter](NewGreeterWithOptions)

	g, err := NewT[*greeter](&GreeterOptions{Name: "t"})
	require.NoError(t, err)
	assert.Equal(t, "t", g.Name)

	n, err := As[namer](&TypeOptions{
		Namespace: "github.com/hatlonely/schemagraph/ref",
		Type:      "greeter",
		Options:   &GreeterOptions{Name: "as"},
	})
	require.NoError(t, err)
	assert.Equal(t, "as", n.name())

	_, err = As[error](&TypeOptions{Namespace: "github.com/hatlonely/schemagraph/ref", Type: "greeter"})
	assert.Error(t, err)
}
