package ref

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// Convertable 配置节点，可以转换为构造函数需要的 options 类型
type Convertable interface {
	ConvertTo(object any) error
}

// TypeOptions 通过 namespace + type 从注册表构造对象
type TypeOptions struct {
	Namespace string `cfg:"namespace"`
	Type      string `cfg:"type"`
	Options   any    `cfg:"options"`
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type constructor struct {
	fn       reflect.Value
	param    reflect.Type
	hasError bool
}

// 构造函数签名：func() T | func(O) T | func() (T, error) | func(O) (T, error)
func newConstructor(fn any) (*constructor, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, errors.Errorf("constructor must be a function, got %T", fn)
	}
	t := v.Type()
	if t.NumIn() > 1 {
		return nil, errors.Errorf("constructor accepts at most 1 parameter, got %d", t.NumIn())
	}
	if t.NumOut() == 0 || t.NumOut() > 2 {
		return nil, errors.Errorf("constructor must return 1 or 2 values, got %d", t.NumOut())
	}
	if t.NumOut() == 2 && !t.Out(1).Implements(errorType) {
		return nil, errors.New("second return value of constructor must be error")
	}

	c := &constructor{fn: v, hasError: t.NumOut() == 2}
	if t.NumIn() == 1 {
		c.param = t.In(0)
	}
	return c, nil
}

func (c *constructor) call(options any) (any, error) {
	var args []reflect.Value
	if c.param != nil {
		arg, err := c.argument(options)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	out := c.fn.Call(args)
	if c.hasError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// argument 把 options 适配为构造函数参数类型
func (c *constructor) argument(options any) (reflect.Value, error) {
	if options == nil {
		return reflect.Zero(c.param), nil
	}

	if conv, ok := options.(Convertable); ok {
		target := c.param
		if target.Kind() == reflect.Ptr {
			target = target.Elem()
		}
		ptr := reflect.New(target)
		if err := conv.ConvertTo(ptr.Interface()); err != nil {
			return reflect.Value{}, errors.Wrapf(err, "convert options to %v failed", c.param)
		}
		if c.param.Kind() == reflect.Ptr {
			return ptr, nil
		}
		return ptr.Elem(), nil
	}

	v := reflect.ValueOf(options)
	switch {
	case v.Type().AssignableTo(c.param):
		return v, nil
	case v.Kind() == reflect.Ptr && v.Type().Elem().AssignableTo(c.param):
		if v.IsNil() {
			return reflect.Zero(c.param), nil
		}
		return v.Elem(), nil
	case c.param.Kind() == reflect.Ptr && v.Type().AssignableTo(c.param.Elem()):
		ptr := reflect.New(c.param.Elem())
		ptr.Elem().Set(v)
		return ptr, nil
	}
	return reflect.Value{}, errors.Errorf("options type %T does not match constructor parameter %v", options, c.param)
}

var registry sync.Map

func key(namespace, typ string) string {
	return namespace + ":" + typ
}

// Register 注册构造函数，同一个 key 重复注册同一函数是幂等的
func Register(namespace string, typ string, fn any) error {
	c, err := newConstructor(fn)
	if err != nil {
		return errors.WithMessagef(err, "register %s failed", key(namespace, typ))
	}
	if existing, loaded := registry.LoadOrStore(key(namespace, typ), c); loaded {
		if existing.(*constructor).fn.Pointer() != c.fn.Pointer() {
			return errors.Errorf("%s already registered with a different constructor", key(namespace, typ))
		}
	}
	return nil
}

// RegisterT 以 T 的包路径和类型名作为 namespace 和 type
func RegisterT[T any](fn any) error {
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return err
	}
	return Register(namespace, typ, fn)
}

func MustRegister(namespace string, typ string, fn any) {
	if err := Register(namespace, typ, fn); err != nil {
		panic(err)
	}
}

func MustRegisterT[T any](fn any) {
	if err := RegisterT[T](fn); err != nil {
		panic(err)
	}
}

// New 按 namespace + type 构造对象
func New(namespace string, typ string, options any) (any, error) {
	v, ok := registry.Load(key(namespace, typ))
	if !ok {
		return nil, errors.Errorf("constructor not found for %s", key(namespace, typ))
	}
	return v.(*constructor).call(options)
}

func NewWithOptions(options *TypeOptions) (any, error) {
	if options == nil {
		return nil, errors.New("type options is nil")
	}
	return New(options.Namespace, options.Type, options.Options)
}

// NewT 构造 T 类型注册的对象
func NewT[T any](options any) (T, error) {
	var zero T
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return zero, err
	}
	obj, err := New(namespace, typ, options)
	if err != nil {
		return zero, err
	}
	result, ok := obj.(T)
	if !ok {
		return zero, errors.Errorf("constructed object %T is not %T", obj, zero)
	}
	return result, nil
}

// As 构造对象并断言为接口 I
func As[I any](options *TypeOptions) (I, error) {
	var zero I
	obj, err := NewWithOptions(options)
	if err != nil {
		return zero, err
	}
	result, ok := obj.(I)
	if !ok {
		return zero, errors.Errorf("%s:%s constructed %T which does not implement %v", options.Namespace, options.Type, obj, reflect.TypeOf((*I)(nil)).Elem())
	}
	return result, nil
}

func typeKey[T any]() (string, string, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return "", "", errors.Errorf("cannot derive namespace and type from %v", t)
	}
	return t.PkgPath(), t.Name(), nil
}
