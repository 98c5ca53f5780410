package kv

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/hatlonely/schemagraph/ref"
	"github.com/pkg/errors"
)

const Namespace = "github.com/hatlonely/schemagraph/kv"

var registered sync.Map

// NewStoreWithOptions options.Type 为 MapStore 或 RedisStore，options 为 nil 时使用 MapStore
func NewStoreWithOptions[V any](options *ref.TypeOptions) (Store[V], error) {
	// 注册时带上值类型，避免不同实例化共用一个构造函数
	suffix := fmt.Sprintf("[%s]", reflect.TypeOf((*V)(nil)).Elem().String())
	if _, loaded := registered.LoadOrStore(suffix, struct{}{}); !loaded {
		ref.MustRegister(Namespace, "MapStore"+suffix, NewMapStoreWithOptions[V])
		ref.MustRegister(Namespace, "RedisStore"+suffix, NewRedisStoreWithOptions[V])
	}

	if options == nil {
		options = &ref.TypeOptions{Namespace: Namespace, Type: "MapStore"}
	}
	namespace := options.Namespace
	if namespace == "" {
		namespace = Namespace
	}

	store, err := ref.New(namespace, options.Type+suffix, options.Options)
	if err != nil {
		return nil, errors.WithMessage(err, "ref.New failed")
	}
	s, ok := store.(Store[V])
	if !ok {
		return nil, errors.Errorf("%T is not a Store", store)
	}
	return s, nil
}
