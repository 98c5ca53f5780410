package kv

import (
	"context"
	"testing"
	"time"

	"github.com/hatlonely/schemagraph/ref"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMapStore(t *testing.T) {
	Convey("MapStore", t, func() {
		ctx := context.Background()
		store := NewMapStoreWithOptions[int](nil)

		So(store.Set(ctx, "a", 1), ShouldBeNil)

		Convey("读取", func() {
			v, err := store.Get(ctx, "a")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 1)

			_, err = store.Get(ctx, "b")
			So(err, ShouldEqual, ErrKeyNotFound)
		})

		Convey("键存在时 IfNotExist 失败", func() {
			So(store.Set(ctx, "a", 2, WithIfNotExist()), ShouldEqual, ErrConditionFailed)
			So(store.Set(ctx, "b", 2, WithIfNotExist()), ShouldBeNil)
		})

		Convey("删除", func() {
			So(store.Del(ctx, "a"), ShouldBeNil)
			So(store.Del(ctx, "a"), ShouldBeNil)
			_, err := store.Get(ctx, "a")
			So(err, ShouldEqual, ErrKeyNotFound)
		})

		Convey("批量读取", func() {
			values, errs, err := store.BatchGet(ctx, []string{"a", "b"})
			So(err, ShouldBeNil)
			So(values, ShouldResemble, []int{1, 0})
			So(errs[0], ShouldBeNil)
			So(errs[1], ShouldEqual, ErrKeyNotFound)
		})

		Convey("过期", func() {
			So(store.Set(ctx, "c", 3, WithExpiration(time.Millisecond)), ShouldBeNil)
			time.Sleep(5 * time.Millisecond)
			_, err := store.Get(ctx, "c")
			So(err, ShouldEqual, ErrKeyNotFound)
			So(store.Set(ctx, "c", 4, WithIfNotExist()), ShouldBeNil)
		})

		Convey("关闭后清空", func() {
			So(store.Close(), ShouldBeNil)
			_, err := store.Get(ctx, "a")
			So(err, ShouldEqual, ErrKeyNotFound)
		})
	})
}

func TestNewStoreWithOptions(t *testing.T) {
	Convey("NewStoreWithOptions", t, func() {
		store, err := NewStoreWithOptions[string](nil)
		So(err, ShouldBeNil)
		So(store, ShouldHaveSameTypeAs, &MapStore[string]{})

		_, err = NewStoreWithOptions[string](nil)
		So(err, ShouldBeNil)

		_, err = NewStoreWithOptions[string](&ref.TypeOptions{Type: "LevelDBStore"})
		So(err, ShouldNotBeNil)

		Convey("RedisStore 缺少地址", func() {
			_, err := NewStoreWithOptions[string](&ref.TypeOptions{Type: "RedisStore", Options: &RedisStoreOptions{}})
			So(err, ShouldNotBeNil)
		})
	})
}
