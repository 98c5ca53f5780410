package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hatlonely/schemagraph/ref"
	. "github.com/smartystreets/goconvey/convey"
)

type version struct {
	TableID string `json:"tableId" msgpack:"tableId"`
	Version int64  `json:"version" msgpack:"version"`
}

func TestRedisStore(t *testing.T) {
	for _, serializer := range []string{"json", "msgpack"} {
		Convey("RedisStore "+serializer, t, func() {
			ctx := context.Background()
			mr := miniredis.RunT(t)

			store, err := NewRedisStoreWithOptions[version](&RedisStoreOptions{
				Endpoint:   mr.Addr(),
				KeyPrefix:  "sg:",
				Serializer: serializer,
			})
			So(err, ShouldBeNil)
			defer store.Close()

			So(store.Set(ctx, "t1", version{TableID: "t1", Version: 1}), ShouldBeNil)
			So(mr.Exists("sg:t1"), ShouldBeTrue)

			Convey("读取", func() {
				v, err := store.Get(ctx, "t1")
				So(err, ShouldBeNil)
				So(v, ShouldResemble, version{TableID: "t1", Version: 1})

				_, err = store.Get(ctx, "t2")
				So(err, ShouldEqual, ErrKeyNotFound)
			})

			Convey("IfNotExist", func() {
				So(store.Set(ctx, "t1", version{TableID: "t1", Version: 2}, WithIfNotExist()), ShouldEqual, ErrConditionFailed)
				So(store.Set(ctx, "t2", version{TableID: "t2", Version: 1}, WithIfNotExist()), ShouldBeNil)
			})

			Convey("过期时间", func() {
				So(store.Set(ctx, "t3", version{TableID: "t3"}, WithExpiration(time.Minute)), ShouldBeNil)
				So(mr.TTL("sg:t3"), ShouldEqual, time.Minute)
				mr.FastForward(2 * time.Minute)
				_, err := store.Get(ctx, "t3")
				So(err, ShouldEqual, ErrKeyNotFound)
			})

			Convey("批量读取", func() {
				values, errs, err := store.BatchGet(ctx, []string{"t1", "t2"})
				So(err, ShouldBeNil)
				So(values[0].Version, ShouldEqual, 1)
				So(errs[0], ShouldBeNil)
				So(errs[1], ShouldEqual, ErrKeyNotFound)
			})

			Convey("删除", func() {
				So(store.Del(ctx, "t1"), ShouldBeNil)
				So(mr.Exists("sg:t1"), ShouldBeFalse)
			})

			Convey("值无法解码", func() {
				So(mr.Set("sg:bad", "{not"), ShouldBeNil)
				_, err := store.Get(ctx, "bad")
				So(err, ShouldNotBeNil)
			})
		})
	}
}

func TestNewRedisStoreWithOptions(t *testing.T) {
	Convey("NewRedisStoreWithOptions", t, func() {
		_, err := NewRedisStoreWithOptions[string](nil)
		So(err, ShouldNotBeNil)

		_, err = NewRedisStoreWithOptions[string](&RedisStoreOptions{Endpoint: "127.0.0.1:6379", Serializer: "bson"})
		So(err, ShouldNotBeNil)

		mr := miniredis.RunT(t)
		store, err := NewStoreWithOptions[string](&ref.TypeOptions{
			Namespace: Namespace,
			Type:      "RedisStore",
			Options:   &RedisStoreOptions{Endpoint: mr.Addr()},
		})
		So(err, ShouldBeNil)
		So(store.Set(context.Background(), "k", "v"), ShouldBeNil)
		So(store.Close(), ShouldBeNil)
	})
}
