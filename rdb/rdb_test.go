package rdb

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"gorm.io/gorm"
)

type testRecord struct {
	ID   string `gorm:"primaryKey;size:64"`
	Name string
}

func TestOpen(t *testing.T) {
	Convey("测试 Open", t, func() {
		Convey("sqlite", func() {
			db, err := Open(context.Background(), &Options{
				Driver: "sqlite",
				DSN:    filepath.Join(t.TempDir(), "test.db"),
			})
			So(err, ShouldBeNil)
			defer Close(db)

			So(db.AutoMigrate(&testRecord{}), ShouldBeNil)
			So(db.Create(&testRecord{ID: "1", Name: "a"}).Error, ShouldBeNil)

			err = TranslateError(db.Create(&testRecord{ID: "1", Name: "b"}).Error)
			So(errors.Is(err, ErrDuplicateKey), ShouldBeTrue)

			var r testRecord
			err = TranslateError(db.First(&r, "id = ?", "2").Error)
			So(errors.Is(err, ErrRecordNotFound), ShouldBeTrue)
		})

		Convey("不支持的 driver", func() {
			_, err := Open(context.Background(), &Options{Driver: "oracle", DSN: "x"})
			So(err, ShouldNotBeNil)
		})

		Convey("nil options", func() {
			_, err := Open(context.Background(), nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestTranslateError(t *testing.T) {
	Convey("测试 TranslateError", t, func() {
		So(TranslateError(nil), ShouldBeNil)
		So(TranslateError(gorm.ErrRecordNotFound), ShouldEqual, ErrRecordNotFound)
		So(TranslateError(fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey)), ShouldEqual, ErrDuplicateKey)
		So(TranslateError(&mysql.MySQLError{Number: 1062}), ShouldEqual, ErrDuplicateKey)
		So(TranslateError(&pgconn.PgError{Code: "23505"}), ShouldEqual, ErrDuplicateKey)

		other := errors.New("connection refused")
		So(TranslateError(other), ShouldEqual, other)
		So(TranslateError(&mysql.MySQLError{Number: 1045}), ShouldNotEqual, ErrDuplicateKey)
	})
}
