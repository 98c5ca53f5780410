package rdb

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
)

type Options struct {
	Driver      string        `cfg:"driver" def:"sqlite" validate:"oneof=sqlite mysql postgres"`
	DSN         string        `cfg:"dsn" validate:"required"`
	MaxConns    int           `cfg:"maxConns" def:"10"`
	MaxIdle     int           `cfg:"maxIdle" def:"5"`
	ConnMaxLife time.Duration `cfg:"connMaxLife" def:"30m"`
	// silent, error, warn, info
	LogLevel string `cfg:"logLevel" def:"silent" validate:"omitempty,oneof=silent error warn info"`
}

// Open 按 driver 打开 gorm 连接并检查连通性
func Open(ctx context.Context, options *Options) (*gorm.DB, error) {
	if options == nil {
		return nil, errors.New("rdb options is nil")
	}

	var dialector gorm.Dialector
	switch options.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(options.DSN)
	case "mysql":
		dialector = gormmysql.Open(options.DSN)
	case "postgres":
		dialector = postgres.Open(options.DSN)
	default:
		return nil, errors.Errorf("unsupported driver [%s]", options.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(logLevel(options.LogLevel)),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gorm.Open failed")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "db.DB failed")
	}
	maxConns, maxIdle := options.MaxConns, options.MaxIdle
	if options.Driver == "" || options.Driver == "sqlite" {
		// sqlite 单写者，多连接会出现 database is locked
		maxConns, maxIdle = 1, 1
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if options.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(options.ConnMaxLife)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "ping database failed")
	}
	return db, nil
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "db.DB failed")
	}
	return errors.Wrap(sqlDB.Close(), "sqlDB.Close failed")
}

func logLevel(level string) gormlogger.LogLevel {
	switch level {
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	}
	return gormlogger.Silent
}

// TranslateError 把驱动错误归一化为 ErrRecordNotFound / ErrDuplicateKey，其余原样返回
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrDuplicateKey
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return ErrDuplicateKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateKey
	}
	return err
}
