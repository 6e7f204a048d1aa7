package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("unsupported db driver")

type Opts struct {
	Driver             string
	DSN                string
	Username           string // 非空时覆盖 DSN 里的用户名（仅 mysql）
	Password           string // 非空时覆盖 DSN 里的密码（仅 mysql）
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string // silent / error / warn / info
	Log                *zap.Logger
}

func NewGorm(o Opts) (*gorm.DB, error) {
	l := o.Log
	if l == nil {
		l = zap.NewNop()
	}

	var dial gorm.Dialector
	switch o.Driver {
	case "postgres":
		l.Info("db connecting", zap.String("driver", o.Driver))
		dial = postgres.Open(o.DSN)
	case "mysql":
		dsn, masked, err := mysqlDSN(o.DSN, o.Username, o.Password)
		if err != nil {
			return nil, err
		}
		l.Info("db connecting", zap.String("driver", o.Driver), zap.String("dsn", masked))
		dial = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         gormLogger(l, o.LogLevel),
		TranslateError: true, // 唯一键冲突转成 gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	db = db.Session(&gorm.Session{
		PrepareStmt:            true,
		SkipDefaultTransaction: true, // 只在需要时手动开 Tx
	})
	return db, nil
}

// gormLogger SQL 日志写进 zap，慢查询按 warn 输出
func gormLogger(l *zap.Logger, level string) logger.Interface {
	lvl := logger.Warn
	switch level {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}
	return logger.New(zap.NewStdLog(l.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// mysqlDSN 在 go-sql-driver 格式的 DSN 上补齐本项目需要的参数，
// 返回最终 DSN 和打日志用的脱敏版本。
//   - 用户名/密码可由配置覆盖
//   - parseTime：DATE/DATETIME 扫描成 time.Time
//   - charset 缺省 utf8mb4
//   - clientFoundRows：UPDATE 返回匹配行数，值未变化时也不为 0
func mysqlDSN(raw, user, pass string) (dsn, masked string, err error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "charset=") {
		sep := "?"
		if strings.Contains(raw, "?") {
			sep = "&"
		}
		raw += sep + "charset=utf8mb4"
	}
	cfg, err := mysqldrv.ParseDSN(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	if user != "" {
		cfg.User = user
	}
	if pass != "" {
		cfg.Passwd = pass
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	dsn = cfg.FormatDSN()

	if cfg.Passwd != "" {
		cfg.Passwd = "****"
	}
	return dsn, cfg.FormatDSN(), nil
}
