package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// gooseDialect gorm driver 名 → goose 方言
func gooseDialect(driver string) (string, error) {
	switch driver {
	case "postgres":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
}

// 便于测试替换
var (
	gooseUp      = goose.UpContext
	gooseDown    = goose.DownContext
	gooseStatus  = goose.StatusContext
	gooseVersion = goose.GetDBVersionContext
)

// Migrate 执行版本化迁移，command 可选 up / down / status。
// API 进程本身不做任何建表动作，迁移作为部署步骤单独运行。
func Migrate(ctx context.Context, db *sql.DB, driver, command string) error {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return err
	}
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	switch command {
	case "", "up":
		return gooseUp(ctx, db, "migrations")
	case "down":
		return gooseDown(ctx, db, "migrations")
	case "status":
		return gooseStatus(ctx, db, "migrations")
	}
	return fmt.Errorf("unknown migrate command %q", command)
}

// Version 当前已应用的迁移版本
func Version(ctx context.Context, db *sql.DB, driver string) (int64, error) {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return 0, err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return 0, err
	}
	return gooseVersion(ctx, db)
}
