// migrate 部署步骤：执行内嵌的版本化迁移
//
//	migrate [up|down|status|version]
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go-gin-gorm-taskboard/internal/bootstrap"
	"go-gin-gorm-taskboard/internal/core/config"
	"go-gin-gorm-taskboard/internal/core/database"
	"go-gin-gorm-taskboard/internal/core/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	// goose 通过标准库 log 输出进度
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if cfg.DB.Driver == "memory" {
		log.Info("memory store needs no migration")
		return
	}

	db, err := bootstrap.OpenDB(cfg, log)
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if command == "version" {
		v, err := database.Version(ctx, sqlDB, cfg.DB.Driver)
		if err != nil {
			log.Fatal("read schema version", zap.Error(err))
		}
		log.Info("schema version", zap.Int64("version", v))
		return
	}
	if err := database.Migrate(ctx, sqlDB, cfg.DB.Driver, command); err != nil {
		log.Fatal("migrate failed", zap.String("command", command), zap.Error(err))
	}
	log.Info("migrate done", zap.String("command", command))
}
