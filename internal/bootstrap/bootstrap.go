// Package bootstrap api / admin 两个进程共用的依赖组装
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-gin-gorm-taskboard/internal/core/auth"
	"go-gin-gorm-taskboard/internal/core/cache"
	"go-gin-gorm-taskboard/internal/core/config"
	"go-gin-gorm-taskboard/internal/core/database"
	"go-gin-gorm-taskboard/internal/repo"
	"go-gin-gorm-taskboard/internal/repo/memory"
	"go-gin-gorm-taskboard/internal/service"
	"go-gin-gorm-taskboard/internal/transport/http/handler"
	"go-gin-gorm-taskboard/internal/transport/http/router"
)

// App 启动时构建一次，之后只读
type App struct {
	Stores   repo.Stores
	Auth     *service.AuthService
	Accounts *service.AccountService
	Tasks    *service.TaskService
	Registry *router.Registry
	Options  router.Options

	closers []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func OpenDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	return database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                l,
	})
}

// New 按配置选择存储与注销列表实现，组装 service / handler / 路由依赖
func New(cfg *config.Config, l *zap.Logger) (*App, error) {
	app := &App{}

	if cfg.DB.Driver == "memory" {
		l.Warn("using in-memory store, data is lost on restart")
		app.Stores = memory.New().Stores()
	} else {
		db, err := OpenDB(cfg, l)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = sqlDB.Close() })
		// 表结构由 cmd/migrate 维护，这里不做任何建表动作
		l.Info("database connected", zap.String("driver", cfg.DB.Driver))
		app.Stores = repo.NewGormStores(db)
	}

	var denylist cache.Denylist
	if cfg.Redis.Addr != "" {
		rd := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rd.Ping(ctx)
		cancel()
		if err != nil {
			_ = rd.Close()
			app.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		app.closers = append(app.closers, func() { _ = rd.Close() })
		denylist = rd
		l.Info("token denylist: redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		denylist = cache.NewMemoryDenylist()
		l.Info("token denylist: in-process")
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL(),
	}
	app.Auth = service.NewAuthService(app.Stores.Accounts, jwter, denylist)
	app.Accounts = service.NewAccountService(app.Stores.Accounts)
	app.Tasks = service.NewTaskService(app.Stores.Tasks)

	cookie := handler.CookieOptions{
		Name:   cfg.Cookie.Name,
		Domain: cfg.Cookie.Domain,
		Secure: !cfg.App.IsLocal(),
		MaxAge: cfg.JWT.TTL(),
	}
	app.Registry = router.NewRegistry(
		handler.NewAuthHandler(app.Auth, app.Accounts, cookie, l),
		handler.NewTaskHandler(app.Tasks, l),
		handler.NewAdminHandler(app.Accounts, app.Tasks, l),
	)
	app.Options = router.Options{
		Log:        l,
		HTTP:       cfg.App.HTTP,
		CORS:       cfg.CORS.AllowOrigins,
		CookieName: cookie.Name,
		Verifier:   app.Auth,
		Registry:   app.Registry,
	}
	return app, nil
}
