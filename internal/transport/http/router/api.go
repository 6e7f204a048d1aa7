package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-taskboard/internal/core/config"
	"go-gin-gorm-taskboard/internal/core/server"
	mdw "go-gin-gorm-taskboard/internal/transport/http/middleware"
)

// Options 两个引擎共用的依赖
type Options struct {
	Log        *zap.Logger
	HTTP       config.HTTP
	CORS       []string
	CookieName string
	Verifier   mdw.Verifier
	Registry   *Registry
}

func (o Options) common(r *gin.Engine) {
	r.Use(
		mdw.RequestID(),
		mdw.ConcurrencyLimit(o.HTTP.MaxConcurrent),
		mdw.MaxBodyBytes(o.HTTP.MaxBodyBytes),
		mdw.Timeout(time.Duration(o.HTTP.HandlerTimeoutSec)*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(o.Log),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", mdw.MetricsHandler())
}

func NewAPIEngine(o Options) *gin.Engine {
	r := server.NewRouter(o.Log, o.CORS)
	o.common(r)

	// 前缀
	api := r.Group("/api/v1")

	// 鉴权分组
	authed := api.Group("")
	authed.Use(mdw.Session(o.Verifier, o.CookieName, o.Log))

	if o.Registry != nil {
		o.Registry.MountAPI(api, authed)
	}
	return r
}
