package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mdw "go-gin-gorm-taskboard/internal/transport/http/middleware"
)

// NewRouter 基础引擎：panic 恢复 + CORS 白名单（携带 cookie）
func NewRouter(l *zap.Logger, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(mdw.Recovery(l))
	if len(allowOrigins) > 0 {
		r.Use(cors.New(CORSConfig(allowOrigins)))
	}
	return r
}

func CORSConfig(allowOrigins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", mdw.KeyRequestID},
		ExposeHeaders:    []string{mdw.KeyRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func StartHTTP(srv *http.Server, l *zap.Logger) error {
	l.Info("http starting", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       rt,
		ReadHeaderTimeout: rt,
		WriteTimeout:      wt,
		IdleTimeout:       it,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
