package router

import (
	"github.com/gin-gonic/gin"

	"go-gin-gorm-taskboard/internal/core/server"
	"go-gin-gorm-taskboard/internal/domain"
	mdw "go-gin-gorm-taskboard/internal/transport/http/middleware"
)

func NewAdminEngine(o Options) *gin.Engine {
	r := server.NewRouter(o.Log, o.CORS)
	o.common(r)

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.Session(o.Verifier, o.CookieName, o.Log), mdw.RequireRole(domain.RoleAdmin))

	if o.Registry != nil {
		o.Registry.MountAdmin(admin)
	}
	return r
}
