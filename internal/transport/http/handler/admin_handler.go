package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-taskboard/internal/domain"
	"go-gin-gorm-taskboard/internal/service"
	"go-gin-gorm-taskboard/internal/transport/http/ez"
)

// AdminHandler 管理端只读接口，分组已要求 admin 角色
type AdminHandler struct {
	accounts *service.AccountService
	tasks    *service.TaskService
	log      *zap.Logger
}

func NewAdminHandler(accounts *service.AccountService, tasks *service.TaskService, l *zap.Logger) *AdminHandler {
	return &AdminHandler{accounts: accounts, tasks: tasks, log: l}
}

func (h *AdminHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin, h.log)
	adminOnly := []domain.Role{domain.RoleAdmin}

	ez.RegisterAction(e, ez.Action[struct{}, []domain.AccountView]{
		Method: http.MethodGet,
		Path:   "/accounts",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, who domain.Identity, _ *struct{}) ([]domain.AccountView, error) {
			return h.accounts.List(c.Request.Context(), who)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, []domain.Task]{
		Method: http.MethodGet,
		Path:   "/tasks",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, who domain.Identity, _ *struct{}) ([]domain.Task, error) {
			return h.tasks.List(c.Request.Context(), who)
		},
	})
}
