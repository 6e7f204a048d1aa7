package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-taskboard/internal/domain"
	"go-gin-gorm-taskboard/internal/service"
	"go-gin-gorm-taskboard/internal/transport/http/ez"
)

type TaskHandler struct {
	tasks *service.TaskService
	log   *zap.Logger
}

func NewTaskHandler(tasks *service.TaskService, l *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: l}
}

func (h *TaskHandler) MountAPI(_, authed *gin.RouterGroup) {
	e := ez.New(authed, h.log)

	ez.RegisterAction(e, ez.Action[service.CreateTaskInput, *domain.Task]{
		Method: http.MethodPost,
		Path:   "/tasks",
		Binder: ez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, who domain.Identity, in *service.CreateTaskInput) (*domain.Task, error) {
			return h.tasks.Create(c.Request.Context(), who, *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, []domain.Task]{
		Method: http.MethodGet,
		Path:   "/tasks",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, who domain.Identity, _ *struct{}) ([]domain.Task, error) {
			return h.tasks.List(c.Request.Context(), who)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Task]{
		Method: http.MethodGet,
		Path:   "/tasks/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, who domain.Identity, _ *struct{}) (*domain.Task, error) {
			return h.tasks.Get(c.Request.Context(), who, c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[service.UpdateTaskInput, *domain.Task]{
		Method: http.MethodPut,
		Path:   "/tasks/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, who domain.Identity, in *service.UpdateTaskInput) (*domain.Task, error) {
			return h.tasks.Update(c.Request.Context(), who, c.Param("id"), in.Patch())
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, messageOut]{
		Method: http.MethodDelete,
		Path:   "/tasks/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, who domain.Identity, _ *struct{}) (messageOut, error) {
			if err := h.tasks.Delete(c.Request.Context(), who, c.Param("id")); err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: "task deleted successfully"}, nil
		},
	})
}
