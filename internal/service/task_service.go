package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"go-gin-gorm-taskboard/internal/domain"
	"go-gin-gorm-taskboard/pkg/utils"
)

var taskOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "task_operations_total", Help: "Count of task operations by outcome"},
	[]string{"op", "outcome"},
)

func init() { prometheus.MustRegister(taskOps) }

type CreateTaskInput struct {
	Title       string              `json:"title"       validate:"max=255"`
	Description string              `json:"description" validate:"max=10000"`
	Status      string              `json:"status"`
	DueDate     domain.OptionalDate `json:"dueDate"`
}

// UpdateTaskInput 缺省字段保持原值
type UpdateTaskInput struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Status      *string             `json:"status"`
	DueDate     domain.OptionalDate `json:"dueDate"`
}

func (in UpdateTaskInput) Patch() domain.TaskPatch {
	return domain.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		DueDate:     in.DueDate,
	}
}

var (
	errTaskNotFound  = domain.NotFound("task not found")
	errTaskForbidden = domain.Forbidden("access forbidden")
)

type TaskService struct {
	tasks    domain.TaskRepository
	validate *validator.Validate
	newID    func() string
	now      func() time.Time
}

func NewTaskService(tasks domain.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks, validate: newValidator(), newID: utils.NewID, now: time.Now}
}

// Create 所有者总是调用方本人，请求体里的 owner 字段不生效
func (s *TaskService) Create(ctx context.Context, who domain.Identity, in CreateTaskInput) (*domain.Task, error) {
	if who.AccountID == "" {
		return nil, domain.Unauthorized("authentication required")
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domain.BadRequest("title is required")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, domain.BadRequest(validationMessage(err))
	}
	status, err := domain.ParseTaskStatus(in.Status)
	if err != nil {
		return nil, domain.BadRequest(err.Error())
	}

	t := &domain.Task{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		DueDate:     in.DueDate.Value,
		OwnerID:     who.AccountID,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, domain.Internal("create task failed", err)
	}
	taskOps.WithLabelValues("create", "ok").Inc()
	return t, nil
}

// List 管理员看到全部任务（附带所有者信息），普通用户只看到自己的
func (s *TaskService) List(ctx context.Context, who domain.Identity) ([]domain.Task, error) {
	var (
		ts  []domain.Task
		err error
	)
	if who.IsAdmin() {
		ts, err = s.tasks.ListAllWithOwner(ctx)
	} else {
		ts, err = s.tasks.ListByOwner(ctx, who.AccountID)
	}
	if err != nil {
		return nil, domain.Internal("list tasks failed", err)
	}
	if ts == nil {
		ts = []domain.Task{}
	}
	return ts, nil
}

func (s *TaskService) Get(ctx context.Context, who domain.Identity, id string) (*domain.Task, error) {
	return s.load(ctx, who, id)
}

func (s *TaskService) Update(ctx context.Context, who domain.Identity, id string, patch domain.TaskPatch) (*domain.Task, error) {
	t, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}
	// 只校验本次提交的字段，未提交的保持原值
	if err := patch.Apply(t); err != nil {
		return nil, domain.BadRequest(err.Error())
	}
	t.UpdatedAt = s.now()
	n, err := s.tasks.Update(ctx, t)
	if err != nil {
		return nil, domain.Internal("update task failed", err)
	}
	// 校验后被并发删除
	if n == 0 {
		return nil, errTaskNotFound
	}
	taskOps.WithLabelValues("update", "ok").Inc()
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, who domain.Identity, id string) error {
	if _, err := s.load(ctx, who, id); err != nil {
		return err
	}
	n, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return domain.Internal("delete task failed", err)
	}
	// 校验后被并发删除
	if n == 0 {
		return errTaskNotFound
	}
	taskOps.WithLabelValues("delete", "ok").Inc()
	return nil
}

// load 先判存在再判权限：不存在 404，存在但无权 403
func (s *TaskService) load(ctx context.Context, who domain.Identity, id string) (*domain.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("load task failed", err)
	}
	if t == nil {
		return nil, errTaskNotFound
	}
	if !domain.CanAccessTask(who, t.OwnerID) {
		taskOps.WithLabelValues("access", "forbidden").Inc()
		return nil, errTaskForbidden
	}
	return t, nil
}
