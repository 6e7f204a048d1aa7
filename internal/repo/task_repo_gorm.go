package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"go-gin-gorm-taskboard/internal/domain"
)

type TaskRepo struct{ db *gorm.DB }

func NewTaskRepo(db *gorm.DB) *TaskRepo { return &TaskRepo{db: db} }

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	if err := r.db.WithContext(ctx).Omit("Owner").Create(t).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepo) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &t, nil
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	ts := []domain.Task{}
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&ts).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks by owner: %w", err)
	}
	return ts, nil
}

// ListAllWithOwner 管理员视图：附带所有者 name/email，不读取密码摘要列
func (r *TaskRepo) ListAllWithOwner(ctx context.Context) ([]domain.Task, error) {
	ts := []domain.Task{}
	err := r.db.WithContext(ctx).
		Preload("Owner", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Order("created_at ASC, id ASC").
		Find(&ts).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return ts, nil
}

// Update 整行覆盖可变字段，后写者生效；返回匹配行数，0 表示已被删除
func (r *TaskRepo) Update(ctx context.Context, t *domain.Task) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{
			"title":       t.Title,
			"description": t.Description,
			"status":      t.Status,
			"due_date":    t.DueDate,
			"updated_at":  t.UpdatedAt,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("update task: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete task: %w", res.Error)
	}
	return res.RowsAffected, nil
}
