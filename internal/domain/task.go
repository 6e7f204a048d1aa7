package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// 长度按字符计，与 VARCHAR(255) 一致
const (
	MaxTitleLen       = 255
	MaxDescriptionLen = 10000
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "To Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

var TaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseTaskStatus 空串返回默认状态 To Do
func ParseTaskStatus(s string) (TaskStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusTodo, nil
	}
	st := TaskStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("status must be one of %q, %q, %q", StatusTodo, StatusInProgress, StatusDone)
	}
	return st, nil
}

type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      TaskStatus `gorm:"size:16;not null" json:"status"`
	DueDate     *Date      `gorm:"type:date" json:"dueDate"`
	OwnerID     string     `gorm:"size:36;not null;index" json:"ownerId"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	// 仅管理员列表会填充
	Owner *TaskOwner `gorm:"foreignKey:OwnerID;references:ID" json:"owner,omitempty"`
}

func (Task) TableName() string { return "tasks" }

// TaskOwner 任务所有者摘要，映射 accounts 表的部分列
type TaskOwner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (TaskOwner) TableName() string { return "accounts" }

// TaskPatch 部分更新：nil / !Present 表示保持原值
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	DueDate     OptionalDate
}

// Apply 校验并把 patch 合并到 t 上；ID 与 OwnerID 不受影响。
func (p TaskPatch) Apply(t *Task) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return fmt.Errorf("title must not be empty")
		}
		if utf8.RuneCountInString(title) > MaxTitleLen {
			return fmt.Errorf("title max %d chars", MaxTitleLen)
		}
		t.Title = title
	}
	if p.Description != nil {
		if utf8.RuneCountInString(*p.Description) > MaxDescriptionLen {
			return fmt.Errorf("description max %d chars", MaxDescriptionLen)
		}
		t.Description = *p.Description
	}
	if p.Status != nil {
		if strings.TrimSpace(*p.Status) == "" {
			return fmt.Errorf("status must not be empty")
		}
		st, err := ParseTaskStatus(*p.Status)
		if err != nil {
			return err
		}
		t.Status = st
	}
	if p.DueDate.Present {
		t.DueDate = p.DueDate.Value
	}
	return nil
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Task, error)
	ListAllWithOwner(ctx context.Context) ([]Task, error)
	Update(ctx context.Context, t *Task) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}
