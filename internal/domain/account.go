package domain

import (
	"context"
	"time"
)

type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:64;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	Role         Role      `gorm:"size:16;not null" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Account) TableName() string { return "accounts" }

// AccountView 对外可见的账号信息（不含密码摘要）
type AccountView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (a *Account) View() AccountView {
	return AccountView{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

// AccountRepository 查不到时返回 (nil, nil)
type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context) ([]Account, error)
}
