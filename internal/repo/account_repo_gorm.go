package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"go-gin-gorm-taskboard/internal/domain"
)

// ErrDuplicate 唯一键冲突（邮箱已存在）
var ErrDuplicate = errors.New("duplicate key")

type AccountRepo struct{ db *gorm.DB }

func NewAccountRepo(db *gorm.DB) *AccountRepo { return &AccountRepo{db: db} }

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if isDupKey(err) {
			return fmt.Errorf("create account: %w", ErrDuplicate)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *AccountRepo) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	var a domain.Account
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &a, nil
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var a domain.Account
	err := r.db.WithContext(ctx).First(&a, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return &a, nil
}

func (r *AccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	var as []domain.Account
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&as).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return as, nil
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 未开启 TranslateError 的连接按错误文案兜底
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
