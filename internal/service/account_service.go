package service

import (
	"context"

	"go-gin-gorm-taskboard/internal/domain"
)

type AccountService struct {
	accounts domain.AccountRepository
}

func NewAccountService(accounts domain.AccountRepository) *AccountService {
	return &AccountService{accounts: accounts}
}

// Me 会话有效但账号已不存在时返回 404
func (s *AccountService) Me(ctx context.Context, who domain.Identity) (domain.AccountView, error) {
	acc, err := s.accounts.FindByID(ctx, who.AccountID)
	if err != nil {
		return domain.AccountView{}, domain.Internal("lookup account failed", err)
	}
	if acc == nil {
		return domain.AccountView{}, domain.NotFound("account not found")
	}
	return acc.View(), nil
}

// List 管理端账号列表
func (s *AccountService) List(ctx context.Context, who domain.Identity) ([]domain.AccountView, error) {
	if !who.IsAdmin() {
		return nil, domain.Forbidden("access forbidden")
	}
	accs, err := s.accounts.List(ctx)
	if err != nil {
		return nil, domain.Internal("list accounts failed", err)
	}
	out := make([]domain.AccountView, 0, len(accs))
	for i := range accs {
		out = append(out, accs[i].View())
	}
	return out, nil
}
