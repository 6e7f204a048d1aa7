// Package memory 进程内存储，用于本地体验（db.driver=memory）和测试。
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-gin-gorm-taskboard/internal/domain"
	"go-gin-gorm-taskboard/internal/repo"
)

type Store struct {
	mu       sync.RWMutex
	accounts []domain.Account
	tasks    []domain.Task
	now      func() time.Time
}

func New() *Store { return &Store{now: time.Now} }

// Stores 按 repo.Stores 暴露两个视图
func (s *Store) Stores() repo.Stores {
	return repo.Stores{Accounts: (*accounts)(s), Tasks: (*tasks)(s)}
}

type accounts Store

func (a *accounts) Create(_ context.Context, acc *domain.Account) error {
	s := (*Store)(a)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.accounts {
		if x.Email == acc.Email || x.ID == acc.ID {
			return fmt.Errorf("create account: %w", repo.ErrDuplicate)
		}
	}
	now := s.now()
	acc.CreatedAt, acc.UpdatedAt = now, now
	s.accounts = append(s.accounts, *acc)
	return nil
}

func (a *accounts) find(match func(*domain.Account) bool) *domain.Account {
	s := (*Store)(a)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.accounts {
		if match(&s.accounts[i]) {
			cp := s.accounts[i]
			return &cp
		}
	}
	return nil
}

func (a *accounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	return a.find(func(x *domain.Account) bool { return x.ID == id }), nil
}

func (a *accounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	return a.find(func(x *domain.Account) bool { return x.Email == email }), nil
}

func (a *accounts) List(_ context.Context) ([]domain.Account, error) {
	s := (*Store)(a)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Account{}, s.accounts...), nil
}

type tasks Store

func (t *tasks) Create(_ context.Context, task *domain.Task) error {
	s := (*Store)(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.tasks {
		if x.ID == task.ID {
			return fmt.Errorf("create task: %w", repo.ErrDuplicate)
		}
	}
	now := s.now()
	task.CreatedAt, task.UpdatedAt = now, now
	cp := *task
	cp.Owner = nil
	s.tasks = append(s.tasks, cp)
	return nil
}

func (t *tasks) FindByID(_ context.Context, id string) (*domain.Task, error) {
	s := (*Store)(t)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, x := range s.tasks {
		if x.ID == id {
			cp := x
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *tasks) ListByOwner(_ context.Context, ownerID string) ([]domain.Task, error) {
	s := (*Store)(t)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Task{}
	for _, x := range s.tasks {
		if x.OwnerID == ownerID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (t *tasks) ListAllWithOwner(_ context.Context) ([]domain.Task, error) {
	s := (*Store)(t)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, 0, len(s.tasks))
	for _, x := range s.tasks {
		for _, a := range s.accounts {
			if a.ID == x.OwnerID {
				x.Owner = &domain.TaskOwner{ID: a.ID, Name: a.Name, Email: a.Email}
				break
			}
		}
		out = append(out, x)
	}
	return out, nil
}

func (t *tasks) Update(_ context.Context, task *domain.Task) (int64, error) {
	s := (*Store)(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			cur := &s.tasks[i]
			cur.Title = task.Title
			cur.Description = task.Description
			cur.Status = task.Status
			cur.DueDate = task.DueDate
			cur.UpdatedAt = task.UpdatedAt
			return 1, nil
		}
	}
	return 0, nil
}

func (t *tasks) Delete(_ context.Context, id string) (int64, error) {
	s := (*Store)(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}
