package repo

import (
	"gorm.io/gorm"

	"go-gin-gorm-taskboard/internal/domain"
)

// Stores 启动时构建一次，之后只读地注入各服务
type Stores struct {
	Accounts domain.AccountRepository
	Tasks    domain.TaskRepository
}

func NewGormStores(db *gorm.DB) Stores {
	return Stores{
		Accounts: NewAccountRepo(db),
		Tasks:    NewTaskRepo(db),
	}
}
