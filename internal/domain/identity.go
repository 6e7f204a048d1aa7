package domain

import "fmt"

// Role 权限等级，只有两个取值
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// ParseRole 空串视为 RoleUser
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleUser, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Identity 已通过会话校验的调用方
type Identity struct {
	AccountID string
	Role      Role
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// CanAccessTask 任务的读写权限：管理员或任务所有者。
func CanAccessTask(who Identity, ownerID string) bool {
	if who.AccountID == "" {
		return false
	}
	return who.Role == RoleAdmin || ownerID == who.AccountID
}
