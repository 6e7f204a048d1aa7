package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost 固定的 bcrypt 代价，单次哈希约几十毫秒
const PasswordCost = 12

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword bcrypt 内部为常量时间比较
func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// BurnPasswordCheck 账号不存在时也跑一次同代价的比较，避免按耗时区分账号是否存在
func BurnPasswordCheck(pw string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), PasswordCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pw))
}
