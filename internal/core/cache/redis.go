package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist 已注销 token 的 jti 集合，条目在 token 自然过期后失效
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type RedisDenylist struct {
	RDB    *redis.Client
	prefix string
}

func New(addr, pass string, db int) *RedisDenylist {
	return NewRedisDenylist(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewRedisDenylist(rdb *redis.Client) *RedisDenylist {
	return &RedisDenylist{RDB: rdb, prefix: "revoked:"}
}

func (d *RedisDenylist) key(jti string) string { return d.prefix + jti }

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// 已经过期的 token 不需要记录
		return nil
	}
	return d.RDB.Set(ctx, d.key(jti), 1, ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := d.RDB.Get(ctx, d.key(jti)).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (d *RedisDenylist) Ping(ctx context.Context) error { return d.RDB.Ping(ctx).Err() }

func (d *RedisDenylist) Close() error { return d.RDB.Close() }
