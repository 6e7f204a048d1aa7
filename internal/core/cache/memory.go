package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryDenylist 单进程部署用；多实例部署请配置 redis
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{entries: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDenylist) Revoke(_ context.Context, jti string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if !until.After(now) {
		return nil
	}
	d.entries[jti] = until
	d.sweep(now)
	return nil
}

func (d *MemoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	until, ok := d.entries[jti]
	if !ok {
		return false, nil
	}
	if !until.After(d.now()) {
		delete(d.entries, jti)
		return false, nil
	}
	return true, nil
}

// sweep 顺带清理过期条目，调用方持锁
func (d *MemoryDenylist) sweep(now time.Time) {
	for k, until := range d.entries {
		if !until.After(now) {
			delete(d.entries, k)
		}
	}
}

func (d *MemoryDenylist) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
