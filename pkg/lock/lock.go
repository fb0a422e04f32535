// Package lock 提供按 key 互斥的锁，用于串行化同一资源上的"校验-写入"流程。
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sunilprojects/smart-campus-resource-management/pkg/redis"
)

// ErrLockTimeout 在 ctx 结束前未能获取锁
var ErrLockTimeout = errors.New("获取资源锁超时")

// Locker 按 key 加锁，返回的 unlock 必须调用
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ────── 进程内实现 ──────

type entry struct {
	ch   chan struct{}
	refs int
}

// Local 进程内按 key 互斥，空闲 key 自动回收
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// NewLocal 创建进程内锁
func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// ────── Redis 实现 ──────

// Distributed 基于 Redis SET NX 的锁，适用于多实例部署
type Distributed struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	logger *zap.Logger
}

// NewDistributed 创建分布式锁
func NewDistributed(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Distributed {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Distributed{client: client, ttl: ttl, retry: 20 * time.Millisecond, logger: logger}
}

func (d *Distributed) Lock(ctx context.Context, key string) (func(), error) {
	ticker := time.NewTicker(d.retry)
	defer ticker.Stop()

	for {
		token, ok, err := d.client.TryLock(ctx, key, d.ttl)
		if err != nil {
			return nil, fmt.Errorf("获取分布式锁失败: %w", err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					// 调用方 ctx 可能已取消，释放使用独立超时
					rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					if err := d.client.Unlock(rctx, key, token); err != nil {
						d.logger.Warn("释放分布式锁失败", zap.String("key", key), zap.Error(err))
					}
				})
			}, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		}
	}
}
