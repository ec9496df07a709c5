// Package punchlock 用 redis 对同一个申请人的打卡操作加锁，保证检查和写入之间不会被其他请求插入
package punchlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLocked = errors.New("打卡操作正在进行中")

// 只有持有者才能释放锁，防止锁过期后误删其他请求的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Client 是加锁用到的 redis 命令，*redis.Client 满足这个接口
type Client interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type Locker struct {
	client     Client
	expiration time.Duration
	timeout    time.Duration
}

func New(client Client, expiration, timeout time.Duration) *Locker {
	return &Locker{
		client:     client,
		expiration: expiration,
		timeout:    timeout,
	}
}

func Key(applicantID string) string {
	return fmt.Sprintf("punch_lock_%s", applicantID)
}

// Acquire 获取申请人的锁，锁已被占用时返回 ErrLocked
// 返回的 release 函数必须调用，重复调用是安全的
func (l *Locker) Acquire(ctx context.Context, applicantID string) (func(), error) {
	key := Key(applicantID)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ok, err := l.client.SetNX(ctx, key, token, l.expiration).Result()
	if err != nil {
		return nil, fmt.Errorf("获取打卡锁失败: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true

		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			slog.Error("释放打卡锁失败", "applicantID", applicantID, "error", err)
		}
	}, nil
}
