package redis_repo

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultPollGatePrefix = "kiosk:poll"

/*
PollGate 限制同一張訂單查詢 gateway 的頻率，多個 instance 共用
間隔內第一個呼叫者取得 key，其他人直接讀本地狀態
*/
type PollGate struct {
	client   redis.Cmdable
	prefix   string
	interval time.Duration
}

func NewPollGate(client redis.Cmdable, prefix string, interval time.Duration) *PollGate {
	if prefix == "" {
		prefix = DefaultPollGatePrefix
	}
	return &PollGate{
		client:   client,
		prefix:   prefix,
		interval: interval,
	}
}

func (g *PollGate) key(orderNumber string) string {
	var builder strings.Builder
	builder.Grow(len(g.prefix) + 1 + len(orderNumber))
	builder.WriteString(g.prefix)
	builder.WriteString(":")
	builder.WriteString(orderNumber)
	return builder.String()
}

// Acquire true 表示本次可以查詢 gateway
func (g *PollGate) Acquire(ctx context.Context, orderNumber string) (bool, error) {
	if g.interval <= 0 {
		return true, nil
	}
	return g.client.SetNX(ctx, g.key(orderNumber), 1, g.interval).Result()
}

// Release 訂單已結清後不再需要節流
func (g *PollGate) Release(ctx context.Context, orderNumber string) error {
	return g.client.Del(ctx, g.key(orderNumber)).Err()
}
