package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SweepLock 清扫任务分布式锁
// 设计说明:
// 1. 多实例部署时同一天的清扫只需要跑一次,用SETNX抢当日锁
// 2. 锁key带日期(sweep:overdue:2026-08-29),天然按天滚动,
//    无需显式释放;TTL兜底防止key堆积
// 3. 抢锁失败不是错误:说明别的实例已经在扫,本实例跳过即可
//    (清扫本身幂等,锁只是省掉重复劳动)
type SweepLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSweepLock 创建清扫锁
func NewSweepLock(client *redis.Client) *SweepLock {
	return &SweepLock{client: client, ttl: 26 * time.Hour}
}

// TryAcquire 尝试获取指定清扫任务的当日锁
// 返回true表示本实例获得执行权
func (l *SweepLock) TryAcquire(ctx context.Context, name string, today time.Time) (bool, error) {
	key := fmt.Sprintf("sweep:%s:%s", name, today.Format("2006-01-02"))
	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("获取清扫锁失败: %w", err)
	}
	return ok, nil
}
