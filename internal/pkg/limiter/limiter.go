package limiter

import (
	"context"
	"time"
)

type RateLimitType string

var (
	TokenBucketType = RateLimitType("memory")
	RedisBucketType = RateLimitType("redis")
)

// LimiterConfig 每個 key 一個桶, 每 RefillRate 補充一個 token
type LimiterConfig struct {
	Capacity   int
	RefillRate time.Duration
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Capacity:   10,
		RefillRate: 6 * time.Second,
	}
}

// ratePS 每秒補充的 token 數
func (c LimiterConfig) ratePS() float64 {
	if c.RefillRate <= 0 {
		return 0
	}
	return float64(time.Second) / float64(c.RefillRate)
}

type ILimiter interface {
	Allow(ctx context.Context, key string) bool
}
