package limiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const bucketScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	-- key 不存在時以滿桶初始化
	if currentTokens == nil then
		currentTokens = capacity
		lastRefill = now
	end

	local elapsedSeconds = (now - lastRefill) / 1000
	currentTokens = math.min(capacity, currentTokens + elapsedSeconds * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	-- tokens 可能是小數, 轉字串避免被截斷
	redis.call('HSET', key, 'tokens', tostring(currentTokens), 'last_refill', now)
	redis.call('EXPIRE', key, ttl)
	return allowed
`

// RedisClient 介面定義
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RsBucketToken 多個 instance 共用的令牌桶, 狀態存在 redis hash
type RsBucketToken struct {
	LimiterConfig
	client RedisClient
	prefix string
}

func NewRsBucketToken(client RedisClient, prefix string, config *LimiterConfig) *RsBucketToken {
	rb := &RsBucketToken{
		client: client,
		prefix: prefix,
	}
	if config != nil {
		rb.LimiterConfig = *config
	} else {
		rb.LimiterConfig = GetDefaultLimiterConfig()
	}
	return rb
}

var _ ILimiter = (*RsBucketToken)(nil)

// Allow redis 錯誤時拒絕請求
func (r *RsBucketToken) Allow(ctx context.Context, key string) bool {
	result, err := r.client.Eval(
		ctx,
		bucketScript,
		[]string{r.prefix + ":ratelimit:" + key},
		r.Capacity,
		r.ratePS(),
		time.Now().UnixMilli(),
		r.ttlSeconds(),
	).Int64()
	if err != nil {
		return false
	}
	return result == 1
}

// ttlSeconds 桶補滿所需的時間, 之後 key 可以過期
func (r *RsBucketToken) ttlSeconds() int64 {
	ttl := int64((time.Duration(r.Capacity) * r.RefillRate).Seconds()) + 1
	if ttl < 60 {
		ttl = 60
	}
	return ttl
}
