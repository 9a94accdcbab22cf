package scan

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// VerdictCache remembers verdicts by digest.
type VerdictCache interface {
	Get(ctx context.Context, digest string) (Verdict, bool)
	Set(ctx context.Context, digest string, verdict Verdict)
}

const verdictKeyPrefix = "scan:verdict:"

// RedisVerdictCache stores verdicts as JSON with a TTL. Failures degrade to a miss.
type RedisVerdictCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisVerdictCache returns nil when no client is configured.
func NewRedisVerdictCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisVerdictCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisVerdictCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisVerdictCache) Get(ctx context.Context, digest string) (Verdict, bool) {
	raw, err := c.client.Get(ctx, verdictKeyPrefix+digest).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("verdict cache read failed", zap.String("digest", digest), zap.Error(err))
		}
		return Verdict{}, false
	}
	var verdict Verdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		c.logger.Warn("verdict cache entry corrupt", zap.String("digest", digest), zap.Error(err))
		return Verdict{}, false
	}
	return verdict, true
}

func (c *RedisVerdictCache) Set(ctx context.Context, digest string, verdict Verdict) {
	raw, err := json.Marshal(verdict)
	if err != nil {
		c.logger.Warn("verdict cache encode failed", zap.String("digest", digest), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, verdictKeyPrefix+digest, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("verdict cache write failed", zap.String("digest", digest), zap.Error(err))
	}
}
