package reasoning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"legaldash/internal/common/logger"
	"legaldash/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "analysis:correlation:"

// CachedReasoner serves repeated prompts from Redis. Only non-empty
// successful completions are stored. Cache failures are logged and bypassed.
type CachedReasoner struct {
	next   Reasoner
	rdb    redis.Cmdable
	model  string
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedReasoner wraps next. model is folded into the key so switching
// models does not serve stale completions.
func NewCachedReasoner(next Reasoner, rdb redis.Cmdable, model string, ttl time.Duration, log logger.Logger) *CachedReasoner {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedReasoner{
		next:   next,
		rdb:    rdb,
		model:  model,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "reasoning-cache"}),
	}
}

// CacheKey returns the Redis key a completion for prompt is stored under.
func CacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "|" + prompt))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedReasoner) Complete(ctx context.Context, prompt string) (string, error) {
	key := CacheKey(c.model, prompt)

	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		metrics.ReasoningCacheLookups.WithLabelValues("hit").Inc()
		return val, nil
	case errors.Is(err, redis.Nil):
		metrics.ReasoningCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.ReasoningCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("cache read failed", map[string]interface{}{"error": err.Error()})
	}

	out, err := c.next.Complete(ctx, prompt)
	if err != nil || out == "" {
		return out, err
	}

	if err := c.rdb.Set(ctx, key, out, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return out, nil
}
