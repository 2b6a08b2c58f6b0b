package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// clientLimiter stores the limiter for a specific user.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-key token bucket held in process memory. It suits a
// single API instance; use RedisLimiter when several instances share limits.
type MemoryLimiter struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
}

// NewMemoryLimiter allows perMinute requests per key per minute. Idle
// entries are dropped by a cleanup goroutine that stops with ctx.
func NewMemoryLimiter(ctx context.Context, perMinute int) *MemoryLimiter {
	ml := &MemoryLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		ttl:     10 * time.Minute,
	}
	go ml.cleanupClients(ctx, time.Minute)
	return ml
}

func (ml *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	cl, exists := ml.clients[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(ml.limit, ml.burst)}
		ml.clients[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter.Allow(), nil
}

// cleanupClients periodically removes idle entries from the map.
func (ml *MemoryLimiter) cleanupClients(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ml.mu.Lock()
			for id, cl := range ml.clients {
				if time.Since(cl.lastSeen) > ml.ttl {
					delete(ml.clients, id)
				}
			}
			ml.mu.Unlock()
		}
	}
}

// RedisLimiter is a fixed-window counter shared by every API instance.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, prefix string, perMinute int) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		prefix: prefix,
		limit:  int64(perMinute),
		window: time.Minute,
		now:    time.Now,
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := rl.now().Unix() / int64(rl.window.Seconds())
	redisKey := fmt.Sprintf("%s:%s:%d", rl.prefix, key, bucket)

	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= rl.limit, nil
}

// PerUserRateLimit limits authenticated callers by user id. It must run
// after AuthMiddleware. When the limiter itself fails the request is let
// through and the failure logged.
func PerUserRateLimit(limiter Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), userID)
		if err != nil {
			logger.Error("rate limiter unavailable", zap.String("user_id", userID), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			logger.Info("rate limit exceeded", zap.String("user_id", userID), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please wait a minute and try again."})
			return
		}
		c.Next()
	}
}
