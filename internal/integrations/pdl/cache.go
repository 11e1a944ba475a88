package pdl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"punsj/internal/platform/metrics"
	"punsj/pkg/domain"
	dErrors "punsj/pkg/domain-errors"
	"punsj/pkg/platform/circuit"
)

const (
	actorKeyPrefix       = "punsj:aktorid:"
	defaultLookupTimeout = 10 * time.Second
)

// Resolver looks up actor ids.
type Resolver interface {
	ActorID(ctx context.Context, nationalID domain.NationalID) (domain.ActorID, error)
}

// CachedResolver caches successful lookups in Redis and coalesces concurrent
// lookups of the same national id. Redis failures fall through to the wrapped resolver.
// While the breaker is open reads still probe Redis but writes are skipped.
type CachedResolver struct {
	next    Resolver
	client  *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	timeout time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type CacheOption func(*CachedResolver)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedResolver) {
		c.logger = logger
	}
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachedResolver) {
		c.metrics = m
	}
}

// WithLookupTimeout bounds a shared lookup, which outlives the caller that started it.
func WithLookupTimeout(d time.Duration) CacheOption {
	return func(c *CachedResolver) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithCacheBreaker(b *circuit.Breaker) CacheOption {
	return func(c *CachedResolver) {
		c.breaker = b
	}
}

// NewCachedResolver wraps next. A nil client disables caching but keeps coalescing.
func NewCachedResolver(next Resolver, client *redis.Client, ttl time.Duration, opts ...CacheOption) *CachedResolver {
	c := &CachedResolver{
		next:    next,
		client:  client,
		ttl:     ttl,
		timeout: defaultLookupTimeout,
		breaker: circuit.New("identity-cache"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedResolver) ActorID(ctx context.Context, nationalID domain.NationalID) (domain.ActorID, error) {
	key := cacheKey(nationalID)

	if c.client != nil {
		cached, err := c.client.Get(ctx, key).Result()
		switch {
		case err == nil:
			c.recordSuccess(ctx)
			c.metrics.RecordIdentityCache(true)
			return domain.ActorID(cached), nil
		case errors.Is(err, redis.Nil):
			c.recordSuccess(ctx)
		default:
			c.recordFailure(ctx, "identity cache read failed", err)
		}
	}
	c.metrics.RecordIdentityCache(false)

	// The shared lookup is detached from the first caller so its cancellation does not
	// fail the others waiting on the same key.
	ch := c.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		actorID, err := c.next.ActorID(lookupCtx, nationalID)
		if err != nil {
			return domain.ActorID(""), err
		}
		if c.client != nil && !c.breaker.IsOpen() {
			if err := c.client.Set(lookupCtx, key, actorID.String(), c.ttl).Err(); err != nil {
				c.recordFailure(lookupCtx, "identity cache write failed", err)
			}
		}
		return actorID, nil
	})
	select {
	case <-ctx.Done():
		return "", dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "identity lookup abandoned")
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(domain.ActorID), nil
	}
}

func (c *CachedResolver) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "identity cache recovered", "breaker", c.breaker.Name())
	}
}

func (c *CachedResolver) recordFailure(ctx context.Context, msg string, err error) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.WarnContext(ctx, "identity cache degraded, skipping writes", "breaker", c.breaker.Name(), "error", err)
		return
	}
	if !c.breaker.IsOpen() {
		c.logger.WarnContext(ctx, msg, "error", err)
	}
}

// cacheKey hashes the national id so raw idents never reach Redis.
func cacheKey(nationalID domain.NationalID) string {
	sum := sha256.Sum256([]byte(nationalID))
	return actorKeyPrefix + hex.EncodeToString(sum[:])
}
