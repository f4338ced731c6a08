// Package trust decides whether certificate issuers are trusted.
package trust

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"recordhub/pkg/platform/circuit"
)

// Registry answers whether an issuer id is trusted.
type Registry interface {
	IsTrusted(ctx context.Context, issuerID string) (bool, error)
}

// PrefixRegistry trusts issuers whose id starts with one of its prefixes.
type PrefixRegistry struct {
	prefixes []string
}

func NewPrefixRegistry(prefixes ...string) *PrefixRegistry {
	return &PrefixRegistry{prefixes: prefixes}
}

func (r *PrefixRegistry) IsTrusted(_ context.Context, issuerID string) (bool, error) {
	if issuerID == "" {
		return false, nil
	}
	for _, p := range r.prefixes {
		if p != "" && strings.HasPrefix(issuerID, p) {
			return true, nil
		}
	}
	return false, nil
}

const cacheKeyPrefix = "trust:issuer:"

// CachedRegistry memoizes another registry's answers in Redis. Cache errors
// fall through to the wrapped registry, and repeated errors bypass the cache
// until the breaker cools down.
type CachedRegistry struct {
	next    Registry
	client  redis.Cmdable
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*CachedRegistry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *CachedRegistry) {
		r.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *CachedRegistry) {
		r.breaker = b
	}
}

func NewCachedRegistry(next Registry, client redis.Cmdable, ttl time.Duration, opts ...Option) *CachedRegistry {
	r := &CachedRegistry{
		next:    next,
		client:  client,
		ttl:     ttl,
		breaker: circuit.New("trust-cache"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CachedRegistry) IsTrusted(ctx context.Context, issuerID string) (bool, error) {
	if issuerID == "" {
		return false, nil
	}
	key := cacheKeyPrefix + issuerID

	if r.breaker.Allow() {
		val, err := r.client.Get(ctx, key).Result()
		switch {
		case err == nil:
			r.breaker.RecordSuccess()
			return val == "1", nil
		case errors.Is(err, redis.Nil):
			r.breaker.RecordSuccess()
		default:
			r.cacheFailed(ctx, "read", issuerID, err)
		}
	}

	trusted, err := r.next.IsTrusted(ctx, issuerID)
	if err != nil {
		return false, fmt.Errorf("check issuer %s: %w", issuerID, err)
	}

	if r.breaker.Allow() {
		marker := "0"
		if trusted {
			marker = "1"
		}
		if err := r.client.Set(ctx, key, marker, r.ttl).Err(); err != nil {
			r.cacheFailed(ctx, "write", issuerID, err)
		} else {
			r.breaker.RecordSuccess()
		}
	}
	return trusted, nil
}

func (r *CachedRegistry) cacheFailed(ctx context.Context, op, issuerID string, err error) {
	r.logger.WarnContext(ctx, "issuer trust cache "+op+" failed",
		"issuer_id", issuerID,
		"error", err,
	)
	if r.breaker.RecordFailure() {
		r.logger.WarnContext(ctx, "issuer trust cache bypassed after repeated failures",
			"breaker", r.breaker.Name(),
		)
	}
}
