package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yieldworks/compounder/pkg/protocol"
)

// CachedOracle is a Redis read-through cache in front of another Oracle.
// Quotes drift with pool state, so entries carry a short TTL. Cache failures
// fall through to the inner oracle; a degraded cache must not fail a
// compilation the inner oracle could answer.
type CachedOracle struct {
	inner  Oracle
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedOracle wraps inner with a Redis cache.
func NewCachedOracle(inner Oracle, client *redis.Client, ttl time.Duration) *CachedOracle {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &CachedOracle{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "oracle_cache"),
	}
}

func (o *CachedOracle) Simulate(ctx context.Context, offer protocol.Coin, askDenom string) (protocol.Coin, error) {
	key := fmt.Sprintf("quote:%s:%s:%d", offer.Denom, askDenom, offer.Amount)

	cached, err := o.client.Get(ctx, key).Result()
	if err == nil {
		amount, parseErr := strconv.ParseInt(cached, 10, 64)
		if parseErr == nil {
			return protocol.NewCoin(askDenom, amount), nil
		}
		o.logger.WarnContext(ctx, "dropping malformed cache entry", "key", key)
		_ = o.client.Del(ctx, key).Err()
	} else if err != redis.Nil {
		o.logger.WarnContext(ctx, "quote cache read failed", "key", key, "error", err)
	}

	quote, err := o.inner.Simulate(ctx, offer, askDenom)
	if err != nil {
		return protocol.Coin{}, err
	}

	if err := o.client.Set(ctx, key, strconv.FormatInt(quote.Amount, 10), o.ttl).Err(); err != nil {
		o.logger.WarnContext(ctx, "quote cache write failed", "key", key, "error", err)
	}
	return quote, nil
}
