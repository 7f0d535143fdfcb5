package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// StatsCache implements ports.StatsCache using Redis. Entries carry a short
// TTL; the stats endpoint tolerates that much staleness.
type StatsCache struct {
	client *goredis.Client
	prefix string
}

// NewStatsCache creates a new Redis-backed wallet stats cache.
func NewStatsCache(client *goredis.Client) *StatsCache {
	return &StatsCache{
		client: client,
		prefix: "walletstats:",
	}
}

// Get retrieves cached stats for a wallet. Returns nil, nil on a miss.
func (c *StatsCache) Get(ctx context.Context, walletID uuid.UUID) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+walletID.String()).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis stats get: %w", err)
	}
	return val, nil
}

// Set stores serialized stats with a TTL.
func (c *StatsCache) Set(ctx context.Context, walletID uuid.UUID, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+walletID.String(), value, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis stats set: %w", err)
	}
	return nil
}
