package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ivpulse/iv-scanner/internal/scan"
)

// summariesKey is versioned so a format change never deserializes stale rows
const summariesKey = "ivscan:summaries:v1"

// ErrMiss indicates the cache has no fresh scan result
var ErrMiss = errors.New("summary cache miss")

// SummaryCache stores the latest scan result in Redis with a TTL. A miss or a
// Redis failure just means the caller recomputes; the cache is never
// authoritative.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a summary cache with the given TTL
func New(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// Get returns the cached scan result, or ErrMiss when absent
func (c *SummaryCache) Get(ctx context.Context) (*scan.Result, error) {
	data, err := c.client.Get(ctx, summariesKey).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read summary cache: %w", err)
	}

	var result scan.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached summaries: %w", err)
	}
	return &result, nil
}

// Set stores a scan result for the configured TTL
func (c *SummaryCache) Set(ctx context.Context, result *scan.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode summaries: %w", err)
	}
	if err := c.client.Set(ctx, summariesKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write summary cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached scan result
func (c *SummaryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, summariesKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate summary cache: %w", err)
	}
	return nil
}
