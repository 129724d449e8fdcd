package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Store is a TTL key/value cache holding JSON-encoded values.
type Store interface {
	// Get decodes the value stored under key into target. It reports false
	// when the key is missing or expired.
	Get(ctx context.Context, key string, target any) (bool, error)
	// Put stores value under key for ttl. A zero ttl uses the store default.
	Put(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete drops key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

func encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return data, nil
}

func decode(data []byte, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal cache entry: %w", err)
	}
	return nil
}

// BuildKey creates semantic cache keys
func BuildKey(parts ...string) string {
	return strings.Join(parts, "|")
}

// SeasonKey is the cache key of the seasonal keyword ranking for month.
func SeasonKey(month int) string {
	return BuildKey("season", "v1", fmt.Sprintf("%02d", month))
}
