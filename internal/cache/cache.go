// Package cache stores generated text keyed by request digest.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a string key/value store with per-entry TTL.
// Implementations never return errors: a backend failure reads as a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// GetJSON loads key and decodes it into dst. It reports false on a miss or
// when the stored value does not decode.
func GetJSON(ctx context.Context, c Cache, key string, dst any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), dst) == nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Set(ctx, key, string(raw), ttl)
}
