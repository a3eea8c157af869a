package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key or hash field is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache is the hash-oriented key-value port that backs session state.
// Implementations: Redis and an in-process map.
type Cache interface {
	// HGet returns ErrCacheMiss when the key or field does not exist.
	HGet(ctx context.Context, key, field string) (string, error)

	// HGetAll returns an empty map for a missing key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	HSet(ctx context.Context, key string, field string, value string) error

	// ReplaceHash atomically drops key and stores fields under it. A positive
	// expiration is applied in the same step. On error the previous hash is intact.
	ReplaceHash(ctx context.Context, key string, fields map[string]string, expiration time.Duration) error

	// HSetIfEqual sets field only while guardField still holds guardValue,
	// reporting whether the write happened.
	HSetIfEqual(ctx context.Context, key, guardField, guardValue, field, value string) (bool, error)

	// Delete does not fail for missing keys.
	Delete(ctx context.Context, key string) error

	Expire(ctx context.Context, key string, expiration time.Duration) error

	Ping(ctx context.Context) error
}
