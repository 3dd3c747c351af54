package utils

import (
	"context"       // Context for Redis operations
	"crypto/sha256" // Hash tokens before using them as keys
	"encoding/hex"  // Hex encoding for the hashed token
	"time"          // TTL handling

	"github.com/redis/go-redis/v9" // Redis client
)

// revokedKey builds the Redis key for a revoked token. The raw token is
// hashed so bearer credentials never appear in Redis keys or logs.
func revokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked:token:" + hex.EncodeToString(sum[:])
}

// RevokeToken marks a token as revoked until it would have expired anyway
func RevokeToken(ctx context.Context, rdb *redis.Client, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Already expired, nothing to revoke
	}
	return rdb.Set(ctx, revokedKey(token), "1", ttl).Err() // Store revocation marker with TTL
}

// IsTokenRevoked reports whether a token has been revoked via logout
func IsTokenRevoked(ctx context.Context, rdb *redis.Client, token string) (bool, error) {
	n, err := rdb.Exists(ctx, revokedKey(token)).Result() // Check for revocation marker
	if err != nil {
		return false, err // Redis error
	}
	return n > 0, nil // Key present means revoked
}
