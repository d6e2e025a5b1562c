package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const revocationKeyPrefix = "revoked:"

// RevocationStore records access tokens invalidated before their natural
// expiry. Entries carry a TTL equal to the token's remaining lifetime, so
// redis drops them the moment the token would have expired anyway.
type RevocationStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRevocationStore(client *redis.Client, logger *zap.Logger) *RevocationStore {
	return &RevocationStore{client: client, logger: logger}
}

func (s *RevocationStore) Put(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already past natural expiry; the validator's own expiry check
		// covers it.
		return nil
	}

	key := revocationKeyPrefix + tokenHash
	if err := s.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		s.logger.Error("failed to store revocation entry", zap.Error(err))
		return fmt.Errorf("failed to store revocation entry: %w", err)
	}

	return nil
}

// Contains returns an error when redis is unreachable; callers treat that as
// revoked (fail closed).
func (s *RevocationStore) Contains(ctx context.Context, tokenHash string) (bool, error) {
	key := revocationKeyPrefix + tokenHash
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		s.logger.Error("failed to check revocation entry", zap.Error(err))
		return false, fmt.Errorf("failed to check revocation entry: %w", err)
	}

	return n > 0, nil
}
