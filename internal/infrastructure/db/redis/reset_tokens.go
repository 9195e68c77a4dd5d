package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blogcom/account-api/internal/core/domain"
)

// ResetTokenStore keeps password reset tokens as expiring keys.
// Key format: reset:<token> -> user id
type ResetTokenStore struct {
	client *redis.Client
}

// NewResetTokenStore creates a ResetTokenStore wrapping the given Redis client.
func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

// Put binds token to userID for ttl.
func (s *ResetTokenStore) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return nil
}

// Consume reads and deletes the token atomically so it can be spent once.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, s.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrInvalidResetToken
		}
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return userID, nil
}

func (s *ResetTokenStore) key(token string) string {
	return "reset:" + token
}
