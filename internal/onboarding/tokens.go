// Package onboarding delivers credentials to newly provisioned owners without the
// generated password ever leaving the provisioning transaction.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tablekit/backend/pkg/utils"
)

// ErrTokenNotFound is returned for unknown, expired or already used tokens.
var ErrTokenNotFound = errors.New("setup token not found")

const (
	keyPrefix  = "onboarding:setup:"
	tokenBytes = 32
)

// TokenStore keeps one-time password setup tokens in Redis.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore creates a token store whose tokens expire after ttl.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a token for userID.
func (s *TokenStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := utils.RandomToken(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+token, userID.String(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// Consume redeems token and returns the user it was issued for. A token works once.
func (s *TokenStore) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrTokenNotFound
	}
	v, err := s.client.GetDel(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume token: %w", err)
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt token value: %w", err)
	}
	return id, nil
}
