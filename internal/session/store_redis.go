// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkpress/inkpress/internal/platform/constants"
)

// RedisStore persists sessions in Redis under the "session:" prefix.
// The record TTL doubles as a hard upper bound on session lifetime: even
// if the expiry check were bypassed, Redis evicts the record itself.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the session for the token, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	payload, err := s.client.Get(ctx, redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session_redis_get_failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("session_redis_decode_failed: %w", err)
	}

	session.Token = token
	return &session, nil
}

// Set writes the session under its token with the given TTL.
func (s *RedisStore) Set(ctx context.Context, session *Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session_redis_encode_failed: %w", err)
	}

	if err := s.client.Set(ctx, redisKey(session.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("session_redis_set_failed: %w", err)
	}
	return nil
}

// Delete removes the session.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, redisKey(token)).Err(); err != nil {
		return fmt.Errorf("session_redis_delete_failed: %w", err)
	}
	return nil
}

func redisKey(token string) string {
	return constants.RedisPrefixSession + token
}
