// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

// Package redis provides a managed Redis client for the Inkpress
// application. Redis backs the server-side session store in production;
// when no Redis URL is configured the application falls back to an
// in-memory store.
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Opinionated client settings for the session workload.
const (
	poolSize     = 10
	minIdleConns = 2
	maxIdleConns = 5

	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second

	pingTimeout = 2 * time.Second
)

// NewClient creates and validates a new Redis client.
//
// # Parameters
//   - ctx: Context for the initial connectivity check.
//   - url: A redis:// or rediss:// connection URL.
//   - logger: Structured logger for client-level events.
func NewClient(ctx stdctx.Context, url string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns
	options.MaxIdleConns = maxIdleConns
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
	)

	return client, nil
}

// Ping verifies that the Redis connection is healthy.
func Ping(ctx stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
