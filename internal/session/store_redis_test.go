// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client), server
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	original := &Session{
		Token:        "tok123",
		User:         &Identity{UserID: "u1", Email: "a@b.com", IsAdmin: true},
		LoginTime:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		KeepLoggedIn: true,
	}
	original.AddFlash(FlashInfo, "welcome back")

	require.NoError(t, store.Set(ctx, original, time.Hour))

	loaded, err := store.Get(ctx, "tok123")
	require.NoError(t, err)
	assert.Equal(t, "tok123", loaded.Token)
	require.NotNil(t, loaded.User)
	assert.Equal(t, "a@b.com", loaded.User.Email)
	assert.True(t, loaded.User.IsAdmin)
	assert.True(t, loaded.KeepLoggedIn)
	require.Len(t, loaded.Flashes, 1)
	assert.Equal(t, "welcome back", loaded.Flashes[0].Text)
}

func TestRedisStore_MissingToken(t *testing.T) {
	store, _ := newRedisStore(t)

	_, err := store.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_TTLEviction(t *testing.T) {
	store, server := newRedisStore(t)
	ctx := context.Background()

	original := &Session{Token: "tok", User: &Identity{UserID: "u1"}, LoginTime: time.Now()}
	require.NoError(t, store.Set(ctx, original, time.Minute))

	server.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_DeleteIsIdempotent(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	original := &Session{Token: "tok", User: &Identity{UserID: "u1"}, LoginTime: time.Now()}
	require.NoError(t, store.Set(ctx, original, time.Minute))
	require.NoError(t, store.Delete(ctx, "tok"))
	require.NoError(t, store.Delete(ctx, "tok"))
}
