// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound indicates the token does not map to a stored session.
var ErrNotFound = errors.New("session: not found")

// Store persists sessions keyed by their opaque token.
type Store interface {
	// Get returns the session for the token, or ErrNotFound.
	Get(ctx context.Context, token string) (*Session, error)

	// Set writes the session under its token with the given TTL,
	// replacing any existing record.
	Set(ctx context.Context, session *Session, ttl time.Duration) error

	// Delete removes the session. Deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error
}

// # In-Memory Store

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore is a process-local session store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the session for the token, or ErrNotFound. Records past
// their TTL are evicted lazily.
func (s *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	s.mu.RLock()
	entry, found := s.entries[token]
	s.mu.RUnlock()

	if !found {
		return nil, ErrNotFound
	}

	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, token)
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	// Return a copy so callers can mutate freely before Set.
	copied := entry.session
	copied.Token = token
	return &copied, nil
}

// Set writes the session under its token with the given TTL.
func (s *MemoryStore) Set(_ context.Context, session *Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[session.Token] = memoryEntry{
		session:   *session,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Delete removes the session.
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, token)
	return nil
}
