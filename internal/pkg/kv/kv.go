// Package kv defines the durable key-value storage the cart is persisted to,
// plus an in-memory implementation and a key-scoping wrapper.
//
// Backends live next to it: Redis in this package, SQLite and Postgres in
// their own subpackages. Every backend replaces a key's value in a single
// write, so a reader sees either the previous value or the new one.
package kv

import (
	"context"
	"fmt"
	"sync"
)

// Store is a string key-value store. Get returns "" and a nil error when the
// key does not exist.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
}

// Memory is a process-local Store intended for local development and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

// Scoped prefixes every key with scope, giving each visitor their own view
// of a shared backend while callers keep using fixed key names.
func Scoped(store Store, scope string) Store {
	return &scoped{store: store, scope: scope}
}

type scoped struct {
	store Store
	scope string
}

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, s.key(key))
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.key(key), value)
}

func (s *scoped) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *scoped) key(key string) string {
	return fmt.Sprintf("%s:%s", s.scope, key)
}
