// Package cache keeps fully loaded datasets keyed by the signature of the
// source files they were built from.
package cache

import (
	"context"
	"sync"
)

// Key identifies one loaded dataset. A new ingest run changes Signature,
// so entries for older signatures are never served.
type Key struct {
	Dataset   string
	Signature string
}

func (k Key) String() string {
	return k.Dataset + ":" + k.Signature
}

// Cache stores dataset snapshots. Implementations are safe for concurrent
// use.
type Cache[T any] interface {
	Get(ctx context.Context, key Key) ([]T, bool, error)
	Set(ctx context.Context, key Key, rows []T) error
	// Invalidate drops every entry of the dataset regardless of signature.
	Invalidate(ctx context.Context, dataset string) error
}

type memoryEntry[T any] struct {
	signature string
	rows      []T
}

// Memory is an in-process cache holding one snapshot per dataset.
type Memory[T any] struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry[T]
}

// NewMemory creates an empty in-process cache.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{entries: make(map[string]memoryEntry[T])}
}

// Get returns the snapshot when it was stored under the same signature.
func (m *Memory[T]) Get(_ context.Context, key Key) ([]T, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key.Dataset]
	if !ok || e.signature != key.Signature {
		return nil, false, nil
	}
	return e.rows, true, nil
}

// Set replaces the dataset's snapshot. Callers must not mutate rows
// afterwards.
func (m *Memory[T]) Set(_ context.Context, key Key, rows []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key.Dataset] = memoryEntry[T]{signature: key.Signature, rows: rows}
	return nil
}

// Invalidate drops the dataset's snapshot.
func (m *Memory[T]) Invalidate(_ context.Context, dataset string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, dataset)
	return nil
}
