// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// memory.go provides an in-process aggregate cache used when no Valkey
// instance is configured. Values are kept JSON-encoded so callers never
// share mutable state with the cache.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Memory is a concurrency-safe in-memory cache with the same generation
// semantics as Store.
type Memory struct {
	mu       sync.RWMutex
	entries  map[Key][]byte
	versions map[Key]int64
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[Key][]byte), versions: make(map[Key]int64)}
}

// Get decodes the cached value for key into dst. Returns false on miss.
func (m *Memory) Get(_ context.Context, key Key, dst any) bool {
	m.mu.RLock()
	data, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		slog.Warn("cache decode error", "key", key, "error", err)
		return false
	}
	return true
}

// Version returns the current generation of key.
func (m *Memory) Version(_ context.Context, key Key) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versions[key]
}

// SetIfVersion stores v under key if the generation of key still equals
// version.
func (m *Memory) SetIfVersion(_ context.Context, key Key, v any, version int64) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode error", "key", key, "error", err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions[key] != version {
		slog.Debug("cache write skipped, key invalidated meanwhile", "key", key)
		return
	}
	m.entries[key] = data
}

// Remove deletes the given keys and advances their generations.
func (m *Memory) Remove(_ context.Context, keys ...Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
		m.versions[k]++
	}
	slog.Debug("cache invalidated", "keys", keys)
}

// Clear empties the cache.
func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		m.versions[k]++
	}
	m.entries = make(map[Key][]byte)
}
