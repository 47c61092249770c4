// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store.go provides a Valkey-backed aggregate cache. Values are stored as
// JSON under a fixed prefix. Every failure is logged and reported as a miss:
// the database stays the source of truth and a broken cache only costs a
// recomputation.
//
// Each key has a generation counter that Remove and Clear advance. A value
// computed by a reader is stored only if the generation it saw before
// querying is still current, so a write that commits during the query
// cannot be overwritten by the stale result.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix is the Valkey key prefix for cached aggregates.
	keyPrefix = "blog:"
	// genPrefix holds the generation counters. It must not match keyPrefix+"*".
	genPrefix = "blog-gen:"
)

// errStale aborts a guarded write whose generation moved on.
var errStale = errors.New("cache generation changed")

// Store manages aggregate caching in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a cache store backed by the given Valkey client. A zero
// ttl keeps entries until they are removed explicitly.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Get decodes the cached value for key into dst. Returns false on miss.
func (s *Store) Get(ctx context.Context, key Key, dst any) bool {
	val, err := s.client.Get(ctx, keyPrefix+string(key)).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		slog.Warn("cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("cache hit", "key", key)
	return true
}

// Version returns the current generation of key, or Unversioned when it
// cannot be read.
func (s *Store) Version(ctx context.Context, key Key) int64 {
	v, err := s.client.Get(ctx, genPrefix+string(key)).Int64()
	if err == redis.Nil {
		return 0
	}
	if err != nil {
		slog.Warn("cache version error", "key", key, "error", err)
		return Unversioned
	}
	return v
}

// SetIfVersion stores v under key if the generation of key still equals
// version. The check and the write run in one WATCH transaction.
func (s *Store) SetIfVersion(ctx context.Context, key Key, v any, version int64) {
	if version == Unversioned {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode error", "key", key, "error", err)
		return
	}

	gen := genPrefix + string(key)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gen).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != version {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keyPrefix+string(key), data, s.ttl)
			return nil
		})
		return err
	}, gen)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		slog.Debug("cache write skipped, key invalidated meanwhile", "key", key)
	default:
		slog.Warn("cache set error", "key", key, "error", err)
	}
}

// Remove deletes the given keys and advances their generations.
func (s *Store) Remove(ctx context.Context, keys ...Key) {
	if len(keys) == 0 {
		return
	}
	if err := s.invalidate(ctx, keys); err != nil {
		slog.Warn("cache remove error", "keys", keys, "error", err)
		return
	}
	slog.Debug("cache invalidated", "keys", keys)
}

func (s *Store) invalidate(ctx context.Context, keys []Key) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = keyPrefix + string(k)
			pipe.Incr(ctx, genPrefix+string(k))
		}
		pipe.Del(ctx, names...)
		return nil
	})
	return err
}

// Clear removes every cached aggregate by scanning for the prefix. It runs
// at startup, after migrations and seeding may have changed the data the
// aggregates were computed from.
func (s *Store) Clear(ctx context.Context) {
	var cursor uint64
	var cleared int
	for {
		names, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("cache scan error", "error", err)
			return
		}
		if len(names) > 0 {
			keys := make([]Key, len(names))
			for i, n := range names {
				keys[i] = Key(strings.TrimPrefix(n, keyPrefix))
			}
			if err := s.invalidate(ctx, keys); err != nil {
				slog.Warn("cache clear error", "error", err)
				return
			}
			cleared += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slog.Info("cache cleared", "keys", cleared)
}
