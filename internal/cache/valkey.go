// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cache provides the Valkey (Redis-compatible) client and the
// best-effort stores that hold computed blog aggregates.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ValkeyOptions describes how to reach the aggregate cache.
type ValkeyOptions struct {
	Addr     string
	Password string
	DB       int

	// Attempts is how many pings are tried before giving up. Values
	// below one mean a single ping.
	Attempts int
}

const (
	pingTimeout = 2 * time.Second
	retryDelay  = 500 * time.Millisecond
)

// ConnectValkey opens a client and pings it until the server answers, the
// attempts run out or ctx is done. The client is closed on failure.
func ConnectValkey(ctx context.Context, opts ValkeyOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		ClientName:   "quillpress",
		DialTimeout:  pingTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	attempts := max(opts.Attempts, 1)
	var err error
	for i := range attempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				client.Close()
				return nil, fmt.Errorf("valkey %s: %w", opts.Addr, ctx.Err())
			case <-time.After(retryDelay):
			}
		}

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			slog.Info("valkey connected", "addr", opts.Addr, "db", opts.DB, "attempt", i+1)
			return client, nil
		}
		slog.Debug("valkey ping failed", "addr", opts.Addr, "attempt", i+1, "error", err)
	}

	client.Close()
	return nil, fmt.Errorf("valkey %s unreachable after %d attempt(s): %w", opts.Addr, attempts, err)
}
