// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package events carries post lifecycle notifications to listeners that the
// publishing core does not depend on, such as search indexers or mailers.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type names a post lifecycle event.
type Type string

const (
	PostCreated Type = "post.created"
	PostUpdated Type = "post.updated"
	PostDeleted Type = "post.deleted"
)

// Event describes something that happened to a post.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       Type      `json:"type"`
	PostID     int64     `json:"post_id"`
	Slug       string    `json:"slug,omitempty"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New builds an event stamped with a fresh id and the current time.
func New(typ Type, postID int64, slug, status string) Event {
	return Event{
		ID:         uuid.New(),
		Type:       typ,
		PostID:     postID,
		Slug:       slug,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	}
}

// Handler reacts to an event. A returned error is logged and otherwise ignored.
type Handler func(ctx context.Context, e Event) error

// Bus fans events out to in-process subscribers. Handlers run synchronously
// in subscription order; a failing or panicking handler never affects the
// publisher or the remaining handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h for every subsequent event.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers e to all subscribers.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(ctx, h, e)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, e Event) {
	defer func() {
		if rv := recover(); rv != nil {
			slog.Error("event handler panic", "type", e.Type, "post_id", e.PostID, "panic", rv)
		}
	}()
	if err := h(ctx, e); err != nil {
		slog.Warn("event handler failed", "type", e.Type, "post_id", e.PostID, "error", err)
	}
}
