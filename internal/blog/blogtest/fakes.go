// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blogtest

import (
	"context"
	"sync"

	"quillpress/internal/events"
	"quillpress/internal/settings"
)

// Settings is a fixed settings source.
type Settings struct {
	CoreSet settings.Core
	BlogSet settings.Blog
	Err     error
}

// NewSettings returns the default settings with defaultCategoryID applied.
func NewSettings(defaultCategoryID int64) *Settings {
	b := settings.DefaultBlog()
	b.DefaultCategoryID = defaultCategoryID
	return &Settings{CoreSet: settings.DefaultCore(), BlogSet: b}
}

func (s *Settings) Core(context.Context) (settings.Core, error) { return s.CoreSet, s.Err }
func (s *Settings) Blog(context.Context) (settings.Blog, error) { return s.BlogSet, s.Err }

// Events records published events.
type Events struct {
	mu  sync.Mutex
	got []events.Event
}

// Publish implements blog.Publisher.
func (e *Events) Publish(_ context.Context, ev events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, ev)
}

// All returns the recorded events in publish order.
func (e *Events) All() []events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]events.Event(nil), e.got...)
}

// LogEntry is one recorded invalidation.
type LogEntry struct {
	EntityType string
	EntityID   int64
	Action     string
}

// InvalidationLog records invalidation log calls.
type InvalidationLog struct {
	mu      sync.Mutex
	entries []LogEntry
}

// Log implements blog.InvalidationLog.
func (l *InvalidationLog) Log(_ context.Context, entityType string, entityID int64, action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{EntityType: entityType, EntityID: entityID, Action: action})
}

// Entries returns the recorded entries in order.
func (l *InvalidationLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}
