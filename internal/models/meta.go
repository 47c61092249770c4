// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Meta represents a single configuration key-value pair.
type Meta struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MetaValues is a convenience map for accessing settings by key.
type MetaValues map[string]string

// Get returns the value for a key, or the fallback if the key doesn't exist.
func (m MetaValues) Get(key, fallback string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return fallback
}
