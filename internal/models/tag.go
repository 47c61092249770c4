// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Tag is a free-form label. Posts and tags are joined through PostTag.
// PostCount counts only published posts.
type Tag struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
	PostCount   int    `json:"post_count"`
}
