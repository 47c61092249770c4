// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Submission is a raw post as sent by an author, either from the browser
// editor or from an external blogging client. Browser submissions usually
// pick a category by ID; external clients send free-text category and tag
// titles and often leave CreatedOn unset.
type Submission struct {
	UserID        int64         `json:"user_id" validate:"required,gt=0"`
	Title         string        `json:"title" validate:"max=256"`
	Slug          string        `json:"slug" validate:"max=256"`
	Body          string        `json:"body" validate:"max=1000000"`
	BodyMark      string        `json:"body_mark" validate:"max=1000000"`
	Excerpt       string        `json:"excerpt" validate:"max=1000"`
	CategoryID    int64         `json:"category_id" validate:"gte=0"`
	CategoryTitle string        `json:"category_title" validate:"max=256"`
	TagTitles     []string      `json:"tag_titles" validate:"omitempty,dive,max=256"`
	Status        PostStatus    `json:"status" validate:"omitempty,oneof=draft published"`
	CommentStatus CommentStatus `json:"comment_status" validate:"omitempty,oneof=allow disallow"`
	CreatedOn     time.Time     `json:"created_on"`

	// Tags is an optional snapshot of all existing tags, fetched once by
	// the caller so a request resolves every title against the same state.
	Tags []Tag `json:"-"`
}

// CategoryInput is a category as submitted through category management.
// An empty Slug is derived from Title.
type CategoryInput struct {
	Title       string `json:"title" validate:"required,max=256"`
	Slug        string `json:"slug" validate:"max=256"`
	Description string `json:"description" validate:"max=4000"`
}

// TagInput is a tag as submitted through tag management.
type TagInput struct {
	Title       string `json:"title" validate:"required,max=256"`
	Slug        string `json:"slug" validate:"max=256"`
	Description string `json:"description" validate:"max=4000"`
	Color       string `json:"color" validate:"max=32"`
}
