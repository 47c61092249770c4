// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// CommentStatus controls whether visitors may comment on a post.
type CommentStatus string

const (
	CommentStatusAllow    CommentStatus = "allow"
	CommentStatusDisallow CommentStatus = "disallow"
)

// Post is a blog post as persisted. Title and Slug are nil for untitled
// drafts. Category and Tags are populated by the repositories on read.
type Post struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	CategoryID    *int64        `json:"category_id,omitempty"`
	Title         *string       `json:"title"`
	Slug          *string       `json:"slug"`
	Body          string        `json:"body"`
	BodyMark      string        `json:"body_mark,omitempty"`
	Excerpt       *string       `json:"excerpt,omitempty"`
	Status        PostStatus    `json:"status"`
	CommentStatus CommentStatus `json:"comment_status"`
	CreatedOn     time.Time     `json:"created_on"`
	UpdatedOn     *time.Time    `json:"updated_on"`
	ViewCount     int           `json:"view_count"`
	CommentCount  int           `json:"comment_count"`

	Category *Category `json:"category,omitempty"`
	Tags     []Tag     `json:"tags"`

	// CreatedOnDisplay is a relative rendering of CreatedOn ("now",
	// "an hour ago"), computed on every read and never stored.
	CreatedOnDisplay string `json:"created_on_display"`
}

// IsPublished returns true if the post is in published status.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// TagIDs returns the ids of the post's tags in order.
func (p *Post) TagIDs() []int64 {
	ids := make([]int64, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// PostTag is the join row between a post and a tag.
type PostTag struct {
	PostID int64 `json:"post_id"`
	TagID  int64 `json:"tag_id"`
}

// PostQuery filters post listings. Zero values mean "no filter".
type PostQuery struct {
	Status       PostStatus
	CategorySlug string
	TagSlug      string
	Year         int
	Month        int
	Page         int
	PageSize     int
}

// ArchiveMonth is the number of published posts in one calendar month.
type ArchiveMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// ArchiveYear groups the archive months of one year.
type ArchiveYear struct {
	Year   int            `json:"year"`
	Count  int            `json:"count"`
	Months []ArchiveMonth `json:"months"`
}
