// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"fmt"
	"slices"

	"quillpress/internal/models"
)

// countDeltas holds the post-count change per category and tag id.
type countDeltas struct {
	categories map[int64]int
	tags       map[int64]int
}

// computeDeltas returns the count changes for a post moving from before to
// after. Either side may be nil (create, delete). Only published posts
// count, so a published side contributes its associations and a draft side
// contributes nothing. Ids whose changes cancel out are omitted.
func computeDeltas(before, after *models.Post) countDeltas {
	d := countDeltas{categories: map[int64]int{}, tags: map[int64]int{}}
	d.add(before, -1)
	d.add(after, +1)
	for id, n := range d.categories {
		if n == 0 {
			delete(d.categories, id)
		}
	}
	for id, n := range d.tags {
		if n == 0 {
			delete(d.tags, id)
		}
	}
	return d
}

func (d countDeltas) add(p *models.Post, sign int) {
	if p == nil || !p.IsPublished() {
		return
	}
	if p.CategoryID != nil && *p.CategoryID > 0 {
		d.categories[*p.CategoryID] += sign
	}
	seen := make(map[int64]bool, len(p.Tags))
	for _, t := range p.Tags {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		d.tags[t.ID] += sign
	}
}

func (d countDeltas) empty() bool {
	return len(d.categories) == 0 && len(d.tags) == 0
}

// apply writes the deltas in ascending id order so concurrent transactions
// lock rows in the same order.
func (d countDeltas) apply(ctx context.Context, r Repositories) error {
	for _, id := range sortedKeys(d.categories) {
		if err := r.Categories.AdjustCount(ctx, id, d.categories[id]); err != nil {
			return fmt.Errorf("adjust category %d: %w", id, err)
		}
	}
	for _, id := range sortedKeys(d.tags) {
		if err := r.Tags.AdjustCount(ctx, id, d.tags[id]); err != nil {
			return fmt.Errorf("adjust tag %d: %w", id, err)
		}
	}
	return nil
}

func sortedKeys(m map[int64]int) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
