// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blogtest provides in-memory implementations of the blog ports
// for tests. The Store enforces the same constraints as the database
// schema: unique taxonomy slugs, unique non-null post slugs, existing
// foreign keys and non-negative post counts.
package blogtest

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"quillpress/internal/apperr"
	"quillpress/internal/blog"
	"quillpress/internal/models"
)

type state struct {
	nextID     int64
	users      map[int64]bool
	posts      map[int64]models.Post
	postTags   map[int64][]int64
	categories map[int64]models.Category
	tags       map[int64]models.Tag
}

func (s *state) clone() *state {
	c := &state{
		nextID:     s.nextID,
		users:      maps.Clone(s.users),
		posts:      maps.Clone(s.posts),
		postTags:   make(map[int64][]int64, len(s.postTags)),
		categories: maps.Clone(s.categories),
		tags:       maps.Clone(s.tags),
	}
	for k, v := range s.postTags {
		c.postTags[k] = slices.Clone(v)
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is an in-memory database. The zero value is not usable; call New.
type Store struct {
	mu sync.Mutex
	st *state

	// PostConflicts makes the next N post creates or updates fail with a
	// Conflict, as a lost slug race would.
	PostConflicts int
	// FailAdjust, when set, is returned by the next AdjustCount call.
	FailAdjust error
	// BeforeCreateTag runs before a tag insert, outside the store lock, so a
	// test can insert a competing tag.
	BeforeCreateTag func(t models.Tag)
	// BeforeCreateCategory is the category counterpart of BeforeCreateTag.
	BeforeCreateCategory func(c models.Category)

	// LockedReads counts GetForUpdate calls made inside a unit of work.
	LockedReads int

	// Commits and Rollbacks count finished units of work.
	Commits   int
	Rollbacks int
}

// New creates an empty store.
func New() *Store {
	return &Store{st: &state{
		users:      map[int64]bool{},
		posts:      map[int64]models.Post{},
		postTags:   map[int64][]int64{},
		categories: map[int64]models.Category{},
		tags:       map[int64]models.Tag{},
	}}
}

// Repositories returns repositories that operate outside any transaction.
func (s *Store) Repositories() blog.Repositories {
	v := view{s: s}
	return blog.Repositories{Posts: postRepo{v}, Categories: categoryRepo{v}, Tags: tagRepo{v}}
}

// Do implements blog.UnitOfWork. Units of work are serialized; on error,
// panic or a cancelled context every change made by fn is discarded.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, r blog.Repositories) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
			s.Rollbacks++
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	v := view{s: s, inTx: true}
	if err := fn(ctx, blog.Repositories{Posts: postRepo{v}, Categories: categoryRepo{v}, Tags: tagRepo{v}}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	committed = true
	s.Commits++
	return nil
}

// Exists implements blog.AuthorLookup.
func (s *Store) Exists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.users[id], nil
}

// AddUser registers an author id.
func (s *Store) AddUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.users[id] = true
}

// AddCategory inserts a category directly and returns it.
func (s *Store) AddCategory(title, slug string) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.Category{ID: s.st.id(), Title: title, Slug: slug}
	s.st.categories[c.ID] = c
	return c
}

// AddTag inserts a tag directly and returns it.
func (s *Store) AddTag(title, slug string) models.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := models.Tag{ID: s.st.id(), Title: title, Slug: slug}
	s.st.tags[t.ID] = t
	return t
}

// Category returns the stored category, or the zero value.
func (s *Store) Category(id int64) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.categories[id]
}

// Tag returns the stored tag, or the zero value.
func (s *Store) Tag(id int64) models.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.tags[id]
}

// TagBySlug returns the stored tag with slug.
func (s *Store) TagBySlug(slug string) (models.Tag, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.st.tags {
		if t.Slug == slug {
			return t, true
		}
	}
	return models.Tag{}, false
}

// TagCount returns the number of stored tags.
func (s *Store) TagCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.tags)
}

// CategoryCount returns the number of stored categories.
func (s *Store) CategoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.categories)
}

// PostCount returns the number of stored posts.
func (s *Store) PostCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.posts)
}

// PostTagRows returns the number of stored post/tag associations.
func (s *Store) PostTagRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ids := range s.st.postTags {
		n += len(ids)
	}
	return n
}

// view gives repositories access to the store. Inside a unit of work the
// store lock is already held.
type view struct {
	s    *Store
	inTx bool
}

func (v view) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

// hydrate attaches category and tags to a stored post.
func (v view) hydrate(p models.Post) models.Post {
	st := v.s.st
	if p.CategoryID != nil {
		if c, ok := st.categories[*p.CategoryID]; ok {
			p.Category = &c
		}
	}
	p.Tags = []models.Tag{}
	for _, id := range st.postTags[p.ID] {
		p.Tags = append(p.Tags, st.tags[id])
	}
	slices.SortFunc(p.Tags, func(a, b models.Tag) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	return p
}

type postRepo struct{ view }

func (r postRepo) Get(_ context.Context, id int64) (*models.Post, error) {
	defer r.lock()()
	p, ok := r.s.st.posts[id]
	if !ok {
		return nil, nil
	}
	h := r.hydrate(p)
	return &h, nil
}

// GetForUpdate reads like Get. Units of work already run one at a time, so
// the row lock is only counted.
func (r postRepo) GetForUpdate(ctx context.Context, id int64) (*models.Post, error) {
	if r.inTx {
		r.s.LockedReads++
	}
	return r.Get(ctx, id)
}

func (r postRepo) GetBySlug(_ context.Context, slug string) (*models.Post, error) {
	defer r.lock()()
	for _, p := range r.s.st.posts {
		if p.Slug != nil && *p.Slug == slug {
			h := r.hydrate(p)
			return &h, nil
		}
	}
	return nil, nil
}

func (r postRepo) List(_ context.Context, q models.PostQuery) ([]models.Post, int, error) {
	defer r.lock()()
	var matched []models.Post
	for _, p := range r.s.st.posts {
		h := r.hydrate(p)
		if q.Status != "" && h.Status != q.Status {
			continue
		}
		if q.CategorySlug != "" && (h.Category == nil || h.Category.Slug != q.CategorySlug) {
			continue
		}
		if q.TagSlug != "" && !slices.ContainsFunc(h.Tags, func(t models.Tag) bool { return t.Slug == q.TagSlug }) {
			continue
		}
		if q.Year > 0 && h.CreatedOn.UTC().Year() != q.Year {
			continue
		}
		if q.Month > 0 && int(h.CreatedOn.UTC().Month()) != q.Month {
			continue
		}
		matched = append(matched, h)
	}
	slices.SortFunc(matched, func(a, b models.Post) int {
		return cmp.Or(b.CreatedOn.Compare(a.CreatedOn), cmp.Compare(b.ID, a.ID))
	})

	page, size := max(q.Page, 1), q.PageSize
	if size < 1 {
		size = 10
	}
	start := min((page-1)*size, len(matched))
	end := min(start+size, len(matched))
	return matched[start:end], len(matched), nil
}

func (r postRepo) SlugTaken(_ context.Context, slug string, excludeID int64) (bool, error) {
	defer r.lock()()
	return r.slugTaken(slug, excludeID), nil
}

func (r postRepo) slugTaken(slug string, excludeID int64) bool {
	for id, p := range r.s.st.posts {
		if id != excludeID && p.Slug != nil && *p.Slug == slug {
			return true
		}
	}
	return false
}

// check enforces the posts table constraints.
func (r postRepo) check(p *models.Post) error {
	if r.s.PostConflicts > 0 {
		r.s.PostConflicts--
		return apperr.Conflict("posts_slug_key already exists", nil)
	}
	if p.Slug != nil && r.slugTaken(*p.Slug, p.ID) {
		return apperr.Conflict("posts_slug_key already exists", nil)
	}
	if p.CategoryID != nil {
		if _, ok := r.s.st.categories[*p.CategoryID]; !ok {
			return apperr.Validation("A referenced record does not exist.", nil)
		}
	}
	for _, t := range p.Tags {
		if _, ok := r.s.st.tags[t.ID]; !ok {
			return apperr.Validation("A referenced record does not exist.", nil)
		}
	}
	return nil
}

// stored strips the loaded relations before a post is saved.
func stored(p *models.Post) models.Post {
	c := *p
	c.Category = nil
	c.Tags = nil
	c.CreatedOnDisplay = ""
	return c
}

func (r postRepo) Create(_ context.Context, p *models.Post) error {
	defer r.lock()()
	if err := r.check(p); err != nil {
		return err
	}
	p.ID = r.s.st.id()
	r.s.st.posts[p.ID] = stored(p)
	r.s.st.postTags[p.ID] = uniqueIDs(p.TagIDs())
	return nil
}

func (r postRepo) Update(_ context.Context, p *models.Post) error {
	defer r.lock()()
	if _, ok := r.s.st.posts[p.ID]; !ok {
		return nil
	}
	if err := r.check(p); err != nil {
		return err
	}
	r.s.st.posts[p.ID] = stored(p)
	r.s.st.postTags[p.ID] = uniqueIDs(p.TagIDs())
	return nil
}

func (r postRepo) Delete(_ context.Context, id int64) error {
	defer r.lock()()
	delete(r.s.st.posts, id)
	delete(r.s.st.postTags, id)
	return nil
}

func (r postRepo) MoveCategory(_ context.Context, from, to int64) (int, error) {
	defer r.lock()()
	if _, ok := r.s.st.categories[to]; !ok {
		return 0, apperr.Validation("A referenced record does not exist.", nil)
	}
	published := 0
	for id, p := range r.s.st.posts {
		if p.CategoryID == nil || *p.CategoryID != from {
			continue
		}
		target := to
		p.CategoryID = &target
		r.s.st.posts[id] = p
		if p.IsPublished() {
			published++
		}
	}
	return published, nil
}

func (r postRepo) Archives(_ context.Context) ([]models.ArchiveMonth, error) {
	defer r.lock()()
	counts := map[[2]int]int{}
	for _, p := range r.s.st.posts {
		if !p.IsPublished() {
			continue
		}
		t := p.CreatedOn.UTC()
		counts[[2]int{t.Year(), int(t.Month())}]++
	}
	out := []models.ArchiveMonth{}
	for k, n := range counts {
		out = append(out, models.ArchiveMonth{Year: k[0], Month: k[1], Count: n})
	}
	slices.SortFunc(out, func(a, b models.ArchiveMonth) int {
		return cmp.Or(cmp.Compare(b.Year, a.Year), cmp.Compare(b.Month, a.Month))
	})
	return out, nil
}

func uniqueIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

type categoryRepo struct{ view }

func (r categoryRepo) Get(_ context.Context, id int64) (*models.Category, error) {
	defer r.lock()()
	c, ok := r.s.st.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r categoryRepo) GetBySlug(_ context.Context, slug string) (*models.Category, error) {
	defer r.lock()()
	for _, c := range r.s.st.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, nil
}

func (r categoryRepo) GetAll(_ context.Context) ([]models.Category, error) {
	defer r.lock()()
	out := slices.Collect(maps.Values(r.s.st.categories))
	slices.SortFunc(out, func(a, b models.Category) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (r categoryRepo) slugTaken(slug string, excludeID int64) bool {
	for id, c := range r.s.st.categories {
		if id != excludeID && c.Slug == slug {
			return true
		}
	}
	return false
}

func (r categoryRepo) Create(_ context.Context, c *models.Category) error {
	if hook := r.s.BeforeCreateCategory; hook != nil && !r.inTx {
		hook(*c)
	}
	defer r.lock()()
	if r.slugTaken(c.Slug, 0) {
		return apperr.Conflict("categories_slug_key already exists", nil)
	}
	c.ID = r.s.st.id()
	c.PostCount = 0
	r.s.st.categories[c.ID] = *c
	return nil
}

func (r categoryRepo) Update(_ context.Context, c *models.Category) error {
	defer r.lock()()
	cur, ok := r.s.st.categories[c.ID]
	if !ok {
		return nil
	}
	if r.slugTaken(c.Slug, c.ID) {
		return apperr.Conflict("categories_slug_key already exists", nil)
	}
	cur.Title, cur.Slug, cur.Description = c.Title, c.Slug, c.Description
	r.s.st.categories[c.ID] = cur
	return nil
}

func (r categoryRepo) Delete(_ context.Context, id int64) error {
	defer r.lock()()
	delete(r.s.st.categories, id)
	for pid, p := range r.s.st.posts {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			r.s.st.posts[pid] = p
		}
	}
	return nil
}

func (r categoryRepo) AdjustCount(_ context.Context, id int64, delta int) error {
	defer r.lock()()
	if err := r.s.FailAdjust; err != nil {
		r.s.FailAdjust = nil
		return fmt.Errorf("adjust category count: %w", err)
	}
	c, ok := r.s.st.categories[id]
	if !ok {
		return nil
	}
	c.PostCount = max(c.PostCount+delta, 0)
	r.s.st.categories[id] = c
	return nil
}

type tagRepo struct{ view }

func (r tagRepo) Get(_ context.Context, id int64) (*models.Tag, error) {
	defer r.lock()()
	t, ok := r.s.st.tags[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r tagRepo) GetBySlug(_ context.Context, slug string) (*models.Tag, error) {
	defer r.lock()()
	for _, t := range r.s.st.tags {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, nil
}

func (r tagRepo) GetAll(_ context.Context) ([]models.Tag, error) {
	defer r.lock()()
	out := slices.Collect(maps.Values(r.s.st.tags))
	slices.SortFunc(out, func(a, b models.Tag) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (r tagRepo) slugTaken(slug string, excludeID int64) bool {
	for id, t := range r.s.st.tags {
		if id != excludeID && t.Slug == slug {
			return true
		}
	}
	return false
}

func (r tagRepo) Create(_ context.Context, t *models.Tag) error {
	if hook := r.s.BeforeCreateTag; hook != nil && !r.inTx {
		hook(*t)
	}
	defer r.lock()()
	if r.slugTaken(t.Slug, 0) {
		return apperr.Conflict("tags_slug_key already exists", nil)
	}
	t.ID = r.s.st.id()
	t.PostCount = 0
	r.s.st.tags[t.ID] = *t
	return nil
}

func (r tagRepo) Update(_ context.Context, t *models.Tag) error {
	defer r.lock()()
	cur, ok := r.s.st.tags[t.ID]
	if !ok {
		return nil
	}
	if r.slugTaken(t.Slug, t.ID) {
		return apperr.Conflict("tags_slug_key already exists", nil)
	}
	cur.Title, cur.Slug, cur.Description, cur.Color = t.Title, t.Slug, t.Description, t.Color
	r.s.st.tags[t.ID] = cur
	return nil
}

func (r tagRepo) Delete(_ context.Context, id int64) error {
	defer r.lock()()
	delete(r.s.st.tags, id)
	for pid, ids := range r.s.st.postTags {
		r.s.st.postTags[pid] = slices.DeleteFunc(ids, func(x int64) bool { return x == id })
	}
	return nil
}

func (r tagRepo) AdjustCount(_ context.Context, id int64, delta int) error {
	defer r.lock()()
	if err := r.s.FailAdjust; err != nil {
		r.s.FailAdjust = nil
		return fmt.Errorf("adjust tag count: %w", err)
	}
	t, ok := r.s.st.tags[id]
	if !ok {
		return nil
	}
	t.PostCount = max(t.PostCount+delta, 0)
	r.s.st.tags[id] = t
	return nil
}
