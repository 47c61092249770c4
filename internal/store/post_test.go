// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"quillpress/internal/apperr"
	"quillpress/internal/blog"
	"quillpress/internal/models"
)

func newPost(u *models.User, c *models.Category, title string, tags ...models.Tag) *models.Post {
	slug := unique("post")
	p := &models.Post{
		UserID:        u.ID,
		Title:         &title,
		Slug:          &slug,
		Body:          "<p>" + title + "</p>",
		Status:        models.PostStatusPublished,
		CommentStatus: models.CommentStatusAllow,
		CreatedOn:     time.Now().UTC().Truncate(time.Microsecond),
		Tags:          tags,
	}
	if c != nil {
		id := c.ID
		p.CategoryID = &id
	}
	return p
}

func TestPostStoreCreateAndGet(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	ctx := context.Background()

	u := testUser(t, db)
	c := testCategory(t, db, "Posts")
	t1, t2 := testTag(t, db, "Beta"), testTag(t, db, "Alpha")

	p := newPost(u, c, "Stored", *t1, *t2)
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("expected an id")
	}

	got, err := s.GetBySlug(ctx, *p.Slug)
	if err != nil || got == nil {
		t.Fatalf("GetBySlug = %+v, %v", got, err)
	}
	if got.Category == nil || got.Category.ID != c.ID {
		t.Errorf("category = %+v", got.Category)
	}
	if len(got.Tags) != 2 || got.Tags[0].Title != "Alpha" || got.Tags[1].Title != "Beta" {
		t.Errorf("tags = %+v, want Alpha, Beta", got.Tags)
	}
	if !got.CreatedOn.Equal(p.CreatedOn) || got.CreatedOn.Location() != time.UTC {
		t.Errorf("created_on = %v, want %v in UTC", got.CreatedOn, p.CreatedOn)
	}
	if got.UpdatedOn != nil {
		t.Errorf("updated_on = %v, want nil", got.UpdatedOn)
	}
}

func TestPostStoreUntitledDrafts(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	ctx := context.Background()
	u := testUser(t, db)

	for range 2 {
		p := &models.Post{
			UserID:        u.ID,
			Body:          "<p>idea</p>",
			Status:        models.PostStatusDraft,
			CommentStatus: models.CommentStatusAllow,
			CreatedOn:     time.Now().UTC(),
		}
		if err := s.Create(ctx, p); err != nil {
			t.Fatalf("two untitled drafts must coexist: %v", err)
		}
		got, _ := s.Get(ctx, p.ID)
		if got.Title != nil || got.Slug != nil {
			t.Errorf("title=%v slug=%v, want nil", got.Title, got.Slug)
		}
	}
}

func TestPostStoreDuplicateSlugConflicts(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	ctx := context.Background()
	u := testUser(t, db)

	p := newPost(u, nil, "First")
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := newPost(u, nil, "Second")
	dup.Slug = p.Slug
	if err := s.Create(ctx, dup); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	taken, err := s.SlugTaken(ctx, *p.Slug, 0)
	if err != nil || !taken {
		t.Errorf("SlugTaken = %v, %v; want true", taken, err)
	}
	taken, _ = s.SlugTaken(ctx, *p.Slug, p.ID)
	if taken {
		t.Error("a post's own slug must not count as taken")
	}
}

func TestPostStoreUpdateReplacesTags(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	ctx := context.Background()
	u := testUser(t, db)
	a, b := testTag(t, db, "A"), testTag(t, db, "B")

	p := newPost(u, nil, "Tagged", *a)
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	p.Tags = []models.Tag{*b}
	p.UpdatedOn = &now
	if err := s.Update(ctx, p); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := s.Get(ctx, p.ID)
	if len(got.Tags) != 1 || got.Tags[0].ID != b.ID {
		t.Errorf("tags = %+v, want only B", got.Tags)
	}
	if got.UpdatedOn == nil || !got.UpdatedOn.Equal(now) {
		t.Errorf("updated_on = %v, want %v", got.UpdatedOn, now)
	}
}

func TestPostStoreListFilters(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	ctx := context.Background()
	u := testUser(t, db)
	c := testCategory(t, db, "Listed")
	tag := testTag(t, db, "Listed")

	base := time.Date(2019, 4, 10, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		p := newPost(u, c, "Listed", *tag)
		p.CreatedOn = base.Add(time.Duration(i) * time.Hour)
		if err := s.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	draft := newPost(u, c, "Draft")
	draft.Status = models.PostStatusDraft
	if err := s.Create(ctx, draft); err != nil {
		t.Fatalf("Create draft: %v", err)
	}

	page, total, err := s.List(ctx, models.PostQuery{CategorySlug: c.Slug, Status: models.PostStatusPublished, PageSize: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("total=%d len=%d, want 3 2", total, len(page))
	}
	if !page[0].CreatedOn.After(page[1].CreatedOn) {
		t.Error("want newest first")
	}
	if len(page[0].Tags) != 1 {
		t.Errorf("tags not loaded: %+v", page[0].Tags)
	}

	_, total, err = s.List(ctx, models.PostQuery{TagSlug: tag.Slug, Year: 2019, Month: 4})
	if err != nil || total != 3 {
		t.Errorf("by tag and month: total=%d err=%v, want 3", total, err)
	}
	_, total, _ = s.List(ctx, models.PostQuery{TagSlug: tag.Slug, Year: 2019, Month: 5})
	if total != 0 {
		t.Errorf("other month total = %d, want 0", total)
	}
}

func TestPostStoreMoveCategory(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	ctx := context.Background()
	u := testUser(t, db)
	from, to := testCategory(t, db, "From"), testCategory(t, db, "To")

	for _, status := range []models.PostStatus{models.PostStatusPublished, models.PostStatusDraft} {
		p := newPost(u, from, "Moving")
		p.Status = status
		if err := s.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	published, err := s.MoveCategory(ctx, from.ID, to.ID)
	if err != nil {
		t.Fatalf("MoveCategory: %v", err)
	}
	if published != 1 {
		t.Errorf("published moved = %d, want 1", published)
	}
	_, total, _ := s.List(ctx, models.PostQuery{CategorySlug: to.Slug})
	if total != 2 {
		t.Errorf("posts in target = %d, want 2", total)
	}
}

func TestUnitOfWorkRollsBack(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := testUser(t, db)
	c := testCategory(t, db, "Tx")

	p := newPost(u, c, "Rolled back")
	boom := errors.New("boom")
	err := NewUnitOfWork(db).Do(ctx, func(ctx context.Context, r blog.Repositories) error {
		if err := r.Posts.Create(ctx, p); err != nil {
			return err
		}
		if err := r.Categories.AdjustCount(ctx, c.ID, 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	if got, _ := NewPostStore(db).GetBySlug(ctx, *p.Slug); got != nil {
		t.Error("post survived a rolled back unit of work")
	}
	if got, _ := NewCategoryStore(db).Get(ctx, c.ID); got.PostCount != 0 {
		t.Errorf("count = %d, want 0", got.PostCount)
	}
}

func TestUnitOfWorkCommits(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := testUser(t, db)

	p := newPost(u, nil, "Committed")
	err := NewUnitOfWork(db).Do(ctx, func(ctx context.Context, r blog.Repositories) error {
		return r.Posts.Create(ctx, p)
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got, _ := NewPostStore(db).Get(ctx, p.ID); got == nil {
		t.Error("committed post not found")
	}
}

func TestPostStoreArchives(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	ctx := context.Background()
	u := testUser(t, db)

	p := newPost(u, nil, "Archived")
	p.CreatedOn = time.Date(1999, 12, 31, 23, 30, 0, 0, time.UTC)
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	months, err := s.Archives(ctx)
	if err != nil {
		t.Fatalf("Archives: %v", err)
	}
	found := false
	for _, m := range months {
		if m.Year == 1999 && m.Month == 12 && m.Count >= 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("archives %+v lack 1999-12", months)
	}
}
