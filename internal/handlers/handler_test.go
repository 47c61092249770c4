// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory repositories of blogtest.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"quillpress/internal/blog"
	"quillpress/internal/blog/blogtest"
	"quillpress/internal/cache"
	"quillpress/internal/models"
)

// fakeMedia is a MediaLister serving a fixed list.
type fakeMedia struct {
	items []models.Media
	err   error

	gotType models.MediaType
	gotPage int
}

func (m *fakeMedia) ListByType(_ context.Context, mt models.MediaType, page, pageSize int) ([]models.Media, int, error) {
	m.gotType, m.gotPage = mt, page
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []models.Media
	for _, item := range m.items {
		if item.MediaType == mt {
			out = append(out, item)
		}
	}
	return out, len(out), nil
}

// testEnv holds the handler under test and its in-memory backing store.
type testEnv struct {
	Store    *blogtest.Store
	Settings *blogtest.Settings
	Media    *fakeMedia
	Default  models.Category
	API      *API
	mux      chi.Router
}

// newTestEnv wires an API over blogtest with author 1 and a default
// "Uncategorized" category.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := blogtest.New()
	st.AddUser(1)
	def := st.AddCategory("Uncategorized", "uncategorized")
	set := blogtest.NewSettings(def.ID)
	c := cache.NewMemory()

	posts := blog.NewPostService(blog.PostServiceConfig{
		Repos:      st.Repositories(),
		UnitOfWork: st,
		Authors:    st,
		Cache:      c,
		Settings:   set,
		Now:        func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
	media := &fakeMedia{}
	api := NewAPI(posts,
		blog.NewTaxonomyService(st.Repositories(), st, c, set),
		blog.NewStatsService(st.Repositories(), c),
		media)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", api.PostsList)
		r.Post("/posts", api.PostCreate)
		r.Get("/posts/slug/{slug}", api.PostGetBySlug)
		r.Get("/posts/{id}", api.PostGet)
		r.Put("/posts/{id}", api.PostUpdate)
		r.Delete("/posts/{id}", api.PostDelete)
		r.Get("/categories", api.CategoriesList)
		r.Post("/categories", api.CategoryCreate)
		r.Put("/categories/{id}", api.CategoryUpdate)
		r.Delete("/categories/{id}", api.CategoryDelete)
		r.Get("/tags", api.TagsList)
		r.Post("/tags", api.TagCreate)
		r.Put("/tags/{id}", api.TagUpdate)
		r.Delete("/tags/{id}", api.TagDelete)
		r.Get("/archives", api.Archives)
		r.Get("/media", api.MediaList)
	})

	return &testEnv{Store: st, Settings: set, Media: media, Default: def, API: api, mux: r}
}

// do sends a request with an optional JSON body. A string body is sent
// verbatim.
func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals a response body, failing the test on error.
func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rr.Code, want, rr.Body.String())
	}
}

// createPost publishes a post through the API and returns it.
func (e *testEnv) createPost(t *testing.T, sub map[string]any) models.Post {
	t.Helper()
	if _, ok := sub["user_id"]; !ok {
		sub["user_id"] = 1
	}
	rr := e.do(t, http.MethodPost, "/api/posts", sub)
	wantStatus(t, rr, http.StatusCreated)
	return decode[models.Post](t, rr)
}
