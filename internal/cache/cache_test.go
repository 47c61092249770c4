// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type archiveRow struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// testStore returns a Store backed by an in-process miniredis server.
func testStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, 0), mr
}

func TestConnectValkey(t *testing.T) {
	host := os.Getenv("VALKEY_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("VALKEY_PORT")
	if port == "" {
		port = "6379"
	}

	client, err := ConnectValkey(context.Background(), ValkeyOptions{
		Addr:     net.JoinHostPort(host, port),
		Password: os.Getenv("VALKEY_PASSWORD"),
	})
	if err != nil {
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Errorf("ping after connect: %v", err)
	}
}

func TestConnectValkey_SelectsDB(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectValkey(context.Background(), ValkeyOptions{Addr: mr.Addr(), DB: 3})
	if err != nil {
		t.Fatalf("ConnectValkey: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "probe", "1", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.Select(3)
	if !mr.Exists("probe") {
		t.Error("key should be written to db 3")
	}
}

func TestConnectValkey_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	start := time.Now()
	_, err := ConnectValkey(context.Background(), ValkeyOptions{Addr: addr, Attempts: 2})
	if err == nil {
		t.Fatal("expected error connecting to a closed server")
	}
	if !strings.Contains(err.Error(), "2 attempt(s)") {
		t.Errorf("error should report the attempts, got: %v", err)
	}
	if time.Since(start) < retryDelay {
		t.Error("second attempt should wait for the retry delay")
	}
}

func TestConnectValkey_ContextCancelled(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ConnectValkey(ctx, ValkeyOptions{Addr: addr, Attempts: 5})
	if err == nil {
		t.Fatal("expected error with a cancelled context")
	}
}

// put stores v at the key's current generation.
func put(ctx context.Context, c interface {
	Version(context.Context, Key) int64
	SetIfVersion(context.Context, Key, any, int64)
}, key Key, v any) {
	c.SetIfVersion(ctx, key, v, c.Version(ctx, key))
}

func TestStore_SetGet(t *testing.T) {
	s, mr := testStore(t)
	ctx := context.Background()

	want := []archiveRow{{Year: 2026, Month: 3, Count: 4}, {Year: 2025, Month: 12, Count: 1}}
	put(ctx, s, KeyArchives, want)

	if !mr.Exists(keyPrefix + string(KeyArchives)) {
		t.Fatalf("expected key %q in valkey", keyPrefix+string(KeyArchives))
	}

	var got []archiveRow
	if !s.Get(ctx, KeyArchives, &got) {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestStore_Miss(t *testing.T) {
	s, _ := testStore(t)
	var got []archiveRow
	if s.Get(context.Background(), KeyTags, &got) {
		t.Error("expected miss on empty cache")
	}
}

func TestStore_CorruptValueIsMiss(t *testing.T) {
	s, mr := testStore(t)
	if err := mr.Set(keyPrefix+string(KeyTags), "{not json"); err != nil {
		t.Fatal(err)
	}
	var got []archiveRow
	if s.Get(context.Background(), KeyTags, &got) {
		t.Error("expected corrupt entry to read as a miss")
	}
}

func TestStore_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s := NewStore(client, time.Minute)
	ctx := context.Background()

	put(ctx, s, KeyCategories, []string{"travel"})
	if ttl := mr.TTL(keyPrefix + string(KeyCategories)); ttl != time.Minute {
		t.Errorf("ttl = %v, want %v", ttl, time.Minute)
	}

	mr.FastForward(2 * time.Minute)
	var got []string
	if s.Get(ctx, KeyCategories, &got) {
		t.Error("expected miss after expiry")
	}
}

func TestStore_RemoveAdvancesVersion(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	for _, k := range BlogKeys {
		put(ctx, s, k, 1)
	}
	before := s.Version(ctx, KeyTags)
	s.Remove(ctx, KeyArchives, KeyTags)

	var n int
	if s.Get(ctx, KeyArchives, &n) || s.Get(ctx, KeyTags, &n) {
		t.Error("removed keys should miss")
	}
	if !s.Get(ctx, KeyCategories, &n) {
		t.Error("categories should survive")
	}
	if got := s.Version(ctx, KeyTags); got != before+1 {
		t.Errorf("version = %d, want %d", got, before+1)
	}
	if got := s.Version(ctx, KeyCategories); got != 0 {
		t.Errorf("untouched key version = %d, want 0", got)
	}

	// no keys is a no-op
	s.Remove(ctx)
}

// A reader that loaded its value before a concurrent invalidation must not
// store it afterwards.
func TestStore_StaleWriteSkipped(t *testing.T) {
	s, mr := testStore(t)
	ctx := context.Background()

	seen := s.Version(ctx, KeyTags)
	s.Remove(ctx, KeyTags)
	s.SetIfVersion(ctx, KeyTags, []string{"stale"}, seen)

	if mr.Exists(keyPrefix + string(KeyTags)) {
		t.Error("stale value was stored")
	}

	put(ctx, s, KeyTags, []string{"fresh"})
	var got []string
	if !s.Get(ctx, KeyTags, &got) || got[0] != "fresh" {
		t.Errorf("got %v, want the fresh value", got)
	}
}

func TestStore_Clear(t *testing.T) {
	s, mr := testStore(t)
	ctx := context.Background()

	for _, k := range BlogKeys {
		put(ctx, s, k, 1)
	}
	if err := mr.Set("session:abc", "keep"); err != nil {
		t.Fatal(err)
	}
	seen := s.Version(ctx, KeyArchives)

	s.Clear(ctx)

	for _, k := range BlogKeys {
		if mr.Exists(keyPrefix + string(k)) {
			t.Errorf("key %q still present", k)
		}
	}
	if !mr.Exists("session:abc") {
		t.Error("unrelated key was removed")
	}
	if got := s.Version(ctx, KeyArchives); got != seen+1 {
		t.Errorf("version after Clear = %d, want %d", got, seen+1)
	}
}

func TestStore_ServerDownIsMiss(t *testing.T) {
	s, mr := testStore(t)
	ctx := context.Background()
	put(ctx, s, KeyTags, 1)
	mr.Close()

	var n int
	if s.Get(ctx, KeyTags, &n) {
		t.Error("expected miss when valkey is down")
	}
	if v := s.Version(ctx, KeyTags); v != Unversioned {
		t.Errorf("Version = %d, want Unversioned", v)
	}
	// must not panic
	s.SetIfVersion(ctx, KeyTags, 2, 0)
	s.Remove(ctx, KeyTags)
	s.Clear(ctx)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	want := []archiveRow{{Year: 2026, Month: 1, Count: 2}}
	put(ctx, m, KeyArchives, want)

	var got []archiveRow
	if !m.Get(ctx, KeyArchives, &got) {
		t.Fatal("expected hit")
	}
	if got[0] != want[0] {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// mutating the returned value must not change the cached one
	got[0].Count = 99
	var again []archiveRow
	m.Get(ctx, KeyArchives, &again)
	if again[0].Count != 2 {
		t.Errorf("cached value mutated: %+v", again)
	}

	seen := m.Version(ctx, KeyArchives)
	m.Remove(ctx, KeyArchives)
	if m.Get(ctx, KeyArchives, &got) {
		t.Error("expected miss after remove")
	}
	m.SetIfVersion(ctx, KeyArchives, want, seen)
	if m.Get(ctx, KeyArchives, &got) {
		t.Error("stale write should be skipped")
	}

	put(ctx, m, KeyTags, 1)
	m.Clear(ctx)
	var n int
	if m.Get(ctx, KeyTags, &n) {
		t.Error("expected miss after Clear")
	}
	if m.Version(ctx, KeyTags) != 1 {
		t.Errorf("Clear should advance the version of cleared keys")
	}
}

func TestMemory_Concurrent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	done := make(chan struct{})

	for i := range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := range 100 {
				put(ctx, m, BlogKeys[j%len(BlogKeys)], i*j)
				var n int
				m.Get(ctx, BlogKeys[(j+1)%len(BlogKeys)], &n)
				if j%10 == 0 {
					m.Remove(ctx, BlogKeys[j%len(BlogKeys)])
				}
			}
		}()
	}
	for range 8 {
		<-done
	}
}
