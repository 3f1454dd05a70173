// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestMemoryCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_BasicOperations(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "page:home", []byte(`{"hero_title":"x"}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "page:home")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"hero_title":"x"}` {
		t.Errorf("Get = %s", got)
	}

	if ok, _ := c.Has(ctx, "page:home"); !ok {
		t.Error("Has = false for existing key")
	}

	if err := c.Delete(ctx, "page:home"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "page:home"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete err = %v; want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("v"), 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired Get err = %v; want ErrCacheMiss", err)
	}
	if ok, _ := c.Has(ctx, "short"); ok {
		t.Error("Has = true for expired key")
	}
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	for _, k := range []string{"projects:list", "projects:get:a", "pages:home"} {
		_ = c.Set(ctx, k, []byte("v"), 0)
	}

	if err := c.DeleteByPrefix(ctx, "projects:"); err != nil {
		t.Fatalf("DeleteByPrefix failed: %v", err)
	}

	for k, want := range map[string]bool{"projects:list": false, "projects:get:a": false, "pages:home": true} {
		if ok, _ := c.Has(ctx, k); ok != want {
			t.Errorf("Has(%q) = %v; want %v", k, ok, want)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if c.Stats().Items != 0 {
		t.Errorf("Items after Clear = %d", c.Stats().Items)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("abc"), 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Sets != 1 || s.Items != 1 || s.Size != 3 {
		t.Errorf("Stats = %+v", s)
	}
	want := float64(2) / float64(3) * 100
	if s.HitRate < want-0.01 || s.HitRate > want+0.01 {
		t.Errorf("HitRate = %.2f; want %.2f", s.HitRate, want)
	}

	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 || s.Sets != 0 {
		t.Errorf("Stats after reset = %+v", s)
	}
}

func TestMemoryCache_ValueCopy(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	original := []byte("original")
	_ = c.Set(ctx, "key", original, 0)
	original[0] = 'X'

	val, _ := c.Get(ctx, "key")
	if string(val) != "original" {
		t.Errorf("cache did not copy on set: %s", val)
	}
	val[0] = 'Y'
	if again, _ := c.Get(ctx, "key"); string(again) != "original" {
		t.Errorf("cache did not copy on get: %s", again)
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, "key", []byte("value"), 0)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = c.Get(ctx, "key")
			}
		}()
	}
	wg.Wait()

	if _, err := c.Get(ctx, "key"); err != nil {
		t.Errorf("Get after concurrent access: %v", err)
	}
}

func TestMemoryCache_Close(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour, CleanupInterval: time.Second})
	ctx := context.Background()

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := c.Get(ctx, "key"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get after close err = %v; want ErrCacheClosed", err)
	}
	if err := c.Set(ctx, "key", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set after close err = %v; want ErrCacheClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}
