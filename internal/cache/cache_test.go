// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New[string](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache returned a value")
	}

	c.Set("greeting", "hello")
	got, ok := c.Get("greeting")
	if !ok || got != "hello" {
		t.Fatalf("Get = (%q, %v), want (hello, true)", got, ok)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Keys != 1 {
		t.Fatalf("stats = %+v, want 1 hit, 1 miss, 1 key", stats)
	}
}

func TestExpiredEntryReadsAsAbsent(t *testing.T) {
	c := New[int](10 * time.Millisecond)
	c.Set("n", 42)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("n"); ok {
		t.Fatal("expired entry still readable")
	}
	if stats := c.Stats(); stats.Evictions != 1 || stats.Keys != 0 {
		t.Fatalf("stats = %+v, want 1 eviction and 0 keys", stats)
	}
}

func TestSetRefreshesTTL(t *testing.T) {
	c := New[int](30 * time.Millisecond)
	c.Set("n", 1)
	time.Sleep(20 * time.Millisecond)
	c.Set("n", 2)
	time.Sleep(20 * time.Millisecond)

	got, ok := c.Get("n")
	if !ok || got != 2 {
		t.Fatalf("Get = (%d, %v), want (2, true) after refresh", got, ok)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%10)
				c.Set(key, n)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if stats := c.Stats(); stats.Keys != 10 {
		t.Fatalf("keys = %d, want 10", stats.Keys)
	}
}
