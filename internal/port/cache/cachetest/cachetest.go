// Package cachetest holds the behaviour every cache.Cache backend must satisfy.
package cachetest

import (
	"context"
	"testing"

	"github.com/Strob0t/CostLens/internal/port/cache"
)

// Run exercises c against the cache port contract. c must start empty.
func Run(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "compliance-key", []byte("compliance-val")); err != nil {
			t.Fatal(err)
		}
		val, found, err := c.Get(ctx, "compliance-key")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != "compliance-val" {
			t.Fatalf("expected compliance-val, got %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "nonexistent-key")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "del-key", []byte("del-val"))
		if err := c.Delete(ctx, "del-key"); err != nil {
			t.Fatal(err)
		}
		_, found, err := c.Get(ctx, "del-key")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := c.Delete(ctx, "never-existed"); err != nil {
			t.Fatal("Delete of nonexistent key should not error")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "ow-key", []byte("v1"))
		_ = c.Set(ctx, "ow-key", []byte("v2"))
		val, found, err := c.Get(ctx, "ow-key")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after overwrite")
		}
		if string(val) != "v2" {
			t.Fatalf("expected v2 after overwrite, got %s", val)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		cl, ok := c.(cache.Clearer)
		if !ok {
			t.Skip("cache does not implement Clearer")
		}
		_ = c.Set(ctx, "clear-a", []byte("a"))
		_ = c.Set(ctx, "clear-b", []byte("b"))
		if err := cl.Clear(ctx); err != nil {
			t.Fatal(err)
		}
		for _, k := range []string{"clear-a", "clear-b"} {
			if _, found, _ := c.Get(ctx, k); found {
				t.Fatalf("expected %s gone after Clear", k)
			}
		}
	})
}
