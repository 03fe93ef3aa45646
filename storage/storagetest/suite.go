package storagetest

import (
	"bytes"
	"context"
	"testing"

	"github.com/kbukum/nodeflow/storage"
)

// Run exercises the Adapter contract. newAdapter must return an adapter
// with no keys in the namespaces used here.
func Run(t *testing.T, newAdapter func(t *testing.T) storage.Adapter) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetGet", func(t *testing.T) {
		a := newAdapter(t)
		if err := a.Set(ctx, "run:1", "n1", []byte(`{"v":1}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := a.Get(ctx, "run:1", "n1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, []byte(`{"v":1}`)) {
			t.Fatalf("expected stored bytes, got %q", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		a := newAdapter(t)
		_ = a.Set(ctx, "ns", "k", []byte("a"))
		_ = a.Set(ctx, "ns", "k", []byte("b"))
		got, err := a.Get(ctx, "ns", "k")
		if err != nil || string(got) != "b" {
			t.Fatalf("expected b, got %q (err=%v)", got, err)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		a := newAdapter(t)
		_, err := a.Get(ctx, "ns", "missing")
		if !storage.IsNotFound(err) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		a := newAdapter(t)
		_ = a.Set(ctx, "ns", "k", []byte("v"))
		if err := a.Delete(ctx, "ns", "k"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := a.Get(ctx, "ns", "k"); !storage.IsNotFound(err) {
			t.Fatalf("expected key to be gone, got %v", err)
		}
		if err := a.Delete(ctx, "ns", "never-set"); err != nil {
			t.Fatalf("deleting a missing key must not fail: %v", err)
		}
	})

	t.Run("KeysSortedPerNamespace", func(t *testing.T) {
		a := newAdapter(t)
		_ = a.Set(ctx, "run:a", "z", []byte("1"))
		_ = a.Set(ctx, "run:a", "m", []byte("2"))
		_ = a.Set(ctx, "run:b", "x", []byte("3"))

		keys, err := a.Keys(ctx, "run:a")
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if len(keys) != 2 || keys[0] != "m" || keys[1] != "z" {
			t.Fatalf("expected [m z], got %v", keys)
		}
		empty, err := a.Keys(ctx, "run:none")
		if err != nil || len(empty) != 0 {
			t.Fatalf("expected no keys, got %v (err=%v)", empty, err)
		}
	})

	t.Run("ClearNamespace", func(t *testing.T) {
		a := newAdapter(t)
		_ = a.Set(ctx, "run:a", "k1", []byte("1"))
		_ = a.Set(ctx, "run:a", "k2", []byte("2"))
		_ = a.Set(ctx, "run:b", "k1", []byte("3"))

		if err := a.ClearNamespace(ctx, "run:a"); err != nil {
			t.Fatalf("ClearNamespace failed: %v", err)
		}
		if keys, _ := a.Keys(ctx, "run:a"); len(keys) != 0 {
			t.Fatalf("expected run:a to be empty, got %v", keys)
		}
		if _, err := a.Get(ctx, "run:b", "k1"); err != nil {
			t.Fatalf("other namespaces must survive: %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		a := newAdapter(t)
		_ = a.Set(ctx, "run:a", "k", []byte("1"))
		_ = a.Set(ctx, "run:b", "k", []byte("2"))

		if err := a.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		for _, ns := range []string{"run:a", "run:b"} {
			if keys, _ := a.Keys(ctx, ns); len(keys) != 0 {
				t.Fatalf("expected %s to be empty, got %v", ns, keys)
			}
		}
	})
}
