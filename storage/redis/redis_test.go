package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/storage"
	"github.com/kbukum/nodeflow/storage/storagetest"
)

// newTestAdapter creates an Adapter backed by miniredis.
func newTestAdapter(t *testing.T, cfg Config) (*Adapter, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mini.Close() })

	cfg.Addr = mini.Addr()
	a, err := New(cfg, "test", logger.Nop())
	if err != nil {
		t.Fatalf("failed to create redis adapter: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, mini
}

func TestAdapter_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Adapter {
		a, _ := newTestAdapter(t, Config{})
		return a
	})
}

func TestAdapter_KeyLayout(t *testing.T) {
	a, mini := newTestAdapter(t, Config{})
	ctx := context.Background()

	if err := a.Set(ctx, "run:1", "add", []byte("5")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := mini.Get("test:run:1:add")
	if err != nil {
		t.Fatalf("expected prefixed key in redis: %v", err)
	}
	if got != "5" {
		t.Fatalf("expected 5, got %q", got)
	}
}

func TestAdapter_ClearLeavesForeignKeys(t *testing.T) {
	a, mini := newTestAdapter(t, Config{})
	ctx := context.Background()

	_ = mini.Set("other:key", "x")
	_ = a.Set(ctx, "run:1", "k", []byte("v"))

	if err := a.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if !mini.Exists("other:key") {
		t.Fatal("keys outside the prefix must survive Clear")
	}
	if mini.Exists("test:run:1:k") {
		t.Fatal("expected prefixed key to be removed")
	}
}

func TestAdapter_TTL(t *testing.T) {
	a, mini := newTestAdapter(t, Config{TTL: "1m"})
	ctx := context.Background()

	_ = a.Set(ctx, "run:1", "k", []byte("v"))
	if ttl := mini.TTL("test:run:1:k"); ttl != time.Minute {
		t.Fatalf("expected 1m TTL, got %v", ttl)
	}
	mini.FastForward(2 * time.Minute)
	if _, err := a.Get(ctx, "run:1", "k"); !storage.IsNotFound(err) {
		t.Fatalf("expected expired key to be gone, got %v", err)
	}
}

func TestAdapter_CloseIdempotent(t *testing.T) {
	a, _ := newTestAdapter(t, Config{})
	if err := a.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close must be a no-op: %v", err)
	}
}

// --- config ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"bad timeout", Config{DialTimeout: "soon"}, true},
		{"bad ttl", Config{TTL: "forever"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ApplyDefaults()
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFactory_Registered(t *testing.T) {
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mini.Close()

	a, err := storage.New(storage.Config{Provider: storage.ProviderRedis}, &Config{Addr: mini.Addr()}, logger.Nop())
	if err != nil {
		t.Fatalf("storage.New failed: %v", err)
	}
	defer a.(storage.Closer).Close()

	if _, ok := a.(*Adapter); !ok {
		t.Fatalf("expected *redis.Adapter, got %T", a)
	}
	if _, err := storage.New(storage.Config{Provider: storage.ProviderRedis}, "bad", nil); err == nil {
		t.Fatal("expected error for wrong provider config type")
	}
}

func TestEscapeGlob(t *testing.T) {
	if got := escapeGlob("run:[a]*?"); got != `run:\[a\]\*\?` {
		t.Fatalf("unexpected escape result %q", got)
	}
}
