package storage_test

import (
	"context"
	"testing"

	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/storage"
	"github.com/kbukum/nodeflow/storage/storagetest"
)

func TestMemory_Contract(t *testing.T) {
	storagetest.Run(t, func(*testing.T) storage.Adapter { return storage.NewMemory() })
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()
	buf := []byte("abc")
	_ = m.Set(ctx, "ns", "k", buf)
	buf[0] = 'x'

	got, _ := m.Get(ctx, "ns", "k")
	if string(got) != "abc" {
		t.Fatalf("stored value must not alias the caller's slice, got %q", got)
	}
}

// --- JSON helpers ---

type snapshot struct {
	NodeID string `json:"nodeId"`
	Value  int    `json:"value"`
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()

	if err := storage.SetJSON(ctx, m, "run:1", "add", snapshot{NodeID: "add", Value: 5}); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	var got snapshot
	if err := storage.GetJSON(ctx, m, "run:1", "add", &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if got.Value != 5 {
		t.Fatalf("expected 5, got %+v", got)
	}
	if err := storage.GetJSON(ctx, m, "run:1", "missing", &got); !storage.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- factory and config ---

func TestNew_Memory(t *testing.T) {
	a, err := storage.New(storage.Config{}, nil, logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := a.(*storage.Memory); !ok {
		t.Fatalf("expected default memory adapter, got %T", a)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := storage.New(storage.Config{Provider: "etcd"}, nil, nil); err == nil {
		t.Fatal("expected unsupported provider error")
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var c storage.Config
	c.ApplyDefaults()
	if c.Provider != storage.ProviderMemory || c.KeyPrefix != storage.DefaultKeyPrefix {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestJoinKey(t *testing.T) {
	tests := []struct {
		prefix, ns, key, want string
	}{
		{"nodeflow", "run:1", "add", "nodeflow:run:1:add"},
		{"", "run:1", "add", "run:1:add"},
	}
	for _, tc := range tests {
		if got := storage.JoinKey(tc.prefix, tc.ns, tc.key); got != tc.want {
			t.Errorf("JoinKey(%q,%q,%q) = %q, want %q", tc.prefix, tc.ns, tc.key, got, tc.want)
		}
	}
	if got := storage.NamespacePrefix("p", "ns"); got != "p:ns:" {
		t.Errorf("unexpected namespace prefix %q", got)
	}
}
