package util

import (
	"testing"
)

func TestContains(t *testing.T) {
	if !Contains([]string{"a", "b"}, "b") {
		t.Error("expected b to be found")
	}
	if Contains([]int{1, 2}, 3) {
		t.Error("expected 3 to be missing")
	}
}

func TestCloneMapAndMerge(t *testing.T) {
	src := map[string]any{"a": 1}
	c := CloneMap(src)
	c["a"] = 2
	if src["a"] != 1 {
		t.Error("clone must not alias the source")
	}
	if CloneMap[string, int](nil) == nil {
		t.Error("expected non-nil clone of nil map")
	}

	m := Merge(map[string]any{"a": 1, "b": 1}, nil, map[string]any{"b": 2})
	if m["a"] != 1 || m["b"] != 2 {
		t.Errorf("expected later maps to win, got %v", m)
	}
}
