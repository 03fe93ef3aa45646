package typesys

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

type point struct{ X, Y int }

func TestDetect(t *testing.T) {
	var nilMap map[string]any
	var nilPtr *point
	tests := []struct {
		name  string
		value any
		want  Tag
	}{
		{"nil", nil, Null},
		{"string", "hi", String},
		{"bool", true, Boolean},
		{"int", 42, Integer},
		{"int64", int64(-3), Integer},
		{"integral float", 3.0, Integer},
		{"float", 3.5, Float},
		{"float32", float32(0.25), Float},
		{"nan", math.NaN(), Number},
		{"json int", json.Number("12"), Integer},
		{"json float", json.Number("1.5"), Float},
		{"slice", []any{1, 2}, Array},
		{"typed slice", []point{{1, 2}}, Array},
		{"fixed array", [2]int{1, 2}, Array},
		{"map", map[string]any{"a": 1}, Object},
		{"nil map", nilMap, Object},
		{"struct", point{1, 2}, Object},
		{"pointer", &point{1, 2}, Object},
		{"nil pointer", nilPtr, Null},
		{"time", time.Now(), Date},
		{"func", func() {}, Any},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.value); got != tc.want {
				t.Errorf("Detect(%v) = %s, want %s", tc.value, got, tc.want)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		a, b Tag
		want bool
	}{
		{Any, String, true},
		{Date, Any, true},
		{String, String, true},
		{Integer, Float, true},
		{Number, Integer, true},
		{Tag("array<string>"), Array, true},
		{Array, Tag("array<number>"), true},
		{Tag("object<user>"), Object, true},
		{Tag("array<string>"), Tag("array<string>"), true},
		{Tag("array<string>"), Tag("array<number>"), false},
		{Tag("object<user>"), Tag("object<order>"), false},
		{String, Integer, false},
		{Array, Object, false},
		{Boolean, Null, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.a)+"_"+string(tc.b), func(t *testing.T) {
			if got := Compatible(tc.a, tc.b); got != tc.want {
				t.Errorf("Compatible(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if got := Compatible(tc.b, tc.a); got != tc.want {
				t.Errorf("Compatible(%s, %s) is not symmetric", tc.b, tc.a)
			}
		})
	}
}

// --- cache ---

func TestCache_RecordAndReset(t *testing.T) {
	c := NewCache()
	c.Record("n1", map[string]any{"output": 1.5, "label": "x"})

	if tag, ok := c.Get("n1", "output"); !ok || tag != Float {
		t.Fatalf("expected float, got %s (ok=%v)", tag, ok)
	}
	if got := c.Node("n1"); len(got) != 2 || got["label"] != String {
		t.Fatalf("unexpected node tags: %v", got)
	}

	c.Record("n1", map[string]any{"output": "now a string"})
	if _, ok := c.Get("n1", "label"); ok {
		t.Error("expected re-record to replace previous handles")
	}

	c.Reset()
	if _, ok := c.Get("n1", "output"); ok {
		t.Error("expected reset to clear the cache")
	}
}
