package flow

import (
	"reflect"
	"testing"

	"github.com/kbukum/nodeflow/registry"
)

func TestExtractOutputs(t *testing.T) {
	record := map[string]any{"a": 1, "b": 2, "c": 3}
	wrapped := registry.Wrapped{Value: map[string]any{"a": 1, "b": 2}, Original: "source"}
	dynamic := &registry.DynamicHandles{
		ModeField: "mode",
		Modes: map[string][]string{
			"one": {"x"},
			"two": {"x", "y"},
		},
	}

	tests := []struct {
		name   string
		def    *registry.Definition
		config map[string]any
		raw    any
		want   map[string]any
	}{
		{
			name: "no outputs",
			def:  &registry.Definition{Type: "t"},
			raw:  "v",
			want: map[string]any{DefaultOutputHandle: "v"},
		},
		{
			name: "single output",
			def:  &registry.Definition{Type: "t", Handles: registry.Handles{Outputs: []string{"result"}}},
			raw:  record,
			want: map[string]any{"result": record},
		},
		{
			name: "record picks declared fields",
			def:  &registry.Definition{Type: "t", Handles: registry.Handles{Outputs: []string{"a", "b", "z"}}},
			raw:  record,
			want: map[string]any{"a": 1, "b": 2},
		},
		{
			name: "record keeps wrapped value on primary handle",
			def:  &registry.Definition{Type: "t", Handles: registry.Handles{Outputs: []string{"a", "b"}}},
			raw:  wrapped,
			want: map[string]any{"a": wrapped, "b": 2},
		},
		{
			name:   "dynamic single",
			def:    &registry.Definition{Type: "t", DynamicHandles: dynamic},
			config: map[string]any{"mode": "one"},
			raw:    "v",
			want:   map[string]any{"x": "v"},
		},
		{
			name:   "dynamic record",
			def:    &registry.Definition{Type: "t", DynamicHandles: dynamic},
			config: map[string]any{"mode": "two"},
			raw:    map[string]any{"x": 1, "y": 2},
			want:   map[string]any{"x": 1, "y": 2},
		},
		{
			name:   "dynamic unknown mode without static handles",
			def:    &registry.Definition{Type: "t", DynamicHandles: dynamic},
			config: map[string]any{"mode": "three"},
			raw:    "v",
			want:   map[string]any{DefaultOutputHandle: "v"},
		},
		{
			name: "templated",
			def: &registry.Definition{Type: "t", OutputMapping: &registry.OutputMapping{
				Mode: "fields", FieldSource: "fields", Template: "field_{{field}}", MainOutput: "data",
			}},
			config: map[string]any{"fields": []any{"name", "address.city", "missing"}},
			raw:    map[string]any{"name": "ada", "address": map[string]any{"city": "london"}},
			want: map[string]any{
				"data":               map[string]any{"name": "ada", "address": map[string]any{"city": "london"}},
				"field_name":         "ada",
				"field_address.city": "london",
			},
		},
		{
			name: "templated falls back to original data",
			def: &registry.Definition{Type: "t", OutputMapping: &registry.OutputMapping{
				Mode: "fields", FieldSource: "fields",
			}},
			config: map[string]any{"fields": "name"},
			raw:    registry.Wrapped{Value: "ada", Original: map[string]any{"name": "original"}},
			want: map[string]any{
				DefaultOutputHandle: registry.Wrapped{Value: "ada", Original: map[string]any{"name": "original"}},
				"name":              "original",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractOutputs(tc.def, tc.config, tc.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}

			again, err := ExtractOutputs(tc.def, tc.config, tc.raw)
			if err != nil {
				t.Fatalf("unexpected error on second extraction: %v", err)
			}
			if !reflect.DeepEqual(got, again) {
				t.Fatalf("extraction is not idempotent: %v vs %v", got, again)
			}
		})
	}
}

func TestExtractOutputs_RecordRejectsScalar(t *testing.T) {
	def := &registry.Definition{Type: "t", Handles: registry.Handles{Outputs: []string{"a", "b"}}}
	if _, err := ExtractOutputs(def, nil, 42); err == nil {
		t.Fatal("expected error for scalar record result")
	}
}

func TestExtractorCache_ResolvesOnce(t *testing.T) {
	c := newExtractorCache()
	def := &registry.Definition{Type: "t", Handles: registry.Handles{Outputs: []string{"result"}}}

	for i := 0; i < 3; i++ {
		out, err := c.get(def)(def, nil, i)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out["result"] != i {
			t.Fatalf("expected result=%d, got %v", i, out)
		}
	}
	if len(c.byDef) != 1 {
		t.Fatalf("expected one cached entry, got %d", len(c.byDef))
	}
}
