package util

import (
	"encoding/json"
	"testing"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"int", 3, 3, true},
		{"uint8", uint8(7), 7, true},
		{"float", 2.5, 2.5, true},
		{"string", " 30 ", 30, true},
		{"json", json.Number("1.25"), 1.25, true},
		{"bool", true, 1, true},
		{"word", "thirty", 0, false},
		{"nil", nil, 0, false},
		{"map", map[string]any{}, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ToFloat(tc.in)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("ToFloat(%v) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestToInt(t *testing.T) {
	if n, ok := ToInt("4.9"); !ok || n != 4 {
		t.Errorf("expected 4, got %d (ok=%v)", n, ok)
	}
	if _, ok := ToInt("x"); ok {
		t.Error("expected failure for non-numeric string")
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{true, true},
		{"false", false},
		{"0", false},
		{"", false},
		{"yes", true},
		{0, false},
		{2.5, true},
		{nil, false},
		{[]any{}, true},
	}
	for _, tc := range tests {
		if got := ToBool(tc.in); got != tc.want {
			t.Errorf("ToBool(%#v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{3.0, "3"},
		{2.5, "2.5"},
		{42, "42"},
		{true, "true"},
		{map[string]any{"a": 1}, `{"a":1}`},
		{[]any{1, "b"}, `[1,"b"]`},
	}
	for _, tc := range tests {
		if got := ToString(tc.in); got != tc.want {
			t.Errorf("ToString(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestToStringSlice(t *testing.T) {
	if got := ToStringSlice("name, age,,city"); len(got) != 3 || got[1] != "age" {
		t.Errorf("unexpected split: %v", got)
	}
	if got := ToStringSlice([]any{"a", 1}); len(got) != 2 || got[1] != "1" {
		t.Errorf("unexpected conversion: %v", got)
	}
	if got := ToStringSlice(5); got != nil {
		t.Errorf("expected nil for scalar, got %v", got)
	}
}

func TestToSlice(t *testing.T) {
	got, ok := ToSlice([]int{1, 2})
	if !ok || len(got) != 2 || got[0] != 1 {
		t.Errorf("unexpected slice: %v (ok=%v)", got, ok)
	}
	if _, ok := ToSlice("abc"); ok {
		t.Error("strings are not slices")
	}
}

func TestIsNumeric(t *testing.T) {
	if !IsNumeric("30") || !IsNumeric(1.5) {
		t.Error("expected numeric")
	}
	if IsNumeric(true) || IsNumeric("abc") {
		t.Error("expected non-numeric")
	}
}
