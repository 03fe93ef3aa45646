package util

import "testing"

type address struct {
	City string
}

type person struct {
	Name      string
	Addresses []address
	secret    string
}

func TestGetPath(t *testing.T) {
	doc := map[string]any{
		"user": map[string]any{
			"name": "ada",
			"tags": []any{"x", "y"},
		},
		"typed": map[string]int{"n": 3},
		"person": person{
			Name:      "grace",
			Addresses: []address{{City: "Arlington"}},
			secret:    "hidden",
		},
	}

	tests := []struct {
		name   string
		path   string
		want   any
		wantOK bool
	}{
		{"nested map", "user.name", "ada", true},
		{"slice index", "user.tags.1", "y", true},
		{"bracket index", "user.tags[0]", "x", true},
		{"typed map", "typed.n", 3, true},
		{"struct field", "person.Name", "grace", true},
		{"struct slice", "person.Addresses.0.City", "Arlington", true},
		{"unexported field", "person.secret", nil, false},
		{"missing key", "user.age", nil, false},
		{"index out of range", "user.tags.5", nil, false},
		{"through scalar", "user.name.first", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := GetPath(doc, tc.path)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Errorf("GetPath(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestGetPath_EmptyPath(t *testing.T) {
	got, ok := GetPath(42, " ")
	if !ok || got != 42 {
		t.Errorf("expected value itself, got %v (ok=%v)", got, ok)
	}
}
