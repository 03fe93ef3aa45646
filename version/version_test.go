package version

import (
	"strings"
	"testing"
)

func saveAndRestore() func() {
	v, c, b := Version, GitCommit, BuildTime
	return func() {
		Version, GitCommit, BuildTime = v, c, b
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		commit    string
		wantRel   bool
		wantShort string
	}{
		{"dev build", "dev", "abc", false, "dev-abc"},
		{"release", "1.2.0", "0123456789abcdef", true, "1.2.0-0123456"},
		{"dirty tag", "1.2.0-dirty", "abc", false, "1.2.0-dirty-abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer saveAndRestore()()
			Version, GitCommit, BuildTime = tt.version, tt.commit, ""

			info := Get()
			if info.IsRelease != tt.wantRel {
				t.Errorf("IsRelease = %v, want %v", info.IsRelease, tt.wantRel)
			}
			if got := Short(); !strings.HasPrefix(got, tt.wantShort) {
				t.Errorf("Short() = %q, want prefix %q", got, tt.wantShort)
			}
		})
	}
}

func TestGet_BuildTime(t *testing.T) {
	defer saveAndRestore()()
	BuildTime = "2026-01-02T03:04:05Z"

	info := Get()
	if info.BuildDate.Year() != 2026 {
		t.Errorf("BuildDate = %v", info.BuildDate)
	}
	if !strings.Contains(String(), "(built 2026-01-02T03:04:05Z)") {
		t.Errorf("String() = %q", String())
	}
}

func TestUserAgent(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.0.0"
	if got := UserAgent(); got != "nodeflow/1.0.0" {
		t.Errorf("UserAgent() = %q", got)
	}
	if !strings.HasPrefix(String(), "nodeflow 1.0.0") {
		t.Errorf("String() = %q", String())
	}
}
