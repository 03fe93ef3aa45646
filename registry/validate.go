package registry

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationResult is the advisory outcome of a config check.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateConfig checks required fields and runs the type's validator.
// It never fails; problems are returned as data.
func ValidateConfig(cat Catalog, nodeType string, config map[string]any) ValidationResult {
	def, err := cat.Definition(nodeType)
	if err != nil {
		return ValidationResult{Errors: []string{fmt.Sprintf("unknown node type %q", nodeType)}}
	}

	var problems []string
	for _, name := range sortedFields(def.Config) {
		if def.Config[name].Required && isBlank(config[name]) {
			problems = append(problems, fmt.Sprintf("%s is required", name))
		}
	}
	if v, ok := cat.Validator(nodeType); ok {
		problems = append(problems, v(config)...)
	}
	return ValidationResult{Valid: len(problems) == 0, Errors: problems}
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func sortedFields(fields map[string]ConfigField) []string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
