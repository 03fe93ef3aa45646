package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/kbukum/nodeflow/errors"
	"github.com/kbukum/nodeflow/util"
)

// FieldError is one problem with one config field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + " " + e.Message
}

// Validator collects field problems. Checks chain and never stop early, so
// a node reports every problem of its config at once.
type Validator struct {
	errs []FieldError
}

func New() *Validator {
	return &Validator{}
}

// AddError records a problem with field.
func (v *Validator) AddError(field, message string) *Validator {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) Errors() []FieldError {
	return v.errs
}

// Messages renders one "field message" line per problem, or nil when there
// is none. Node type validators return it as their result.
func (v *Validator) Messages() []string {
	if !v.HasErrors() {
		return nil
	}
	out := make([]string, len(v.errs))
	for i, e := range v.errs {
		out[i] = e.String()
	}
	return out
}

// Err returns the problems as an INVALID_INPUT AppError with the fields in
// its details, or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	parts := make([]string, len(v.errs))
	for i, e := range v.errs {
		parts[i] = e.Field + ": " + e.Message
	}
	appErr := errors.Validation(strings.Join(parts, "; "))
	appErr.Details = map[string]any{"fields": v.errs}
	return appErr
}

// Required checks that a string is not blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Present checks that a config value is set: not nil and not a blank
// string. Zero numbers and false count as set.
func (v *Validator) Present(field string, value any) *Validator {
	if value == nil {
		return v.AddError(field, "is required")
	}
	if s, ok := value.(string); ok {
		v.Required(field, s)
	}
	return v
}

// Number checks that a set value coerces to a number. Unset values pass.
func (v *Validator) Number(field string, value any) *Validator {
	if value == nil {
		return v
	}
	if _, ok := util.ToFloat(value); !ok {
		v.AddError(field, "must be a number")
	}
	return v
}

// Range checks min <= value <= max.
func (v *Validator) Range(field string, value, minVal, maxVal int) *Validator {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("must be between %d and %d", minVal, maxVal))
	}
	return v
}

var patterns sync.Map

func compiled(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patterns.Store(pattern, re)
	return re, nil
}

// Pattern checks a non-empty string against a regular expression. Empty
// values pass.
func (v *Validator) Pattern(field, value, pattern string) *Validator {
	if value == "" {
		return v
	}
	re, err := compiled(pattern)
	if err != nil || !re.MatchString(value) {
		v.AddError(field, "does not match required format")
	}
	return v
}

// OneOf checks a non-empty string against the allowed values. Empty values
// pass so optional fields fall back to their default.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value != "" && !slices.Contains(allowed, value) {
		v.AddError(field, "must be one of: "+strings.Join(allowed, ", "))
	}
	return v
}
