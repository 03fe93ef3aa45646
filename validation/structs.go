package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/nodeflow/errors"
)

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return v
})

// fieldName names a field by its config key: the mapstructure tag, then the
// json tag, then the snake_case Go name.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"mapstructure", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return toSnakeCase(f.Name)
}

// ValidateStruct checks `validate` struct tags and returns an INVALID_INPUT
// AppError listing every failing field.
func ValidateStruct(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation(err.Error())
	}

	v := New()
	for _, e := range verrs {
		v.AddError(e.Field(), describe(e))
	}
	return v.Err()
}

func describe(e validator.FieldError) string {
	p := e.Param()
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if isCollection(e.Kind()) {
			return "must have at least " + p + " items"
		}
		return "must be at least " + p
	case "max":
		if isCollection(e.Kind()) {
			return "must have at most " + p + " items"
		}
		return "must be at most " + p
	case "gte":
		return "must be at least " + p
	case "lte":
		return "must be at most " + p
	case "gt":
		return "must be greater than " + p
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(p), ", ")
	case "hostname_port":
		return "must be host:port"
	case "url":
		return "must be a URL"
	case "required_with":
		return "is required with " + toSnakeCase(p)
	}
	return "failed " + e.Tag() + " check"
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Map || k == reflect.Array
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
