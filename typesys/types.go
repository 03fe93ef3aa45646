package typesys

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"time"
)

// Tag is a runtime type tag.
type Tag string

const (
	String  Tag = "string"
	Number  Tag = "number"
	Integer Tag = "integer"
	Float   Tag = "float"
	Boolean Tag = "boolean"
	Array   Tag = "array"
	Object  Tag = "object"
	Date    Tag = "date"
	Null    Tag = "null"
	Any     Tag = "any"
)

// IsNumeric reports whether t belongs to the numeric family.
func (t Tag) IsNumeric() bool {
	return t == Number || t == Integer || t == Float
}

// Detect returns the tag of a runtime value.
func Detect(v any) Tag {
	switch x := v.(type) {
	case nil:
		return Null
	case string:
		return String
	case bool:
		return Boolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Integer
	case float32:
		return floatTag(float64(x))
	case float64:
		return floatTag(x)
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return Integer
		}
		if f, err := x.Float64(); err == nil {
			return floatTag(f)
		}
		return Any
	case time.Time, *time.Time:
		return Date
	case []any, []string, []int, []float64, []map[string]any:
		return Array
	case map[string]any:
		return Object
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		return Detect(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return Array
	case reflect.Map, reflect.Struct:
		return Object
	}
	return Any
}

func floatTag(f float64) Tag {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number
	}
	if f == math.Trunc(f) {
		return Integer
	}
	return Float
}

// Compatible reports whether a value tagged a may flow into a slot tagged b.
// The relation is symmetric.
func Compatible(a, b Tag) bool {
	switch {
	case a == Any || b == Any:
		return true
	case a == b:
		return true
	case a.IsNumeric() && b.IsNumeric():
		return true
	case generalizes(a, b, Array) || generalizes(a, b, Object):
		return true
	}
	return false
}

// generalizes reports whether one of a, b is exactly base and the other a
// base-prefixed tag like "array<string>". Two distinct subtypes of the same
// base do not match.
func generalizes(a, b, base Tag) bool {
	return (a == base && strings.HasPrefix(string(b), string(base))) ||
		(b == base && strings.HasPrefix(string(a), string(base)))
}
