package nodes

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kbukum/nodeflow/util"
)

// Comparison operators shared by logic/compare and array/filter.
const (
	OpEquals         = "equals"
	OpNotEquals      = "notEquals"
	OpGreaterThan    = "greaterThan"
	OpGreaterOrEqual = "greaterOrEqual"
	OpLessThan       = "lessThan"
	OpLessOrEqual    = "lessOrEqual"
	OpContains       = "contains"
	OpStartsWith     = "startsWith"
	OpEndsWith       = "endsWith"
	OpExists         = "exists"
)

// Comparison modes.
const (
	CompareAuto   = "auto"
	CompareNumber = "number"
	CompareString = "string"
)

var operators = []string{
	OpEquals, OpNotEquals, OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual,
	OpContains, OpStartsWith, OpEndsWith, OpExists,
}

var compareModes = []string{CompareAuto, CompareNumber, CompareString}

// compare applies op to left and right. Ordering operators compare numbers
// when both sides coerce to one (or mode is "number"), else strings.
// Values that cannot be coerced in number mode never match.
func compare(left, right any, op, mode string) (bool, error) {
	switch op {
	case OpExists:
		return left != nil, nil
	case OpContains:
		return contains(left, right), nil
	case OpStartsWith:
		return strings.HasPrefix(util.ToString(left), util.ToString(right)), nil
	case OpEndsWith:
		return strings.HasSuffix(util.ToString(left), util.ToString(right)), nil
	case OpNotEquals:
		eq, err := compare(left, right, OpEquals, mode)
		return !eq, err
	}

	cmp, ok := order(left, right, mode)
	switch op {
	case OpEquals:
		if !ok {
			return reflect.DeepEqual(left, right), nil
		}
		return cmp == 0, nil
	case OpGreaterThan:
		return ok && cmp > 0, nil
	case OpGreaterOrEqual:
		return ok && cmp >= 0, nil
	case OpLessThan:
		return ok && cmp < 0, nil
	case OpLessOrEqual:
		return ok && cmp <= 0, nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

// order returns -1, 0 or 1. ok is false when the values are not comparable
// in the requested mode.
func order(left, right any, mode string) (int, bool) {
	if mode != CompareString {
		l, lok := util.ToFloat(left)
		r, rok := util.ToFloat(right)
		if lok && rok && !isBool(left) && !isBool(right) {
			switch {
			case l < r:
				return -1, true
			case l > r:
				return 1, true
			}
			return 0, true
		}
		if mode == CompareNumber {
			return 0, false
		}
	}
	if left == nil || right == nil {
		return 0, false
	}
	return strings.Compare(util.ToString(left), util.ToString(right)), true
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func contains(haystack, needle any) bool {
	if items, ok := util.ToSlice(haystack); ok {
		for _, item := range items {
			if eq, _ := compare(item, needle, OpEquals, CompareAuto); eq {
				return true
			}
		}
		return false
	}
	if m, ok := haystack.(map[string]any); ok {
		_, found := m[util.ToString(needle)]
		return found
	}
	return strings.Contains(util.ToString(haystack), util.ToString(needle))
}
