package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// Node types the engine treats specially.
const (
	TypeInput    = "input"
	TypeConstant = "constant"
	TypeVariable = "variable"
	TypeIf       = "logic/if"
	TypeWhile    = "loop/while"
	TypeRepeat   = "loop/repeat"
)

// Variable node modes.
const (
	VariableSet = "set"
	VariableGet = "get"
)

// Exec handles of branch and loop nodes.
const (
	BranchTrue  = "true"
	BranchFalse = "false"
	LoopBody    = "body"
	LoopDone    = "done"
)

// IsSourceType reports whether nodes of the type are always entry nodes.
// Variable nodes only qualify in get mode, which needs their config.
func IsSourceType(nodeType string) bool {
	return nodeType == TypeInput || nodeType == TypeConstant
}

// IsLoopType reports whether the type iterates a body subgraph.
func IsLoopType(nodeType string) bool {
	return nodeType == TypeWhile || nodeType == TypeRepeat
}

// Loop iteration bounds.
const (
	DefaultLoopIterations = 1000
	MinLoopIterations     = 1
	MaxLoopIterations     = 10000
)

// LoopIterations reads maxIterations from a loop config, using fallback
// when it is unset.
func LoopIterations(config map[string]any, fallback int) (int, error) {
	if fallback <= 0 {
		fallback = DefaultLoopIterations
	}
	raw, ok := config["maxIterations"]
	if !ok || raw == nil || raw == "" {
		return fallback, nil
	}
	n, ok := toInt(raw)
	if !ok {
		return 0, fmt.Errorf("maxIterations must be a number, got %v", raw)
	}
	if n < MinLoopIterations || n > MaxLoopIterations {
		return 0, fmt.Errorf("maxIterations must be between %d and %d, got %d", MinLoopIterations, MaxLoopIterations, n)
	}
	return n, nil
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case int32:
		return int(x), true
	case float64:
		if x != float64(int(x)) {
			return 0, false
		}
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}
