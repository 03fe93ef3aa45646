package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/typesys"
	"github.com/kbukum/nodeflow/util"
	"github.com/kbukum/nodeflow/validation"
)

// Math and comparison node types.
const (
	TypeAdd      = "math/add"
	TypeSubtract = "math/subtract"
	TypeMultiply = "math/multiply"
	TypeDivide   = "math/divide"
	TypeCompare  = "logic/compare"
)

// ErrDivisionByZero is returned by math/divide.
var ErrDivisionByZero = errors.New("division by zero")

func mathDefinitions() []registry.Definition {
	return []registry.Definition{
		binary(TypeAdd, "Sum of a and b.", func(a, b float64) (float64, error) { return a + b, nil }),
		binary(TypeSubtract, "Difference a - b.", func(a, b float64) (float64, error) { return a - b, nil }),
		binary(TypeMultiply, "Product of a and b.", func(a, b float64) (float64, error) { return a * b, nil }),
		binary(TypeDivide, "Quotient a / b.", func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, ErrDivisionByZero
			}
			return a / b, nil
		}),
		{
			Type:          TypeCompare,
			Category:      CategoryLogic,
			Description:   "Compares left and right. output=detailed also emits both operands.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:       registry.Handles{Inputs: []string{"left", "right"}, Outputs: []string{"result"}},
			ExposedFields: []string{"left", "right"},
			DynamicHandles: &registry.DynamicHandles{
				ModeField: "output",
				Modes: map[string][]string{
					"boolean":  {"result"},
					"detailed": {"result", "left", "right"},
				},
			},
			Config: map[string]registry.ConfigField{
				"operator":  {Default: OpEquals},
				"compareAs": {Default: CompareAuto},
				"output":    {Default: "boolean"},
			},
			OutputTypes: map[string]typesys.Tag{"result": typesys.Boolean},
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				left, right := req.Config["left"], req.Config["right"]
				ok, err := compare(left, right, util.ToString(req.Config["operator"]), util.ToString(req.Config["compareAs"]))
				if err != nil {
					return nil, err
				}
				if util.ToString(req.Config["output"]) == "detailed" {
					return map[string]any{"result": ok, "left": left, "right": right}, nil
				}
				return ok, nil
			},
			Validator: func(cfg map[string]any) []string {
				return validation.New().
					OneOf("operator", util.ToString(cfg["operator"]), operators).
					OneOf("compareAs", util.ToString(cfg["compareAs"]), compareModes).
					OneOf("output", util.ToString(cfg["output"]), []string{"boolean", "detailed"}).
					Messages()
			},
		},
	}
}

// binary builds a numeric node over exposed fields a and b.
func binary(typ, description string, fn func(a, b float64) (float64, error)) registry.Definition {
	return registry.Definition{
		Type:          typ,
		Category:      CategoryMath,
		Description:   description,
		Execution:     registry.ExecutionPolicy{Mode: registry.ModeAuto},
		Handles:       registry.Handles{Inputs: []string{"a", "b"}, Outputs: []string{"result"}},
		ExposedFields: []string{"a", "b"},
		Config: map[string]registry.ConfigField{
			"a": {Default: 0},
			"b": {Default: 0},
		},
		InputTypes:  map[string]typesys.Tag{"a": typesys.Number, "b": typesys.Number},
		OutputTypes: map[string]typesys.Tag{"result": typesys.Number},
		Operation: func(_ context.Context, req registry.Request) (any, error) {
			a, ok := util.ToFloat(req.Config["a"])
			if !ok {
				return nil, fmt.Errorf("a is not a number: %v", req.Config["a"])
			}
			b, ok := util.ToFloat(req.Config["b"])
			if !ok {
				return nil, fmt.Errorf("b is not a number: %v", req.Config["b"])
			}
			return fn(a, b)
		},
		Validator: func(cfg map[string]any) []string {
			return validation.New().Number("a", cfg["a"]).Number("b", cfg["b"]).Messages()
		},
	}
}
