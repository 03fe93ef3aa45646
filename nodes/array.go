package nodes

import (
	"context"
	"fmt"
	"sort"

	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/typesys"
	"github.com/kbukum/nodeflow/util"
	"github.com/kbukum/nodeflow/validation"
)

// Array node types.
const (
	TypeFilter   = "array/filter"
	TypePluck    = "array/map"
	TypeLength   = "array/length"
	TypeSort     = "array/sort"
	TypeSequence = "data/sequence"
)

// maxSequenceLength bounds data/sequence output.
const maxSequenceLength = 100000

func arrayDefinitions() []registry.Definition {
	return []registry.Definition{
		{
			Type:          TypeFilter,
			Category:      CategoryArray,
			Description:   "Keeps the items whose field satisfies operator against value.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:       registry.Handles{Inputs: []string{"items", "value"}, Outputs: []string{"result", "rejected"}},
			ExposedFields: []string{"items", "value"},
			Config: map[string]registry.ConfigField{
				"items":     {Required: true},
				"field":     {Description: "Path into each item; empty compares the item itself"},
				"operator":  {Default: OpEquals},
				"value":     {},
				"compareAs": {Default: CompareAuto},
			},
			InputTypes:  map[string]typesys.Tag{"items": typesys.Array},
			OutputTypes: map[string]typesys.Tag{"result": typesys.Array, "rejected": typesys.Array},
			Operation:   filter,
			Validator: func(cfg map[string]any) []string {
				return validation.New().
					OneOf("operator", util.ToString(cfg["operator"]), operators).
					OneOf("compareAs", util.ToString(cfg["compareAs"]), compareModes).
					Messages()
			},
		},
		{
			Type:          TypePluck,
			Category:      CategoryArray,
			Description:   "Replaces every item by the value at field.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:       registry.Handles{Inputs: []string{"items"}, Outputs: []string{"result"}},
			ExposedFields: []string{"items"},
			Config:        map[string]registry.ConfigField{"items": {Required: true}, "field": {Required: true}},
			InputTypes:    map[string]typesys.Tag{"items": typesys.Array},
			OutputTypes:   map[string]typesys.Tag{"result": typesys.Array},
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				items, err := itemsOf(req.Config["items"])
				if err != nil {
					return nil, err
				}
				field := util.ToString(req.Config["field"])
				out := make([]any, 0, len(items))
				for _, item := range items {
					v, _ := util.GetPath(item, field)
					out = append(out, v)
				}
				return out, nil
			},
		},
		{
			Type:          TypeLength,
			Category:      CategoryArray,
			Description:   "Number of items.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:       registry.Handles{Inputs: []string{"items"}, Outputs: []string{"length"}},
			ExposedFields: []string{"items"},
			OutputTypes:   map[string]typesys.Tag{"length": typesys.Integer},
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				items, err := itemsOf(req.Config["items"])
				if err != nil {
					return nil, err
				}
				return len(items), nil
			},
		},
		{
			Type:          TypeSort,
			Category:      CategoryArray,
			Description:   "Sorts items by field, numbers before strings.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:       registry.Handles{Inputs: []string{"items"}, Outputs: []string{"result"}},
			ExposedFields: []string{"items"},
			Config: map[string]registry.ConfigField{
				"field":      {},
				"descending": {Default: false},
			},
			Operation: sortItems,
		},
		{
			Type:        TypeSequence,
			Category:    CategoryArray,
			Description: "Generates the integers from start up to but excluding end.",
			Execution:   registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:     registry.Handles{Outputs: []string{"items"}},
			Config: map[string]registry.ConfigField{
				"start": {Default: 0},
				"end":   {Required: true},
				"step":  {Default: 1},
			},
			OutputTypes: map[string]typesys.Tag{"items": typesys.Array},
			Operation:   sequence,
			Validator: func(cfg map[string]any) []string {
				v := validation.New().Number("start", cfg["start"]).Number("end", cfg["end"]).Number("step", cfg["step"])
				if step, ok := util.ToFloat(cfg["step"]); ok && step == 0 {
					v.AddError("step", "must not be zero")
				}
				return v.Messages()
			},
		},
	}
}

// itemsOf accepts a list, a wrapped list, or nil for an empty list.
func itemsOf(v any) ([]any, error) {
	v = registry.UnwrapValue(v)
	if v == nil {
		return nil, nil
	}
	items, ok := util.ToSlice(v)
	if !ok {
		return nil, fmt.Errorf("items must be a list, got %T", v)
	}
	return items, nil
}

func filter(_ context.Context, req registry.Request) (any, error) {
	items, err := itemsOf(req.Config["items"])
	if err != nil {
		return nil, err
	}
	field := util.ToString(req.Config["field"])
	op := util.ToString(req.Config["operator"])
	mode := util.ToString(req.Config["compareAs"])
	want := req.Config["value"]

	kept := make([]any, 0, len(items))
	rejected := make([]any, 0)
	for _, item := range items {
		got, _ := util.GetPath(item, field)
		ok, err := compare(got, want, op, mode)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, item)
		} else {
			rejected = append(rejected, item)
		}
	}
	return map[string]any{"result": kept, "rejected": rejected}, nil
}

func sortItems(_ context.Context, req registry.Request) (any, error) {
	items, err := itemsOf(req.Config["items"])
	if err != nil {
		return nil, err
	}
	field := util.ToString(req.Config["field"])
	desc := util.ToBool(req.Config["descending"])

	out := append([]any(nil), items...)
	key := func(i int) any {
		v, _ := util.GetPath(out[i], field)
		return v
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := key(i), key(j)
		an, bn := util.IsNumeric(a), util.IsNumeric(b)
		if an != bn {
			return an != desc
		}
		cmp, _ := order(a, b, CompareAuto)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out, nil
}

func sequence(_ context.Context, req registry.Request) (any, error) {
	start, _ := util.ToInt(req.Config["start"])
	end, ok := util.ToInt(req.Config["end"])
	if !ok {
		return nil, fmt.Errorf("end must be a number, got %v", req.Config["end"])
	}
	step, _ := util.ToInt(req.Config["step"])
	if step == 0 {
		return nil, fmt.Errorf("step must not be zero")
	}

	out := make([]any, 0)
	for i := start; (step > 0 && i < end) || (step < 0 && i > end); i += step {
		if len(out) == maxSequenceLength {
			return nil, fmt.Errorf("sequence longer than %d items", maxSequenceLength)
		}
		out = append(out, i)
	}
	return out, nil
}
