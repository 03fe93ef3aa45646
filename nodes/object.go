package nodes

import (
	"context"
	"fmt"

	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/typesys"
	"github.com/kbukum/nodeflow/util"
)

// Record node types.
const (
	TypeExtract = "object/extract"
	TypeFields  = "object/fields"
	TypeMerge   = "object/merge"
)

func objectDefinitions() []registry.Definition {
	return []registry.Definition{
		{
			Type:          TypeExtract,
			Category:      CategoryObject,
			Description:   "Looks up path in data. The result stays wrapped with the source data unless wrap=false.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:       registry.Handles{Inputs: []string{"data"}, Outputs: []string{"value"}},
			ExposedFields: []string{"data"},
			Config: map[string]registry.ConfigField{
				"path": {Required: true},
				"wrap": {Default: true},
			},
			Operation: extract,
		},
		{
			Type:          TypeFields,
			Category:      CategoryObject,
			Description:   "Exposes one output handle per listed field of data.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:       registry.Handles{Inputs: []string{"data"}, Outputs: []string{"data"}},
			ExposedFields: []string{"data"},
			OutputMapping: &registry.OutputMapping{
				Mode:        "dynamic",
				FieldSource: "fields",
				Template:    "{{field}}",
				MainOutput:  "data",
			},
			Config:      map[string]registry.ConfigField{"fields": {Required: true}},
			InputTypes:  map[string]typesys.Tag{"data": typesys.Object},
			OutputTypes: map[string]typesys.Tag{"data": typesys.Object},
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				return req.Config["data"], nil
			},
		},
		{
			Type:          TypeMerge,
			Category:      CategoryObject,
			Description:   "Shallow merge of record b over record a.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:       registry.Handles{Inputs: []string{"a", "b"}, Outputs: []string{"result"}},
			ExposedFields: []string{"a", "b"},
			InputTypes:    map[string]typesys.Tag{"a": typesys.Object, "b": typesys.Object},
			OutputTypes:   map[string]typesys.Tag{"result": typesys.Object},
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				a, err := record(req.Config["a"], "a")
				if err != nil {
					return nil, err
				}
				b, err := record(req.Config["b"], "b")
				if err != nil {
					return nil, err
				}
				return util.Merge(a, b), nil
			},
		},
	}
}

func extract(_ context.Context, req registry.Request) (any, error) {
	data := req.Config["data"]
	path := util.ToString(req.Config["path"])

	value, original, wrapped := registry.Unwrap(data)
	if !wrapped {
		value, original = data, data
	}
	v, ok := util.GetPath(value, path)
	if !ok && wrapped {
		v, ok = util.GetPath(original, path)
	}
	if !ok {
		v = nil
	}
	if wrap, set := req.Config["wrap"]; set && !util.ToBool(wrap) {
		return v, nil
	}
	return registry.Wrapped{Value: v, Original: original}, nil
}

func record(v any, name string) (map[string]any, error) {
	v = registry.UnwrapValue(v)
	switch r := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return r, nil
	}
	return nil, fmt.Errorf("%s must be a record, got %T", name, v)
}
