package nodes

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/typesys"
	"github.com/kbukum/nodeflow/util"
)

// Text node types.
const (
	TypeTemplate = "text/template"
	TypeCase     = "text/case"
)

func textDefinitions() []registry.Definition {
	return []registry.Definition{
		{
			Type:        TypeTemplate,
			Category:    CategoryText,
			Description: "Renders a Go template over the inputs and global variables.",
			Execution:   registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:     registry.Handles{Inputs: []string{"data"}, Outputs: []string{"text"}},
			Config:      map[string]registry.ConfigField{"template": {Required: true}},
			OutputTypes: map[string]typesys.Tag{"text": typesys.String},
			Operation:   render,
			Validator: func(cfg map[string]any) []string {
				if _, err := template.New("check").Parse(util.ToString(cfg["template"])); err != nil {
					return []string{"template does not parse: " + err.Error()}
				}
				return nil
			},
		},
		{
			Type:          TypeCase,
			Category:      CategoryText,
			Description:   "Changes the case of text.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:       registry.Handles{Inputs: []string{"text"}, Outputs: []string{"text"}},
			ExposedFields: []string{"text"},
			Config:        map[string]registry.ConfigField{"mode": {Default: "upper"}},
			OutputTypes:   map[string]typesys.Tag{"text": typesys.String},
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				s := util.ToString(registry.UnwrapValue(req.Config["text"]))
				switch util.ToString(req.Config["mode"]) {
				case "upper":
					return strings.ToUpper(s), nil
				case "lower":
					return strings.ToLower(s), nil
				case "trim":
					return strings.TrimSpace(s), nil
				}
				return nil, fmt.Errorf("unknown case mode %q", req.Config["mode"])
			},
		},
	}
}

// render exposes {{.Inputs.x}}, {{.Config.x}} and {{.Vars.x}} to the template.
func render(_ context.Context, req registry.Request) (any, error) {
	tpl, err := template.New(req.NodeID).Option("missingkey=zero").Parse(util.ToString(req.Config["template"]))
	if err != nil {
		return nil, err
	}
	data := map[string]any{
		"Inputs": unwrapAll(req.Inputs),
		"Config": req.Config,
		"Vars":   map[string]any{},
	}
	if req.Exec != nil && req.Exec.Variables != nil {
		data["Vars"] = req.Exec.Variables.Snapshot()
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.String(), nil
}

func unwrapAll(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = registry.UnwrapValue(v)
	}
	return out
}
