package registry

import (
	"strings"
	"time"

	"github.com/kbukum/nodeflow/typesys"
)

// DefaultTimeout bounds an asynchronous operation when neither the type nor
// the engine configures one.
const DefaultTimeout = 30 * time.Second

// ExecMode tells the editor whether a node runs on its own.
type ExecMode string

const (
	ModeAuto   ExecMode = "auto"
	ModeManual ExecMode = "manual"
)

// ExecutionPolicy controls how the executor invokes an operation.
type ExecutionPolicy struct {
	Async   bool          `json:"async"`
	Timeout time.Duration `json:"timeout,omitempty"`
	Mode    ExecMode      `json:"mode,omitempty"`
}

// TimeoutOr returns the policy timeout, or fallback when unset.
func (p ExecutionPolicy) TimeoutOr(fallback time.Duration) time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultTimeout
}

// Handles lists a node's data handles.
type Handles struct {
	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
}

// DynamicHandles selects the output handle set from a config field.
type DynamicHandles struct {
	ModeField string              `json:"modeField"`
	Modes     map[string][]string `json:"modes"`
}

// OutputMapping declares templated outputs: one handle per name listed in
// the FieldSource config field, named by Template ("{{field}}" is replaced
// by the name), valued by a path lookup of the name into the result.
// MainOutput receives the whole result.
type OutputMapping struct {
	Mode        string `json:"mode"`
	FieldSource string `json:"fieldSource"`
	Template    string `json:"template,omitempty"`
	MainOutput  string `json:"mainOutput,omitempty"`
}

// HandleName renders the handle name for one templated field.
func (m OutputMapping) HandleName(field string) string {
	if m.Template == "" {
		return field
	}
	return strings.ReplaceAll(m.Template, "{{field}}", field)
}

// ConfigField describes one configuration field.
type ConfigField struct {
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// Definition is the metadata of one node type.
type Definition struct {
	Type        string          `json:"type"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	Execution   ExecutionPolicy `json:"execution"`
	Handles     Handles         `json:"handles"`
	// ExecInputs reports whether the type accepts exec signals.
	ExecInputs bool `json:"execInputs,omitempty"`
	// ExecOutputs names the exec source handles, e.g. "true"/"false" or "body"/"done".
	ExecOutputs    []string               `json:"execOutputs,omitempty"`
	DynamicHandles *DynamicHandles        `json:"dynamicHandles,omitempty"`
	OutputMapping  *OutputMapping         `json:"outputMapping,omitempty"`
	ExposedFields  []string               `json:"exposedFields,omitempty"`
	Config         map[string]ConfigField `json:"config,omitempty"`
	InputTypes     map[string]typesys.Tag `json:"inputTypes,omitempty"`
	OutputTypes    map[string]typesys.Tag `json:"outputTypes,omitempty"`

	Operation Operation     `json:"-"`
	Validator ValidatorFunc `json:"-"`
}

// HasValidator reports whether the type ships a config validator.
func (d *Definition) HasValidator() bool { return d.Validator != nil }

// Outputs returns the output handles that apply to the given config.
func (d *Definition) Outputs(config map[string]any) []string {
	if d.DynamicHandles != nil {
		if mode, ok := config[d.DynamicHandles.ModeField].(string); ok {
			if handles, ok := d.DynamicHandles.Modes[mode]; ok {
				return handles
			}
		}
	}
	return d.Handles.Outputs
}

// IsExposed reports whether a config field may be overridden by an input.
func (d *Definition) IsExposed(field string) bool {
	for _, f := range d.ExposedFields {
		if f == field {
			return true
		}
	}
	return false
}

// DefaultConfig returns the declared defaults for every config field.
func (d *Definition) DefaultConfig() map[string]any {
	out := make(map[string]any)
	for name, f := range d.Config {
		if f.Default != nil {
			out[name] = f.Default
		}
	}
	return out
}
