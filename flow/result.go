package flow

import (
	"encoding/json"
	"time"

	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/typesys"
	"github.com/kbukum/nodeflow/util"
)

// Status is the per-run state of a node.
type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuting Status = "executing"
	StatusExecuted  Status = "executed"
	StatusFailed    Status = "failed"
)

// NodeResult holds the outcome of a single node execution.
type NodeResult struct {
	NodeID    string         `json:"nodeId"`
	Type      string         `json:"type"`
	Status    Status         `json:"status"`
	Raw       any            `json:"raw,omitempty"`
	Outputs   map[string]any `json:"outputs,omitempty"`
	Error     error          `json:"-"`
	Duration  time.Duration  `json:"duration"`
	Iteration int            `json:"iteration,omitempty"`
}

// clone returns a copy whose Outputs map is not shared with r.
func (r *NodeResult) clone() *NodeResult {
	cp := *r
	if r.Outputs != nil {
		cp.Outputs = util.CloneMap(r.Outputs)
	}
	return &cp
}

// MarshalJSON renders Error as its message.
func (r NodeResult) MarshalJSON() ([]byte, error) {
	type alias NodeResult
	out := struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias: alias(r)}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return json.Marshal(out)
}

// RunResult is the outcome of one RunFlow pass.
type RunResult struct {
	RunID         string                               `json:"runId"`
	Success       bool                                 `json:"success"`
	Results       map[string]*NodeResult               `json:"results"`
	Outputs       map[string]map[string]any            `json:"outputs"`
	ExecutedNodes []string                             `json:"executedNodes"`
	Error         error                                `json:"-"`
	Validation    map[string]registry.ValidationResult `json:"validation,omitempty"`
	Types         map[string]map[string]typesys.Tag    `json:"types,omitempty"`
	Duration      time.Duration                        `json:"duration"`
}

// MarshalJSON renders Error as its message.
func (r RunResult) MarshalJSON() ([]byte, error) {
	type alias RunResult
	out := struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias: alias(r)}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return json.Marshal(out)
}

// Output returns one handle value of a node.
func (r *RunResult) Output(nodeID, handle string) (any, bool) {
	v, ok := r.Outputs[nodeID][handle]
	return v, ok
}
