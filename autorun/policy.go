package autorun

import (
	"fmt"
	"sort"

	"github.com/kbukum/nodeflow/nodes"
	"github.com/kbukum/nodeflow/registry"
)

// Trigger is the user action a plan is computed for.
type Trigger string

const (
	TriggerCreate       Trigger = "create"
	TriggerConfigChange Trigger = "config-change"
	TriggerDataReceived Trigger = "data-received"
)

// ParseTrigger validates a trigger name.
func ParseTrigger(s string) (Trigger, error) {
	switch t := Trigger(s); t {
	case TriggerCreate, TriggerConfigChange, TriggerDataReceived:
		return t, nil
	}
	return "", fmt.Errorf("autorun: unknown trigger %q", s)
}

// Policy is the set of node types that auto-run per trigger.
type Policy struct {
	tables map[Trigger]map[string]bool
}

// NewPolicy builds a policy from type lists.
func NewPolicy(onCreate, onConfigChange, onDataReceived []string) Policy {
	return Policy{tables: map[Trigger]map[string]bool{
		TriggerCreate:       toSet(onCreate),
		TriggerConfigChange: toSet(onConfigChange),
		TriggerDataReceived: toSet(onDataReceived),
	}}
}

// Allows reports whether nodeType auto-runs on trigger.
func (p Policy) Allows(trigger Trigger, nodeType string) bool {
	return p.tables[trigger][nodeType]
}

// Types returns the sorted table of a trigger.
func (p Policy) Types(trigger Trigger) []string {
	out := make([]string, 0, len(p.tables[trigger]))
	for t := range p.tables[trigger] {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func toSet(types []string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

// Generators produce data from config alone.
var defaultOnCreate = []string{
	registry.TypeConstant,
	registry.TypeInput,
	nodes.TypeSequence,
}

// transforms are pure functions of their inputs and config.
var transforms = []string{
	nodes.TypeAdd, nodes.TypeSubtract, nodes.TypeMultiply, nodes.TypeDivide, nodes.TypeCompare,
	nodes.TypeFilter, nodes.TypePluck, nodes.TypeLength, nodes.TypeSort,
	nodes.TypeExtract, nodes.TypeFields, nodes.TypeMerge,
	nodes.TypeTemplate, nodes.TypeCase,
}

var (
	defaultOnConfigChange = append(append([]string(nil), defaultOnCreate...), transforms...)
	defaultOnDataReceived = append([]string(nil), transforms...)
)

// DefaultPolicy auto-runs generators on creation, generators and pure
// transforms on config changes, and pure transforms on new upstream data.
// Nodes with side effects (storage, http, variables, logging) and control
// flow never auto-run.
func DefaultPolicy() Policy {
	return NewPolicy(defaultOnCreate, defaultOnConfigChange, defaultOnDataReceived)
}
