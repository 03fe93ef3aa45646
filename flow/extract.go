package flow

import (
	"fmt"
	"sync"

	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/util"
)

// DefaultOutputHandle receives the raw result of nodes that declare no outputs.
const DefaultOutputHandle = "output"

// OutputExtractor maps a raw result onto named output handles. It must be
// pure: the same definition, config and raw result give the same mapping.
type OutputExtractor func(def *registry.Definition, config map[string]any, raw any) (map[string]any, error)

type extractStrategy string

const (
	strategyNone      extractStrategy = "none"
	strategySingle    extractStrategy = "single"
	strategyRecord    extractStrategy = "record"
	strategyDynamic   extractStrategy = "dynamic"
	strategyTemplated extractStrategy = "templated"
)

var extractors = map[extractStrategy]OutputExtractor{
	strategyNone:      extractNone,
	strategySingle:    extractSingle,
	strategyRecord:    extractRecord,
	strategyDynamic:   extractDynamic,
	strategyTemplated: extractTemplated,
}

func strategyFor(def *registry.Definition) extractStrategy {
	switch {
	case def.OutputMapping != nil:
		return strategyTemplated
	case def.DynamicHandles != nil:
		return strategyDynamic
	case len(def.Handles.Outputs) == 0:
		return strategyNone
	case len(def.Handles.Outputs) == 1:
		return strategySingle
	default:
		return strategyRecord
	}
}

// extractorCache resolves the strategy of each node type once.
type extractorCache struct {
	mu    sync.RWMutex
	byDef map[*registry.Definition]OutputExtractor
}

func newExtractorCache() *extractorCache {
	return &extractorCache{byDef: make(map[*registry.Definition]OutputExtractor)}
}

func (c *extractorCache) get(def *registry.Definition) OutputExtractor {
	c.mu.RLock()
	fn, ok := c.byDef[def]
	c.mu.RUnlock()
	if ok {
		return fn
	}
	fn = extractors[strategyFor(def)]
	c.mu.Lock()
	c.byDef[def] = fn
	c.mu.Unlock()
	return fn
}

// ExtractOutputs applies the extraction strategy of def to a raw result.
func ExtractOutputs(def *registry.Definition, config map[string]any, raw any) (map[string]any, error) {
	return extractors[strategyFor(def)](def, config, raw)
}

func extractNone(_ *registry.Definition, _ map[string]any, raw any) (map[string]any, error) {
	return map[string]any{DefaultOutputHandle: raw}, nil
}

func extractSingle(def *registry.Definition, _ map[string]any, raw any) (map[string]any, error) {
	return map[string]any{def.Handles.Outputs[0]: raw}, nil
}

func extractRecord(def *registry.Definition, _ map[string]any, raw any) (map[string]any, error) {
	return pickFields(def.Handles.Outputs, raw)
}

func extractDynamic(def *registry.Definition, config map[string]any, raw any) (map[string]any, error) {
	handles := def.Outputs(config)
	switch len(handles) {
	case 0:
		return map[string]any{DefaultOutputHandle: raw}, nil
	case 1:
		return map[string]any{handles[0]: raw}, nil
	}
	return pickFields(handles, raw)
}

// pickFields reads each handle from a record result. The first handle is
// primary and keeps a wrapped result as is.
func pickFields(handles []string, raw any) (map[string]any, error) {
	rec, ok := asRecord(registry.UnwrapValue(raw))
	if !ok {
		return nil, fmt.Errorf("result must be a record with fields %v, got %T", handles, raw)
	}
	out := make(map[string]any, len(handles))
	for _, h := range handles {
		if v, ok := rec[h]; ok {
			out[h] = v
		}
	}
	if _, _, wrapped := registry.Unwrap(raw); wrapped {
		out[handles[0]] = raw
	}
	return out, nil
}

func extractTemplated(def *registry.Definition, config map[string]any, raw any) (map[string]any, error) {
	m := def.OutputMapping
	main := m.MainOutput
	if main == "" {
		main = DefaultOutputHandle
	}
	out := map[string]any{main: raw}

	value, original, wrapped := registry.Unwrap(raw)
	if !wrapped {
		value = raw
	}
	for _, field := range util.ToStringSlice(config[m.FieldSource]) {
		v, ok := util.GetPath(value, field)
		if !ok && wrapped {
			v, ok = util.GetPath(original, field)
		}
		if ok {
			out[m.HandleName(field)] = v
		}
	}
	return out, nil
}

func asRecord(v any) (map[string]any, bool) {
	switch r := v.(type) {
	case map[string]any:
		return r, true
	case registry.Wrapped:
		return r.Map(), true
	}
	return nil, false
}
