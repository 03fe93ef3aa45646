package registry

import "encoding/json"

// WrappedFlag is the marker key of the map form of a wrapped value.
const WrappedFlag = "__wrapped"

// Wrapped bundles an extracted value with the data it was extracted from,
// so extraction nodes stay chainable.
type Wrapped struct {
	Value    any
	Original any
}

// MarshalJSON encodes the map form {"value", "__wrapped": true, "originalData"}.
func (w Wrapped) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Map())
}

// Map returns the map form of w.
func (w Wrapped) Map() map[string]any {
	return map[string]any{"value": w.Value, WrappedFlag: true, "originalData": w.Original}
}

// Unwrap returns the value and original data of a wrapped value in either
// form. ok is false when v is not wrapped.
func Unwrap(v any) (value, original any, ok bool) {
	switch w := v.(type) {
	case Wrapped:
		return w.Value, w.Original, true
	case *Wrapped:
		if w == nil {
			return nil, nil, false
		}
		return w.Value, w.Original, true
	case map[string]any:
		if flag, _ := w[WrappedFlag].(bool); flag {
			return w["value"], w["originalData"], true
		}
	}
	return nil, nil, false
}

// UnwrapValue returns the inner value of a wrapped value, or v unchanged.
func UnwrapValue(v any) any {
	if inner, _, ok := Unwrap(v); ok {
		return inner
	}
	return v
}
