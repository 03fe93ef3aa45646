package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// SetJSON stores v JSON-encoded.
func SetJSON(ctx context.Context, a Adapter, namespace, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: marshal %s/%s: %w", namespace, key, err)
	}
	return a.Set(ctx, namespace, key, data)
}

// GetJSON decodes the value under namespace/key into v.
func GetJSON(ctx context.Context, a Adapter, namespace, key string, v any) error {
	data, err := a.Get(ctx, namespace, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: unmarshal %s/%s: %w", namespace, key, err)
	}
	return nil
}
