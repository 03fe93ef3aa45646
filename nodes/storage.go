package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/storage"
	"github.com/kbukum/nodeflow/typesys"
	"github.com/kbukum/nodeflow/util"
)

// Storage node types.
const (
	TypeStorageSet = "storage/set"
	TypeStorageGet = "storage/get"
)

// StorageAdapterName is the ExecContext adapter key the storage nodes use.
const StorageAdapterName = "storage"

// DefaultStorageNamespace is used when a storage node sets no namespace.
const DefaultStorageNamespace = "flow"

const storageTimeout = 10 * time.Second

func storageDefinitions() []registry.Definition {
	cfg := map[string]registry.ConfigField{
		"key":       {Required: true},
		"namespace": {Default: DefaultStorageNamespace},
	}
	return []registry.Definition{
		{
			Type:          TypeStorageSet,
			Category:      CategoryStorage,
			Description:   "Writes value as JSON under namespace/key of the storage adapter.",
			Execution:     registry.ExecutionPolicy{Async: true, Timeout: storageTimeout, Mode: registry.ModeManual},
			Handles:       registry.Handles{Inputs: []string{"value", "key"}, Outputs: []string{"value"}},
			ExecInputs:    true,
			ExecOutputs:   []string{ExecNext},
			ExposedFields: []string{"key"},
			Config:        cfg,
			Operation: func(ctx context.Context, req registry.Request) (any, error) {
				store, err := storageOf(req)
				if err != nil {
					return nil, err
				}
				v := registry.UnwrapValue(input(req, "value"))
				if err := storage.SetJSON(ctx, store, util.ToString(req.Config["namespace"]), util.ToString(req.Config["key"]), v); err != nil {
					return nil, err
				}
				return v, nil
			},
		},
		{
			Type:          TypeStorageGet,
			Category:      CategoryStorage,
			Description:   "Reads a JSON value from namespace/key of the storage adapter.",
			Execution:     registry.ExecutionPolicy{Async: true, Timeout: storageTimeout, Mode: registry.ModeManual},
			Handles:       registry.Handles{Inputs: []string{"key"}, Outputs: []string{"value", "found"}},
			ExecInputs:    true,
			ExecOutputs:   []string{ExecNext},
			ExposedFields: []string{"key"},
			Config:        cfg,
			OutputTypes:   map[string]typesys.Tag{"found": typesys.Boolean},
			Operation: func(ctx context.Context, req registry.Request) (any, error) {
				store, err := storageOf(req)
				if err != nil {
					return nil, err
				}
				var v any
				err = storage.GetJSON(ctx, store, util.ToString(req.Config["namespace"]), util.ToString(req.Config["key"]), &v)
				switch {
				case storage.IsNotFound(err):
					return map[string]any{"value": nil, "found": false}, nil
				case err != nil:
					return nil, err
				}
				return map[string]any{"value": v, "found": true}, nil
			},
		},
	}
}

func storageOf(req registry.Request) (storage.Adapter, error) {
	a, ok := req.Exec.Adapter(StorageAdapterName)
	if !ok {
		return nil, fmt.Errorf("no %q adapter configured", StorageAdapterName)
	}
	store, ok := a.(storage.Adapter)
	if !ok {
		return nil, fmt.Errorf("adapter %q is %T, not a storage adapter", StorageAdapterName, a)
	}
	return store, nil
}
