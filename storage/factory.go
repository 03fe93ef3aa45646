package storage

import (
	"fmt"
	"sync"

	"github.com/kbukum/nodeflow/logger"
)

// AdapterFactory creates an Adapter from core config and provider-specific
// configuration. Each provider type-asserts providerCfg to its own type.
type AdapterFactory func(cfg Config, providerCfg any, log *logger.Logger) (Adapter, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]AdapterFactory{
		ProviderMemory: func(Config, any, *logger.Logger) (Adapter, error) {
			return NewMemory(), nil
		},
	}
)

// RegisterFactory registers a backend factory for the given provider name.
// Backend packages call this from an init function.
func RegisterFactory(name string, f AdapterFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New creates an Adapter for cfg.Provider. The backend package must have
// been imported so its factory is registered.
func New(cfg Config, providerCfg any, log *logger.Logger) (Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	l := log.WithComponent("storage")
	l.Info("initializing storage", map[string]interface{}{"provider": cfg.Provider})
	return f(cfg, providerCfg, l)
}
