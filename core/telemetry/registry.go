package telemetry

import (
	"errors"
	"fmt"

	"github.com/nurapulse/pulse/core/factory"
)

// ErrUnknownStore is returned for an unregistered store type.
var ErrUnknownStore = errors.New("unknown store type")

// StoreConfig names a store implementation and carries its raw settings.
type StoreConfig = factory.ModuleConfig

// Factory builds a Store from raw settings.
type Factory = factory.Factory[Store]

var stores = factory.NewRegistry[Store]()

func init() {
	_ = stores.Register("memory", func(map[string]any) (Store, error) { return NewMemoryStore(), nil })
}

// Register adds a store factory under name.
func Register(name string, f Factory) error {
	return stores.Register(name, f)
}

// Registered lists the known store types.
func Registered() []string { return stores.Names() }

// Open instantiates the store described by cfg. An empty type means memory.
func Open(cfg StoreConfig) (Store, error) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	st, err := stores.Create(cfg)
	if errors.Is(err, factory.ErrUnknownType) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Type, err)
	}
	return st, nil
}

// Decode fills out from raw store settings using json tags.
func Decode(data map[string]any, out any) error { return factory.Decode(data, out) }
