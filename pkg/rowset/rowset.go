// Package rowset is the public entry point: it creates tabular store
// backends and opens entity registries over them, keeping the engine and
// backend implementations internal.
package rowset

import (
	"fmt"

	"github.com/mesh-intelligence/rowset/internal/engine"
	"github.com/mesh-intelligence/rowset/internal/memory"
	"github.com/mesh-intelligence/rowset/internal/sqlstore"
	"github.com/mesh-intelligence/rowset/pkg/schema"
	"github.com/mesh-intelligence/rowset/pkg/types"
)

// Options configures Open. See the field docs for defaults.
type Options = engine.Options

// NewBackend creates a detached backend for the named kind (one of
// types.BackendMemory, BackendBSON, BackendSQLite, BackendMySQL).
//
// Example:
//
//	backend, err := rowset.NewBackend(types.BackendSQLite)
//	err = backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".rowset-db",
//	})
//	defer backend.Detach()
func NewBackend(kind string) (types.Backend, error) {
	switch kind {
	case types.BackendMemory, types.BackendBSON:
		return memory.NewBackend(), nil
	case types.BackendSQLite, types.BackendMySQL:
		return sqlstore.NewBackend(), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrBackendUnknown, kind)
	}
}

// Attach creates the backend named by config and attaches it.
func Attach(config types.Config) (types.Backend, error) {
	b, err := NewBackend(config.Backend)
	if err != nil {
		return nil, err
	}
	if err := b.Attach(config); err != nil {
		return nil, err
	}
	return b, nil
}

// Open registers defs over store, creating and repairing sheets as needed.
func Open(store types.Store, defs []*schema.Definition, opts Options) (types.Registry, error) {
	return engine.NewRegistry(store, defs, opts)
}
