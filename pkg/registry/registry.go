// Package registry implements the type registry: the map from a
// manifest's "type" tag to the store.Constructor that builds it.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/driftdb/driftdb/pkg/store"
	"github.com/driftdb/driftdb/pkg/types"
)

// Registry maps database type tags to the Constructor that builds them,
// tracking registration order so error messages can enumerate the known
// tags deterministically.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]store.Constructor
	tags         []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{constructors: make(map[string]store.Constructor)}
}

// Register adds tag to the registry. It fails if tag is already
// registered: a controller option's registry and the package-level default
// are meant to be built up once at startup, not overwritten at runtime.
func (r *Registry) Register(tag string, ctor store.Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[tag]; exists {
		return types.NewError(types.AlreadyExists, fmt.Sprintf("database type %q is already registered", tag))
	}
	r.constructors[tag] = ctor
	r.tags = append(r.tags, tag)
	return nil
}

// Resolve returns the Constructor registered for tag, or a TypeMissing
// error whose message enumerates every registered tag in registration
// order.
func (r *Registry) Resolve(tag string) (store.Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctor, ok := r.constructors[tag]
	if !ok {
		return nil, types.NewError(types.TypeMissing, fmt.Sprintf("type %q is not registered; registered types: %s", tag, strings.Join(r.tags, ", ")))
	}
	return ctor, nil
}

// Tags returns every registered tag in registration order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.tags...)
}

var defaultRegistry = New()

func init() {
	mustRegister("eventlog", store.NewEventLog)
	mustRegister("feed", store.NewFeed)
	mustRegister("keyvalue", store.NewKeyValue)
	mustRegister("counter", store.NewCounter)
	mustRegister("docstore", store.NewDocStore)
}

func mustRegister(tag string, ctor store.Constructor) {
	if err := defaultRegistry.Register(tag, ctor); err != nil {
		panic(err)
	}
}

// AddDatabaseType registers tag on the package-level default registry,
// used by controllers constructed with no explicit Options.Registry.
func AddDatabaseType(tag string, ctor store.Constructor) error {
	return defaultRegistry.Register(tag, ctor)
}

// Default returns the package-level default registry.
func Default() *Registry {
	return defaultRegistry
}
