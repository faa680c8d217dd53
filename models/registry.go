// Package models holds the application factories: named schema manifests
// that migration revisions are generated from.
package models

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/galaplate/dbdeploy/database"
)

// Factory builds a fresh manifest for one application
type Factory func() *database.Manifest

var ErrUnknownFactory = errors.New("unknown application factory")

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a factory available under name. Registering the same name
// twice replaces the earlier factory.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Lookup builds the manifest for the named application
func Lookup(name string) (*database.Manifest, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %v)", ErrUnknownFactory, name, Names())
	}
	return factory(), nil
}

// Names lists the registered factories in alphabetical order
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
