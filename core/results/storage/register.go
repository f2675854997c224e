package storage

import (
	"fmt"
	"sort"
)

// Factory creates a new ResultStorage
type Factory func(args map[string][]string) (ResultStorage, error)

var registeredFactories = map[string]Factory{}

// Register registeres a new storage factory
func Register(name string, factory Factory) error {
	if _, ok := registeredFactories[name]; ok {
		return fmt.Errorf("storage driver %q already registered", name)
	}

	registeredFactories[name] = factory
	return nil
}

// MustRegister registeres a new storage factory and panics on error
func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}

// Open opens a result storage using driver name
func Open(name string, args map[string][]string) (ResultStorage, error) {
	factory, ok := registeredFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown storage driver %q", name)
	}

	return factory(args)
}

// Drivers returns the names of all registered drivers
func Drivers() []string {
	names := make([]string, 0, len(registeredFactories))
	for name := range registeredFactories {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
