// Package di is a small service container. Modules register typed factories
// under tokens; factories run once, on first lookup.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves services by key.
type ServiceRegistry interface {
	Get(key string) any
}

// Container is a ServiceRegistry that modules can also register into.
type Container interface {
	ServiceRegistry
	Register(key string, value any)
	RegisterFactory(key string, factory func(ServiceRegistry) any)
	Has(key string) bool
}

type entry struct {
	once    sync.Once
	value   any
	factory func(ServiceRegistry) any
}

type container struct {
	mu       sync.RWMutex
	services map[string]*entry
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]*entry)}
}

// Register stores an already-built value.
func (c *container) Register(key string, value any) {
	e := &entry{value: value}
	e.once.Do(func() {})

	c.mu.Lock()
	c.services[key] = e
	c.mu.Unlock()
}

// RegisterFactory stores a lazily evaluated singleton.
func (c *container) RegisterFactory(key string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	c.services[key] = &entry{factory: factory}
	c.mu.Unlock()
}

// Get returns the service for key, building it on first use.
// It panics when nothing is registered under key: that is a wiring bug.
func (c *container) Get(key string) any {
	c.mu.RLock()
	e, ok := c.services[key]
	c.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("di: no service registered for %q", key))
	}

	e.once.Do(func() {
		e.value = e.factory(c)
	})
	return e.value
}

func (c *container) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[key]
	return ok
}
