// Package di is a small lazy dependency container with typed tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves registered services by key.
type ServiceRegistry interface {
	Get(key string) any
}

// Container registers services and factories.
type Container interface {
	ServiceRegistry
	Register(key string, value any)
	RegisterFactory(key string, factory func(ServiceRegistry) any)
}

// Token ties a key to the Go type it resolves to.
type Token[T any] struct {
	key string
}

// NewToken creates a typed token.
func NewToken[T any](key string) Token[T] {
	return Token[T]{key: key}
}

// Key returns the registry key.
func (t Token[T]) Key() string {
	return t.key
}

// RegisterToken registers a lazily evaluated singleton factory for tok.
func RegisterToken[T any](c Container, tok Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(tok.key, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves tok, panicking on a missing or mistyped registration.
func GetToken[T any](sr ServiceRegistry, tok Token[T]) T {
	v, ok := sr.Get(tok.key).(T)
	if !ok {
		panic(fmt.Sprintf("di: %s is not a %T", tok.key, *new(T)))
	}
	return v
}

type entry struct {
	factory func(ServiceRegistry) any
	once    sync.Once
	value   any
}

type container struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{entries: make(map[string]*entry)}
}

func (c *container) Register(key string, value any) {
	e := &entry{value: value}
	e.once.Do(func() {})

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

func (c *container) RegisterFactory(key string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	c.entries[key] = &entry{factory: factory}
	c.mu.Unlock()
}

func (c *container) Get(key string) any {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("di: %s not registered", key))
	}

	e.once.Do(func() {
		e.value = e.factory(c)
	})
	return e.value
}
