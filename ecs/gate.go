package ecs

import "sync"

// CreationGate serializes entity creation behind a mutex. It is the only
// operation that may be called from goroutines other than the one driving the
// World; components and hierarchy links must be added on the owning goroutine
// once producers have synchronized with it.
type CreationGate struct {
	mu     sync.Mutex
	create func() EntityId
}

// NewCreationGate wraps create.
func NewCreationGate(create func() EntityId) *CreationGate {
	return &CreationGate{create: create}
}

// CreateEntity runs the wrapped closure under the lock.
func (g *CreationGate) CreateEntity() EntityId {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.create()
}
