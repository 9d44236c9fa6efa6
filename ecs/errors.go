package ecs

import "errors"

var (
	// ErrStaleEntity is returned when an operation names a dead or recycled handle.
	ErrStaleEntity = errors.New("stale entity")
	// ErrDuplicateComponent is returned when attaching a type the entity already carries.
	ErrDuplicateComponent = errors.New("duplicate component")
	// ErrMissingComponent is returned when a required component is absent.
	ErrMissingComponent = errors.New("missing component")
	// ErrHierarchyCycle is returned when a parent link would make a node its own ancestor.
	ErrHierarchyCycle = errors.New("hierarchy cycle")
	// ErrSystemNotFound is returned when a typed system lookup finds nothing.
	ErrSystemNotFound = errors.New("system not found")
)
