package ecs

import (
	"iter"
	"reflect"
)

// iComponentStorage is an interface for a type-erased component table.
type iComponentStorage interface {
	Type() reflect.Type
	Append(id EntityId, item any) error
	Remove(id EntityId) bool
	Get(id EntityId) any
	Has(id EntityId) bool
	Len() int
	Entities() iter.Seq[EntityId]

	beginIter()
	endIter()
}
