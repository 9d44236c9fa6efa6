package ecs

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/kamstrup/intmap"
)

// ComponentRegistry manages component type registration for an ECS instance.
// A registry may be shared by several Storage instances; each Storage builds
// its own tables from the registered factories.
type ComponentRegistry struct {
	factories map[reflect.Type]func() iComponentStorage
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() iComponentStorage),
	}
}

// RegisterComponent registers a new component type with the given registry.
// This must be called for each component type before it can be used.
func RegisterComponent[T any](r *ComponentRegistry) {
	t := reflect.TypeFor[T]()
	r.factories[t] = func() iComponentStorage {
		return newTable[T]()
	}
}

// Registered reports whether t has a factory in this registry.
func (r *ComponentRegistry) Registered(t reflect.Type) bool {
	_, ok := r.factories[t]
	return ok
}

// getFactory returns the factory function for a given component type.
// Returns nil if the type is not registered.
func (r *ComponentRegistry) getFactory(t reflect.Type) func() iComponentStorage {
	return r.factories[t]
}

// Table stores every record of one component type. Records are packed in a
// dense slice; sparse maps an entity's slot index to its dense position.
// Pointers handed out by a table stay valid until the next attach or detach
// on the same table.
type Table[T any] struct {
	sparse    *intmap.Map[uint32, int]
	dense     []T
	owners    []EntityId
	iterating int

	// onAttach runs on the stored copy right after it is appended.
	onAttach func(id EntityId, value *T)
	// onDetach runs before a record is destroyed, while value is still valid.
	onDetach func(id EntityId, value *T)
}

func newTable[T any]() *Table[T] {
	return &Table[T]{
		sparse: intmap.New[uint32, int](64),
	}
}

func (t *Table[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

func (t *Table[T]) slot(id EntityId) (int, bool) {
	pos, ok := t.sparse.Get(id.Index())
	if !ok || t.owners[pos] != id {
		return -1, false
	}
	return pos, true
}

func (t *Table[T]) attach(id EntityId, value T) (*T, error) {
	contract(t.iterating == 0, "attach %s to %s while the table is being iterated", t.Type(), id)

	if _, ok := t.slot(id); ok {
		return nil, ErrDuplicateComponent
	}

	pos := len(t.dense)
	t.dense = append(t.dense, value)
	t.owners = append(t.owners, id)
	t.sparse.Put(id.Index(), pos)
	if t.onAttach != nil {
		t.onAttach(id, &t.dense[pos])
	}
	return &t.dense[pos], nil
}

func (t *Table[T]) get(id EntityId) *T {
	pos, ok := t.slot(id)
	if !ok {
		return nil
	}
	return &t.dense[pos]
}

// remove swaps the last record into the freed position so storage stays packed.
func (t *Table[T]) remove(id EntityId) bool {
	pos, ok := t.slot(id)
	if !ok {
		return false
	}
	contract(t.iterating == 0, "detach %s from %s while the table is being iterated", t.Type(), id)

	if t.onDetach != nil {
		t.onDetach(id, &t.dense[pos])
	}

	last := len(t.dense) - 1
	if pos != last {
		t.dense[pos] = t.dense[last]
		t.owners[pos] = t.owners[last]
		t.sparse.Put(t.owners[pos].Index(), pos)
	}

	var zero T
	t.dense[last] = zero
	t.dense = t.dense[:last]
	t.owners = t.owners[:last]
	t.sparse.Del(id.Index())
	return true
}

// Append attaches a type-erased record. item may be a T or a *T.
func (t *Table[T]) Append(id EntityId, item any) error {
	var value T
	switch v := item.(type) {
	case T:
		value = v
	case *T:
		value = *v
	default:
		return fmt.Errorf("append %T to table of %s: wrong type", item, t.Type())
	}
	_, err := t.attach(id, value)
	return err
}

func (t *Table[T]) Remove(id EntityId) bool {
	return t.remove(id)
}

// Get returns a *T for id, or nil when absent.
func (t *Table[T]) Get(id EntityId) any {
	if p := t.get(id); p != nil {
		return p
	}
	return nil
}

func (t *Table[T]) Has(id EntityId) bool {
	_, ok := t.slot(id)
	return ok
}

func (t *Table[T]) Len() int {
	return len(t.dense)
}

// Entities yields the owners in dense order.
func (t *Table[T]) Entities() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for i := 0; i < len(t.owners); i++ {
			if !yield(t.owners[i]) {
				return
			}
		}
	}
}

// All yields each owner with a pointer to its record.
func (t *Table[T]) All() iter.Seq2[EntityId, *T] {
	return func(yield func(EntityId, *T) bool) {
		t.beginIter()
		defer t.endIter()
		for i := 0; i < len(t.owners); i++ {
			if !yield(t.owners[i], &t.dense[i]) {
				return
			}
		}
	}
}

func (t *Table[T]) beginIter() { t.iterating++ }
func (t *Table[T]) endIter()   { t.iterating-- }
