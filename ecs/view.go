package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

var entityIdType = reflect.TypeFor[EntityId]()

// View represents a query for entities with a specific combination of components
// The type T should be a struct with embedded pointer fields for each component type
// Named fields can be marked as optional using the `ecs:"optional"` struct tag
// A field of type EntityId receives the id of the matched entity.
type View[T any] struct {
	storage     *Storage
	types       []reflect.Type
	optional    []bool
	fieldOffset []uintptr
	idOffset    uintptr
	hasId       bool
}

// NewView creates a new view for the given struct type
// The struct T should have embedded or named fields that are pointers to component types
// Embedded fields are always required
// Named fields can be marked as optional using the `ecs:"optional"` struct tag
func NewView[T any](storage *Storage) *View[T] {
	structType := reflect.TypeFor[T]()

	if structType.Kind() != reflect.Struct {
		panic("ecs: View type parameter must be a struct")
	}

	v := &View[T]{storage: storage}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldType := field.Type

		if fieldType == entityIdType {
			v.idOffset = field.Offset
			v.hasId = true
			continue
		}

		if fieldType.Kind() != reflect.Ptr {
			panic("ecs: View struct fields must be pointer types or EntityId")
		}

		// Parse struct tag to check if component is optional
		// Embedded fields (field.Anonymous) are always required
		isOptional := false
		if !field.Anonymous {
			tag := field.Tag.Get("ecs")
			if tag != "" {
				if tag == "optional" {
					isOptional = true
				} else {
					panic("ecs: invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
				}
			}
		}

		v.types = append(v.types, fieldType.Elem())
		v.optional = append(v.optional, isOptional)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
	}

	required := 0
	for _, opt := range v.optional {
		if !opt {
			required++
		}
	}
	if required == 0 {
		panic("ecs: View requires at least one required component")
	}

	return v
}

func (v *View[T]) tables() []iComponentStorage {
	tables := make([]iComponentStorage, len(v.types))
	for i, t := range v.types {
		tables[i] = v.storage.table(t)
	}
	return tables
}

// driver picks the smallest required table to walk.
func (v *View[T]) driver(tables []iComponentStorage) iComponentStorage {
	var best iComponentStorage
	for i, tbl := range tables {
		if v.optional[i] {
			continue
		}
		if best == nil || tbl.Len() < best.Len() {
			best = tbl
		}
	}
	return best
}

func (v *View[T]) populate(resultPtr unsafe.Pointer, tables []iComponentStorage, id EntityId) bool {
	for i, tbl := range tables {
		fieldPtr := unsafe.Pointer(uintptr(resultPtr) + v.fieldOffset[i])

		component := tbl.Get(id)
		if component == nil {
			if v.optional[i] {
				*(*unsafe.Pointer)(fieldPtr) = nil
				continue
			}
			return false
		}

		// Component found, set the field to point to the component
		// We need to extract the pointer from the interface{}
		componentPtr := (*iface)(unsafe.Pointer(&component)).data
		*(*unsafe.Pointer)(fieldPtr) = componentPtr
	}

	if v.hasId {
		*(*EntityId)(unsafe.Pointer(uintptr(resultPtr) + v.idOffset)) = id
	}
	return true
}

// Fill populates the provided struct pointer with component data for the given entity
// Returns false if the entity is stale or missing any required components
// Optional components are set to nil if not present
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	if !v.storage.Alive(id) {
		return false
	}
	return v.populate(unsafe.Pointer(ptr), v.tables(), id)
}

// Get returns a populated view struct for the given entity, or nil if the entity
// doesn't have all the required components
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

// Iter returns an iterator over all entities that have all the required components for this view.
// The sequence is lazy and restartable. Attaching or detaching any viewed
// type while an iteration is in flight panics; collect ids first with Ids.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		tables := v.tables()
		driver := v.driver(tables)

		for _, tbl := range tables {
			tbl.beginIter()
		}
		defer func() {
			for _, tbl := range tables {
				tbl.endIter()
			}
		}()

		var result T
		resultPtr := unsafe.Pointer(&result)

		for id := range driver.Entities() {
			if !v.populate(resultPtr, tables, id) {
				continue
			}
			if !yield(id, result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs (without entity IDs)
// This is useful when you only care about the component data, not which entity it belongs to
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Ids collects the matching entity ids so the caller can mutate storage afterwards.
func (v *View[T]) Ids() []EntityId {
	var ids []EntityId
	for id := range v.Iter() {
		ids = append(ids, id)
	}
	return ids
}

// Collect gathers ids and view structs in matching order.
func (v *View[T]) Collect() ([]EntityId, []T) {
	var (
		ids   []EntityId
		items []T
	)
	for id, item := range v.Iter() {
		ids = append(ids, id)
		items = append(items, item)
	}
	return ids, items
}

// Count returns the number of matching entities.
func (v *View[T]) Count() int {
	n := 0
	for range v.Iter() {
		n++
	}
	return n
}

// Spawn creates a new entity with components extracted from the view struct
func (v *View[T]) Spawn(data T) EntityId {
	structPtr := unsafe.Pointer(&data)

	id := v.storage.Create()
	for i, componentType := range v.types {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])
		componentPtr := *(*unsafe.Pointer)(fieldPtr)

		if componentPtr == nil {
			if !v.optional[i] {
				v.storage.Delete(id)
				panic("ecs: required component is nil in View.Spawn")
			}
			continue
		}

		component := reflect.NewAt(componentType, componentPtr).Elem().Interface()
		if err := v.storage.AddComponent(id, component); err != nil {
			panic("ecs: view spawn: " + err.Error())
		}
	}
	return id
}
