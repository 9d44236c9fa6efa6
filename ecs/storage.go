package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"sort"
)

// Storage is the main ECS storage interface: the identity store plus one
// component table per registered type.
type Storage struct {
	entities   *Entities
	registry   *ComponentRegistry
	tables     map[reflect.Type]iComponentStorage
	order      []iComponentStorage
	singletons map[reflect.Type]any
}

// NewStorage creates a new ECS storage system with the given component registry
func NewStorage(registry *ComponentRegistry) *Storage {
	return newStorage(registry, 0)
}

func newStorage(registry *ComponentRegistry, capacity int) *Storage {
	return &Storage{
		entities:   NewEntities(capacity),
		registry:   registry,
		tables:     make(map[reflect.Type]iComponentStorage),
		singletons: make(map[reflect.Type]any),
	}
}

// table returns the table for t, creating it from the registry on first use.
// Panics when t was never registered.
func (s *Storage) table(t reflect.Type) iComponentStorage {
	if tbl, ok := s.tables[t]; ok {
		return tbl
	}

	factory := s.registry.getFactory(t)
	if factory == nil {
		panic("ecs: component type " + t.String() + " not registered")
	}

	tbl := factory()
	s.tables[t] = tbl
	s.order = append(s.order, tbl)
	return tbl
}

// Create allocates a new entity with no components.
func (s *Storage) Create() EntityId {
	return s.entities.Create()
}

// Alive reports whether id names a live entity.
func (s *Storage) Alive(id EntityId) bool {
	return s.entities.Alive(id)
}

// EntityCount returns the number of live entities.
func (s *Storage) EntityCount() int {
	return s.entities.Len()
}

// Entities yields every live entity.
func (s *Storage) Entities() iter.Seq[EntityId] {
	return s.entities.Iter()
}

// Spawn creates a new entity with the provided components
func (s *Storage) Spawn(components ...any) EntityId {
	id := s.entities.Create()
	for _, comp := range components {
		if err := s.AddComponent(id, comp); err != nil {
			panic("ecs: spawn: " + err.Error())
		}
	}
	return id
}

// Delete removes all data related to the entity ID and frees its handle.
// Returns false when id is stale.
func (s *Storage) Delete(id EntityId) bool {
	if !s.entities.Alive(id) {
		return false
	}
	for _, tbl := range s.order {
		tbl.Remove(id)
	}
	return s.entities.Destroy(id)
}

// AddComponent attaches a type-erased component. component may be a value or a pointer to one.
func (s *Storage) AddComponent(id EntityId, component any) error {
	if !s.entities.Alive(id) {
		return fmt.Errorf("add component to %s: %w", id, ErrStaleEntity)
	}
	compType := componentType(component)
	if err := s.table(compType).Append(id, component); err != nil {
		return fmt.Errorf("add %s to %s: %w", compType, id, err)
	}
	return nil
}

// RemoveComponent detaches the component of compType from id.
func (s *Storage) RemoveComponent(id EntityId, compType reflect.Type) bool {
	tbl, ok := s.tables[compType]
	if !ok {
		return false
	}
	return tbl.Remove(id)
}

// GetComponent returns a pointer to the component for the given entity ID and
// component type, or nil
func (s *Storage) GetComponent(id EntityId, compType reflect.Type) any {
	tbl, ok := s.tables[compType]
	if !ok {
		return nil
	}
	return tbl.Get(id)
}

// HasComponent checks if an entity has a specific component type
func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	tbl, ok := s.tables[compType]
	if !ok {
		return false
	}
	return tbl.Has(id)
}

// ComponentTypes lists the component types attached to id, sorted by name.
func (s *Storage) ComponentTypes(id EntityId) []reflect.Type {
	var types []reflect.Type
	for _, tbl := range s.order {
		if tbl.Has(id) {
			types = append(types, tbl.Type())
		}
	}
	sort.Sort(byTypeName(types))
	return types
}

// componentType resolves the stored type of a component value.
func componentType(component any) reflect.Type {
	compType := reflect.TypeOf(component)
	if compType == nil {
		panic("ecs: nil component")
	}

	// If it's a pointer, get the underlying type
	if compType.Kind() == reflect.Ptr {
		compType = compType.Elem()
	}

	// Components can be structs or primitives (int, string, etc.)
	// But not pointers, maps, channels, or functions (those aren't value types)
	switch compType.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
		panic("ecs: components cannot be pointers, maps, channels, or functions")
	}
	return compType
}

type byTypeName []reflect.Type

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].String() < a[j].String() }

// TableOf returns the typed table for T.
func TableOf[T any](s *Storage) *Table[T] {
	return s.table(reflect.TypeFor[T]()).(*Table[T])
}

// Attach constructs a T for id in place and returns a pointer to it. The pointer
// is valid until the next Attach or Detach of T on this storage.
func Attach[T any](s *Storage, id EntityId, value T) (*T, error) {
	if !s.entities.Alive(id) {
		return nil, fmt.Errorf("attach %s to %s: %w", reflect.TypeFor[T](), id, ErrStaleEntity)
	}
	ptr, err := TableOf[T](s).attach(id, value)
	if err != nil {
		return nil, fmt.Errorf("attach %s to %s: %w", reflect.TypeFor[T](), id, err)
	}
	return ptr, nil
}

// Get returns id's T. The caller asserts it exists; a miss panics.
func Get[T any](s *Storage, id EntityId) *T {
	ptr := TableOf[T](s).get(id)
	if ptr == nil {
		panic(fmt.Sprintf("ecs: %s has no %s", id, reflect.TypeFor[T]()))
	}
	return ptr
}

// TryGet returns id's T when present.
func TryGet[T any](s *Storage, id EntityId) (*T, bool) {
	ptr := TableOf[T](s).get(id)
	return ptr, ptr != nil
}

// Has reports whether id carries a T.
func Has[T any](s *Storage, id EntityId) bool {
	return TableOf[T](s).Has(id)
}

// Detach destroys id's T. Returns false when there was none.
func Detach[T any](s *Storage, id EntityId) bool {
	return TableOf[T](s).remove(id)
}

type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent fetches a typed component through a ComponentReader, or nil.
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	ptr, _ := reader.GetComponent(entityId, reflect.TypeFor[T]()).(*T)
	return ptr
}

// StorageStats summarizes storage occupancy.
type StorageStats struct {
	TotalEntityCount int
	TableCount       int
	SingletonCount   int
	TableBreakdown   []TableStats
	SingletonTypes   []string
}

// TableStats describes one component table.
type TableStats struct {
	ComponentType string
	Count         int
}

// CollectStats returns a snapshot of table and singleton occupancy.
func (s *Storage) CollectStats() StorageStats {
	stats := StorageStats{
		TotalEntityCount: s.entities.Len(),
		TableCount:       len(s.order),
		SingletonCount:   len(s.singletons),
	}
	for _, tbl := range s.order {
		stats.TableBreakdown = append(stats.TableBreakdown, TableStats{
			ComponentType: tbl.Type().String(),
			Count:         tbl.Len(),
		})
	}
	for t := range s.singletons {
		stats.SingletonTypes = append(stats.SingletonTypes, t.String())
	}
	slices.Sort(stats.SingletonTypes)
	return stats
}
