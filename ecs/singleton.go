package ecs

import "reflect"

// Singleton provides efficient access to a single component instance
// that is not associated with any entity. Use this for global game state,
// configuration, or other singleton data.
type Singleton[T any] struct {
	storage *Storage
	ptr     *T
}

// NewSingleton creates a new Singleton accessor for the given storage.
// If initializer is provided and the singleton doesn't exist in storage,
// it will be created with the initializer value. Otherwise, a zero value is used.
// This guarantees the singleton exists in storage after the call.
func NewSingleton[T any](storage *Storage, initializer ...T) *Singleton[T] {
	ptr := singletonEntry[T](storage)
	if ptr == nil {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		ptr = AddSingleton(storage, value)
	}

	return &Singleton[T]{
		storage: storage,
		ptr:     ptr,
	}
}

// AddSingleton stores value as the singleton of type T, replacing any previous one.
func AddSingleton[T any](storage *Storage, value T) *T {
	ptr := &value
	storage.singletons[reflect.TypeFor[T]()] = ptr
	return ptr
}

func singletonEntry[T any](storage *Storage) *T {
	entry, ok := storage.singletons[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return entry.(*T)
}

// Init initializes the Singleton with a storage reference.
// This is called automatically by the Scheduler during system registration.
func (s *Singleton[T]) Init(storage *Storage) {
	s.storage = storage
	s.ptr = singletonEntry[T](storage)
}

// Get returns a pointer to the singleton component.
// Returns nil if the singleton has not been added to storage.
func (s *Singleton[T]) Get() *T {
	if s.ptr == nil && s.storage != nil {
		s.ptr = singletonEntry[T](s.storage)
	}
	return s.ptr
}

// Exists returns true if the singleton component has been added to storage
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}
