package ecs

import (
	"iter"
	"math"
)

type entitySlot struct {
	generation uint32
	alive      bool
}

// Entities allocates and recycles entity handles. A destroyed handle's slot is
// reused with a bumped generation, so stale handles never compare equal to the
// new occupant.
type Entities struct {
	slots []entitySlot
	free  []uint32
	alive int
}

// NewEntities creates an identity store with room for capacity handles before growing.
func NewEntities(capacity int) *Entities {
	if capacity < 0 {
		capacity = 0
	}
	return &Entities{
		slots: make([]entitySlot, 0, capacity),
	}
}

// Create returns a fresh handle, reusing a freed slot when one is available.
func (e *Entities) Create() EntityId {
	e.alive++

	if n := len(e.free); n > 0 {
		index := e.free[n-1]
		e.free = e.free[:n-1]

		slot := &e.slots[index]
		slot.alive = true
		return NewEntityId(index, slot.generation)
	}

	if len(e.slots) >= math.MaxUint32 {
		panic("ecs: entity index space exhausted")
	}

	index := uint32(len(e.slots))
	e.slots = append(e.slots, entitySlot{generation: 1, alive: true})
	return NewEntityId(index, 1)
}

// Destroy invalidates the handle and frees its slot. Returns false when the
// handle is already dead or was never issued.
func (e *Entities) Destroy(id EntityId) bool {
	if !e.Alive(id) {
		return false
	}

	slot := &e.slots[id.Index()]
	slot.alive = false
	e.alive--

	// A slot whose generation would wrap is retired instead of recycled.
	if slot.generation == math.MaxUint32 {
		return true
	}
	slot.generation++
	e.free = append(e.free, id.Index())
	return true
}

// Alive reports whether id names the current occupant of its slot.
func (e *Entities) Alive(id EntityId) bool {
	index := id.Index()
	if int(index) >= len(e.slots) {
		return false
	}
	slot := e.slots[index]
	return slot.alive && slot.generation == id.Generation()
}

// Len returns the number of live handles.
func (e *Entities) Len() int {
	return e.alive
}

// Iter yields every live handle in slot order.
func (e *Entities) Iter() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for i, slot := range e.slots {
			if !slot.alive {
				continue
			}
			if !yield(NewEntityId(uint32(i), slot.generation)) {
				return
			}
		}
	}
}
