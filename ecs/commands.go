package ecs

import "reflect"

// Commands provides a buffer for deferred ECS operations that are executed at the end of a frame.
// This prevents structural changes to the ECS storage during system execution.
type Commands struct {
	spawns  []spawnCommand
	deletes []EntityId
	adds    []addComponentCommand
	removes []removeComponentCommand
	defers  []deferCommand

	queued map[EntityId]struct{}
}

func newCommands() *Commands {
	return &Commands{
		queued: make(map[EntityId]struct{}),
	}
}

type deferCommand struct {
	fn func()
}

type spawnCommand struct {
	components []any
}

type addComponentCommand struct {
	entity    EntityId
	component any
}

type removeComponentCommand struct {
	entity   EntityId
	compType reflect.Type
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Spawn queues an entity spawn operation with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// Delete queues an entity deletion operation. Repeated requests for the same
// entity collapse into one.
func (c *Commands) Delete(entity EntityId) {
	if _, ok := c.queued[entity]; ok {
		return
	}
	c.queued[entity] = struct{}{}
	c.deletes = append(c.deletes, entity)
}

// PendingDeletion reports whether entity is queued for deletion.
func (c *Commands) PendingDeletion(entity EntityId) bool {
	_, ok := c.queued[entity]
	return ok
}

// AddComponent queues a component addition operation.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, addComponentCommand{
		entity:    entity,
		component: component,
	})
}

// RemoveComponent queues a component removal operation.
func (c *Commands) RemoveComponent(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{
		entity:   entity,
		compType: compType,
	})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.deletes) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies all commands to the world. The buffers are swapped out
// first, so anything queued while flushing, including from a Defer, is kept
// for the next flush. Deletions run first and cascade through the hierarchy;
// operations that name an entity that is no longer alive are skipped.
func (c *Commands) Flush(w *World) FlushResult {
	var result FlushResult

	spawns, deletes, adds, removes, defers := c.spawns, c.deletes, c.adds, c.removes, c.defers
	queued := c.queued
	c.spawns, c.deletes, c.adds, c.removes, c.defers = nil, nil, nil, nil, nil
	c.queued = make(map[EntityId]struct{})

	// Resolved before anything is deleted, while every parent link is live.
	covered := coveredByCascade(w, deletes, queued)

	for _, id := range deletes {
		if _, ok := covered[id]; ok {
			continue
		}
		if !w.storage.Alive(id) {
			w.logger.Warn("skipping deferred delete of stale entity", "world", w.id, "entity", id)
			result.Skipped++
			continue
		}
		result.Deleted += w.DeleteEntity(id)
	}

	for _, cmd := range removes {
		if !w.storage.Alive(cmd.entity) {
			result.Skipped++
			continue
		}
		w.storage.RemoveComponent(cmd.entity, cmd.compType)
	}

	for _, cmd := range adds {
		if !w.storage.Alive(cmd.entity) {
			result.Skipped++
			continue
		}
		if err := w.storage.AddComponent(cmd.entity, cmd.component); err != nil {
			w.logger.Warn("deferred add failed", "world", w.id, "entity", cmd.entity, "error", err)
			result.Skipped++
		}
	}

	for _, cmd := range spawns {
		if _, err := w.Spawn(cmd.components...); err != nil {
			w.logger.Warn("deferred spawn failed", "world", w.id, "error", err)
			result.Skipped++
			continue
		}
		result.Spawned++
	}

	for _, df := range defers {
		df.fn()
	}

	return result
}

// coveredByCascade returns the queued ids that a queued ancestor's cascading
// delete will remove.
func coveredByCascade(w *World, deletes []EntityId, queued map[EntityId]struct{}) map[EntityId]struct{} {
	covered := make(map[EntityId]struct{})
	for _, id := range deletes {
		for cur, ok := w.hierarchy.Parent(id); ok; cur, ok = w.hierarchy.Parent(cur) {
			if _, q := queued[cur]; q {
				covered[id] = struct{}{}
				break
			}
		}
	}
	return covered
}

// FlushResult counts what a flush applied.
type FlushResult struct {
	Deleted int
	Spawned int
	Skipped int
}
