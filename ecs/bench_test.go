package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/scenecore/ecs"
	"github.com/plus3/scenecore/ecs/geom"
)

func BenchmarkSpawn(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		storage.Spawn(Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})
	}
}

func BenchmarkDelete(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())

	ids := make([]ecs.EntityId, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = storage.Spawn(Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		storage.Delete(ids[i])
	}
}

func BenchmarkGet(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{X: 1.0, Y: 2.0})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ecs.Get[Position](storage, id)
	}
}

func BenchmarkGetComponent(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{X: 1.0, Y: 2.0})
	posType := reflect.TypeFor[Position]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = storage.GetComponent(id, posType)
	}
}

func BenchmarkAttachDetach(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ecs.Attach(storage, id, Velocity{DX: 1})
		ecs.Detach[Velocity](storage, id)
	}
}

func BenchmarkViewIter(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	for i := 0; i < 10000; i++ {
		storage.Spawn(Position{X: float32(i)}, Velocity{DX: 1})
		storage.Spawn(Position{X: float32(i)})
	}

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](storage)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, item := range view.Iter() {
			item.Position.X += item.Velocity.DX
		}
	}
}

func BenchmarkViewIterSmallDriver(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	for i := 0; i < 10000; i++ {
		if i%100 == 0 {
			storage.Spawn(Position{}, PlayerController{})
		} else {
			storage.Spawn(Position{})
		}
	}

	view := ecs.NewView[struct {
		*Position
		*PlayerController
	}](storage)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, item := range view.Iter() {
			item.Position.X++
		}
	}
}

type benchMovementSystem struct {
	Entities ecs.Query[struct {
		*Position
		*Velocity
	}]
}

func (s *benchMovementSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Entities.Values() {
		item.Position.X += item.Velocity.DX * float32(frame.DeltaTime)
		item.Position.Y += item.Velocity.DY * float32(frame.DeltaTime)
	}
}

func BenchmarkWorldStep(b *testing.B) {
	w := newTestWorld()
	for i := 0; i < 1000; i++ {
		w.Spawn(Position{}, Velocity{DX: 1, DY: 1})
	}
	w.Register(&benchMovementSystem{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Step(0.016)
	}
}

func BenchmarkWorldTransformDeep(b *testing.B) {
	w := newTestWorld()
	node, _ := w.Spawn(ecs.NewTransform(geom.Vec3{X: 1}))
	for range 32 {
		node, _ = w.SpawnChild(node, ecs.NewTransform(geom.Vec3{X: 1}))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = w.Hierarchy().WorldTransform(node)
	}
}

func BenchmarkCascadeDelete(b *testing.B) {
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		w := newTestWorld()
		root, _ := w.Spawn(ecs.NewTransform(geom.Vec3{}))
		level := []ecs.EntityId{root}
		for range 6 {
			var next []ecs.EntityId
			for _, parent := range level {
				for range 3 {
					child, _ := w.SpawnChild(parent, ecs.NewTransform(geom.Vec3{}))
					next = append(next, child)
				}
			}
			level = next
		}
		b.StartTimer()

		w.DeleteEntity(root)
	}
}
