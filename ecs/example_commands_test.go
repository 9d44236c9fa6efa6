package ecs_test

import (
	"fmt"

	"github.com/plus3/scenecore/ecs"
)

type CleanupSystem struct {
	Entities ecs.Query[struct {
		*Position
		*Health
	}]
}

func (s *CleanupSystem) Execute(frame *ecs.UpdateFrame) {
	deadCount := 0
	for id, item := range s.Entities.Iter() {
		if item.Health.Current <= 0 {
			frame.Commands.Delete(id)
			deadCount++
		}
	}
	if deadCount > 0 {
		fmt.Printf("Queued %d dead entities for deletion\n", deadCount)
	}
}

// ExampleCommands demonstrates using command buffers to defer entity mutations.
// Structural changes made while iterating would invalidate the iteration, so
// systems queue them and the World applies them at the end of the frame.
func ExampleCommands() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Health](registry)
	world := ecs.NewWorld(registry)

	world.Spawn(Position{X: 0, Y: 0}, Health{Current: 0, Max: 100})
	world.Spawn(Position{X: 10, Y: 10}, Health{Current: 50, Max: 100})
	world.Spawn(Position{X: 20, Y: 20}, Health{Current: 100, Max: 100})

	world.Register(&CleanupSystem{})
	world.Step(1.0)

	view := ecs.NewView[struct{ *Position }](world.Storage())
	fmt.Printf("Remaining entities: %d\n", view.Count())

	// Output:
	// Queued 1 dead entities for deletion
	// Remaining entities: 2
}

type ShootTimer struct {
	TimeUntilShot float32
}

type ShootingSystem struct {
	Entities ecs.Query[struct {
		*Position
		*Velocity
		*ShootTimer
	}]
}

func (s *ShootingSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Entities.Values() {
		if item.ShootTimer.TimeUntilShot <= 0 {
			frame.Commands.Spawn(
				Position{X: item.Position.X, Y: item.Position.Y},
				Velocity{DX: item.Velocity.DX * 2, DY: item.Velocity.DY * 2},
			)
			fmt.Printf("Spawned projectile at (%.0f, %.0f)\n", item.Position.X, item.Position.Y)
			item.ShootTimer.TimeUntilShot = 10
		}
	}
}

// ExampleCommands_spawning shows using commands to spawn entities during iteration.
func ExampleCommands_spawning() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[ShootTimer](registry)
	world := ecs.NewWorld(registry)

	world.Spawn(Position{X: 10, Y: 10}, Velocity{DX: 1, DY: 0}, ShootTimer{TimeUntilShot: 0})
	world.Spawn(Position{X: 20, Y: 20}, Velocity{DX: 0, DY: 1}, ShootTimer{TimeUntilShot: 5})

	world.Register(&ShootingSystem{})
	world.Step(1.0)

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](world.Storage())
	fmt.Printf("Total entities with velocity: %d\n", view.Count())

	// Output:
	// Spawned projectile at (10, 10)
	// Total entities with velocity: 3
}
