package ecs_test

import (
	"fmt"

	"github.com/plus3/scenecore/ecs"
	"github.com/plus3/scenecore/ecs/geom"
)

// ExampleWorld_SpawnChild builds a small scene tree and reads back a world
// transform composed through every ancestor.
func ExampleWorld_SpawnChild() {
	world := ecs.NewWorld(ecs.NewComponentRegistry())

	ship, _ := world.Spawn(ecs.NewTransform(geom.Vec3{X: 100}))
	turret, _ := world.SpawnChild(ship, ecs.NewTransform(geom.Vec3{Y: 2}))
	barrel, _ := world.SpawnChild(turret, ecs.NewTransform(geom.Vec3{X: 1}))

	m, _ := world.Hierarchy().WorldTransform(barrel)
	p := m.Translation()
	fmt.Printf("barrel at (%.0f, %.0f, %.0f)\n", p.X, p.Y, p.Z)

	// Output:
	// barrel at (101, 2, 0)
}

// ExampleWorld_DeleteEntity shows cascading deletion: removing a node removes
// its whole subtree and unlinks it from its parent.
func ExampleWorld_DeleteEntity() {
	world := ecs.NewWorld(ecs.NewComponentRegistry())
	h := world.Hierarchy()

	parent, _ := world.Spawn(ecs.NewTransform(geom.Vec3{}))
	a, _ := world.SpawnChild(parent, ecs.NewTransform(geom.Vec3{}))
	b, _ := world.SpawnChild(parent, ecs.NewTransform(geom.Vec3{}))
	world.SpawnChild(a, ecs.NewTransform(geom.Vec3{}))

	fmt.Println("deleted:", world.DeleteEntity(a))
	for child := range h.Children(parent) {
		fmt.Println("remaining child is b:", child == b)
	}
	fmt.Println("entities:", world.EntityCount())

	// Output:
	// deleted: 2
	// remaining child is b: true
	// entities: 2
}
