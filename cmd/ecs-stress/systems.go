package main

import (
	"context"
	"math/rand/v2"

	"github.com/plus3/scenecore/ecs"
	"github.com/plus3/scenecore/ecs/geom"
)

type Velocity struct {
	geom.Vec3
}

type Spin struct {
	Rate float64
}

type Lifetime struct {
	Remaining float64
}

// WorldPosition caches the last computed world-space position.
type WorldPosition struct {
	geom.Vec3
}

// Load is a payload for the filler systems.
type Load struct {
	Value int
}

func registerComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Spin](registry)
	ecs.RegisterComponent[Lifetime](registry)
	ecs.RegisterComponent[WorldPosition](registry)
	ecs.RegisterComponent[Load](registry)
}

// population spawns random entities into a scene tree no deeper than maxDepth.
type population struct {
	rng      *rand.Rand
	maxDepth int
	depth    map[ecs.EntityId]int
	nodes    []ecs.EntityId
}

func newPopulation(rng *rand.Rand, maxDepth int) *population {
	return &population{rng: rng, maxDepth: maxDepth, depth: make(map[ecs.EntityId]int)}
}

func (p *population) randomComponents() []any {
	components := []any{WorldPosition{}, Lifetime{Remaining: 1 + p.rng.Float64()*4}}
	if p.rng.IntN(2) == 0 {
		components = append(components, Velocity{geom.Vec3{X: p.rng.NormFloat64(), Y: p.rng.NormFloat64()}})
	}
	if p.rng.IntN(3) == 0 {
		components = append(components, Spin{Rate: p.rng.Float64()})
	}
	if p.rng.IntN(4) == 0 {
		components = append(components, Load{Value: p.rng.IntN(100)})
	}
	return components
}

// spawn creates one entity, parented under a random live node when one fits.
func (p *population) spawn(w *ecs.World) (ecs.EntityId, error) {
	transform := ecs.NewTransform(geom.Vec3{X: p.rng.Float64() * 100, Y: p.rng.Float64() * 100})

	parent, depth := p.pickParent(w)
	var (
		id  ecs.EntityId
		err error
	)
	if parent.IsZero() {
		id, err = w.Spawn(append([]any{transform}, p.randomComponents()...)...)
	} else {
		id, err = w.SpawnChild(parent, transform, p.randomComponents()...)
	}
	if err != nil {
		return 0, err
	}

	p.depth[id] = depth
	p.nodes = append(p.nodes, id)
	return id, nil
}

func (p *population) pickParent(w *ecs.World) (ecs.EntityId, int) {
	for range 4 {
		if len(p.nodes) == 0 || p.rng.IntN(3) == 0 {
			break
		}
		at := p.rng.IntN(len(p.nodes))
		candidate := p.nodes[at]
		if !w.Alive(candidate) {
			p.forget(at)
			continue
		}
		if d := p.depth[candidate]; d < p.maxDepth {
			return candidate, d + 1
		}
	}
	return 0, 0
}

func (p *population) forget(at int) {
	delete(p.depth, p.nodes[at])
	last := len(p.nodes) - 1
	p.nodes[at] = p.nodes[last]
	p.nodes = p.nodes[:last]
}

type MoveSystem struct {
	Movers ecs.Query[struct {
		*ecs.Transform
		*Velocity
	}]
}

func (s *MoveSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Movers.Values() {
		item.Transform.Translation = item.Transform.Translation.Add(item.Velocity.Scale(frame.DeltaTime))
	}
}

type SpinSystem struct {
	Spinners ecs.Query[struct {
		*ecs.Transform
		*Spin
	}]
}

func (s *SpinSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Spinners.Values() {
		step := geom.QuatFromAxisAngle(geom.Vec3{Z: 1}, item.Spin.Rate*frame.DeltaTime)
		item.Transform.Rotation = step.Mul(item.Transform.Rotation).Normalize()
	}
}

// WorldPositionSystem recomputes every cached world position across the
// configured worker pool. The hierarchy is only read while it runs.
type positioned struct {
	*ecs.Transform
	*WorldPosition
}

type WorldPositionSystem struct {
	Positioned ecs.Query[positioned]
	Errors     int
}

func (s *WorldPositionSystem) Execute(frame *ecs.UpdateFrame) {
	h := frame.World.Hierarchy()
	err := ecs.ParallelEach(frame.Context(), frame.World, s.Positioned.View(),
		func(ctx context.Context, id ecs.EntityId, item positioned) error {
			m, err := h.WorldTransform(id)
			if err != nil {
				return err
			}
			item.WorldPosition.Vec3 = m.Translation()
			return nil
		})
	if err != nil {
		s.Errors++
		frame.World.Logger().Error("world position pass failed", "error", err)
	}
}

// LifetimeSystem expires entities and replaces each with a fresh one, so the
// population stays roughly constant while the tree keeps churning.
type LifetimeSystem struct {
	Mortal ecs.Query[struct {
		ecs.EntityId
		*Lifetime
	}]
	Population *population
	Expired    int
	Respawned  int
}

func (s *LifetimeSystem) Execute(frame *ecs.UpdateFrame) {
	expired := 0
	for item := range s.Mortal.Values() {
		item.Lifetime.Remaining -= frame.DeltaTime
		if item.Lifetime.Remaining <= 0 && !frame.World.PendingDeletion(item.EntityId) {
			frame.World.DeleteLater(item.EntityId)
			expired++
		}
	}
	s.Expired += expired

	if expired == 0 {
		return
	}
	w := frame.World
	frame.Commands.Defer(func() {
		for range expired {
			if _, err := s.Population.spawn(w); err != nil {
				w.Logger().Warn("respawn failed", "error", err)
				continue
			}
			s.Respawned++
		}
	})
}

// LoadSystem is filler work at a random priority.
type LoadSystem struct {
	Loaded ecs.Query[struct{ *Load }]
	Sum    int
}

func (s *LoadSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Loaded.Values() {
		s.Sum += item.Load.Value
	}
}

func registerSystems(w *ecs.World, rng *rand.Rand, pop *population, fillers int) *LifetimeSystem {
	lifetime := &LifetimeSystem{Population: pop}

	w.Register(&MoveSystem{}, ecs.WithPriority(100))
	w.Register(&SpinSystem{}, ecs.WithPriority(90))
	w.Register(&WorldPositionSystem{}, ecs.WithPriority(50))
	w.Register(lifetime, ecs.WithPriority(-1000), ecs.Unpausable())

	// Fillers land between the world position pass and the lifetime sweep.
	for range fillers {
		w.Register(&LoadSystem{}, ecs.WithPriority(rng.IntN(140)-100))
	}
	return lifetime
}
