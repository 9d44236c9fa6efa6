package ecs_test

import (
	"testing"

	"github.com/plus3/scenecore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects the order in which systems run.
type recorder struct {
	order []string
}

type traceSystem struct {
	name string
	log  *recorder
}

func (s *traceSystem) Execute(frame *ecs.UpdateFrame) {
	s.log.order = append(s.log.order, s.name)
}

type checkpointSystem struct{ traceSystem }

type renderSystem struct {
	traceSystem
	renders int
}

func (s *renderSystem) Render(frame *ecs.RenderFrame) {
	s.renders++
}

// Damageable is a polymorphic family looked up by interface.
type Damageable interface {
	ecs.System
	Damage() int
}

type fireSystem struct{ traceSystem }

func (s *fireSystem) Damage() int { return 5 }

type poisonSystem struct{ traceSystem }

func (s *poisonSystem) Damage() int { return 2 }

type MovementSystem struct {
	Entities ecs.Query[struct {
		*Position
		*Velocity
	}]
	Config       ecs.Singleton[Temperature]
	ExecuteCount int
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	s.ExecuteCount++
	for _, item := range s.Entities.Iter() {
		item.Position.X += item.Velocity.DX * float32(frame.DeltaTime)
		item.Position.Y += item.Velocity.DY * float32(frame.DeltaTime)
	}
}

func runOnce(s *ecs.Scheduler) {
	s.Update(&ecs.UpdateFrame{DeltaTime: 1})
}

func TestSchedulerOrdering(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	t.Run("descending priority", func(t *testing.T) {
		s := ecs.NewScheduler(storage)
		log := &recorder{}
		for _, p := range []int{5, 10, 3, 8} {
			s.Register(&traceSystem{name: string(rune('0' + p)), log: log}, ecs.WithPriority(p))
		}
		var got []int
		for _, st := range s.GetStats().Systems {
			got = append(got, st.Priority)
		}
		assert.Equal(t, []int{10, 8, 5, 3}, got)
	})

	t.Run("ties keep registration order", func(t *testing.T) {
		s := ecs.NewScheduler(storage)
		log := &recorder{}
		s.Register(&traceSystem{name: "a", log: log}, ecs.WithPriority(1))
		s.Register(&traceSystem{name: "high", log: log}, ecs.WithPriority(9))
		s.Register(&traceSystem{name: "b", log: log}, ecs.WithPriority(1))
		s.Register(&traceSystem{name: "c", log: log}, ecs.WithPriority(1))
		s.Register(&traceSystem{name: "neg", log: log}, ecs.WithPriority(-4))

		runOnce(s)
		assert.Equal(t, []string{"high", "a", "b", "c", "neg"}, log.order)
	})

	t.Run("titles", func(t *testing.T) {
		s := ecs.NewScheduler(storage)
		s.Register(&MovementSystem{})
		s.Register(&traceSystem{log: &recorder{}}, ecs.WithTitle("tracer"), ecs.WithPriority(-1))
		assert.Equal(t, []string{"MovementSystem", "tracer"}, s.Titles())
	})

	t.Run("double registration panics", func(t *testing.T) {
		s := ecs.NewScheduler(storage)
		sys := &traceSystem{log: &recorder{}}
		s.Register(sys)
		assert.Panics(t, func() { s.Register(sys) })
		assert.Panics(t, func() { s.Register(nil) })
	})
}

func TestSchedulerInitializesFields(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	ecs.AddSingleton(storage, Temperature(21))
	id := storage.Spawn(Position{}, Velocity{DX: 1, DY: 2})

	s := ecs.NewScheduler(storage)
	movement := &MovementSystem{}
	s.Register(movement)

	require.True(t, movement.Config.Exists())
	assert.Equal(t, Temperature(21), *movement.Config.Get())

	runOnce(s)
	runOnce(s)
	assert.Equal(t, 2, movement.ExecuteCount)
	assert.Equal(t, Position{X: 2, Y: 4}, *ecs.Get[Position](storage, id))
}

func TestGetSystem(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := ecs.NewScheduler(storage)
	log := &recorder{}

	low := &traceSystem{name: "low", log: log}
	high := &traceSystem{name: "high", log: log}
	fire := &fireSystem{traceSystem{name: "fire", log: log}}
	poison := &poisonSystem{traceSystem{name: "poison", log: log}}

	s.Register(low, ecs.WithPriority(1))
	s.Register(poison, ecs.WithPriority(2))
	s.Register(high, ecs.WithPriority(5))
	s.Register(fire, ecs.WithPriority(0))

	t.Run("concrete type returns first in order", func(t *testing.T) {
		got, ok := ecs.GetSystem[*traceSystem](s)
		require.True(t, ok)
		assert.Same(t, high, got)
	})

	t.Run("interface family", func(t *testing.T) {
		got, ok := ecs.GetSystem[Damageable](s)
		require.True(t, ok)
		assert.Same(t, poison, got)

		family := ecs.GetSystems[Damageable](s)
		require.Len(t, family, 2)
		total := 0
		for _, d := range family {
			total += d.Damage()
		}
		assert.Equal(t, 7, total)
	})

	t.Run("missing", func(t *testing.T) {
		_, ok := ecs.GetSystem[*MovementSystem](s)
		assert.False(t, ok)
		assert.Empty(t, ecs.GetSystems[*MovementSystem](s))
		assert.PanicsWithValue(t, "ecs: *ecs_test.MovementSystem: system not found", func() {
			ecs.MustGetSystem[*MovementSystem](s)
		})
	})

	t.Run("must get", func(t *testing.T) {
		assert.Same(t, fire, ecs.MustGetSystem[*fireSystem](s))
	})

	t.Run("get systems in order", func(t *testing.T) {
		assert.Equal(t, []*traceSystem{high, low}, ecs.GetSystems[*traceSystem](s))
	})
}

func TestRemoveSystems(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := ecs.NewScheduler(storage)
	log := &recorder{}

	s.Register(&traceSystem{name: "a", log: log}, ecs.WithPriority(3))
	s.Register(&fireSystem{traceSystem{name: "fire", log: log}}, ecs.WithPriority(2))
	s.Register(&traceSystem{name: "b", log: log}, ecs.WithPriority(1))
	s.Register(&poisonSystem{traceSystem{name: "poison", log: log}}, ecs.WithPriority(0))

	assert.Equal(t, 0, ecs.RemoveSystems[*MovementSystem](s))
	assert.Equal(t, 2, ecs.RemoveSystems[*traceSystem](s))
	assert.Equal(t, 0, ecs.RemoveSystems[*traceSystem](s))

	runOnce(s)
	assert.Equal(t, []string{"fire", "poison"}, log.order)

	assert.Equal(t, 2, ecs.RemoveSystems[Damageable](s))
	assert.Equal(t, 0, s.Len())
}

func TestRemoveFrom(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	build := func() (*ecs.Scheduler, *recorder) {
		s := ecs.NewScheduler(storage)
		log := &recorder{}
		s.Register(&traceSystem{name: "S1", log: log}, ecs.WithPriority(4))
		s.Register(&traceSystem{name: "S2", log: log}, ecs.WithPriority(3))
		s.Register(&checkpointSystem{traceSystem{name: "T", log: log}}, ecs.WithPriority(2))
		s.Register(&traceSystem{name: "S3", log: log}, ecs.WithPriority(1))
		return s, log
	}

	t.Run("truncates at the checkpoint", func(t *testing.T) {
		s, log := build()
		removed, ok := ecs.RemoveFrom[*checkpointSystem](s)
		require.True(t, ok)
		assert.Equal(t, 2, removed)

		runOnce(s)
		assert.Equal(t, []string{"S1", "S2"}, log.order)
	})

	t.Run("absent checkpoint is a no-op", func(t *testing.T) {
		s, log := build()
		removed, ok := ecs.RemoveFrom[*MovementSystem](s)
		assert.False(t, ok)
		assert.Equal(t, 0, removed)

		runOnce(s)
		assert.Equal(t, []string{"S1", "S2", "T", "S3"}, log.order)
	})

	t.Run("duplicate checkpoint cuts at the first", func(t *testing.T) {
		s, log := build()
		s.Register(&checkpointSystem{traceSystem{name: "T2", log: log}}, ecs.WithPriority(0))

		removed, ok := ecs.RemoveFrom[*checkpointSystem](s)
		require.True(t, ok)
		assert.Equal(t, 3, removed)

		runOnce(s)
		assert.Equal(t, []string{"S1", "S2"}, log.order)
	})
}

func TestSchedulerPause(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := ecs.NewScheduler(storage)
	log := &recorder{}

	s.Register(&traceSystem{name: "game", log: log})
	s.Register(&traceSystem{name: "ui", log: log}, ecs.Unpausable())

	s.SetPaused(true)
	assert.True(t, s.Paused())
	runOnce(s)
	assert.Equal(t, []string{"ui"}, log.order)

	s.SetPaused(false)
	runOnce(s)
	assert.Equal(t, []string{"ui", "game", "ui"}, log.order)

	stats := s.GetStats()
	assert.False(t, stats.Paused)
	assert.Equal(t, int64(3), stats.TotalExecutions)
	assert.Equal(t, "traceSystem", stats.Systems[0].Name)
	assert.True(t, stats.Systems[0].Pausable)
	assert.False(t, stats.Systems[1].Pausable)
	assert.Equal(t, int64(1), stats.Systems[0].ExecutionCount)
	assert.Equal(t, int64(2), stats.Systems[1].ExecutionCount)
}

func TestSchedulerRender(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	s := ecs.NewScheduler(storage)
	log := &recorder{}

	drawn := &renderSystem{traceSystem: traceSystem{name: "draw", log: log}}
	s.Register(drawn)
	s.Register(&traceSystem{name: "logic", log: log})

	s.Render(&ecs.RenderFrame{})
	assert.Equal(t, 1, drawn.renders)
	assert.Empty(t, log.order)

	s.SetPaused(true)
	s.Render(&ecs.RenderFrame{})
	assert.Equal(t, 1, drawn.renders)
}

type selfRemovingSystem struct {
	log *recorder
}

func (s *selfRemovingSystem) Execute(frame *ecs.UpdateFrame) {
	s.log.order = append(s.log.order, "self")
	ecs.RemoveSystems[*selfRemovingSystem](frame.World)
}

func TestSystemRemovedMidFrame(t *testing.T) {
	w := newTestWorld()
	log := &recorder{}
	w.Register(&selfRemovingSystem{log: log}, ecs.WithPriority(1))
	w.Register(&traceSystem{name: "after", log: log})

	w.Update(0.016)
	w.Update(0.016)
	assert.Equal(t, []string{"self", "after", "after"}, log.order)
}

type taggedSystem struct {
	tags []string
	log  *recorder
}

func (s taggedSystem) Execute(frame *ecs.UpdateFrame) {
	s.log.order = append(s.log.order, s.tags...)
}

func TestRegisterValueSystems(t *testing.T) {
	w := newTestWorld()
	log := &recorder{}

	assert.NotPanics(t, func() {
		w.Register(taggedSystem{tags: []string{"a"}, log: log}, ecs.WithPriority(2))
		w.Register(taggedSystem{tags: []string{"b"}, log: log}, ecs.WithPriority(1))
	})

	w.Update(0.016)
	assert.Equal(t, []string{"a", "b"}, log.order)
	assert.Len(t, ecs.GetSystems[taggedSystem](w), 2)
}
