package main

import (
	"bytes"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/plus3/scenecore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newStressWorld(t *testing.T, entities, depth, fillers int) (*ecs.World, *LifetimeSystem) {
	t.Helper()
	registry := ecs.NewComponentRegistry()
	registerComponents(registry)
	cfg := ecs.DefaultConfig()
	cfg.Workers = 2
	w := ecs.NewWorld(registry, ecs.WithConfig(cfg))

	rng := rand.New(rand.NewPCG(1, 2))
	pop := newPopulation(rng, depth)
	lifetime := registerSystems(w, rng, pop, fillers)
	for range entities {
		_, err := pop.spawn(w)
		require.NoError(t, err)
	}
	return w, lifetime
}

func TestPopulationRespectsDepth(t *testing.T) {
	w, _ := newStressWorld(t, 200, 2, 0)
	require.NoError(t, w.Hierarchy().Validate())

	for id := range w.Storage().Entities() {
		if !ecs.Has[ecs.Transform](w.Storage(), id) {
			continue
		}
		depth := 0
		for cur, ok := w.Hierarchy().Parent(id); ok; cur, ok = w.Hierarchy().Parent(cur) {
			depth++
		}
		assert.LessOrEqual(t, depth, 2)
	}
}

func TestStressFramesKeepTreeValid(t *testing.T) {
	w, lifetime := newStressWorld(t, 100, 4, 3)

	for range 120 {
		w.Step(0.1)
	}

	require.NoError(t, w.Hierarchy().Validate())
	assert.Positive(t, lifetime.Expired, "lifetimes run out within twelve simulated seconds")
	assert.Positive(t, lifetime.Respawned)

	positions, ok := ecs.GetSystem[*WorldPositionSystem](w)
	require.True(t, ok)
	assert.Zero(t, positions.Errors)

	titles := w.Scheduler().Titles()
	require.Len(t, titles, 7)
	assert.Equal(t, []string{"MoveSystem", "SpinSystem", "WorldPositionSystem"}, titles[:3])
	assert.Equal(t, "LifetimeSystem", titles[len(titles)-1])
}

func TestWorldPositionMatchesHierarchy(t *testing.T) {
	w, _ := newStressWorld(t, 50, 3, 0)
	w.Step(0.016)

	view := ecs.NewView[struct {
		ecs.EntityId
		*WorldPosition
	}](w.Storage())
	for _, item := range view.Iter() {
		if !w.Alive(item.EntityId) {
			continue
		}
		m, err := w.Hierarchy().WorldTransform(item.EntityId)
		require.NoError(t, err)
		// Move and spin run before the world position pass within a frame.
		assert.True(t, m.Translation().ApproxEqual(item.WorldPosition.Vec3))
	}
}

func TestStatsFinalize(t *testing.T) {
	var s Stats
	for i := 1; i <= 100; i++ {
		s.Samples = append(s.Samples, time.Duration(i)*time.Millisecond)
	}
	s.Finalize()

	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 100*time.Millisecond, s.Max)
	assert.Equal(t, 50500*time.Microsecond, s.Avg)
	assert.Equal(t, 100*time.Millisecond, s.P99)
}

func TestReportFormats(t *testing.T) {
	report := &Report{
		Duration:     time.Second,
		Entities:     10,
		TotalUpdates: 3,
		UpdateTime:   Stats{Samples: []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}},
		SystemStats:  []ecs.SystemStats{{Name: "MoveSystem", Priority: 100, ExecutionCount: 3}},
	}
	report.UpdateTime.Finalize()

	var text bytes.Buffer
	require.NoError(t, report.Generate(&text))
	assert.Contains(t, text.String(), "| MoveSystem | 100 | 3 |")

	var out bytes.Buffer
	require.NoError(t, report.GenerateYAML(&out))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	frames := decoded["frames"].(map[string]any)
	assert.Equal(t, 3, frames["count"])
	assert.Equal(t, "2ms", frames["avg"])
}
