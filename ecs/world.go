package ecs

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Clock is the frame-timing singleton every World keeps up to date.
type Clock struct {
	Frame     uint64
	DeltaTime float64
	Elapsed   float64
}

// World drives one simulation instance: it owns the storage, the scene
// hierarchy and the scheduler, runs systems once per frame and applies
// deferred structural changes between frames. Worlds share no state, so
// several can run side by side.
//
// A World is owned by one goroutine. Only Gate().CreateEntity may be called
// from others.
type World struct {
	id        uuid.UUID
	config    Config
	storage   *Storage
	hierarchy *Hierarchy
	scheduler *Scheduler
	gate      *CreationGate
	commands  *Commands
	clock     *Clock
	frame     uint64

	logger *slog.Logger
	tracer trace.Tracer
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithLogger sets the structured logger. The default discards.
func WithLogger(logger *slog.Logger) WorldOption {
	return func(w *World) { w.logger = logger }
}

// WithTracer sets the tracer used for frame and system spans. The default is
// taken from the global OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) WorldOption {
	return func(w *World) { w.tracer = tracer }
}

// WithConfig overrides DefaultConfig.
func WithConfig(cfg Config) WorldOption {
	return func(w *World) { w.config = cfg.normalized() }
}

// NewWorld creates a World over registry. Transform is registered on the
// registry if it is not already.
func NewWorld(registry *ComponentRegistry, opts ...WorldOption) *World {
	w := &World{
		id:       uuid.New(),
		config:   DefaultConfig(),
		commands: newCommands(),
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(w)
	}

	if !registry.Registered(reflect.TypeFor[Transform]()) {
		RegisterComponent[Transform](registry)
	}

	w.storage = newStorage(registry, w.config.InitialCapacity)
	w.hierarchy = NewHierarchy(w.storage)
	w.gate = NewCreationGate(w.storage.Create)
	w.scheduler = NewScheduler(w.storage)
	w.scheduler.logger = w.logger
	w.scheduler.tracer = w.tracer
	w.clock = AddSingleton(w.storage, Clock{})

	w.logger.Debug("world created", "world", w.id, "capacity", w.config.InitialCapacity, "workers", w.config.Workers)
	return w
}

func (w *World) ID() uuid.UUID          { return w.id }
func (w *World) Config() Config         { return w.config }
func (w *World) Storage() *Storage      { return w.storage }
func (w *World) Hierarchy() *Hierarchy  { return w.hierarchy }
func (w *World) Scheduler() *Scheduler  { return w.scheduler }
func (w *World) Gate() *CreationGate    { return w.gate }
func (w *World) Commands() *Commands    { return w.commands }
func (w *World) Frame() uint64          { return w.frame }
func (w *World) Logger() *slog.Logger   { return w.logger }
func (w *World) systemHost() *Scheduler { return w.scheduler }
func (w *World) Alive(id EntityId) bool { return w.storage.Alive(id) }
func (w *World) EntityCount() int       { return w.storage.EntityCount() }

// Register adds system to the scheduler.
func (w *World) Register(system System, opts ...SystemOption) {
	w.scheduler.Register(system, opts...)
}

// CreateEntity allocates an entity through the creation gate.
func (w *World) CreateEntity() EntityId {
	return w.gate.CreateEntity()
}

// AttachComponent attaches a type-erased component to id.
func (w *World) AttachComponent(id EntityId, component any) error {
	return w.storage.AddComponent(id, component)
}

// AttachTo attaches value to id and returns a pointer to the stored record.
func AttachTo[T any](w *World, id EntityId, value T) (*T, error) {
	return Attach(w.storage, id, value)
}

// Spawn creates an entity carrying components. On failure nothing is left behind.
func (w *World) Spawn(components ...any) (EntityId, error) {
	id := w.gate.CreateEntity()
	for _, comp := range components {
		if err := w.storage.AddComponent(id, comp); err != nil {
			w.storage.Delete(id)
			return 0, fmt.Errorf("spawn: %w", err)
		}
	}
	return id, nil
}

// SpawnChild creates an entity with transform and components, linked under parent.
func (w *World) SpawnChild(parent EntityId, transform Transform, components ...any) (EntityId, error) {
	id, err := w.Spawn(append([]any{transform}, components...)...)
	if err != nil {
		return 0, err
	}
	if err := w.hierarchy.SetParent(id, parent); err != nil {
		w.storage.Delete(id)
		return 0, fmt.Errorf("spawn child: %w", err)
	}
	return id, nil
}

// DeleteEntity deletes id and every hierarchy descendant, children before
// parents, and unlinks id from its parent. Returns the number of entities
// deleted; a stale id deletes nothing.
func (w *World) DeleteEntity(id EntityId) int {
	if !w.storage.Alive(id) {
		return 0
	}

	victims := append(w.hierarchy.Descendants(id), id)
	deleted := 0
	for _, victim := range victims {
		if w.storage.Delete(victim) {
			deleted++
		}
	}

	if deleted > 1 {
		w.logger.Debug("cascading delete", "world", w.id, "entity", id, "deleted", deleted)
	}
	return deleted
}

// DeleteLater queues id for deletion at the next FlushDeferredDeletions.
func (w *World) DeleteLater(id EntityId) {
	w.commands.Delete(id)
}

// PendingDeletion reports whether id is queued for deletion.
func (w *World) PendingDeletion(id EntityId) bool {
	return w.commands.PendingDeletion(id)
}

// Update runs every system's update step once.
func (w *World) Update(dt float64) {
	w.frame++
	w.clock.Frame = w.frame
	w.clock.DeltaTime = dt
	w.clock.Elapsed += dt

	ctx, span := w.tracer.Start(context.Background(), "ecs.update", trace.WithAttributes(
		attribute.String("ecs.world", w.id.String()),
		attribute.Int64("ecs.frame", int64(w.frame)),
		attribute.Float64("ecs.delta", dt),
	))
	defer span.End()

	w.scheduler.Update(&UpdateFrame{
		DeltaTime: dt,
		Frame:     w.frame,
		Commands:  w.commands,
		Storage:   w.storage,
		World:     w,
		ctx:       ctx,
	})
}

// Render runs every system's render step once.
func (w *World) Render() {
	ctx, span := w.tracer.Start(context.Background(), "ecs.render", trace.WithAttributes(
		attribute.Int64("ecs.frame", int64(w.frame)),
	))
	defer span.End()

	w.scheduler.Render(&RenderFrame{
		Frame:   w.frame,
		Storage: w.storage,
		World:   w,
		ctx:     ctx,
	})
}

// FlushDeferredDeletions applies the commands queued during the frame.
func (w *World) FlushDeferredDeletions() FlushResult {
	_, span := w.tracer.Start(context.Background(), "ecs.flush")
	defer span.End()

	result := w.commands.Flush(w)
	span.SetAttributes(
		attribute.Int("ecs.deleted", result.Deleted),
		attribute.Int("ecs.spawned", result.Spawned),
	)
	return result
}

// Step runs one full frame: Update, Render, then the deferred flush.
func (w *World) Step(dt float64) {
	w.Update(dt)
	w.Render()
	w.FlushDeferredDeletions()
}

// Run steps the world at the given interval until the context is cancelled.
func (w *World) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			delta := now.Sub(lastTime)
			lastTime = now
			if w.config.MaxFrameDelta > 0 && delta > w.config.MaxFrameDelta {
				delta = w.config.MaxFrameDelta
			}
			w.Step(delta.Seconds())
		}
	}
}
