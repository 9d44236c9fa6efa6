package ecs

import (
	"cmp"
	"fmt"
	"iter"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/plus3/scenecore/ecs"

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Paused          bool
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Priority       int
	Pausable       bool
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (s *systemStatsInternal) record(d time.Duration) {
	s.executionCount++
	s.lastDuration = d
	s.totalDuration += d
	s.minDuration = min(s.minDuration, d)
	s.maxDuration = max(s.maxDuration, d)
}

type systemEntry struct {
	system   System
	typ      reflect.Type
	title    string
	priority int
	pausable bool
	seq      uint64
	removed  bool
	stats    systemStatsInternal
}

// SystemOption configures a system at registration.
type SystemOption func(*systemEntry)

// WithPriority sets the system priority. Higher priorities run first; the default is 0.
func WithPriority(priority int) SystemOption {
	return func(e *systemEntry) { e.priority = priority }
}

// WithTitle sets the display title. Defaults to the system's type name.
func WithTitle(title string) SystemOption {
	return func(e *systemEntry) { e.title = title }
}

// Unpausable keeps the system running while the scheduler is paused.
func Unpausable() SystemOption {
	return func(e *systemEntry) { e.pausable = false }
}

// Scheduler owns the registered systems and runs them in descending priority
// order. Systems sharing a priority run in registration order.
type Scheduler struct {
	storage *Storage
	entries []*systemEntry
	byType  map[reflect.Type][]*systemEntry
	nextSeq uint64
	paused  bool

	logger *slog.Logger
	tracer trace.Tracer
}

// NewScheduler creates a new scheduler for the given storage.
func NewScheduler(storage *Storage) *Scheduler {
	return &Scheduler{
		storage: storage,
		byType:  make(map[reflect.Type][]*systemEntry),
		logger:  slog.New(slog.DiscardHandler),
		tracer:  otel.Tracer(tracerName),
	}
}

// Register takes ownership of system, initializes its Query and Singleton
// fields and inserts it in priority order.
func (s *Scheduler) Register(system System, opts ...SystemOption) {
	if system == nil {
		panic("ecs: cannot register a nil system")
	}
	systemType := reflect.TypeOf(system)
	// Value systems holding slices, maps or funcs cannot be compared.
	if systemType.Comparable() {
		for _, e := range s.entries {
			if e.system == system {
				panic(fmt.Sprintf("ecs: system %s registered twice", e.title))
			}
		}
	}

	s.initializeFields(system)

	entry := &systemEntry{
		system:   system,
		typ:      systemType,
		title:    typeTitle(systemType),
		pausable: true,
		seq:      s.nextSeq,
		stats:    systemStatsInternal{minDuration: time.Duration(1<<63 - 1)},
	}
	s.nextSeq++
	for _, opt := range opts {
		opt(entry)
	}

	s.entries = append(s.entries, entry)
	s.reindex()

	s.logger.Debug("system registered", "system", entry.title, "priority", entry.priority, "pausable", entry.pausable)
}

func typeTitle(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// storageBinder is implemented by Query and Singleton fields.
type storageBinder interface {
	Init(storage *Storage)
}

func (s *Scheduler) initializeFields(system System) {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() == reflect.Ptr {
		systemValue = systemValue.Elem()
	}

	if systemValue.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		if binder, ok := field.Addr().Interface().(storageBinder); ok {
			binder.Init(s.storage)
		}
	}
}

// reindex restores priority order and rebuilds the type index.
func (s *Scheduler) reindex() {
	slices.SortStableFunc(s.entries, func(a, b *systemEntry) int {
		if c := cmp.Compare(b.priority, a.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	clear(s.byType)
	for _, e := range s.entries {
		s.byType[e.typ] = append(s.byType[e.typ], e)
	}
}

func (s *Scheduler) remove(match func(*systemEntry) bool) int {
	removed := 0
	s.entries = slices.DeleteFunc(s.entries, func(e *systemEntry) bool {
		if match(e) {
			e.removed = true
			removed++
			s.logger.Debug("system removed", "system", e.title)
			return true
		}
		return false
	})
	if removed > 0 {
		s.reindex()
	}
	return removed
}

// SetPaused sets the global pause flag. Unpausable systems keep running.
func (s *Scheduler) SetPaused(paused bool) {
	s.paused = paused
}

// Paused reports the global pause flag.
func (s *Scheduler) Paused() bool {
	return s.paused
}

func (s *Scheduler) skipped(e *systemEntry) bool {
	return e.removed || (s.paused && e.pausable)
}

// Update executes every system that is not effectively paused, in order.
func (s *Scheduler) Update(frame *UpdateFrame) {
	// Systems may register or remove systems mid-frame; walk a snapshot.
	entries := slices.Clone(s.entries)
	parent := frame.ctx

	for _, e := range entries {
		if s.skipped(e) {
			continue
		}

		ctx, span := s.tracer.Start(frame.Context(), "system "+e.title,
			trace.WithAttributes(attribute.Int("ecs.priority", e.priority)))
		frame.ctx = ctx

		start := time.Now()
		e.system.Execute(frame)
		e.stats.record(time.Since(start))

		span.End()
		frame.ctx = parent
	}
}

// Render runs the render step of every system that has one and is not paused.
func (s *Scheduler) Render(frame *RenderFrame) {
	entries := slices.Clone(s.entries)
	for _, e := range entries {
		if s.skipped(e) {
			continue
		}
		if r, ok := e.system.(Renderer); ok {
			r.Render(frame)
		}
	}
}

// Systems yields the registered systems in execution order.
func (s *Scheduler) Systems() iter.Seq[System] {
	return func(yield func(System) bool) {
		for _, e := range s.entries {
			if !yield(e.system) {
				return
			}
		}
	}
}

// Len returns the number of registered systems.
func (s *Scheduler) Len() int {
	return len(s.entries)
}

// Titles returns system titles in execution order.
func (s *Scheduler) Titles() []string {
	titles := make([]string, len(s.entries))
	for i, e := range s.entries {
		titles[i] = e.title
	}
	return titles
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.entries),
		Paused:      s.paused,
		Systems:     make([]SystemStats, len(s.entries)),
	}

	var totalExecs int64
	for i, e := range s.entries {
		internal := e.stats
		avgDuration := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			minDuration = internal.minDuration
		}

		stats.Systems[i] = SystemStats{
			Name:           e.title,
			Priority:       e.priority,
			Pausable:       e.pausable,
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}

func (s *Scheduler) systemHost() *Scheduler { return s }

// SystemHost is implemented by *Scheduler and *World.
type SystemHost interface {
	systemHost() *Scheduler
}

// matcher returns a predicate selecting entries whose system is, or implements, T.
func matcher[T any]() (reflect.Type, func(*systemEntry) bool) {
	target := reflect.TypeFor[T]()
	if target.Kind() == reflect.Interface {
		return target, func(e *systemEntry) bool { return e.typ.Implements(target) }
	}
	return target, func(e *systemEntry) bool { return e.typ == target }
}

// GetSystem returns the first system, in execution order, of type T. T may be
// an interface, in which case the first implementer is returned.
func GetSystem[T any](h SystemHost) (T, bool) {
	s := h.systemHost()
	target, match := matcher[T]()

	if target.Kind() != reflect.Interface {
		if entries := s.byType[target]; len(entries) > 0 {
			return entries[0].system.(T), true
		}
		var zero T
		return zero, false
	}

	for _, e := range s.entries {
		if match(e) {
			return e.system.(T), true
		}
	}
	var zero T
	return zero, false
}

// MustGetSystem is GetSystem for callers that know the system exists.
func MustGetSystem[T any](h SystemHost) T {
	sys, ok := GetSystem[T](h)
	if !ok {
		panic(fmt.Sprintf("ecs: %s: %v", reflect.TypeFor[T](), ErrSystemNotFound))
	}
	return sys
}

// GetSystems returns every system of type T in execution order.
func GetSystems[T any](h SystemHost) []T {
	s := h.systemHost()
	_, match := matcher[T]()

	var systems []T
	for _, e := range s.entries {
		if match(e) {
			systems = append(systems, e.system.(T))
		}
	}
	return systems
}

// RemoveSystems removes every system of type T, keeping the order of the rest.
// Returns the number removed.
func RemoveSystems[T any](h SystemHost) int {
	_, match := matcher[T]()
	return h.systemHost().remove(match)
}

// RemoveFrom removes the first system of type T and every system after it in
// execution order. Reports false, removing nothing, when no T is registered.
func RemoveFrom[T any](h SystemHost) (int, bool) {
	s := h.systemHost()
	_, match := matcher[T]()

	at := slices.IndexFunc(s.entries, match)
	if at < 0 {
		return 0, false
	}

	if n := len(GetSystems[T](h)); n > 1 {
		s.logger.Warn("checkpoint system registered more than once; truncating from the first",
			"system", s.entries[at].title, "count", n)
	}

	cut := slices.Clone(s.entries[at:])
	return s.remove(func(e *systemEntry) bool { return slices.Contains(cut, e) }), true
}
