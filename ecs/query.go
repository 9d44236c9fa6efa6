package ecs

import "iter"

// Query is a View declared as a system field. The Scheduler calls Init during
// registration, so systems can iterate without wiring storage by hand.
type Query[T any] struct {
	view *View[T]
}

// NewQuery creates a Query bound to storage.
func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init initializes or re-initializes the Query with a storage.
// Called by the Scheduler during system registration.
func (q *Query[T]) Init(storage *Storage) {
	q.view = NewView[T](storage)
}

// View returns the underlying view.
func (q *Query[T]) View() *View[T] {
	q.mustInit()
	return q.view
}

func (q *Query[T]) mustInit() {
	if q.view == nil {
		panic("ecs: Query used before Init; register the system with a Scheduler first")
	}
}

// Iter returns an iterator over entity IDs and component data.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	q.mustInit()
	return q.view.Iter()
}

// Values returns an iterator over component data only.
func (q *Query[T]) Values() iter.Seq[T] {
	q.mustInit()
	return q.view.Values()
}

// Get fills the view struct for id, or returns nil.
func (q *Query[T]) Get(id EntityId) *T {
	q.mustInit()
	return q.view.Get(id)
}

// Ids collects the matching ids.
func (q *Query[T]) Ids() []EntityId {
	q.mustInit()
	return q.view.Ids()
}

// Count returns the number of matching entities.
func (q *Query[T]) Count() int {
	q.mustInit()
	return q.view.Count()
}
