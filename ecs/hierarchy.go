package ecs

import (
	"errors"
	"fmt"
	"iter"

	"github.com/plus3/scenecore/ecs/geom"
)

// Hierarchy maintains the parent/child links between Transform components.
// A Transform always attaches as a root; links are only made by SetParent.
//
// Every mutation keeps two invariants: a set parent is alive and carries a
// Transform, and a node's child list holds exactly the nodes whose parent is
// that node. Detaching a Transform (directly or by deleting its entity)
// unlinks it from its parent and turns its children into roots.
type Hierarchy struct {
	storage    *Storage
	transforms *Table[Transform]
}

// NewHierarchy binds a hierarchy to storage. Transform must be registered with
// the storage's registry.
func NewHierarchy(storage *Storage) *Hierarchy {
	h := &Hierarchy{
		storage:    storage,
		transforms: TableOf[Transform](storage),
	}
	h.transforms.onAttach = dropCopiedLinks
	h.transforms.onDetach = h.unlinkDetached
	return h
}

// dropCopiedLinks makes every attached Transform a root. A value copied from a
// linked node would otherwise name a parent that does not list it.
func dropCopiedLinks(_ EntityId, t *Transform) {
	t.parent = 0
	t.children = nil
}

func (h *Hierarchy) unlinkDetached(id EntityId, t *Transform) {
	if parent := h.transforms.get(t.parent); parent != nil {
		parent.unlinkChild(id)
	}
	for _, child := range t.children {
		if ct := h.transforms.get(child); ct != nil {
			ct.parent = 0
		}
	}
	t.parent = 0
	t.children = nil
}

func (h *Hierarchy) transform(id EntityId) (*Transform, error) {
	if !h.storage.Alive(id) {
		return nil, fmt.Errorf("%s: %w", id, ErrStaleEntity)
	}
	t := h.transforms.get(id)
	if t == nil {
		return nil, fmt.Errorf("%s has no Transform: %w", id, ErrMissingComponent)
	}
	return t, nil
}

// SetParent links child under parent, appending it to parent's children. A
// child that already has a parent is moved. Linking a node under itself or
// one of its descendants fails with ErrHierarchyCycle.
func (h *Hierarchy) SetParent(child, parent EntityId) error {
	ct, err := h.transform(child)
	if err != nil {
		return fmt.Errorf("set parent: child %w", err)
	}
	pt, err := h.transform(parent)
	if err != nil {
		return fmt.Errorf("set parent: parent %w", err)
	}

	for cur := parent; !cur.IsZero(); {
		if cur == child {
			return fmt.Errorf("set parent of %s to %s: %w", child, parent, ErrHierarchyCycle)
		}
		t := h.transforms.get(cur)
		if t == nil {
			break
		}
		cur = t.parent
	}

	if ct.parent == parent {
		return nil
	}
	if old := h.transforms.get(ct.parent); old != nil {
		old.unlinkChild(child)
	}

	pt.children = append(pt.children, child)
	ct.parent = parent
	return nil
}

// RemoveChild unlinks child from parent, making it a root. Returns false when
// child was not linked under parent.
func (h *Hierarchy) RemoveChild(parent, child EntityId) bool {
	pt := h.transforms.get(parent)
	ct := h.transforms.get(child)
	if pt == nil || ct == nil || ct.parent != parent {
		return false
	}
	pt.unlinkChild(child)
	ct.parent = 0
	return true
}

// Unparent makes child a root.
func (h *Hierarchy) Unparent(child EntityId) bool {
	ct := h.transforms.get(child)
	if ct == nil || ct.parent.IsZero() {
		return false
	}
	return h.RemoveChild(ct.parent, child)
}

// Parent returns child's parent, if any.
func (h *Hierarchy) Parent(child EntityId) (EntityId, bool) {
	ct := h.transforms.get(child)
	if ct == nil {
		return 0, false
	}
	return ct.Parent()
}

func (h *Hierarchy) HasParent(id EntityId) bool {
	_, ok := h.Parent(id)
	return ok
}

// FirstChild returns the earliest-linked child of id.
func (h *Hierarchy) FirstChild(id EntityId) (EntityId, bool) {
	t := h.transforms.get(id)
	if t == nil {
		return 0, false
	}
	return t.FirstChild()
}

// HasChildren reports whether id has at least one child.
func (h *Hierarchy) HasChildren(id EntityId) bool {
	t := h.transforms.get(id)
	return t != nil && t.HasChildren()
}

// Children yields id's children in link order. Nothing is yielded for entities
// without a Transform.
func (h *Hierarchy) Children(id EntityId) iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		t := h.transforms.get(id)
		if t == nil {
			return
		}
		for _, child := range t.children {
			if !yield(child) {
				return
			}
		}
	}
}

// Roots yields every transform without a parent, in table order.
func (h *Hierarchy) Roots() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		var roots []EntityId
		for id, t := range h.transforms.All() {
			if !t.HasParent() {
				roots = append(roots, id)
			}
		}
		for _, id := range roots {
			if !yield(id) {
				return
			}
		}
	}
}

// Descendants returns every node below id, children before their parents, so
// the result can be deleted front to back.
func (h *Hierarchy) Descendants(id EntityId) []EntityId {
	var out []EntityId
	var walk func(EntityId)
	walk = func(node EntityId) {
		t := h.transforms.get(node)
		if t == nil {
			return
		}
		for _, child := range t.children {
			walk(child)
			out = append(out, child)
		}
	}
	walk(id)
	return out
}

// WorldTransform composes id's local transform with every ancestor's. It is
// recomputed on each call; callers needing it repeatedly within a frame should
// keep the result.
func (h *Hierarchy) WorldTransform(id EntityId) (geom.Mat4, error) {
	t, err := h.transform(id)
	if err != nil {
		return geom.Mat4{}, fmt.Errorf("world transform: %w", err)
	}

	m := t.Local()
	for depth := 0; t.HasParent(); depth++ {
		contract(depth <= h.transforms.Len(), "hierarchy cycle above %s", id)

		t = h.transforms.get(t.parent)
		contract(t != nil, "dangling parent above %s", id)
		if t == nil {
			return geom.Mat4{}, fmt.Errorf("world transform of %s: %w", id, ErrMissingComponent)
		}
		m = t.Local().Mul(m)
	}
	return m, nil
}

// Validate checks every link in the scene tree and reports all violations.
func (h *Hierarchy) Validate() error {
	var errs []error
	for id, t := range h.transforms.All() {
		if !h.storage.Alive(id) {
			errs = append(errs, fmt.Errorf("transform owned by dead entity %s", id))
		}
		if t.HasParent() {
			pt := h.transforms.get(t.parent)
			switch {
			case pt == nil || !h.storage.Alive(t.parent):
				errs = append(errs, fmt.Errorf("%s: dangling parent %s", id, t.parent))
			case countOf(pt.children, id) != 1:
				errs = append(errs, fmt.Errorf("%s: listed %d times under parent %s", id, countOf(pt.children, id), t.parent))
			}
		}
		for _, child := range t.children {
			ct := h.transforms.get(child)
			if ct == nil || ct.parent != id {
				errs = append(errs, fmt.Errorf("%s: child %s does not point back", id, child))
			}
		}
		steps := 0
		for cur := t.parent; !cur.IsZero(); steps++ {
			if cur == id || steps > h.transforms.Len() {
				errs = append(errs, fmt.Errorf("%s: %w", id, ErrHierarchyCycle))
				break
			}
			pt := h.transforms.get(cur)
			if pt == nil {
				break
			}
			cur = pt.parent
		}
	}
	return errors.Join(errs...)
}

func countOf(ids []EntityId, id EntityId) int {
	n := 0
	for _, x := range ids {
		if x == id {
			n++
		}
	}
	return n
}
