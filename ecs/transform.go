package ecs

import (
	"iter"
	"slices"

	"github.com/plus3/scenecore/ecs/geom"
)

// Transform places an entity in the scene tree. The parent link is a weak
// handle and children are stored by identity only; neither owns the other's
// storage. Links are maintained through Hierarchy.
//
// NewTransform is the usual constructor. In a literal, a zero Rotation is the
// identity and an all-zero Scale is read as unit scale.
type Transform struct {
	Translation geom.Vec3
	Rotation    geom.Quat
	Scale       geom.Vec3

	parent   EntityId
	children []EntityId
}

// NewTransform returns a root transform at translation with identity rotation and unit scale.
func NewTransform(translation geom.Vec3) Transform {
	return Transform{
		Translation: translation,
		Rotation:    geom.IdentityQuat(),
		Scale:       geom.One,
	}
}

// Local composes translation * rotation * scale.
func (t *Transform) Local() geom.Mat4 {
	scale := t.Scale
	if scale == (geom.Vec3{}) {
		scale = geom.One
	}
	return geom.Compose(t.Translation, t.Rotation, scale)
}

// Parent returns the parent handle, if any.
func (t *Transform) Parent() (EntityId, bool) {
	return t.parent, !t.parent.IsZero()
}

func (t *Transform) HasParent() bool {
	return !t.parent.IsZero()
}

func (t *Transform) HasChildren() bool {
	return len(t.children) > 0
}

// FirstChild returns the earliest-linked child.
func (t *Transform) FirstChild() (EntityId, bool) {
	if len(t.children) == 0 {
		return 0, false
	}
	return t.children[0], true
}

func (t *Transform) ChildCount() int {
	return len(t.children)
}

// Children yields the children in link order.
func (t *Transform) Children() iter.Seq[EntityId] {
	return slices.Values(t.children)
}

func (t *Transform) unlinkChild(child EntityId) bool {
	at := slices.Index(t.children, child)
	if at < 0 {
		return false
	}
	t.children = slices.Delete(t.children, at, at+1)
	return true
}
