package ecs

// System represents a behavior that operates on entities with specific components.
// User-defined systems should implement this interface and can include Query fields
// for accessing entities, as well as custom state fields that persist between frames.
type System interface {
	Execute(frame *UpdateFrame)
}

// Renderer is implemented by systems with a render step.
type Renderer interface {
	Render(frame *RenderFrame)
}

// Inspector is implemented by systems that draw their own debug widgets.
type Inspector interface {
	Inspect()
}
