package ecs

import "context"

type UpdateFrame struct {
	DeltaTime float64
	Frame     uint64
	Commands  *Commands
	Storage   *Storage
	World     *World

	ctx context.Context
}

// Context carries the frame's trace span.
func (f *UpdateFrame) Context() context.Context {
	if f.ctx == nil {
		return context.Background()
	}
	return f.ctx
}

type RenderFrame struct {
	Frame   uint64
	Storage *Storage
	World   *World

	ctx context.Context
}

func (f *RenderFrame) Context() context.Context {
	if f.ctx == nil {
		return context.Background()
	}
	return f.ctx
}
