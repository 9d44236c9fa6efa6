// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It manages ImGui rendering and input state through ECS components and systems.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks Dear ImGui's input capture state as a singleton component.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem runs every ImguiItem during the render step and keeps the
// ImguiInputState singleton current.
type ImguiSystem struct {
	Items      ecs.Query[struct{ *ImguiItem }]
	InputState ecs.Singleton[ImguiInputState]
}

// Execute records whether ImGui wants the mouse and keyboard this frame.
func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) {
	state := i.InputState.Get()
	if state == nil {
		return
	}
	io := imgui.CurrentIO()
	state.WantCaptureMouse = io.WantCaptureMouse()
	state.WantCaptureKeyboard = io.WantCaptureKeyboard()
}

// Render calls each item's render function. Items are collected first so a
// render function may spawn or delete ImguiItem entities.
func (i *ImguiSystem) Render(frame *ecs.RenderFrame) {
	var renders []func()
	for item := range i.Items.Values() {
		if item.ImguiItem.Render != nil {
			renders = append(renders, item.ImguiItem.Render)
		}
	}
	for _, render := range renders {
		render()
	}
}

// DebugUISystem draws every debug panel spawned by SpawnDebugUI.
type DebugUISystem struct {
	Browsers   ecs.Query[struct{ *EntityBrowserComponent }]
	Inspectors ecs.Query[struct{ *ComponentInspectorComponent }]
	Trees      ecs.Query[struct{ *SceneTreeComponent }]
	Panels     ecs.Query[struct{ *SystemPanelComponent }]
	Perf       ecs.Query[struct{ *PerformanceStatsComponent }]
	Selection  ecs.Singleton[Selection]
}

// Execute feeds the frame time into the performance panels.
func (s *DebugUISystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Perf.Values() {
		item.PerformanceStatsComponent.Record(frame.DeltaTime)
	}
}

func (s *DebugUISystem) Render(frame *ecs.RenderFrame) {
	w := frame.World
	selection := s.Selection.Get()
	if w == nil || selection == nil {
		return
	}

	for item := range s.Browsers.Values() {
		item.EntityBrowserComponent.Render(w, selection)
	}
	for item := range s.Trees.Values() {
		item.SceneTreeComponent.Render(w, selection)
	}
	for item := range s.Inspectors.Values() {
		item.ComponentInspectorComponent.Render(w, selection)
	}
	for item := range s.Panels.Values() {
		item.SystemPanelComponent.Render(w)
	}
	for item := range s.Perf.Values() {
		item.PerformanceStatsComponent.Render(w)
	}
}
