package debugui

import (
	"fmt"

	"github.com/plus3/scenecore/ecs"
)

// SpawnDebugUI spawns every debug panel into w and registers the systems that
// draw them. The panel types must be registered with RegisterDebugUIComponents
// before the world is created.
func SpawnDebugUI(w *ecs.World) error {
	panels := []any{
		NewEntityBrowserComponent(100),
		NewComponentInspectorComponent(),
		NewSceneTreeComponent(),
		NewSystemPanelComponent(),
		NewPerformanceStatsComponent(120),
	}
	for _, panel := range panels {
		if _, err := w.Spawn(panel); err != nil {
			return fmt.Errorf("spawn debug ui: %w", err)
		}
	}

	ecs.NewSingleton[Selection](w.Storage())
	ecs.NewSingleton[ImguiInputState](w.Storage())

	// Unpausable so the pause toggle stays reachable.
	w.Register(&ImguiSystem{}, ecs.Unpausable(), ecs.WithTitle("imgui"))
	w.Register(&DebugUISystem{}, ecs.Unpausable(), ecs.WithTitle("debug ui"))
	return nil
}

func RegisterDebugUIComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ImguiItem](registry)
	ecs.RegisterComponent[EntityBrowserComponent](registry)
	ecs.RegisterComponent[ComponentInspectorComponent](registry)
	ecs.RegisterComponent[SceneTreeComponent](registry)
	ecs.RegisterComponent[SystemPanelComponent](registry)
	ecs.RegisterComponent[PerformanceStatsComponent](registry)
}
