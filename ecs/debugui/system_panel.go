package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

func NewSystemPanelComponent() SystemPanelComponent {
	return SystemPanelComponent{showInspectors: true}
}

type systemRow struct {
	Stats     ecs.SystemStats
	Inspector ecs.Inspector
}

// systemRows pairs each system's stats with its Inspect step, in execution order.
func systemRows(s *ecs.Scheduler) []systemRow {
	stats := s.GetStats()
	rows := make([]systemRow, 0, len(stats.Systems))

	i := 0
	for system := range s.Systems() {
		row := systemRow{Stats: stats.Systems[i]}
		if inspector, ok := system.(ecs.Inspector); ok {
			row.Inspector = inspector
		}
		rows = append(rows, row)
		i++
	}
	return rows
}

func (sp *SystemPanelComponent) Render(w *ecs.World) {
	if !imgui.BeginV("Systems", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	scheduler := w.Scheduler()

	paused := scheduler.Paused()
	if imgui.Checkbox("Paused", &paused) {
		scheduler.SetPaused(paused)
	}
	imgui.SameLine()
	if paused {
		imgui.TextColored(imgui.NewVec4(1.0, 0.8, 0.0, 1.0), "PAUSED")
	} else {
		imgui.TextColored(imgui.NewVec4(0.0, 1.0, 0.0, 1.0), "RUNNING")
	}
	imgui.Text(fmt.Sprintf("Frame %d", w.Frame()))
	imgui.Checkbox("Show inspectors", &sp.showInspectors)

	rows := systemRows(scheduler)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSizingFixedFit
	if imgui.BeginTableV("SystemTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("System")
		imgui.TableSetupColumn("Priority")
		imgui.TableSetupColumn("Pausable")
		imgui.TableSetupColumn("Avg")
		imgui.TableSetupColumn("Max")
		imgui.TableHeadersRow()

		for _, row := range rows {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			imgui.Text(row.Stats.Name)
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.Stats.Priority))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%v", row.Stats.Pausable))
			imgui.TableNextColumn()
			imgui.Text(row.Stats.AvgDuration.String())
			imgui.TableNextColumn()
			imgui.Text(row.Stats.MaxDuration.String())
		}
		imgui.EndTable()
	}

	if sp.showInspectors {
		for _, row := range rows {
			if row.Inspector == nil {
				continue
			}
			if imgui.TreeNodeStr(row.Stats.Name) {
				row.Inspector.Inspect()
				imgui.TreePop()
			}
		}
	}

	imgui.End()
}
