package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

func NewSceneTreeComponent() SceneTreeComponent {
	return SceneTreeComponent{collapsed: make(map[ecs.EntityId]bool)}
}

type sceneRow struct {
	ID          ecs.EntityId
	Depth       int
	HasChildren bool
}

// flattenScene walks every root depth first, skipping the subtrees of
// collapsed nodes.
func flattenScene(h *ecs.Hierarchy, collapsed map[ecs.EntityId]bool) []sceneRow {
	var rows []sceneRow
	var walk func(id ecs.EntityId, depth int)
	walk = func(id ecs.EntityId, depth int) {
		rows = append(rows, sceneRow{ID: id, Depth: depth, HasChildren: h.HasChildren(id)})
		if collapsed[id] {
			return
		}
		for child := range h.Children(id) {
			walk(child, depth+1)
		}
	}
	for root := range h.Roots() {
		walk(root, 0)
	}
	return rows
}

func (st *SceneTreeComponent) Render(w *ecs.World, selection *Selection) {
	if !imgui.BeginV("Scene Tree", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	h := w.Hierarchy()
	for id := range st.collapsed {
		if !w.Alive(id) {
			delete(st.collapsed, id)
		}
	}

	if imgui.Button("Expand All") {
		clear(st.collapsed)
	}
	imgui.SameLine()
	if selected := selection.Entity; h.HasParent(selected) {
		if imgui.Button("Unparent Selected") {
			h.Unparent(selected)
		}
	}
	imgui.Separator()

	rows := flattenScene(h, st.collapsed)
	for _, row := range rows {
		for range row.Depth {
			imgui.Indent()
		}

		if row.HasChildren {
			marker := "-"
			if st.collapsed[row.ID] {
				marker = "+"
			}
			if imgui.Button(fmt.Sprintf("%s##toggle%d", marker, row.ID)) {
				st.collapsed[row.ID] = !st.collapsed[row.ID]
			}
			imgui.SameLine()
		}

		if imgui.SelectableBoolV(row.ID.String(), selection.Entity == row.ID, imgui.SelectableFlagsNone, imgui.NewVec2(0, 0)) {
			selection.Entity = row.ID
		}

		for range row.Depth {
			imgui.Unindent()
		}
	}

	imgui.Separator()
	imgui.Text(fmt.Sprintf("%d nodes shown", len(rows)))
	imgui.End()
}
