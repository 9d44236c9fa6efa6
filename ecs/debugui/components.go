package debugui

import (
	"github.com/plus3/scenecore/ecs"
)

// Selection is the entity the panels currently focus on.
type Selection struct {
	Entity ecs.EntityId
}

type EntityBrowserComponent struct {
	cache              *EntityBrowserCache
	filterText         string
	maxEntitiesPerPage int
	currentPage        int
}

type ComponentInspectorComponent struct {
	showWorldTransform bool
}

type SceneTreeComponent struct {
	collapsed map[ecs.EntityId]bool
}

type SystemPanelComponent struct {
	showInspectors bool
}

type PerformanceStatsComponent struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}
