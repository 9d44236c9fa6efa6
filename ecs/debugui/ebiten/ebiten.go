// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/scenecore/ecs"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// Use this to integrate Dear ImGui rendering into Ebiten game loops.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// Game drives a World from Ebiten's callbacks. Each Ebiten tick steps the
// world once inside an ImGui frame, so systems may issue ImGui calls from
// their render step.
type Game struct {
	World   *ecs.World
	Backend ImguiBackend

	// DrawScene, when set, draws the game content under the ImGui overlay.
	DrawScene func(screen *ebiten.Image)
}

// NewGame returns an ebiten.Game that steps w and draws backend on top.
func NewGame(w *ecs.World, backend *ebitenbackend.EbitenBackend) *Game {
	ecs.AddSingleton(w.Storage(), ImguiBackend{EbitenBackend: backend})
	return &Game{World: w, Backend: ImguiBackend{EbitenBackend: backend}}
}

func (g *Game) Update() error {
	g.Backend.BeginFrame()
	g.World.Step(1.0 / float64(ebiten.TPS()))
	g.Backend.EndFrame()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.DrawScene != nil {
		g.DrawScene(screen)
	}
	g.Backend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.Backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
