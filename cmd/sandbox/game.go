package main

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/aibehavior/behavior"
	"github.com/milk9111/aibehavior/prefabs"
	"github.com/milk9111/aibehavior/scene"
)

const (
	baseWidth  = 1280
	baseHeight = 720
	hudHeight  = 64

	frameDT     = 1.0 / 60
	attackReach = 24.0
	pickRadius  = 6.0
)

type Game struct {
	frames int

	scene    *scene.Scene
	view     view
	debug    bool
	paused   bool
	quit     bool
	ui       *ebitenui.UI
	watcher  *prefabs.Watcher
	selected *scene.Actor
	lastHit  string
}

func NewGame(sc *scene.Scene, debug bool) *Game {
	g := &Game{scene: sc, debug: debug}
	g.view = fitView(sc, baseWidth, baseHeight-hudHeight)
	g.ui = NewPauseUI(g)

	sc.Hub().Subscribe(behavior.EventStateChanged, nil, func(ev behavior.Event) {
		if g.debug {
			log.Printf("sandbox: %v %s %s -> %s", ev.Actor.ID(), ev.Behavior, ev.From, ev.To)
		}
	})
	return g
}

func (g *Game) Update() error {
	if g.quit || inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		return ebiten.Termination
	}
	g.drainWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}
	if g.paused {
		g.ui.Update()
		return nil
	}
	g.frames++

	g.handleInput()
	g.scene.Update(frameDT)
	return nil
}

func (g *Game) handleInput() {
	var dir cp.Vector
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		dir.X -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		dir.X += 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		dir.Y -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyDown) {
		dir.Y += 1
	}
	g.scene.MovePlayer(dir)

	player := g.scene.Player()
	if player == nil {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if victim := g.scene.Attack(player, attackReach); victim != nil {
			g.lastHit = victim.String()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) && g.scene.Floors() > 1 {
		next := (player.Floor() + 1) % g.scene.Floors()
		if err := g.scene.ChangeFloor(player, next); err != nil {
			log.Printf("sandbox: change floor: %v", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.debug = !g.debug
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		g.selected = g.scene.ActorAt(g.view.toWorld(float64(mx), float64(my)), g.floor(), pickRadius)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) && g.selected != nil {
		if b := g.selected.Behavior(); b != nil {
			b.Reset()
		}
	}
}

// floor is the floor being drawn: the player's, or 0 without a player.
func (g *Game) floor() int {
	if p := g.scene.Player(); p != nil {
		return p.Floor()
	}
	return 0
}

func (g *Game) resetBehaviors() {
	for _, a := range g.scene.Actors() {
		if b := a.Behavior(); b != nil {
			b.Reset()
		}
	}
}

func (g *Game) drainWatcher() {
	for g.watcher != nil {
		select {
		case ch, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.applyChange(ch)
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			log.Printf("sandbox: watch: %v", err)
		default:
			return
		}
	}
}

func (g *Game) applyChange(ch prefabs.Change) {
	names := []string{ch.Name()}
	if ch.Kind == prefabs.ChangeScript {
		names = g.templatesInUse()
	}
	for _, name := range names {
		n, err := g.scene.ReloadTemplate(name)
		if err != nil {
			log.Printf("sandbox: reload %s: %v", name, err)
			continue
		}
		log.Printf("sandbox: reloaded %s on %d actors", name, n)
	}
}

func (g *Game) templatesInUse() []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range g.scene.Actors() {
		if a.Spec().Behavior.Empty() || seen[a.Name()] {
			continue
		}
		seen[a.Name()] = true
		out = append(out, a.Name())
	}
	return out
}

func (g *Game) Draw(screen *ebiten.Image) {
	floor := g.floor()
	g.view.drawFloor(screen, g.scene, floor)
	g.view.drawActors(screen, g.scene, floor, g.selected)
	if g.debug {
		g.view.drawSpace(screen, g.scene.Space())
	}
	g.drawHUD(screen, floor)

	if g.paused {
		g.ui.Draw(screen)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image, floor int) {
	var b strings.Builder
	fmt.Fprintf(&b, "Frames: %d    FPS: %.2f    floor %d/%d", g.frames, ebiten.ActualFPS(), floor+1, g.scene.Floors())
	if g.lastHit != "" {
		fmt.Fprintf(&b, "    last hit: %s", g.lastHit)
	}
	b.WriteString("\nmove: WASD/arrows  attack: space  floor: F  select: click  reset: R  debug: tab  pause: esc")
	if a := g.selected; a != nil {
		fmt.Fprintf(&b, "\n%s  %s", a, behavior.Describe(a.Behavior()))
	}
	ebitenutil.DebugPrintAt(screen, b.String(), 4, baseHeight-hudHeight+4)
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

// view maps world units onto the screen area above the HUD.
type view struct {
	scale  float64
	offX   float64
	offY   float64
	tile   float64
	width  int
	height int
}

func fitView(sc *scene.Scene, w, h int) view {
	lvl := sc.Level()
	ww := float64(lvl.Width) * lvl.TileSize
	wh := float64(lvl.Height) * lvl.TileSize
	scale := math.Min(float64(w)/ww, float64(h)/wh)
	return view{
		scale:  scale,
		offX:   (float64(w) - ww*scale) / 2,
		offY:   (float64(h) - wh*scale) / 2,
		tile:   lvl.TileSize,
		width:  lvl.Width,
		height: lvl.Height,
	}
}

func (v view) toScreen(p cp.Vector) (float32, float32) {
	return float32(v.offX + p.X*v.scale), float32(v.offY + p.Y*v.scale)
}

func (v view) toWorld(x, y float64) cp.Vector {
	return cp.Vector{X: (x - v.offX) / v.scale, Y: (y - v.offY) / v.scale}
}
