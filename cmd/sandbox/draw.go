package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/aibehavior/behavior"
	"github.com/milk9111/aibehavior/common"
	"github.com/milk9111/aibehavior/scene"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

var labelFace ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)

var (
	floorColor  = color.RGBA{R: 0x1e, G: 0x22, B: 0x28, A: 0xff}
	wallColor   = color.RGBA{R: 0x55, G: 0x5d, B: 0x6b, A: 0xff}
	hostileTint = colornames.Tomato
	friendTint  = colornames.Lightgreen
)

func (v view) drawFloor(screen *ebiten.Image, sc *scene.Scene, floor int) {
	x0, y0 := v.toScreen(cpZero)
	ts := float32(v.tile * v.scale)
	vector.FillRect(screen, x0, y0, ts*float32(v.width), ts*float32(v.height), floorColor, false)
	for y := 0; y < v.height; y++ {
		for x := 0; x < v.width; x++ {
			if !sc.Blocked(floor, common.Tile{X: x, Y: y}) {
				continue
			}
			vector.FillRect(screen, x0+float32(x)*ts, y0+float32(y)*ts, ts, ts, wallColor, false)
		}
	}
}

func (v view) drawActors(screen *ebiten.Image, sc *scene.Scene, floor int, selected *scene.Actor) {
	for _, a := range sc.Actors() {
		if !a.Alive() || a.Floor() != floor {
			continue
		}
		def := color.Color(friendTint)
		if a.Hostile() {
			def = hostileTint
		}
		x, y := v.toScreen(a.Position())
		r := float32(a.Radius() * v.scale)
		if r <= 0 {
			r = float32(v.tile * v.scale / 2)
		}
		vector.FillCircle(screen, x, y, r, a.Spec().Color.Or(def), true)

		if a.Stats().SpeedMultiplier() != 1 {
			vector.StrokeCircle(screen, x, y, r+2, 1, colornames.Skyblue, true)
		}
		if a == selected {
			vector.StrokeCircle(screen, x, y, r+4, 2, colornames.Gold, true)
		}
		if c, ok := a.Behavior().(*behavior.CompanionFollowBehavior); ok && c.IsActive() {
			tx, ty := v.toScreen(c.TargetPosition())
			vector.StrokeLine(screen, x, y, tx, ty, 1, colornames.Plum, true)
		}

		op := &ebtext.DrawOptions{}
		op.GeoM.Translate(float64(x)-float64(r), float64(y)-float64(r)-14)
		op.ColorScale.ScaleWithColor(colornames.Lightgrey)
		ebtext.Draw(screen, a.Name(), labelFace, op)
	}

	for _, p := range sc.Projectiles() {
		if !p.InFlight() || p.Floor() != floor {
			continue
		}
		x, y := v.toScreen(p.Position())
		vector.FillCircle(screen, x, y, 3, colornames.Orange, true)
	}
}
