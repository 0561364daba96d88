package common

import (
	"math"

	"github.com/jakecoffman/cp"
)

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Tile is an integer cell coordinate on a floor grid.
type Tile struct {
	X int
	Y int
}

func (t Tile) Add(dx, dy int) Tile {
	return Tile{X: t.X + dx, Y: t.Y + dy}
}

// Manhattan returns the 4-way grid distance between two tiles.
func Manhattan(a, b Tile) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// TileAt maps a world-space position to the tile containing it.
func TileAt(pos cp.Vector, tileSize float64) Tile {
	if tileSize <= 0 {
		return Tile{}
	}
	return Tile{
		X: int(math.Floor(pos.X / tileSize)),
		Y: int(math.Floor(pos.Y / tileSize)),
	}
}

// TileCenter returns the world-space centre of a tile.
func TileCenter(t Tile, tileSize float64) cp.Vector {
	half := tileSize * 0.5
	return cp.Vector{X: float64(t.X)*tileSize + half, Y: float64(t.Y)*tileSize + half}
}

// StepToward moves from toward to by at most maxStep.
func StepToward(from, to cp.Vector, maxStep float64) cp.Vector {
	delta := to.Sub(from)
	dist := delta.Length()
	if dist <= maxStep || dist == 0 {
		return to
	}
	return from.Add(delta.Mult(maxStep / dist))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
