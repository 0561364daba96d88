// Package pathing provides the tile-path search service and the
// path-follow client behaviors navigate with.
package pathing

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/milk9111/aibehavior/behavior"
	"github.com/milk9111/aibehavior/common"
)

const defaultMaxNodes = 4096

// Grid is the walkability map of one floor. Tiles outside the grid are
// blocked.
type Grid struct {
	width   int
	height  int
	blocked []bool

	// MaxNodes bounds how many tiles one search may expand.
	MaxNodes int
}

func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{width: width, height: height, blocked: make([]bool, width*height), MaxNodes: defaultMaxNodes}
}

// ParseGrid builds a grid from text rows: '#' is a wall, anything else is
// floor. Rows must all have the same length.
func ParseGrid(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return NewGrid(0, 0), nil
	}
	w := len(rows[0])
	g := NewGrid(w, len(rows))
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("pathing: row %d has width %d, expected %d", y, len(row), w)
		}
		for x := 0; x < w; x++ {
			if row[x] == '#' {
				g.blocked[y*w+x] = true
			}
		}
	}
	return g, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) InBounds(t common.Tile) bool {
	return t.X >= 0 && t.Y >= 0 && t.X < g.width && t.Y < g.height
}

func (g *Grid) SetBlocked(t common.Tile, blocked bool) {
	if !g.InBounds(t) {
		return
	}
	g.blocked[t.Y*g.width+t.X] = blocked
}

func (g *Grid) Blocked(t common.Tile) bool {
	if !g.InBounds(t) {
		return true
	}
	return g.blocked[t.Y*g.width+t.X]
}

// FindPath runs A* with a Manhattan heuristic over 4-connected tiles.
// obstacles, when non-nil, replaces the grid's own walls. Every mover walks
// the same tiles.
func (g *Grid) FindPath(start, goal common.Tile, mover behavior.Actor, obstacles behavior.ObstacleLayer) behavior.Path {
	var layer behavior.ObstacleLayer = g
	if obstacles != nil {
		layer = obstacles
	}
	notFound := behavior.Path{State: behavior.PathNotFound, Goal: goal}
	if !g.InBounds(start) || !g.InBounds(goal) || layer.Blocked(goal) {
		return notFound
	}
	if start == goal {
		return behavior.Path{State: behavior.PathFound, Tiles: []common.Tile{start}, Goal: goal}
	}

	maxNodes := g.MaxNodes
	if maxNodes <= 0 {
		maxNodes = defaultMaxNodes
	}

	n := g.width * g.height
	cameFrom := make([]int, n)
	for i := range cameFrom {
		cameFrom[i] = -1
	}
	gScore := make([]float64, n)
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}
	startIdx := g.index(start)
	goalIdx := g.index(goal)
	gScore[startIdx] = 0

	open := &openSet{}
	heap.Init(open)
	heap.Push(open, &openItem{pos: start, f: heuristic(start, goal), g: 0})

	expanded := 0
	for open.Len() > 0 {
		current := heap.Pop(open).(*openItem)
		cur := current.pos
		curIdx := g.index(cur)
		if current.g > gScore[curIdx] {
			continue
		}
		if curIdx == goalIdx {
			return behavior.Path{State: behavior.PathFound, Tiles: g.reconstruct(cameFrom, startIdx, goalIdx), Goal: goal}
		}
		expanded++
		if expanded > maxNodes {
			break
		}

		for _, nb := range g.neighbors(cur) {
			idx := g.index(nb)
			if layer.Blocked(nb) {
				continue
			}
			tentativeG := gScore[curIdx] + 1
			if tentativeG < gScore[idx] {
				cameFrom[idx] = curIdx
				gScore[idx] = tentativeG
				heap.Push(open, &openItem{pos: nb, f: tentativeG + heuristic(nb, goal), g: tentativeG})
			}
		}
	}
	return notFound
}

func (g *Grid) index(t common.Tile) int {
	return t.Y*g.width + t.X
}

func (g *Grid) reconstruct(cameFrom []int, startIdx, goalIdx int) []common.Tile {
	path := make([]common.Tile, 0, 32)
	cur := goalIdx
	for cur != -1 {
		path = append(path, common.Tile{X: cur % g.width, Y: cur / g.width})
		if cur == startIdx {
			break
		}
		cur = cameFrom[cur]
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (g *Grid) neighbors(p common.Tile) []common.Tile {
	out := make([]common.Tile, 0, 4)
	if p.X > 0 {
		out = append(out, p.Add(-1, 0))
	}
	if p.X < g.width-1 {
		out = append(out, p.Add(1, 0))
	}
	if p.Y > 0 {
		out = append(out, p.Add(0, -1))
	}
	if p.Y < g.height-1 {
		out = append(out, p.Add(0, 1))
	}
	return out
}

func heuristic(a, b common.Tile) float64 {
	return float64(common.Manhattan(a, b))
}

type openItem struct {
	pos   common.Tile
	f     float64
	g     float64
	index int
}

type openSet []*openItem

func (o openSet) Len() int           { return len(o) }
func (o openSet) Less(i, j int) bool { return o[i].f < o[j].f }
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x any) {
	item := x.(*openItem)
	item.index = len(*o)
	*o = append(*o, item)
}
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return item
}
