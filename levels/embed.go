// Package levels holds the embedded level files. Each layer is one floor:
// a row-major Width*Height grid where a non-zero cell is a wall.
package levels

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed *.json
var LevelsFS embed.FS

type Level struct {
	Name      string      `json:"name"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	TileSize  float64     `json:"tile_size"`
	Layers    [][]int     `json:"layers"`
	LayerMeta []LayerMeta `json:"layer_meta,omitempty"`
	Entities  []Entity    `json:"entities,omitempty"`
}

type LayerMeta struct {
	Name string `json:"name"`
}

// Entity is a spawn point. Type names an actor template in prefabs.
type Entity struct {
	Type  string                 `json:"type"`
	X     int                    `json:"x"`
	Y     int                    `json:"y"`
	Props map[string]interface{} `json:"props,omitempty"`
}

// Floor is the layer the entity spawns on; 0 when unset.
func (e Entity) Floor() int {
	if v, ok := e.Props["floor"].(float64); ok {
		return int(v)
	}
	return 0
}

// ID is the name other entities use to refer to this one.
func (e Entity) ID() string {
	if v, ok := e.Props["id"].(string); ok {
		return v
	}
	return ""
}

// Master is the ID of the entity this one follows, if any.
func (e Entity) Master() string {
	if v, ok := e.Props["master"].(string); ok {
		return v
	}
	return ""
}

func (l *Level) Floors() int {
	return len(l.Layers)
}

// Wall reports whether the cell at (x, y) on floor is a wall. Cells outside
// the level are walls.
func (l *Level) Wall(floor, x, y int) bool {
	if floor < 0 || floor >= len(l.Layers) || x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return true
	}
	return l.Layers[floor][y*l.Width+x] != 0
}

func (l *Level) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("levels: %s: size %dx%d is invalid", l.Name, l.Width, l.Height)
	}
	if l.TileSize <= 0 {
		return fmt.Errorf("levels: %s: tile size must be positive", l.Name)
	}
	if len(l.Layers) == 0 {
		return fmt.Errorf("levels: %s: no floors", l.Name)
	}
	for i, layer := range l.Layers {
		if len(layer) != l.Width*l.Height {
			return fmt.Errorf("levels: %s: floor %d has %d cells, expected %d", l.Name, i, len(layer), l.Width*l.Height)
		}
	}
	ids := map[string]bool{}
	for i, e := range l.Entities {
		if e.Type == "" {
			return fmt.Errorf("levels: %s: entity %d has no type", l.Name, i)
		}
		if l.Wall(e.Floor(), e.X, e.Y) {
			return fmt.Errorf("levels: %s: entity %d (%s) spawns inside a wall at %d,%d floor %d", l.Name, i, e.Type, e.X, e.Y, e.Floor())
		}
		if id := e.ID(); id != "" {
			ids[id] = true
		}
	}
	for i, e := range l.Entities {
		if m := e.Master(); m != "" && !ids[m] {
			return fmt.Errorf("levels: %s: entity %d (%s) has unknown master %q", l.Name, i, e.Type, m)
		}
	}
	return nil
}

// Load reads a level from disk when name is a path to an existing file,
// otherwise from the embedded set.
func Load(name string) (*Level, error) {
	if data, err := os.ReadFile(name); err == nil {
		return decode(name, data)
	}
	return LoadLevelFromFS(name)
}

func LoadLevelFromFS(name string) (*Level, error) {
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	data, err := fs.ReadFile(LevelsFS, filepath.ToSlash(filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("levels: read %s: %w", name, err)
	}
	return decode(name, data)
}

func decode(name string, data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("levels: unmarshal %s: %w", name, err)
	}
	if lvl.Name == "" {
		lvl.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}
