package pathing

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/aibehavior/behavior"
	"github.com/milk9111/aibehavior/common"
)

type FollowerConfig struct {
	TileSize float64
	// ArriveRadius is how close to a tile centre counts as being on it.
	ArriveRadius float64
	// MinProgress is the distance the owner must cover within StuckAfter
	// seconds to count as moving.
	MinProgress float64
	StuckAfter  float64
	// HardStuckAfter is the number of consecutive stuck windows before the
	// follower reports HardStuck. The count survives ResetPath and a new
	// Setup toward the same goal tile, so callers that drop the path on
	// every Stuck still escalate.
	HardStuckAfter int
}

func DefaultFollowerConfig(tileSize float64) FollowerConfig {
	return FollowerConfig{
		TileSize:       tileSize,
		ArriveRadius:   tileSize * 0.2,
		MinProgress:    tileSize * 0.1,
		StuckAfter:     0.75,
		HardStuckAfter: 3,
	}
}

// Follower steers its owner along a tile path, one tile centre at a time.
type Follower struct {
	cfg FollowerConfig

	owner     behavior.Actor
	obstacles behavior.ObstacleLayer
	path      behavior.Path
	next      int

	anchor     cp.Vector
	noProgress float64
	stuckCount int
	stuckGoal  common.Tile
}

func NewFollower(cfg FollowerConfig) *Follower {
	return &Follower{cfg: cfg}
}

func (f *Follower) Setup(owner behavior.Actor, path behavior.Path, obstacles behavior.ObstacleLayer) {
	f.ResetPath()
	if owner == nil || path.State != behavior.PathFound || len(path.Tiles) == 0 {
		f.stuckCount = 0
		return
	}
	if path.Goal != f.stuckGoal {
		f.stuckCount = 0
		f.stuckGoal = path.Goal
	}
	f.owner = owner
	f.obstacles = obstacles
	f.path = behavior.Path{State: path.State, Goal: path.Goal, Tiles: append([]common.Tile(nil), path.Tiles...)}
	if len(f.path.Tiles) > 1 && f.path.Tiles[0] == owner.Tile() {
		f.next = 1
	}
	f.anchor = owner.Position()
}

func (f *Follower) Follow(dt float64) behavior.FollowState {
	if !f.HasPath() {
		return behavior.FollowReached
	}
	mv := f.owner.Movement()
	pos := f.owner.Position()

	for f.next < len(f.path.Tiles) {
		center := common.TileCenter(f.path.Tiles[f.next], f.cfg.TileSize)
		if pos.DistanceSq(center) > f.cfg.ArriveRadius*f.cfg.ArriveRadius {
			break
		}
		f.next++
		f.noProgress = 0
		f.stuckCount = 0
		f.anchor = pos
	}
	if f.IsAtEndOfPath() {
		f.stuckCount = 0
		mv.Stop()
		return behavior.FollowReached
	}

	nextTile := f.path.Tiles[f.next]
	if f.obstacles != nil && f.obstacles.Blocked(nextTile) {
		mv.Stop()
		return behavior.FollowHardStuck
	}

	mv.MoveToward(common.TileCenter(nextTile, f.cfg.TileSize), dt)
	if mv.Immovable() {
		f.anchor = pos
		f.noProgress = 0
		return behavior.FollowFollowing
	}

	if pos.DistanceSq(f.anchor) >= f.cfg.MinProgress*f.cfg.MinProgress {
		f.anchor = pos
		f.noProgress = 0
		f.stuckCount = 0
		return behavior.FollowFollowing
	}
	f.noProgress += dt
	if f.noProgress < f.cfg.StuckAfter {
		return behavior.FollowFollowing
	}
	f.noProgress = 0
	f.stuckCount++
	if f.stuckCount >= f.cfg.HardStuckAfter {
		f.stuckCount = 0
		return behavior.FollowHardStuck
	}
	return behavior.FollowStuck
}

func (f *Follower) HasPath() bool {
	return f.owner != nil && f.path.State == behavior.PathFound && len(f.path.Tiles) > 0
}

func (f *Follower) IsAtEndOfPath() bool {
	return f.HasPath() && f.next >= len(f.path.Tiles)
}

// TargetTile is the goal the current path was computed for.
func (f *Follower) TargetTile() common.Tile {
	return f.path.Goal
}

// Remaining returns the tiles not yet reached.
func (f *Follower) Remaining() []common.Tile {
	if !f.HasPath() || f.next >= len(f.path.Tiles) {
		return nil
	}
	return f.path.Tiles[f.next:]
}

func (f *Follower) ResetPath() {
	f.owner = nil
	f.obstacles = nil
	f.path = behavior.Path{}
	f.next = 0
	f.noProgress = 0
}
