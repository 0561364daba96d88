package behavior

import (
	"log"
	"math/rand"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/aibehavior/common"
)

// Actor is the entity a behavior is bound to, and also what perception
// hands back as a target or master.
type Actor interface {
	ID() uint64
	Position() cp.Vector
	Tile() common.Tile
	Floor() int
	Alive() bool
	// Master is the actor this one belongs to (a companion's owner), or nil.
	Master() Actor
	Teleport(pos cp.Vector, floor int)
	Movement() Mover
	Effects() EffectList
}

// Mover is the actor's movement component.
type Mover interface {
	MoveToward(target cp.Vector, dt float64)
	Stop()
	// SetSpeedFactor scales the base speed; 1 is the base speed.
	SetSpeedFactor(f float64)
	ResetSpeed()
	SetImmovable(immovable bool)
	Immovable() bool
}

// Aura is a named speed modifier attached to an actor's stat component.
// Identity is by pointer: each behavior instance owns its auras.
type Aura struct {
	Name       string
	SpeedBonus float64 // percent
}

// EffectList is the actor's attachable-modifier list. Remove of an aura that
// is not attached is a no-op.
type EffectList interface {
	Add(a *Aura)
	Remove(a *Aura) bool
	Has(a *Aura) bool
}

// ObstacleLayer answers whether a tile on one floor is blocked.
type ObstacleLayer interface {
	Blocked(t common.Tile) bool
}

type PathState uint8

const (
	PathNotFound PathState = iota
	PathFound
)

// Path is a search result. Tiles runs from the start tile to Goal inclusive.
type Path struct {
	State PathState
	Tiles []common.Tile
	Goal  common.Tile
}

// PathSearcher is the per-floor tile-path search service.
type PathSearcher interface {
	FindPath(start, goal common.Tile, mover Actor, obstacles ObstacleLayer) Path
}

type FollowState uint8

const (
	FollowFollowing FollowState = iota
	FollowReached
	FollowStuck
	FollowHardStuck
)

func (s FollowState) String() string {
	switch s {
	case FollowFollowing:
		return "following"
	case FollowReached:
		return "reached"
	case FollowStuck:
		return "stuck"
	case FollowHardStuck:
		return "hard_stuck"
	default:
		return "unknown"
	}
}

// PathFollower is the path-follow client: one in-progress path per
// instance, advanced incrementally by Follow.
type PathFollower interface {
	Setup(owner Actor, path Path, obstacles ObstacleLayer)
	Follow(dt float64) FollowState
	HasPath() bool
	IsAtEndOfPath() bool
	TargetTile() common.Tile
	ResetPath()
}

// Scene is the perception and map query surface behaviors consult.
type Scene interface {
	// Target returns the hostile target owner should react to, or nil.
	Target(owner Actor) Actor
	Searcher(floor int) PathSearcher
	Obstacles(floor int) ObstacleLayer
	TileSize() float64
}

// Projectile is a fired ranged attack.
type Projectile interface {
	InFlight() bool
}

type Launcher interface {
	Launch(shooter, target Actor, attack AttackSettings) Projectile
}

// Env bundles the collaborators shared by every behavior in a scene.
// Behaviors keep a pointer to it; it is never cloned.
type Env struct {
	Scene       Scene
	Events      *Hub
	Launcher    Launcher
	NewFollower func() PathFollower
	// Factory resolves serialized children; DefaultFactory is used when nil.
	Factory *Factory
	Rand    *rand.Rand
	Debug   bool
}

func (e *Env) logf(format string, args ...any) {
	if e == nil || !e.Debug {
		return
	}
	log.Printf("ai: "+format, args...)
}

func (e *Env) follower() PathFollower {
	if e.NewFollower == nil {
		return nil
	}
	return e.NewFollower()
}

func (e *Env) float64() float64 {
	if e.Rand == nil {
		return rand.Float64()
	}
	return e.Rand.Float64()
}

// between returns a uniform value in [lo, hi].
func (e *Env) between(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + e.float64()*(hi-lo)
}

func alive(a Actor) bool {
	return a != nil && a.Alive()
}

// intn returns a uniform int in [0, n).
func (e *Env) intn(n int) int {
	if n <= 0 {
		return 0
	}
	if e.Rand == nil {
		return rand.Intn(n)
	}
	return e.Rand.Intn(n)
}
