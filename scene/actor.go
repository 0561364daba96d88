package scene

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/aibehavior/behavior"
	"github.com/milk9111/aibehavior/common"
	"github.com/milk9111/aibehavior/prefabs"
)

// Actor is a scene entity: a kinematic body on one floor, its stats and
// movement, and an optional top-level behavior.
type Actor struct {
	id      uint64
	name    string
	spec    *prefabs.ActorSpec
	scene   *Scene
	body    *cp.Body
	floor   int
	alive   bool
	hostile bool
	master  *Actor
	stats   *Stats
	mover   *Mover
	brain   behavior.Behavior
	hits    int
}

func (a *Actor) ID() uint64                   { return a.id }
func (a *Actor) Name() string                 { return a.name }
func (a *Actor) Spec() *prefabs.ActorSpec     { return a.spec }
func (a *Actor) Position() cp.Vector          { return a.body.Position() }
func (a *Actor) Tile() common.Tile            { return common.TileAt(a.body.Position(), a.scene.tileSize) }
func (a *Actor) Floor() int                   { return a.floor }
func (a *Actor) Alive() bool                  { return a.alive }
func (a *Actor) Hostile() bool                { return a.hostile }
func (a *Actor) Movement() behavior.Mover     { return a.mover }
func (a *Actor) Mover() *Mover                { return a.mover }
func (a *Actor) Effects() behavior.EffectList { return a.stats }
func (a *Actor) Stats() *Stats                { return a.stats }
func (a *Actor) Behavior() behavior.Behavior  { return a.brain }
func (a *Actor) Radius() float64              { return a.spec.Radius }

// Hits counts projectiles that struck this actor.
func (a *Actor) Hits() int { return a.hits }

func (a *Actor) String() string {
	return fmt.Sprintf("%s#%d", a.name, a.id)
}

func (a *Actor) Master() behavior.Actor {
	if a.master == nil {
		return nil
	}
	return a.master
}

// Teleport moves the actor instantly. Changing floor publishes
// EventFloorChanged.
func (a *Actor) Teleport(pos cp.Vector, floor int) {
	a.body.SetPosition(pos)
	a.body.SetVelocity(0, 0)
	if floor == a.floor {
		return
	}
	a.floor = floor
	a.scene.hub.Publish(behavior.Event{Kind: behavior.EventFloorChanged, Actor: a, Floor: floor})
}

// SetBehavior swaps the actor's top-level behavior, leaving the old one and
// entering the new one.
// SetBehavior swaps the actor's behavior. A movement lock held by the old
// behavior is dropped with it, since nothing would count it down.
func (a *Actor) SetBehavior(b behavior.Behavior) {
	if a.brain != nil {
		a.brain.Leave()
		a.mover.SetImmovable(false)
	}
	a.brain = b
	if b != nil && a.alive {
		b.Enter()
	}
}

// Kill stops the actor's behavior and drops it from targeting.
func (a *Actor) Kill() {
	if !a.alive {
		return
	}
	a.alive = false
	if a.brain != nil {
		a.brain.Leave()
	}
	a.mover.Stop()
}
