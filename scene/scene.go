// Package scene runs behaviors against a level: floors, actors with
// kinematic bodies in a cp.Space, projectiles and the event hub.
package scene

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/aibehavior/behavior"
	"github.com/milk9111/aibehavior/common"
	"github.com/milk9111/aibehavior/levels"
	"github.com/milk9111/aibehavior/pathing"
	"github.com/milk9111/aibehavior/prefabs"
)

var (
	ErrBadFloor     = errors.New("scene: floor out of range")
	ErrBlockedSpawn = errors.New("scene: tile is blocked")
)

type Config struct {
	Debug bool
	Seed  int64
}

type Scene struct {
	level    *levels.Level
	tileSize float64
	floors   []*pathing.Grid
	space    *cp.Space

	actors      []*Actor
	byID        map[uint64]*Actor
	player      *Actor
	projectiles []*Projectile
	nextID      uint64

	hub *behavior.Hub
	env *behavior.Env
	cfg Config
}

// New builds an empty scene over lvl's floors.
func New(lvl *levels.Level, cfg Config) (*Scene, error) {
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	s := &Scene{
		level:    lvl,
		tileSize: lvl.TileSize,
		space:    cp.NewSpace(),
		byID:     map[uint64]*Actor{},
		hub:      behavior.NewHub(),
		cfg:      cfg,
	}
	for f := 0; f < lvl.Floors(); f++ {
		g := pathing.NewGrid(lvl.Width, lvl.Height)
		for y := 0; y < lvl.Height; y++ {
			for x := 0; x < lvl.Width; x++ {
				if lvl.Wall(f, x, y) {
					g.SetBlocked(common.Tile{X: x, Y: y}, true)
				}
			}
		}
		s.floors = append(s.floors, g)
	}

	followerCfg := pathing.DefaultFollowerConfig(s.tileSize)
	s.env = &behavior.Env{
		Scene:       s,
		Events:      s.hub,
		Launcher:    s,
		NewFollower: func() behavior.PathFollower { return pathing.NewFollower(followerCfg) },
		Rand:        rand.New(rand.NewSource(cfg.Seed)),
		Debug:       cfg.Debug,
	}
	s.env.Factory = behavior.DefaultFactory(s.env)
	return s, nil
}

// Load builds a scene and spawns every entity of lvl. Behaviors are entered
// once all actors exist so companions see their masters.
func Load(lvl *levels.Level, cfg Config) (*Scene, error) {
	s, err := New(lvl, cfg)
	if err != nil {
		return nil, err
	}
	named := map[string]*Actor{}
	spawned := make([]*Actor, 0, len(lvl.Entities))
	for i, e := range lvl.Entities {
		spec, err := prefabs.LoadActorSpec(e.Type)
		if err != nil {
			return nil, fmt.Errorf("scene: entity %d: %w", i, err)
		}
		a, err := s.spawn(spec, common.Tile{X: e.X, Y: e.Y}, e.Floor())
		if err != nil {
			return nil, fmt.Errorf("scene: entity %d: %w", i, err)
		}
		if id := e.ID(); id != "" {
			named[id] = a
		}
		spawned = append(spawned, a)
	}
	for i, e := range lvl.Entities {
		if m := e.Master(); m != "" {
			spawned[i].master = named[m]
		}
	}
	for _, a := range spawned {
		if err := s.attachBehavior(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Spawn creates an actor from a template and starts its behavior.
func (s *Scene) Spawn(spec *prefabs.ActorSpec, tile common.Tile, floor int, master *Actor) (*Actor, error) {
	a, err := s.spawn(spec, tile, floor)
	if err != nil {
		return nil, err
	}
	a.master = master
	if err := s.attachBehavior(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Scene) spawn(spec *prefabs.ActorSpec, tile common.Tile, floor int) (*Actor, error) {
	if floor < 0 || floor >= len(s.floors) {
		return nil, fmt.Errorf("%w: %d", ErrBadFloor, floor)
	}
	if s.floors[floor].Blocked(tile) {
		return nil, fmt.Errorf("%w: %v on floor %d", ErrBlockedSpawn, tile, floor)
	}
	s.nextID++
	body := s.space.AddBody(cp.NewKinematicBody())
	body.SetPosition(common.TileCenter(tile, s.tileSize))

	stats := &Stats{}
	a := &Actor{
		id:      s.nextID,
		name:    spec.Name,
		spec:    spec,
		scene:   s,
		body:    body,
		floor:   floor,
		alive:   true,
		hostile: spec.Hostile,
		stats:   stats,
		mover:   newMover(body, stats, spec.Speed),
	}
	body.UserData = a

	radius := spec.Radius
	if radius <= 0 {
		radius = s.tileSize / 2
	}
	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetSensor(true)
	shape.UserData = a
	s.space.AddShape(shape)

	s.actors = append(s.actors, a)
	s.byID[a.id] = a
	if spec.Name == "player" && s.player == nil {
		s.player = a
	}
	return a, nil
}

func (s *Scene) attachBehavior(a *Actor) error {
	if a.spec.Behavior.Empty() {
		return nil
	}
	b, err := behavior.Build(a.spec.Behavior, a, s.env)
	if err != nil {
		return fmt.Errorf("scene: build %s behavior: %w", a, err)
	}
	a.SetBehavior(b)
	return nil
}

// ReloadTemplate rebuilds the behavior of every actor spawned from the named
// template. It returns how many actors were updated.
func (s *Scene) ReloadTemplate(name string) (int, error) {
	spec, err := prefabs.LoadActorSpec(name)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, a := range s.actors {
		if a.name != spec.Name || !a.alive {
			continue
		}
		a.spec = spec
		a.hostile = spec.Hostile
		a.mover.base = spec.Speed
		if spec.Behavior.Empty() {
			a.SetBehavior(nil)
		} else if err := s.attachBehavior(a); err != nil {
			return n, err
		}
		n++
	}
	if s.cfg.Debug {
		log.Printf("scene: reloaded %s on %d actors", name, n)
	}
	return n, nil
}

// Update advances one frame: behaviors in spawn order, then projectiles,
// then the physics step. Velocities are cleared afterwards.
func (s *Scene) Update(dt float64) {
	for _, a := range s.actors {
		if a.alive && a.brain != nil {
			a.brain.Update(dt)
		}
	}
	s.updateProjectiles(dt)

	prev := make([]cp.Vector, len(s.actors))
	for i, a := range s.actors {
		prev[i] = a.body.Position()
	}
	s.space.Step(dt)
	for i, a := range s.actors {
		s.resolveWalls(a, prev[i])
		a.body.SetVelocity(0, 0)
	}
}

// resolveWalls keeps an actor out of wall tiles, sliding along whichever
// axis is still free.
func (s *Scene) resolveWalls(a *Actor, prev cp.Vector) {
	pos := a.body.Position()
	if !s.Blocked(a.floor, common.TileAt(pos, s.tileSize)) {
		return
	}
	for _, c := range []cp.Vector{{X: pos.X, Y: prev.Y}, {X: prev.X, Y: pos.Y}, prev} {
		if !s.Blocked(a.floor, common.TileAt(c, s.tileSize)) {
			a.body.SetPosition(c)
			return
		}
	}
	a.body.SetPosition(prev)
}

// MovePlayer steers the player along dir for the next frame.
func (s *Scene) MovePlayer(dir cp.Vector) {
	if s.player == nil || !s.player.alive {
		return
	}
	s.player.mover.Steer(dir)
}

// ChangeFloor moves a onto another floor at the same position.
func (s *Scene) ChangeFloor(a *Actor, floor int) error {
	if floor < 0 || floor >= len(s.floors) {
		return fmt.Errorf("%w: %d", ErrBadFloor, floor)
	}
	if s.floors[floor].Blocked(a.Tile()) {
		return fmt.Errorf("%w: %v on floor %d", ErrBlockedSpawn, a.Tile(), floor)
	}
	a.Teleport(a.Position(), floor)
	return nil
}

// Attack makes attacker hit the nearest hostile actor within reach on its
// floor. It returns the victim, or nil when nothing was in reach.
func (s *Scene) Attack(attacker *Actor, reach float64) *Actor {
	var best *Actor
	bestD := reach * reach
	for _, a := range s.actors {
		if a == attacker || !a.alive || !a.hostile || a.floor != attacker.floor {
			continue
		}
		if d := a.Position().DistanceSq(attacker.Position()); d <= bestD {
			best, bestD = a, d
		}
	}
	if best == nil {
		return nil
	}
	s.hub.Publish(behavior.Event{Kind: behavior.EventAttacked, Actor: best, Source: attacker})
	return best
}

// ActorAt returns the live actor on floor whose shape is closest to pos,
// looking no farther than maxDist from its edge. It returns nil when none is.
func (s *Scene) ActorAt(pos cp.Vector, floor int, maxDist float64) *Actor {
	var best *Actor
	bestD := math.Inf(1)
	s.space.PointQuery(pos, maxDist, cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, _ cp.Vector, d float64, _ cp.Vector, _ interface{}) {
		a, ok := shape.UserData.(*Actor)
		if !ok || !a.alive || a.floor != floor {
			return
		}
		if d < bestD {
			best, bestD = a, d
		}
	}, nil)
	return best
}

// Target is the player for hostile actors and nothing for everyone else.
func (s *Scene) Target(owner behavior.Actor) behavior.Actor {
	a := s.lookup(owner.ID())
	if a == nil || !a.hostile || s.player == nil {
		return nil
	}
	return s.player
}

func (s *Scene) Searcher(floor int) behavior.PathSearcher {
	if floor < 0 || floor >= len(s.floors) {
		return nil
	}
	return s.floors[floor]
}

func (s *Scene) Obstacles(floor int) behavior.ObstacleLayer {
	if floor < 0 || floor >= len(s.floors) {
		return nil
	}
	return s.floors[floor]
}

func (s *Scene) Blocked(floor int, t common.Tile) bool {
	if floor < 0 || floor >= len(s.floors) {
		return true
	}
	return s.floors[floor].Blocked(t)
}

func (s *Scene) TileSize() float64          { return s.tileSize }
func (s *Scene) Level() *levels.Level       { return s.level }
func (s *Scene) Floors() int                { return len(s.floors) }
func (s *Scene) Player() *Actor             { return s.player }
func (s *Scene) Hub() *behavior.Hub         { return s.hub }
func (s *Scene) Env() *behavior.Env         { return s.env }
func (s *Scene) Factory() *behavior.Factory { return s.env.Factory }
func (s *Scene) Projectiles() []*Projectile { return s.projectiles }
func (s *Scene) Space() *cp.Space           { return s.space }

// Actors returns the actors in spawn order.
func (s *Scene) Actors() []*Actor {
	return append([]*Actor(nil), s.actors...)
}

func (s *Scene) lookup(id uint64) *Actor {
	return s.byID[id]
}
