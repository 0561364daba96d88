package behavior

import (
	"math/rand"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/aibehavior/common"
)

const testTileSize = 16.0

func tileCenter(x, y int) cp.Vector {
	return common.TileCenter(common.Tile{X: x, Y: y}, testTileSize)
}

type fakeActor struct {
	id        uint64
	pos       cp.Vector
	floor     int
	alive     bool
	master    Actor
	mover     *fakeMover
	effects   *fakeEffects
	teleports int
}

func newFakeActor(id uint64, pos cp.Vector) *fakeActor {
	a := &fakeActor{id: id, pos: pos, alive: true, effects: &fakeEffects{}}
	a.mover = &fakeMover{actor: a, factor: 1}
	return a
}

func (a *fakeActor) ID() uint64          { return a.id }
func (a *fakeActor) Position() cp.Vector { return a.pos }
func (a *fakeActor) Tile() common.Tile   { return common.TileAt(a.pos, testTileSize) }
func (a *fakeActor) Floor() int          { return a.floor }
func (a *fakeActor) Alive() bool         { return a.alive }
func (a *fakeActor) Master() Actor       { return a.master }
func (a *fakeActor) Movement() Mover     { return a.mover }
func (a *fakeActor) Effects() EffectList { return a.effects }
func (a *fakeActor) Teleport(pos cp.Vector, floor int) {
	a.pos = pos
	a.floor = floor
	a.teleports++
}

type fakeMover struct {
	actor       *fakeActor
	speed       float64
	factor      float64
	immovable   bool
	moves       int
	stops       int
	speedResets int
	lastTarget  cp.Vector
}

func (m *fakeMover) MoveToward(target cp.Vector, dt float64) {
	m.moves++
	m.lastTarget = target
	if m.immovable || m.speed <= 0 {
		return
	}
	m.actor.pos = common.StepToward(m.actor.pos, target, m.speed*m.factor*dt)
}
func (m *fakeMover) Stop()                    { m.stops++ }
func (m *fakeMover) SetSpeedFactor(f float64) { m.factor = f }
func (m *fakeMover) ResetSpeed() {
	m.factor = 1
	m.speedResets++
}
func (m *fakeMover) SetImmovable(v bool) { m.immovable = v }
func (m *fakeMover) Immovable() bool     { return m.immovable }

type fakeEffects struct {
	auras []*Aura
}

func (e *fakeEffects) Add(a *Aura) {
	if !e.Has(a) {
		e.auras = append(e.auras, a)
	}
}

func (e *fakeEffects) Remove(a *Aura) bool {
	for i, cur := range e.auras {
		if cur == a {
			e.auras = append(e.auras[:i], e.auras[i+1:]...)
			return true
		}
	}
	return false
}

func (e *fakeEffects) Has(a *Aura) bool {
	for _, cur := range e.auras {
		if cur == a {
			return true
		}
	}
	return false
}

// fakeFollower replays scripted follow results and counts path setups.
type fakeFollower struct {
	setups int
	resets int
	has    bool
	goal   common.Tile
	script []FollowState
	next   FollowState
}

func (f *fakeFollower) Setup(_ Actor, path Path, _ ObstacleLayer) {
	f.setups++
	f.has = true
	f.goal = path.Goal
}

func (f *fakeFollower) Follow(float64) FollowState {
	if len(f.script) > 0 {
		st := f.script[0]
		f.script = f.script[1:]
		return st
	}
	return f.next
}

func (f *fakeFollower) HasPath() bool           { return f.has }
func (f *fakeFollower) IsAtEndOfPath() bool     { return false }
func (f *fakeFollower) TargetTile() common.Tile { return f.goal }
func (f *fakeFollower) ResetPath() {
	f.resets++
	f.has = false
}

type fakeSearcher struct {
	unreachable bool
	calls       int
}

func (s *fakeSearcher) FindPath(start, goal common.Tile, _ Actor, _ ObstacleLayer) Path {
	s.calls++
	if s.unreachable {
		return Path{State: PathNotFound, Goal: goal}
	}
	return Path{State: PathFound, Tiles: []common.Tile{start, goal}, Goal: goal}
}

type fakeScene struct {
	target   Actor
	searcher *fakeSearcher
	blocked  map[common.Tile]bool
}

func (s *fakeScene) Target(Actor) Actor          { return s.target }
func (s *fakeScene) Searcher(int) PathSearcher   { return s.searcher }
func (s *fakeScene) Obstacles(int) ObstacleLayer { return s }
func (s *fakeScene) TileSize() float64           { return testTileSize }
func (s *fakeScene) Blocked(t common.Tile) bool  { return s.blocked[t] }

type fakeProjectile struct {
	inFlight bool
}

func (p *fakeProjectile) InFlight() bool { return p.inFlight }

type fakeLauncher struct {
	shots []*fakeProjectile
}

func (l *fakeLauncher) Launch(_, _ Actor, _ AttackSettings) Projectile {
	p := &fakeProjectile{inFlight: true}
	l.shots = append(l.shots, p)
	return p
}

type harness struct {
	env       *Env
	scene     *fakeScene
	searcher  *fakeSearcher
	launcher  *fakeLauncher
	followers []*fakeFollower
	owner     *fakeActor
	player    *fakeActor
}

// newHarness puts the owner at tile (0,0) and a live player at tile (10,0).
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		searcher: &fakeSearcher{},
		launcher: &fakeLauncher{},
		owner:    newFakeActor(1, tileCenter(0, 0)),
		player:   newFakeActor(2, tileCenter(10, 0)),
	}
	h.scene = &fakeScene{target: h.player, searcher: h.searcher, blocked: map[common.Tile]bool{}}
	h.env = &Env{
		Scene:    h.scene,
		Events:   NewHub(),
		Launcher: h.launcher,
		NewFollower: func() PathFollower {
			f := &fakeFollower{}
			h.followers = append(h.followers, f)
			return f
		},
		Rand: rand.New(rand.NewSource(1)),
	}
	return h
}

// follower returns the i-th follower handed out, in construction order.
func (h *harness) follower(t *testing.T, i int) *fakeFollower {
	t.Helper()
	if i >= len(h.followers) {
		t.Fatalf("follower %d not created (have %d)", i, len(h.followers))
	}
	return h.followers[i]
}

func (h *harness) stateChanges(kind Kind) *[]Event {
	var got []Event
	h.env.Events.Subscribe(EventStateChanged, nil, func(ev Event) {
		if ev.Behavior == kind {
			got = append(got, ev)
		}
	})
	return &got
}
