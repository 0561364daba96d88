package behavior

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/aibehavior/common"
	"github.com/milk9111/aibehavior/persist"
)

const companionVersion uint16 = 1

// CompanionRegime is the movement mode chosen on the last update.
type CompanionRegime uint8

const (
	RegimeIdle CompanionRegime = iota
	RegimeDirect
	RegimePathing
	RegimeTeleport
)

func (r CompanionRegime) String() string {
	switch r {
	case RegimeDirect:
		return "direct"
	case RegimePathing:
		return "pathing"
	case RegimeTeleport:
		return "teleport"
	default:
		return "idle"
	}
}

type CompanionConfig struct {
	DirectDistance   float64 `yaml:"direct_distance"`   // world units; closer than this steers directly
	TeleportDistance float64 `yaml:"teleport_distance"` // world units; farther than this teleports
	PositionRefresh  float64 `yaml:"position_refresh"`  // seconds between samples of the master position
	OffsetRefresh    float64 `yaml:"offset_refresh"`    // seconds between new wander offsets
	OffsetStrength   float64 `yaml:"offset_strength"`   // world units; offset is drawn from [-s, s] per axis
	MaxSpeedFactor   float64 `yaml:"max_speed_factor"`  // cap on catch-up speed scaling
}

func DefaultCompanionConfig() CompanionConfig {
	return CompanionConfig{
		DirectDistance:   48,
		TeleportDistance: 320,
		PositionRefresh:  0.25,
		OffsetRefresh:    1.5,
		OffsetStrength:   16,
		MaxSpeedFactor:   2.5,
	}
}

func (c CompanionConfig) Validate() error {
	if c.DirectDistance <= 0 {
		return invalidf("companion: direct distance must be positive, got %v", c.DirectDistance)
	}
	if c.TeleportDistance <= c.DirectDistance {
		return invalidf("companion: teleport distance %v must exceed direct distance %v", c.TeleportDistance, c.DirectDistance)
	}
	if c.PositionRefresh <= 0 || c.OffsetRefresh <= 0 {
		return invalidf("companion: refresh intervals must be positive, got %v and %v", c.PositionRefresh, c.OffsetRefresh)
	}
	if c.OffsetStrength < 0 {
		return invalidf("companion: offset strength must not be negative, got %v", c.OffsetStrength)
	}
	if c.MaxSpeedFactor < 1 {
		return invalidf("companion: max speed factor must be at least 1, got %v", c.MaxSpeedFactor)
	}
	return nil
}

// CompanionFollowBehavior keeps a companion near its master: it drifts
// around a jittered point when close, paths when behind, and teleports when
// hopelessly far or on another floor.
type CompanionFollowBehavior struct {
	owner Actor
	env   *Env
	cfg   CompanionConfig

	active               bool
	regime               CompanionRegime
	targetEntityPosition cp.Vector
	targetOffset         cp.Vector
	targetPosition       cp.Vector
	targetTilePosition   common.Tile
	lastTargetTile       common.Tile
	positionTimer        float64
	offsetTimer          float64

	nav  navigator
	subs subscriptions
}

func NewCompanionFollow(owner Actor, env *Env, cfg CompanionConfig) (*CompanionFollowBehavior, error) {
	if err := requireOwner(owner, env); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CompanionFollowBehavior{owner: owner, env: env, cfg: cfg, nav: newNavigator(env, owner)}, nil
}

func (f *CompanionFollowBehavior) Kind() Kind                      { return KindCompanionFollow }
func (f *CompanionFollowBehavior) IsActive() bool                  { return f.active }
func (f *CompanionFollowBehavior) Config() CompanionConfig         { return f.cfg }
func (f *CompanionFollowBehavior) Regime() CompanionRegime         { return f.regime }
func (f *CompanionFollowBehavior) TargetPosition() cp.Vector       { return f.targetPosition }
func (f *CompanionFollowBehavior) TargetOffset() cp.Vector         { return f.targetOffset }
func (f *CompanionFollowBehavior) TargetTile() common.Tile         { return f.targetTilePosition }
func (f *CompanionFollowBehavior) LastPathTargetTile() common.Tile { return f.lastTargetTile }

func (f *CompanionFollowBehavior) Enter() {
	if f.active {
		return
	}
	f.active = true
	f.regime = RegimeIdle
	master := f.owner.Master()
	if alive(master) {
		f.refreshTargetPosition(master)
	}
	f.refreshOffset()
	f.updateTarget()

	if hub := f.env.Events; hub != nil && master != nil {
		f.subs.add(hub.Subscribe(EventFloorChanged, master, func(Event) { f.positionTimer = 0 }))
	}
}

func (f *CompanionFollowBehavior) Leave() {
	if !f.active {
		return
	}
	f.active = false
	f.regime = RegimeIdle
	f.nav.reset()
	mv := f.owner.Movement()
	mv.ResetSpeed()
	mv.Stop()
	f.subs.releaseAll()
}

func (f *CompanionFollowBehavior) Reset() {
	f.nav.reset()
	f.positionTimer = 0
	f.offsetTimer = 0
	f.targetOffset = cp.Vector{}
}

func (f *CompanionFollowBehavior) Clone(owner Actor) (Behavior, error) {
	return NewCompanionFollow(owner, f.env, f.cfg)
}

func (f *CompanionFollowBehavior) Update(dt float64) {
	if !f.active {
		return
	}
	master := f.owner.Master()
	if !alive(master) {
		f.regime = RegimeIdle
		f.owner.Movement().Stop()
		return
	}

	f.positionTimer -= dt
	if expired(f.positionTimer) {
		f.refreshTargetPosition(master)
	}
	f.offsetTimer -= dt
	if expired(f.offsetTimer) {
		f.refreshOffset()
	}
	f.updateTarget()

	mv := f.owner.Movement()
	d2 := f.owner.Position().DistanceSq(master.Position())
	switch {
	case master.Floor() != f.owner.Floor() || d2 > f.cfg.TeleportDistance*f.cfg.TeleportDistance:
		f.teleport(master)
	case d2 <= f.cfg.DirectDistance*f.cfg.DirectDistance:
		f.regime = RegimeDirect
		f.nav.reset()
		mv.ResetSpeed()
		mv.MoveToward(f.targetPosition, dt)
	default:
		f.regime = RegimePathing
		f.follow(master, d2, dt)
	}
}

func (f *CompanionFollowBehavior) teleport(master Actor) {
	f.regime = RegimeTeleport
	f.env.logf("entity=%d companion: teleport to master %d", f.owner.ID(), master.ID())
	f.owner.Teleport(master.Position(), master.Floor())
	mv := f.owner.Movement()
	mv.Stop()
	mv.ResetSpeed()
	f.nav.reset()
	f.refreshTargetPosition(master)
	f.refreshOffset()
	f.updateTarget()
}

func (f *CompanionFollowBehavior) follow(master Actor, d2, dt float64) {
	mv := f.owner.Movement()
	goal := common.TileAt(master.Position(), f.env.Scene.TileSize())
	res := f.nav.moveTo(goal, dt)
	f.lastTargetTile = goal

	if res == NavNotFound {
		f.targetOffset = cp.Vector{}
		f.targetEntityPosition = master.Position()
		f.updateTarget()
		mv.MoveToward(f.targetPosition, dt)
		return
	}

	mv.SetSpeedFactor(common.Clamp(math.Sqrt(d2)/f.cfg.DirectDistance, 1, f.cfg.MaxSpeedFactor))
	if res != NavFollowing {
		f.nav.reset()
	}
}

func (f *CompanionFollowBehavior) refreshTargetPosition(master Actor) {
	f.targetEntityPosition = master.Position()
	f.positionTimer = f.cfg.PositionRefresh
}

func (f *CompanionFollowBehavior) refreshOffset() {
	s := f.cfg.OffsetStrength
	f.targetOffset = cp.Vector{X: (2*f.env.float64() - 1) * s, Y: (2*f.env.float64() - 1) * s}
	f.offsetTimer = f.cfg.OffsetRefresh
}

func (f *CompanionFollowBehavior) updateTarget() {
	f.targetPosition = f.targetEntityPosition.Add(f.targetOffset)
	f.targetTilePosition = common.TileAt(f.targetPosition, f.env.Scene.TileSize())
}

func (f *CompanionFollowBehavior) Serialize(w *persist.Writer) error {
	w.WriteVersion(companionVersion)
	w.WriteFloat64(f.cfg.DirectDistance)
	w.WriteFloat64(f.cfg.TeleportDistance)
	w.WriteFloat64(f.cfg.PositionRefresh)
	w.WriteFloat64(f.cfg.OffsetRefresh)
	w.WriteFloat64(f.cfg.OffsetStrength)
	w.WriteFloat64(f.cfg.MaxSpeedFactor)
	return w.Err()
}

func (f *CompanionFollowBehavior) Deserialize(r *persist.Reader) error {
	if err := r.ExpectVersion("CompanionFollowBehavior", companionVersion); err != nil {
		return err
	}
	cfg := CompanionConfig{
		DirectDistance:   r.ReadFloat64(),
		TeleportDistance: r.ReadFloat64(),
		PositionRefresh:  r.ReadFloat64(),
		OffsetRefresh:    r.ReadFloat64(),
		OffsetStrength:   r.ReadFloat64(),
		MaxSpeedFactor:   r.ReadFloat64(),
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("behavior: read CompanionFollowBehavior: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.cfg = cfg
	return nil
}
