package behavior

import (
	"fmt"

	"github.com/milk9111/aibehavior/common"
	"github.com/milk9111/aibehavior/persist"
)

const (
	wanderVersion      uint16 = 1
	wanderPickAttempts        = 8
)

type WanderConfig struct {
	Radius     int     `yaml:"radius"`      // tiles (Manhattan) around the origin
	PauseMin   float64 `yaml:"pause_min"`   // seconds
	PauseMax   float64 `yaml:"pause_max"`   // seconds
	SightRange float64 `yaml:"sight_range"` // world units; 0 never spots
}

func DefaultWanderConfig() WanderConfig {
	return WanderConfig{Radius: 4, PauseMin: 0.5, PauseMax: 2, SightRange: 96}
}

func (c WanderConfig) Validate() error {
	if c.Radius < 0 {
		return invalidf("wander: radius must not be negative, got %d", c.Radius)
	}
	if c.PauseMin < 0 || c.PauseMax < c.PauseMin {
		return invalidf("wander: pause range [%v, %v] is invalid", c.PauseMin, c.PauseMax)
	}
	if c.SightRange < 0 {
		return invalidf("wander: sight range must not be negative, got %v", c.SightRange)
	}
	return nil
}

// RandomWanderBehavior strolls between random tiles near its origin and
// keeps watch for the scene target.
type RandomWanderBehavior struct {
	owner Actor
	env   *Env
	cfg   WanderConfig

	active    bool
	origin    common.Tile
	pauseLeft float64
	walking   bool
	goal      common.Tile
	spotted   bool
	nav       navigator
}

func NewRandomWander(owner Actor, env *Env, cfg WanderConfig) (*RandomWanderBehavior, error) {
	if err := requireOwner(owner, env); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RandomWanderBehavior{owner: owner, env: env, cfg: cfg, nav: newNavigator(env, owner)}, nil
}

func (w *RandomWanderBehavior) Kind() Kind           { return KindRandomWander }
func (w *RandomWanderBehavior) IsActive() bool       { return w.active }
func (w *RandomWanderBehavior) Config() WanderConfig { return w.cfg }
func (w *RandomWanderBehavior) Origin() common.Tile  { return w.origin }
func (w *RandomWanderBehavior) Walking() bool        { return w.walking }

// SpottedTarget reports whether the target was in sight on the last update.
func (w *RandomWanderBehavior) SpottedTarget() bool { return w.spotted }

func (w *RandomWanderBehavior) Enter() {
	if w.active {
		return
	}
	w.active = true
	w.origin = w.owner.Tile()
	w.spotted = false
	w.walking = false
	w.startPause()
}

func (w *RandomWanderBehavior) Leave() {
	if !w.active {
		return
	}
	w.active = false
	w.walking = false
	w.spotted = false
	w.nav.reset()
	w.owner.Movement().Stop()
}

func (w *RandomWanderBehavior) Reset() {
	w.nav.reset()
	w.walking = false
	w.spotted = false
	w.pauseLeft = 0
}

func (w *RandomWanderBehavior) Clone(owner Actor) (Behavior, error) {
	return NewRandomWander(owner, w.env, w.cfg)
}

func (w *RandomWanderBehavior) Update(dt float64) {
	if !w.active {
		return
	}
	w.spotted = w.sees(w.env.Scene.Target(w.owner))

	if !w.walking {
		w.pauseLeft -= dt
		if !expired(w.pauseLeft) {
			return
		}
		if !w.pickGoal() {
			w.startPause()
			return
		}
		w.walking = true
	}

	if res := w.nav.moveTo(w.goal, dt); res != NavFollowing {
		w.nav.reset()
		w.walking = false
		w.startPause()
	}
}

func (w *RandomWanderBehavior) sees(target Actor) bool {
	if !alive(target) || w.cfg.SightRange <= 0 || target.Floor() != w.owner.Floor() {
		return false
	}
	return w.owner.Position().DistanceSq(target.Position()) <= w.cfg.SightRange*w.cfg.SightRange
}

func (w *RandomWanderBehavior) startPause() {
	w.pauseLeft = w.env.between(w.cfg.PauseMin, w.cfg.PauseMax)
	w.owner.Movement().Stop()
}

func (w *RandomWanderBehavior) pickGoal() bool {
	r := w.cfg.Radius
	if r == 0 {
		return false
	}
	obstacles := w.env.Scene.Obstacles(w.owner.Floor())
	here := w.owner.Tile()
	for range wanderPickAttempts {
		dx := w.env.intn(2*r+1) - r
		span := r - abs(dx)
		dy := w.env.intn(2*span+1) - span
		t := w.origin.Add(dx, dy)
		if t == here {
			continue
		}
		if obstacles != nil && obstacles.Blocked(t) {
			continue
		}
		w.goal = t
		return true
	}
	return false
}

func (w *RandomWanderBehavior) Serialize(wr *persist.Writer) error {
	wr.WriteVersion(wanderVersion)
	writeWanderConfig(wr, w.cfg)
	return wr.Err()
}

func (w *RandomWanderBehavior) Deserialize(r *persist.Reader) error {
	cfg, err := decodeWander(r)
	if err != nil {
		return err
	}
	w.cfg = cfg
	return nil
}

func decodeWander(r *persist.Reader) (WanderConfig, error) {
	if err := r.ExpectVersion("RandomWanderBehavior", wanderVersion); err != nil {
		return WanderConfig{}, err
	}
	cfg := readWanderConfig(r)
	if err := r.Err(); err != nil {
		return WanderConfig{}, fmt.Errorf("behavior: read RandomWanderBehavior: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return WanderConfig{}, err
	}
	return cfg, nil
}

func writeWanderConfig(w *persist.Writer, cfg WanderConfig) {
	w.WriteInt(cfg.Radius)
	w.WriteFloat64(cfg.PauseMin)
	w.WriteFloat64(cfg.PauseMax)
	w.WriteFloat64(cfg.SightRange)
}

func readWanderConfig(r *persist.Reader) WanderConfig {
	return WanderConfig{
		Radius:     r.ReadInt(),
		PauseMin:   r.ReadFloat64(),
		PauseMax:   r.ReadFloat64(),
		SightRange: r.ReadFloat64(),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
