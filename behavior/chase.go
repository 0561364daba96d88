package behavior

import (
	"fmt"

	"github.com/milk9111/aibehavior/common"
	"github.com/milk9111/aibehavior/persist"
)

type ChaseState uint8

const (
	ChaseChasing ChaseState = iota
	ChaseReturning
	ChaseReturned
)

func (s ChaseState) String() string {
	switch s {
	case ChaseChasing:
		return "chasing"
	case ChaseReturning:
		return "returning"
	case ChaseReturned:
		return "returned"
	default:
		return "unknown"
	}
}

const (
	chaseVersion uint16 = 1

	// stuckWait is how long path requests are suspended after a failure.
	stuckWait = 0.5
	// Penalties applied to the remaining chase time on navigation failure.
	hardStuckPenalty = 0.70
	softStuckPenalty = 0.90
)

type ChaseConfig struct {
	ChasingTime      float64 `yaml:"chasing_time"` // seconds of pursuit before giving up
	ChasingForever   bool    `yaml:"chasing_forever"`
	ChaseSpeedBonus  float64 `yaml:"chase_speed_bonus"`  // percent, while chasing
	ReturnSpeedBonus float64 `yaml:"return_speed_bonus"` // percent, while returning home
}

func DefaultChaseConfig() ChaseConfig {
	return ChaseConfig{
		ChasingTime:      8,
		ChaseSpeedBonus:  20,
		ReturnSpeedBonus: 50,
	}
}

func (c ChaseConfig) Validate() error {
	if c.ChasingTime <= 0 {
		return invalidf("chase: chasing time must be positive, got %v", c.ChasingTime)
	}
	if c.ChaseSpeedBonus < 0 {
		return invalidf("chase: chase speed bonus must not be negative, got %v", c.ChaseSpeedBonus)
	}
	if c.ReturnSpeedBonus < 0 {
		return invalidf("chase: return speed bonus must not be negative, got %v", c.ReturnSpeedBonus)
	}
	return nil
}

// ChasePlayerBehavior pursues the scene target for a limited time, then
// walks back to where it started. Reaching home (or losing the target)
// ends the activation: the behavior leaves itself in state Returned.
type ChasePlayerBehavior struct {
	owner Actor
	env   *Env
	cfg   ChaseConfig

	active          bool
	state           ChaseState
	chasingTimeLeft float64
	stuckTimeLeft   float64
	isStuck         bool
	isMovingBack    bool
	originalTile    common.Tile

	nav        navigator
	chaseAura  *Aura
	returnAura *Aura
	subs       subscriptions
}

func NewChasePlayer(owner Actor, env *Env, cfg ChaseConfig) (*ChasePlayerBehavior, error) {
	if err := requireOwner(owner, env); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ChasePlayerBehavior{
		owner:           owner,
		env:             env,
		cfg:             cfg,
		chasingTimeLeft: cfg.ChasingTime,
		nav:             newNavigator(env, owner),
		chaseAura:       &Aura{Name: "chase_speed", SpeedBonus: cfg.ChaseSpeedBonus},
		returnAura:      &Aura{Name: "return_speed", SpeedBonus: cfg.ReturnSpeedBonus},
	}, nil
}

func (c *ChasePlayerBehavior) Kind() Kind                { return KindChasePlayer }
func (c *ChasePlayerBehavior) IsActive() bool            { return c.active }
func (c *ChasePlayerBehavior) State() ChaseState         { return c.state }
func (c *ChasePlayerBehavior) Config() ChaseConfig       { return c.cfg }
func (c *ChasePlayerBehavior) ChasingTimeLeft() float64  { return c.chasingTimeLeft }
func (c *ChasePlayerBehavior) IsStuck() bool             { return c.isStuck }
func (c *ChasePlayerBehavior) IsChasingForever() bool    { return c.cfg.ChasingForever }
func (c *ChasePlayerBehavior) OriginalTile() common.Tile { return c.originalTile }

// SetChasingTime changes the chase budget.
func (c *ChasePlayerBehavior) SetChasingTime(seconds float64) error {
	cfg := c.cfg
	cfg.ChasingTime = seconds
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func (c *ChasePlayerBehavior) SetChasingForever(forever bool) {
	c.cfg.ChasingForever = forever
}

func (c *ChasePlayerBehavior) Enter() {
	if c.active {
		return
	}
	c.active = true
	c.state = ChaseChasing
	c.isMovingBack = false
	c.chasingTimeLeft = c.cfg.ChasingTime
	c.clearStuck()
	c.originalTile = c.owner.Tile()
	c.nav.reset()
	c.owner.Effects().Add(c.chaseAura)

	if hub := c.env.Events; hub != nil {
		c.subs.add(hub.Subscribe(EventFloorChanged, c.owner, func(Event) { c.ContinueToChase() }))
		c.subs.add(hub.Subscribe(EventAttacked, c.owner, func(Event) { c.NotifyAttackedByPlayer() }))
	}
}

func (c *ChasePlayerBehavior) Leave() {
	if !c.active {
		return
	}
	c.active = false
	effects := c.owner.Effects()
	effects.Remove(c.chaseAura)
	effects.Remove(c.returnAura)
	c.nav.reset()
	c.owner.Movement().Stop()
	c.subs.releaseAll()
}

func (c *ChasePlayerBehavior) Reset() {
	c.nav.reset()
	c.clearStuck()
	c.chasingTimeLeft = c.cfg.ChasingTime
}

func (c *ChasePlayerBehavior) Clone(owner Actor) (Behavior, error) {
	return NewChasePlayer(owner, c.env, c.cfg)
}

// NotifyAttackedByPlayer refreshes aggression.
func (c *ChasePlayerBehavior) NotifyAttackedByPlayer() {
	c.ContinueToChase()
}

// ContinueToChase restores the full chase budget and drops any stuck wait.
func (c *ChasePlayerBehavior) ContinueToChase() {
	c.chasingTimeLeft = c.cfg.ChasingTime
	c.clearStuck()
}

func (c *ChasePlayerBehavior) Update(dt float64) {
	if !c.active {
		return
	}
	target := c.env.Scene.Target(c.owner)
	if !alive(target) {
		c.env.logf("entity=%d chase: target lost, giving up", c.owner.ID())
		c.finish()
		return
	}

	switch c.state {
	case ChaseChasing:
		c.updateChasing(dt, target)
	case ChaseReturning:
		c.updateReturning(dt)
	}
}

func (c *ChasePlayerBehavior) updateChasing(dt float64, target Actor) {
	if !c.cfg.ChasingForever {
		c.chasingTimeLeft -= dt
	}

	if target.Floor() == c.owner.Floor() && target.Tile() == c.owner.Tile() {
		c.chasingTimeLeft = c.cfg.ChasingTime
		c.clearStuck()
		return
	}

	if expired(c.chasingTimeLeft) && !c.isMovingBack {
		c.startReturning()
		return
	}

	if c.waitStuck(dt) {
		return
	}

	res := NavNotFound
	if target.Floor() == c.owner.Floor() {
		res = c.nav.moveTo(target.Tile(), dt)
	}
	switch res {
	case NavNotFound, NavHardStuck:
		c.penalize(hardStuckPenalty, res)
	case NavStuck:
		c.penalize(softStuckPenalty, res)
	case NavReached:
		c.nav.reset()
	}
}

func (c *ChasePlayerBehavior) startReturning() {
	c.isMovingBack = true
	c.setState(ChaseReturning)
	effects := c.owner.Effects()
	effects.Remove(c.chaseAura)
	effects.Add(c.returnAura)
	c.clearStuck()
	c.nav.reset()
	c.nav.request(c.originalTile)
}

func (c *ChasePlayerBehavior) updateReturning(dt float64) {
	if c.owner.Tile() == c.originalTile {
		c.finish()
		return
	}
	if c.waitStuck(dt) {
		return
	}
	switch res := c.nav.moveTo(c.originalTile, dt); res {
	case NavNotFound, NavStuck, NavHardStuck:
		c.env.logf("entity=%d chase: return path %s", c.owner.ID(), res)
		c.startStuckWait()
	case NavReached:
		if c.owner.Tile() == c.originalTile {
			c.finish()
			return
		}
		c.nav.reset()
	}
}

// finish ends this activation in state Returned.
func (c *ChasePlayerBehavior) finish() {
	c.setState(ChaseReturned)
	c.Leave()
}

func (c *ChasePlayerBehavior) penalize(factor float64, res NavResult) {
	c.chasingTimeLeft *= factor
	c.env.logf("entity=%d chase: %s, time left %.2f", c.owner.ID(), res, c.chasingTimeLeft)
	c.startStuckWait()
}

func (c *ChasePlayerBehavior) startStuckWait() {
	c.isStuck = true
	c.stuckTimeLeft = stuckWait
	c.nav.reset()
	c.owner.Movement().Stop()
}

// waitStuck counts down the stuck wait and reports whether this frame is
// still inside it. When the wait runs out the path is dropped so the next
// request recomputes it.
func (c *ChasePlayerBehavior) waitStuck(dt float64) bool {
	if !c.isStuck {
		return false
	}
	c.stuckTimeLeft -= dt
	if !expired(c.stuckTimeLeft) {
		return true
	}
	c.clearStuck()
	c.nav.reset()
	return false
}

func (c *ChasePlayerBehavior) clearStuck() {
	c.isStuck = false
	c.stuckTimeLeft = 0
}

func (c *ChasePlayerBehavior) setState(s ChaseState) {
	if c.state == s {
		return
	}
	from := c.state
	c.state = s
	c.env.logf("entity=%d chase: %s -> %s", c.owner.ID(), from, s)
	if hub := c.env.Events; hub != nil {
		hub.Publish(Event{Kind: EventStateChanged, Actor: c.owner, Behavior: KindChasePlayer, From: from.String(), To: s.String()})
	}
}

func (c *ChasePlayerBehavior) Serialize(w *persist.Writer) error {
	w.WriteVersion(chaseVersion)
	writeChaseConfig(w, c.cfg)
	return w.Err()
}

func (c *ChasePlayerBehavior) Deserialize(r *persist.Reader) error {
	cfg, err := decodeChase(r)
	if err != nil {
		return err
	}
	c.applyConfig(cfg)
	return nil
}

// decodeChase reads and validates a serialized chase without touching any
// live behavior.
func decodeChase(r *persist.Reader) (ChaseConfig, error) {
	if err := r.ExpectVersion("ChasePlayerBehavior", chaseVersion); err != nil {
		return ChaseConfig{}, err
	}
	cfg := readChaseConfig(r)
	if err := r.Err(); err != nil {
		return ChaseConfig{}, fmt.Errorf("behavior: read ChasePlayerBehavior: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return ChaseConfig{}, err
	}
	return cfg, nil
}

func (c *ChasePlayerBehavior) applyConfig(cfg ChaseConfig) {
	c.cfg = cfg
	c.chaseAura.SpeedBonus = cfg.ChaseSpeedBonus
	c.returnAura.SpeedBonus = cfg.ReturnSpeedBonus
	if !c.active {
		c.chasingTimeLeft = cfg.ChasingTime
	}
}

func writeChaseConfig(w *persist.Writer, cfg ChaseConfig) {
	w.WriteFloat64(cfg.ChasingTime)
	w.WriteBool(cfg.ChasingForever)
	w.WriteFloat64(cfg.ChaseSpeedBonus)
	w.WriteFloat64(cfg.ReturnSpeedBonus)
}

func readChaseConfig(r *persist.Reader) ChaseConfig {
	return ChaseConfig{
		ChasingTime:      r.ReadFloat64(),
		ChasingForever:   r.ReadBool(),
		ChaseSpeedBonus:  r.ReadFloat64(),
		ReturnSpeedBonus: r.ReadFloat64(),
	}
}
