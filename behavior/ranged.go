package behavior

import (
	"fmt"

	"github.com/milk9111/aibehavior/persist"
)

const rangedVersion uint16 = 1

type RangedState uint8

const (
	RangedWandering RangedState = iota
	RangedChasingPlayer
)

func (s RangedState) String() string {
	switch s {
	case RangedWandering:
		return "wandering"
	case RangedChasingPlayer:
		return "chasing_player"
	default:
		return "unknown"
	}
}

// AttackSettings describe a ranged attack and its cadence.
type AttackSettings struct {
	IntervalMin     float64 `yaml:"interval_min"`     // seconds
	IntervalMax     float64 `yaml:"interval_max"`     // seconds
	ChasingFactor   float64 `yaml:"chasing_factor"`   // interval multiplier while chasing, in (0, 1]
	MovementLock    float64 `yaml:"movement_lock"`    // seconds the shooter is immovable after firing; 0 disables
	Range           float64 `yaml:"range"`            // world units
	ProjectileSpeed float64 `yaml:"projectile_speed"` // world units per second
}

func DefaultAttackSettings() AttackSettings {
	return AttackSettings{
		IntervalMin:     1.5,
		IntervalMax:     3,
		ChasingFactor:   0.6,
		MovementLock:    0.4,
		Range:           160,
		ProjectileSpeed: 240,
	}
}

func (a AttackSettings) Validate() error {
	if a.IntervalMin <= 0 || a.IntervalMax < a.IntervalMin {
		return invalidf("ranged: attack interval [%v, %v] is invalid", a.IntervalMin, a.IntervalMax)
	}
	if a.ChasingFactor <= 0 || a.ChasingFactor > 1 {
		return invalidf("ranged: chasing factor must be in (0, 1], got %v", a.ChasingFactor)
	}
	if a.MovementLock < 0 {
		return invalidf("ranged: movement lock must not be negative, got %v", a.MovementLock)
	}
	if a.Range <= 0 || a.ProjectileSpeed <= 0 {
		return invalidf("ranged: range %v and projectile speed %v must be positive", a.Range, a.ProjectileSpeed)
	}
	return nil
}

type RangedConfig struct {
	Attack AttackSettings `yaml:"attack"`
	Wander WanderConfig   `yaml:"wander"`
	Chase  ChaseConfig    `yaml:"chase"`
}

func DefaultRangedConfig() RangedConfig {
	return RangedConfig{
		Attack: DefaultAttackSettings(),
		Wander: DefaultWanderConfig(),
		Chase:  DefaultChaseConfig(),
	}
}

func (c RangedConfig) Validate() error {
	if err := c.Attack.Validate(); err != nil {
		return err
	}
	if err := c.Wander.Validate(); err != nil {
		return err
	}
	return c.Chase.Validate()
}

// RangedActorBehavior supervises a wander and a chase sub-behavior, keeping
// exactly one of them active, and fires at the target on its own timer.
type RangedActorBehavior struct {
	owner  Actor
	env    *Env
	attack AttackSettings

	active bool
	state  RangedState
	wander *RandomWanderBehavior
	chase  *ChasePlayerBehavior

	projectile           Projectile
	timeUntilNextAttack  float64
	movementLockTimeLeft float64
	isMovementLocked     bool

	subs subscriptions
}

func NewRangedActor(owner Actor, env *Env, cfg RangedConfig) (*RangedActorBehavior, error) {
	if err := requireOwner(owner, env); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	wander, err := NewRandomWander(owner, env, cfg.Wander)
	if err != nil {
		return nil, err
	}
	chase, err := NewChasePlayer(owner, env, cfg.Chase)
	if err != nil {
		return nil, err
	}
	r := &RangedActorBehavior{owner: owner, env: env, attack: cfg.Attack, wander: wander, chase: chase}
	r.timeUntilNextAttack = r.nextInterval()
	return r, nil
}

func (r *RangedActorBehavior) Kind() Kind                    { return KindRangedActor }
func (r *RangedActorBehavior) IsActive() bool                { return r.active }
func (r *RangedActorBehavior) State() RangedState            { return r.state }
func (r *RangedActorBehavior) Wander() *RandomWanderBehavior { return r.wander }
func (r *RangedActorBehavior) Chase() *ChasePlayerBehavior   { return r.chase }
func (r *RangedActorBehavior) TimeUntilNextAttack() float64  { return r.timeUntilNextAttack }
func (r *RangedActorBehavior) MovementLockTimeLeft() float64 { return r.movementLockTimeLeft }
func (r *RangedActorBehavior) IsMovementLocked() bool        { return r.isMovementLocked }
func (r *RangedActorBehavior) Projectile() Projectile        { return r.projectile }

// Config reports the attack settings together with the live configs of the
// sub-behaviors, which can be changed through Chase and Wander.
func (r *RangedActorBehavior) Config() RangedConfig {
	return RangedConfig{Attack: r.attack, Wander: r.wander.Config(), Chase: r.chase.Config()}
}

// ActiveSub returns the sub-behavior matching the current state.
func (r *RangedActorBehavior) ActiveSub() Behavior {
	if r.state == RangedChasingPlayer {
		return r.chase
	}
	return r.wander
}

func (r *RangedActorBehavior) Enter() {
	if r.active {
		return
	}
	r.active = true
	r.state = RangedWandering
	r.wander.Enter()

	if hub := r.env.Events; hub != nil {
		r.subs.add(hub.Subscribe(EventAttacked, r.owner, func(Event) { r.NotifyAttackedByPlayer() }))
	}
}

// Leave deactivates the current sub-behavior. A running movement lock stays
// on the owner and its countdown resumes on the next Enter; Reset releases
// it at once.
func (r *RangedActorBehavior) Leave() {
	if !r.active {
		return
	}
	r.active = false
	r.ActiveSub().Leave()
	r.subs.releaseAll()
}

func (r *RangedActorBehavior) Reset() {
	r.wander.Reset()
	r.chase.Reset()
	r.projectile = nil
	r.timeUntilNextAttack = r.nextInterval()
	r.releaseLock()
}

func (r *RangedActorBehavior) Clone(owner Actor) (Behavior, error) {
	return NewRangedActor(owner, r.env, r.Config())
}

// NotifyAttackedByPlayer makes a wandering actor start chasing. A chasing
// actor refreshes through its chase sub-behavior's own subscription.
func (r *RangedActorBehavior) NotifyAttackedByPlayer() {
	if r.active && r.state == RangedWandering {
		r.switchTo(RangedChasingPlayer)
	}
}

func (r *RangedActorBehavior) Update(dt float64) {
	if !r.active {
		return
	}
	r.updateLock(dt)
	r.updateAttack(dt)

	switch r.state {
	case RangedWandering:
		r.wander.Update(dt)
		if r.wander.SpottedTarget() {
			r.switchTo(RangedChasingPlayer)
		}
	case RangedChasingPlayer:
		r.chase.Update(dt)
		if r.chase.State() == ChaseReturned {
			r.switchTo(RangedWandering)
		}
	}
}

func (r *RangedActorBehavior) switchTo(s RangedState) {
	if r.state == s {
		return
	}
	from := r.state
	r.ActiveSub().Leave()
	r.state = s
	r.ActiveSub().Enter()

	r.env.logf("entity=%d ranged: %s -> %s", r.owner.ID(), from, s)
	if hub := r.env.Events; hub != nil {
		hub.Publish(Event{Kind: EventStateChanged, Actor: r.owner, Behavior: KindRangedActor, From: from.String(), To: s.String()})
	}
}

// updateAttack counts down while no projectile is in flight and fires when
// the timer runs out and the target is in range. Out of range, the timer
// holds at zero so the shot goes off as soon as the target comes close.
func (r *RangedActorBehavior) updateAttack(dt float64) {
	if r.projectile != nil {
		if r.projectile.InFlight() {
			return
		}
		r.projectile = nil
	}
	r.timeUntilNextAttack -= dt
	if !expired(r.timeUntilNextAttack) {
		return
	}
	r.timeUntilNextAttack = 0

	target := r.env.Scene.Target(r.owner)
	if !r.inRange(target) {
		return
	}
	r.fire(target)
}

func (r *RangedActorBehavior) inRange(target Actor) bool {
	if !alive(target) || target.Floor() != r.owner.Floor() {
		return false
	}
	rng := r.attack.Range
	return r.owner.Position().DistanceSq(target.Position()) <= rng*rng
}

func (r *RangedActorBehavior) fire(target Actor) {
	if r.env.Launcher != nil {
		r.projectile = r.env.Launcher.Launch(r.owner, target, r.attack)
	}
	r.timeUntilNextAttack = r.nextInterval()
	r.env.logf("entity=%d ranged: fired at %d, next in %.2f", r.owner.ID(), target.ID(), r.timeUntilNextAttack)

	if r.attack.MovementLock > 0 {
		r.isMovementLocked = true
		r.movementLockTimeLeft = r.attack.MovementLock
		r.owner.Movement().SetImmovable(true)
	}
}

func (r *RangedActorBehavior) updateLock(dt float64) {
	if !r.isMovementLocked {
		return
	}
	r.movementLockTimeLeft -= dt
	if !expired(r.movementLockTimeLeft) {
		return
	}
	r.releaseLock()
}

func (r *RangedActorBehavior) releaseLock() {
	if !r.isMovementLocked {
		return
	}
	r.isMovementLocked = false
	r.movementLockTimeLeft = 0
	r.owner.Movement().SetImmovable(false)
}

func (r *RangedActorBehavior) nextInterval() float64 {
	a := r.attack
	d := r.env.between(a.IntervalMin, a.IntervalMax)
	if r.state == RangedChasingPlayer {
		d *= a.ChasingFactor
	}
	return d
}

func (r *RangedActorBehavior) Serialize(w *persist.Writer) error {
	w.WriteVersion(rangedVersion)
	writeAttackSettings(w, r.attack)
	if err := r.wander.Serialize(w); err != nil {
		return err
	}
	return r.chase.Serialize(w)
}

func (r *RangedActorBehavior) Deserialize(rd *persist.Reader) error {
	if err := rd.ExpectVersion("RangedActorBehavior", rangedVersion); err != nil {
		return err
	}
	attack := readAttackSettings(rd)
	if err := rd.Err(); err != nil {
		return fmt.Errorf("behavior: read RangedActorBehavior: %w", err)
	}
	if err := attack.Validate(); err != nil {
		return err
	}
	wander, err := decodeWander(rd)
	if err != nil {
		return err
	}
	chase, err := decodeChase(rd)
	if err != nil {
		return err
	}
	r.attack = attack
	r.wander.cfg = wander
	r.chase.applyConfig(chase)
	return nil
}

func writeAttackSettings(w *persist.Writer, a AttackSettings) {
	w.WriteFloat64(a.IntervalMin)
	w.WriteFloat64(a.IntervalMax)
	w.WriteFloat64(a.ChasingFactor)
	w.WriteFloat64(a.MovementLock)
	w.WriteFloat64(a.Range)
	w.WriteFloat64(a.ProjectileSpeed)
}

func readAttackSettings(r *persist.Reader) AttackSettings {
	return AttackSettings{
		IntervalMin:     r.ReadFloat64(),
		IntervalMax:     r.ReadFloat64(),
		ChasingFactor:   r.ReadFloat64(),
		MovementLock:    r.ReadFloat64(),
		Range:           r.ReadFloat64(),
		ProjectileSpeed: r.ReadFloat64(),
	}
}
