package behavior

import (
	"errors"
	"testing"

	"github.com/milk9111/aibehavior/persist"
)

func rangedTestConfig() RangedConfig {
	cfg := DefaultRangedConfig()
	cfg.Attack = AttackSettings{
		IntervalMin:     1,
		IntervalMax:     1,
		ChasingFactor:   0.5,
		MovementLock:    0.5,
		Range:           100,
		ProjectileSpeed: 200,
	}
	cfg.Wander.PauseMin, cfg.Wander.PauseMax = 10, 10
	cfg.Wander.SightRange = 50
	cfg.Chase.ChasingTime = 1
	return cfg
}

func newRanged(t *testing.T, h *harness, mutate func(*RangedConfig)) *RangedActorBehavior {
	t.Helper()
	cfg := rangedTestConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := NewRangedActor(h.owner, h.env, cfg)
	if err != nil {
		t.Fatalf("NewRangedActor: %v", err)
	}
	return r
}

// requireOneSub fails unless exactly the sub-behavior matching the state is active.
func requireOneSub(t *testing.T, r *RangedActorBehavior, want RangedState) {
	t.Helper()
	if r.State() != want {
		t.Fatalf("state = %v, want %v", r.State(), want)
	}
	w, c := r.Wander().IsActive(), r.Chase().IsActive()
	if w == c {
		t.Fatalf("wander active=%v chase active=%v, want exactly one", w, c)
	}
	if !r.ActiveSub().IsActive() {
		t.Fatalf("active sub %v is not active", r.ActiveSub().Kind())
	}
}

func TestAttackSettingsValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AttackSettings)
	}{
		{name: "zero interval", mutate: func(a *AttackSettings) { a.IntervalMin = 0 }},
		{name: "inverted interval", mutate: func(a *AttackSettings) { a.IntervalMax = a.IntervalMin / 2 }},
		{name: "zero factor", mutate: func(a *AttackSettings) { a.ChasingFactor = 0 }},
		{name: "factor above one", mutate: func(a *AttackSettings) { a.ChasingFactor = 1.5 }},
		{name: "negative lock", mutate: func(a *AttackSettings) { a.MovementLock = -1 }},
		{name: "zero range", mutate: func(a *AttackSettings) { a.Range = 0 }},
		{name: "zero speed", mutate: func(a *AttackSettings) { a.ProjectileSpeed = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			cfg := DefaultRangedConfig()
			tc.mutate(&cfg.Attack)
			if _, err := NewRangedActor(h.owner, h.env, cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestRangedSwitchesBetweenSubBehaviors(t *testing.T) {
	h := newHarness(t)
	events := h.stateChanges(KindRangedActor)
	r := newRanged(t, h, nil)
	r.Enter()
	requireOneSub(t, r, RangedWandering)

	r.Update(0.25)
	requireOneSub(t, r, RangedWandering)

	h.player.pos = tileCenter(2, 0)
	r.Update(0.25)
	requireOneSub(t, r, RangedChasingPlayer)
	if len(*events) != 1 || (*events)[0].From != "wandering" || (*events)[0].To != "chasing_player" {
		t.Fatalf("events = %+v", *events)
	}

	h.player.alive = false
	r.Update(0.25)
	requireOneSub(t, r, RangedWandering)
	if r.Chase().State() != ChaseReturned {
		t.Fatalf("chase state = %v, want returned", r.Chase().State())
	}
	if len(*events) != 2 || (*events)[1].To != "wandering" {
		t.Fatalf("events = %+v", *events)
	}
}

func TestRangedChaseBudgetLeadsBackToWandering(t *testing.T) {
	h := newHarness(t)
	r := newRanged(t, h, nil)
	r.Enter()

	h.player.pos = tileCenter(2, 0)
	r.Update(0.1)
	requireOneSub(t, r, RangedChasingPlayer)

	h.player.pos = tileCenter(10, 0)
	r.Update(0.5)
	requireOneSub(t, r, RangedChasingPlayer)
	r.Update(0.5)
	if r.Chase().State() != ChaseReturning {
		t.Fatalf("chase state = %v, want returning", r.Chase().State())
	}
	requireOneSub(t, r, RangedChasingPlayer)

	r.Update(0.1)
	requireOneSub(t, r, RangedWandering)
	if r.Wander().Origin() != h.owner.Tile() {
		t.Fatalf("wander origin = %v, want %v", r.Wander().Origin(), h.owner.Tile())
	}
}

func TestRangedAttackedStartsChase(t *testing.T) {
	h := newHarness(t)
	r := newRanged(t, h, nil)
	r.Enter()

	h.env.Events.Publish(Event{Kind: EventAttacked, Actor: h.player, Source: h.owner})
	requireOneSub(t, r, RangedWandering)

	h.env.Events.Publish(Event{Kind: EventAttacked, Actor: h.owner, Source: h.player})
	requireOneSub(t, r, RangedChasingPlayer)

	// A second hit while chasing refreshes the chase instead of switching.
	r.Update(0.5)
	left := r.Chase().ChasingTimeLeft()
	h.env.Events.Publish(Event{Kind: EventAttacked, Actor: h.owner, Source: h.player})
	requireOneSub(t, r, RangedChasingPlayer)
	if r.Chase().ChasingTimeLeft() <= left {
		t.Fatalf("chase budget %v not refreshed from %v", r.Chase().ChasingTimeLeft(), left)
	}
}

func TestRangedFiresAndHoldsWhileProjectileFlies(t *testing.T) {
	h := newHarness(t)
	h.player.pos = tileCenter(5, 0)
	r := newRanged(t, h, nil)
	r.Enter()

	r.Update(0.5)
	if len(h.launcher.shots) != 0 {
		t.Fatal("fired before the timer ran out")
	}
	r.Update(0.5)
	if len(h.launcher.shots) != 1 {
		t.Fatalf("shots = %d, want 1", len(h.launcher.shots))
	}
	if r.TimeUntilNextAttack() != 1 {
		t.Fatalf("next attack in %v, want 1", r.TimeUntilNextAttack())
	}
	if !r.IsMovementLocked() || !h.owner.mover.immovable || r.MovementLockTimeLeft() != 0.5 {
		t.Fatalf("locked=%v immovable=%v left=%v", r.IsMovementLocked(), h.owner.mover.immovable, r.MovementLockTimeLeft())
	}

	r.Update(0.25)
	if !r.IsMovementLocked() || r.TimeUntilNextAttack() != 1 {
		t.Fatalf("locked=%v next=%v while projectile in flight", r.IsMovementLocked(), r.TimeUntilNextAttack())
	}
	r.Update(0.25)
	if r.IsMovementLocked() || h.owner.mover.immovable {
		t.Fatal("movement lock not released")
	}
	if r.TimeUntilNextAttack() != 1 {
		t.Fatalf("timer moved to %v while projectile in flight", r.TimeUntilNextAttack())
	}

	h.launcher.shots[0].inFlight = false
	r.Update(0.5)
	if r.Projectile() != nil || r.TimeUntilNextAttack() != 0.5 {
		t.Fatalf("projectile=%v next=%v after landing", r.Projectile(), r.TimeUntilNextAttack())
	}
	r.Update(0.5)
	if len(h.launcher.shots) != 2 {
		t.Fatalf("shots = %d, want 2", len(h.launcher.shots))
	}
}

func TestRangedTimersWithInexactFrameTimes(t *testing.T) {
	h := newHarness(t)
	h.player.pos = tileCenter(5, 0)
	r := newRanged(t, h, func(c *RangedConfig) {
		c.Attack.IntervalMin, c.Attack.IntervalMax = 0.3, 0.3
		c.Attack.MovementLock = 0.3
	})
	r.Enter()

	for i := 0; i < 2; i++ {
		r.Update(0.1)
	}
	if len(h.launcher.shots) != 0 {
		t.Fatal("fired before the interval ran out")
	}
	r.Update(0.1)
	if len(h.launcher.shots) != 1 || !r.IsMovementLocked() {
		t.Fatalf("shots=%d locked=%v after 3 x 0.1s, want a shot and a lock", len(h.launcher.shots), r.IsMovementLocked())
	}

	for i := 0; i < 2; i++ {
		r.Update(0.1)
		if !r.IsMovementLocked() {
			t.Fatalf("lock released early on frame %d", i)
		}
	}
	r.Update(0.1)
	if r.IsMovementLocked() || h.owner.mover.immovable {
		t.Fatalf("lock still held after 3 x 0.1s, left %v", r.MovementLockTimeLeft())
	}
}

func TestRangedChasingShortensInterval(t *testing.T) {
	h := newHarness(t)
	h.player.pos = tileCenter(5, 0)
	r := newRanged(t, h, func(c *RangedConfig) { c.Chase.ChasingTime = 10 })
	r.Enter()
	h.env.Events.Publish(Event{Kind: EventAttacked, Actor: h.owner, Source: h.player})

	r.Update(0.5)
	r.Update(0.5)
	if len(h.launcher.shots) != 1 {
		t.Fatalf("shots = %d, want 1", len(h.launcher.shots))
	}
	if got := r.TimeUntilNextAttack(); got != 0.5 {
		t.Fatalf("next attack in %v, want 0.5 while chasing", got)
	}
}

func TestRangedFiresOnlyAtReachableTarget(t *testing.T) {
	tests := []struct {
		name  string
		tile  int
		floor int
		dead  bool
	}{
		{name: "out of range", tile: 10},
		{name: "other floor", tile: 5, floor: 1},
		{name: "dead", tile: 5, dead: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.player.pos = tileCenter(tc.tile, 0)
			h.player.floor = tc.floor
			h.player.alive = !tc.dead
			r := newRanged(t, h, nil)
			r.Enter()
			for range 4 {
				r.Update(0.5)
			}
			if len(h.launcher.shots) != 0 {
				t.Fatalf("fired %d shots", len(h.launcher.shots))
			}
			if r.TimeUntilNextAttack() != 0 {
				t.Fatalf("timer = %v, want held at 0", r.TimeUntilNextAttack())
			}

			h.player.pos = tileCenter(5, 0)
			h.player.floor = 0
			h.player.alive = true
			r.Update(0.25)
			if len(h.launcher.shots) != 1 {
				t.Fatalf("shots = %d once reachable, want 1", len(h.launcher.shots))
			}
		})
	}
}

func TestRangedLeaveKeepsLockResetReleases(t *testing.T) {
	h := newHarness(t)
	h.player.pos = tileCenter(5, 0)
	r := newRanged(t, h, nil)
	r.Enter()
	r.Update(0.5)
	r.Update(0.5)
	if !r.IsMovementLocked() {
		t.Fatal("expected a movement lock after firing")
	}

	r.Leave()
	if r.Wander().IsActive() || r.Chase().IsActive() {
		t.Fatal("sub-behavior still active after Leave")
	}
	if !r.IsMovementLocked() || !h.owner.mover.immovable {
		t.Fatal("Leave released the movement lock")
	}
	if h.env.Events.Len() != 0 {
		t.Fatalf("%d subscriptions left after Leave", h.env.Events.Len())
	}

	r.Reset()
	if r.IsMovementLocked() || h.owner.mover.immovable || r.MovementLockTimeLeft() != 0 {
		t.Fatal("Reset kept the movement lock")
	}
	if r.Projectile() != nil || r.TimeUntilNextAttack() != 1 {
		t.Fatalf("projectile=%v next=%v after Reset", r.Projectile(), r.TimeUntilNextAttack())
	}
}

func TestRangedSerializeRoundTrip(t *testing.T) {
	h := newHarness(t)
	src := newRanged(t, h, func(c *RangedConfig) {
		c.Attack.Range = 150
		c.Attack.IntervalMax = 2.4
		c.Wander.Radius = 3
		c.Chase.ChasingForever = true
	})
	w := persist.NewWriter()
	if err := src.Serialize(w); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	dst := newRanged(t, h, nil)
	r := persist.NewReader(w.Bytes())
	if err := dst.Deserialize(r); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if dst.Config() != src.Config() {
		t.Fatalf("config = %+v, want %+v", dst.Config(), src.Config())
	}
	if dst.Wander().Config() != src.Config().Wander || !dst.Chase().IsChasingForever() {
		t.Fatal("sub-behaviors not restored")
	}
	if r.Remaining() != 0 {
		t.Fatalf("%d trailing bytes", r.Remaining())
	}
}

func TestRangedDeserializeRejectsNestedVersion(t *testing.T) {
	h := newHarness(t)
	w := persist.NewWriter()
	w.WriteVersion(rangedVersion)
	writeAttackSettings(w, DefaultAttackSettings())
	w.WriteVersion(9)

	err := newRanged(t, h, nil).Deserialize(persist.NewReader(w.Bytes()))
	var verr *persist.VersionError
	if !errors.As(err, &verr) || verr.Type != "RandomWanderBehavior" {
		t.Fatalf("err = %v, want RandomWanderBehavior version error", err)
	}
	if !errors.Is(err, persist.ErrVersionMismatch) {
		t.Fatalf("err = %v does not wrap ErrVersionMismatch", err)
	}
}

func TestRangedDeserializeFailureKeepsConfig(t *testing.T) {
	h := newHarness(t)
	r := newRanged(t, h, nil)
	before := r.Config()

	attack := DefaultAttackSettings()
	attack.Range = 999
	wander := DefaultWanderConfig()
	wander.Radius = 9
	w := persist.NewWriter()
	w.WriteVersion(rangedVersion)
	writeAttackSettings(w, attack)
	w.WriteVersion(wanderVersion)
	writeWanderConfig(w, wander)
	w.WriteVersion(7)

	err := r.Deserialize(persist.NewReader(w.Bytes()))
	var verr *persist.VersionError
	if !errors.As(err, &verr) || verr.Type != "ChasePlayerBehavior" || verr.Found != 7 {
		t.Fatalf("err = %v, want ChasePlayerBehavior version 7 error", err)
	}
	if got := r.Config(); got != before {
		t.Fatalf("config = %+v after a failed load, want %+v", got, before)
	}
	if got := r.Wander().Config().Radius; got != before.Wander.Radius {
		t.Fatalf("wander radius = %d after a failed load, want %d", got, before.Wander.Radius)
	}
}

func TestRangedCloneIsIndependent(t *testing.T) {
	h := newHarness(t)
	src := newRanged(t, h, nil)
	other := newFakeActor(9, tileCenter(4, 4))

	b, err := src.Clone(other)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	clone := b.(*RangedActorBehavior)
	if clone.Wander() == src.Wander() || clone.Chase() == src.Chase() {
		t.Fatal("clone shares sub-behaviors")
	}
	clone.Enter()
	if src.IsActive() || src.Wander().IsActive() {
		t.Fatal("entering the clone activated the source")
	}
	if clone.Wander().Origin() != other.Tile() {
		t.Fatalf("clone origin = %v, want %v", clone.Wander().Origin(), other.Tile())
	}
}

func TestRangedCloneKeepsSubBehaviorEdits(t *testing.T) {
	h := newHarness(t)
	src := newRanged(t, h, nil)
	if err := src.Chase().SetChasingTime(42); err != nil {
		t.Fatalf("SetChasingTime: %v", err)
	}
	src.Chase().SetChasingForever(true)

	b, err := src.Clone(newFakeActor(9, tileCenter(4, 4)))
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	clone := b.(*RangedActorBehavior)
	got := clone.Chase().Config()
	if got.ChasingTime != 42 || !got.ChasingForever {
		t.Fatalf("clone chase config = %+v, want chasing time 42 forever", got)
	}
	if clone.Config() != src.Config() {
		t.Fatalf("clone config = %+v, want %+v", clone.Config(), src.Config())
	}
}
