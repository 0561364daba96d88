package behavior

import (
	"errors"
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/aibehavior/common"
	"github.com/milk9111/aibehavior/persist"
)

// newCompanion makes the harness owner a companion of the harness player.
func newCompanion(t *testing.T, h *harness, mutate func(*CompanionConfig)) *CompanionFollowBehavior {
	t.Helper()
	h.owner.master = h.player
	cfg := DefaultCompanionConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	f, err := NewCompanionFollow(h.owner, h.env, cfg)
	if err != nil {
		t.Fatalf("NewCompanionFollow: %v", err)
	}
	return f
}

func TestCompanionConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CompanionConfig)
	}{
		{name: "zero direct", mutate: func(c *CompanionConfig) { c.DirectDistance = 0 }},
		{name: "teleport inside direct", mutate: func(c *CompanionConfig) { c.TeleportDistance = c.DirectDistance }},
		{name: "zero position refresh", mutate: func(c *CompanionConfig) { c.PositionRefresh = 0 }},
		{name: "zero offset refresh", mutate: func(c *CompanionConfig) { c.OffsetRefresh = 0 }},
		{name: "negative strength", mutate: func(c *CompanionConfig) { c.OffsetStrength = -1 }},
		{name: "slow catch up", mutate: func(c *CompanionConfig) { c.MaxSpeedFactor = 0.5 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultCompanionConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestCompanionTeleports(t *testing.T) {
	tests := []struct {
		name  string
		tile  common.Tile
		floor int
	}{
		{name: "too far", tile: common.Tile{X: 30, Y: 0}},
		{name: "other floor", tile: common.Tile{X: 1, Y: 0}, floor: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			f := newCompanion(t, h, nil)
			f.Enter()

			h.player.pos = tileCenter(tc.tile.X, tc.tile.Y)
			h.player.floor = tc.floor
			f.Update(0.1)

			if f.Regime() != RegimeTeleport {
				t.Fatalf("regime = %v, want teleport", f.Regime())
			}
			if h.owner.teleports != 1 || h.owner.pos != h.player.pos || h.owner.floor != tc.floor {
				t.Fatalf("owner at %v floor %d after %d teleports", h.owner.pos, h.owner.floor, h.owner.teleports)
			}
			if h.owner.mover.speedResets == 0 || h.owner.mover.stops == 0 {
				t.Fatal("teleport should stop and reset speed")
			}
			if h.searcher.calls != 0 {
				t.Fatal("teleport should not search a path")
			}
		})
	}
}

func TestCompanionDirectRegime(t *testing.T) {
	h := newHarness(t)
	h.player.pos = tileCenter(2, 0)
	f := newCompanion(t, h, nil)
	f.Enter()
	f.Update(0.1)

	if f.Regime() != RegimeDirect {
		t.Fatalf("regime = %v, want direct", f.Regime())
	}
	mv := h.owner.mover
	if mv.moves != 1 || mv.lastTarget != f.TargetPosition() {
		t.Fatalf("moves=%d target=%v, want steering at %v", mv.moves, mv.lastTarget, f.TargetPosition())
	}
	off := f.TargetPosition().Sub(h.player.pos)
	s := f.Config().OffsetStrength
	if math.Abs(off.X) > s || math.Abs(off.Y) > s {
		t.Fatalf("offset %v exceeds strength %v", off, s)
	}
	if h.searcher.calls != 0 {
		t.Fatal("direct regime searched a path")
	}
	if mv.factor != 1 {
		t.Fatalf("speed factor = %v, want 1", mv.factor)
	}
}

func TestCompanionPathingScalesSpeed(t *testing.T) {
	tests := []struct {
		name string
		tile int
		want float64
	}{
		{name: "just outside direct", tile: 4, want: 64.0 / 48.0},
		{name: "double", tile: 6, want: 2},
		{name: "capped", tile: 15, want: 2.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.player.pos = tileCenter(tc.tile, 0)
			f := newCompanion(t, h, nil)
			f.Enter()
			f.Update(0.1)

			if f.Regime() != RegimePathing {
				t.Fatalf("regime = %v, want pathing", f.Regime())
			}
			if got := h.owner.mover.factor; math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("speed factor = %v, want %v", got, tc.want)
			}
			want := common.Tile{X: tc.tile, Y: 0}
			if h.follower(t, 0).goal != want || f.LastPathTargetTile() != want {
				t.Fatalf("path goal %v last %v, want %v", h.follower(t, 0).goal, f.LastPathTargetTile(), want)
			}
		})
	}
}

func TestCompanionPathStaleness(t *testing.T) {
	tests := []struct {
		shift  int
		setups int
	}{
		{shift: 0, setups: 1},
		{shift: 3, setups: 1},
		{shift: 4, setups: 2},
	}
	for _, tc := range tests {
		h := newHarness(t)
		h.player.pos = tileCenter(6, 0)
		f := newCompanion(t, h, nil)
		f.Enter()
		f.Update(0.1)

		h.player.pos = tileCenter(6+tc.shift, 0)
		f.Update(0.1)
		if got := h.follower(t, 0).setups; got != tc.setups {
			t.Fatalf("shift %d: setups = %d, want %d", tc.shift, got, tc.setups)
		}
	}
}

func TestCompanionPathEndResetsPath(t *testing.T) {
	h := newHarness(t)
	h.player.pos = tileCenter(6, 0)
	f := newCompanion(t, h, nil)
	f.Enter()
	h.follower(t, 0).script = []FollowState{FollowFollowing, FollowStuck}

	f.Update(0.1)
	if !h.follower(t, 0).has {
		t.Fatal("path dropped while following")
	}
	f.Update(0.1)
	if h.follower(t, 0).has {
		t.Fatal("path kept after getting stuck")
	}
	f.Update(0.1)
	if got := h.follower(t, 0).setups; got != 2 {
		t.Fatalf("setups = %d, want a fresh path after stuck", got)
	}
}

func TestCompanionUnreachableSteersAtMaster(t *testing.T) {
	h := newHarness(t)
	h.searcher.unreachable = true
	h.player.pos = tileCenter(6, 0)
	f := newCompanion(t, h, nil)
	f.Enter()
	f.Update(0.1)

	if f.TargetOffset() != (cp.Vector{}) {
		t.Fatalf("offset = %v, want cleared", f.TargetOffset())
	}
	mv := h.owner.mover
	if mv.moves != 1 || mv.lastTarget != h.player.pos {
		t.Fatalf("moves=%d target=%v, want steering at %v", mv.moves, mv.lastTarget, h.player.pos)
	}
}

func TestCompanionRefreshTimers(t *testing.T) {
	h := newHarness(t)
	h.player.pos = tileCenter(1, 0)
	f := newCompanion(t, h, func(c *CompanionConfig) {
		c.PositionRefresh = 0.5
		c.OffsetRefresh = 1
	})
	f.Enter()
	start := h.player.pos
	offset := f.TargetOffset()

	h.player.pos = tileCenter(1, 1)
	f.Update(0.25)
	if got := f.TargetPosition().Sub(f.TargetOffset()); !near(got, start) {
		t.Fatalf("sampled %v before the position refresh, want %v", got, start)
	}
	f.Update(0.25)
	if got := f.TargetPosition().Sub(f.TargetOffset()); !near(got, h.player.pos) {
		t.Fatalf("sampled %v after the position refresh, want %v", got, h.player.pos)
	}
	if f.TargetOffset() != offset {
		t.Fatal("offset changed before its refresh")
	}

	f.Update(0.5)
	if f.TargetOffset() == offset {
		t.Fatal("offset not refreshed")
	}
}

func near(a, b cp.Vector) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestCompanionMasterFloorChangeResamples(t *testing.T) {
	h := newHarness(t)
	h.player.pos = tileCenter(1, 0)
	f := newCompanion(t, h, func(c *CompanionConfig) {
		c.PositionRefresh = 10
		c.OffsetStrength = 0
	})
	f.Enter()

	h.player.pos = tileCenter(2, 0)
	h.env.Events.Publish(Event{Kind: EventFloorChanged, Actor: h.player, Floor: 0})
	f.Update(0.1)
	if f.TargetPosition() != h.player.pos {
		t.Fatalf("target = %v, want resampled %v", f.TargetPosition(), h.player.pos)
	}

	f.Leave()
	if h.env.Events.Len() != 0 {
		t.Fatalf("%d subscriptions left after Leave", h.env.Events.Len())
	}
}

func TestCompanionWithoutMasterStops(t *testing.T) {
	h := newHarness(t)
	f := newCompanion(t, h, nil)
	h.owner.master = nil
	f.Enter()
	f.Update(0.1)

	if f.Regime() != RegimeIdle || h.owner.mover.moves != 0 {
		t.Fatalf("regime=%v moves=%d without a master", f.Regime(), h.owner.mover.moves)
	}
	if h.owner.mover.stops == 0 {
		t.Fatal("owner not stopped")
	}
}

func TestCompanionSerializeRoundTrip(t *testing.T) {
	h := newHarness(t)
	src := newCompanion(t, h, func(c *CompanionConfig) {
		c.DirectDistance = 40
		c.TeleportDistance = 280
		c.PositionRefresh = 0.3
		c.OffsetRefresh = 1.2
		c.OffsetStrength = 14
		c.MaxSpeedFactor = 3
	})
	w := persist.NewWriter()
	if err := src.Serialize(w); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	dst := newCompanion(t, h, nil)
	if err := dst.Deserialize(persist.NewReader(w.Bytes())); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if dst.Config() != src.Config() {
		t.Fatalf("config = %+v, want %+v", dst.Config(), src.Config())
	}

	bad := persist.NewWriter()
	bad.WriteVersion(2)
	if err := dst.Deserialize(persist.NewReader(bad.Bytes())); !errors.Is(err, persist.ErrVersionMismatch) {
		t.Fatalf("version 2: err = %v", err)
	}
}
