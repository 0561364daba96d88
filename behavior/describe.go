package behavior

import (
	"fmt"
	"strings"
)

// Describe renders a one-line summary of b's runtime state for overlays
// and logs.
func Describe(b Behavior) string {
	if b == nil {
		return "none"
	}
	var s string
	switch v := b.(type) {
	case *ChasePlayerBehavior:
		s = fmt.Sprintf("chase_player[%s %.1fs]", v.State(), v.ChasingTimeLeft())
		if v.IsStuck() {
			s += " stuck"
		}
	case *RandomWanderBehavior:
		st := "paused"
		if v.Walking() {
			st = "walking"
		}
		if v.SpottedTarget() {
			st += " spotted"
		}
		s = fmt.Sprintf("random_wander[%s]", st)
	case *CompanionFollowBehavior:
		s = fmt.Sprintf("companion_follow[%s]", v.Regime())
	case *RangedActorBehavior:
		s = fmt.Sprintf("ranged_actor[%s next %.1fs", v.State(), v.TimeUntilNextAttack())
		if v.IsMovementLocked() {
			s += " locked"
		}
		s += "] > " + Describe(v.ActiveSub())
	case *MultiBehavior:
		parts := make([]string, 0, v.Len())
		for _, c := range v.Children() {
			parts = append(parts, Describe(c))
		}
		s = "multi{" + strings.Join(parts, ", ") + "}"
	case *ScriptBehavior:
		name := v.Config().Path
		if strings.TrimSpace(v.Config().Source) != "" {
			name = "inline"
		}
		s = fmt.Sprintf("script[%s]", name)
		if v.Err() != nil {
			s += " error"
		}
	default:
		s = b.Kind().String()
	}
	if !b.IsActive() {
		s += " (inactive)"
	}
	return s
}
