package scene

import "github.com/milk9111/aibehavior/behavior"

// Stats is an actor's modifier list. Auras are held by pointer; adding the
// same aura twice keeps one copy.
type Stats struct {
	auras []*behavior.Aura
}

func (s *Stats) Add(a *behavior.Aura) {
	if a == nil || s.Has(a) {
		return
	}
	s.auras = append(s.auras, a)
}

func (s *Stats) Remove(a *behavior.Aura) bool {
	for i, cur := range s.auras {
		if cur == a {
			s.auras = append(s.auras[:i], s.auras[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Stats) Has(a *behavior.Aura) bool {
	for _, cur := range s.auras {
		if cur == a {
			return true
		}
	}
	return false
}

func (s *Stats) Auras() []*behavior.Aura {
	return append([]*behavior.Aura(nil), s.auras...)
}

// SpeedMultiplier folds every aura's percent bonus into one factor.
func (s *Stats) SpeedMultiplier() float64 {
	m := 1.0
	for _, a := range s.auras {
		m += a.SpeedBonus / 100
	}
	if m < 0 {
		return 0
	}
	return m
}
