package scene

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/aibehavior/behavior"
	"github.com/milk9111/aibehavior/common"
)

// Projectile flies in a straight line until it hits an actor, a wall or
// runs out of time.
type Projectile struct {
	shooter *Actor
	pos     cp.Vector
	vel     cp.Vector
	floor   int
	ttl     float64
	live    bool
	hit     *Actor
}

func (p *Projectile) InFlight() bool      { return p.live }
func (p *Projectile) Position() cp.Vector { return p.pos }
func (p *Projectile) Floor() int          { return p.floor }

// Hit is the actor the projectile struck, or nil.
func (p *Projectile) Hit() *Actor { return p.hit }

// Launch fires a projectile from shooter at target's current position.
func (s *Scene) Launch(shooter, target behavior.Actor, attack behavior.AttackSettings) behavior.Projectile {
	from := s.lookup(shooter.ID())
	if from == nil || target == nil {
		return nil
	}
	dir := target.Position().Sub(from.Position())
	if dir.LengthSq() == 0 {
		return nil
	}
	p := &Projectile{
		shooter: from,
		pos:     from.Position(),
		vel:     dir.Normalize().Mult(attack.ProjectileSpeed),
		floor:   from.floor,
		ttl:     attack.Range * 1.25 / attack.ProjectileSpeed,
		live:    true,
	}
	s.projectiles = append(s.projectiles, p)
	return p
}

func (s *Scene) updateProjectiles(dt float64) {
	live := s.projectiles[:0]
	for _, p := range s.projectiles {
		s.stepProjectile(p, dt)
		if p.live {
			live = append(live, p)
		}
	}
	for i := len(live); i < len(s.projectiles); i++ {
		s.projectiles[i] = nil
	}
	s.projectiles = live
}

func (s *Scene) stepProjectile(p *Projectile, dt float64) {
	p.pos = p.pos.Add(p.vel.Mult(dt))
	p.ttl -= dt
	if s.Blocked(p.floor, common.TileAt(p.pos, s.tileSize)) {
		p.live = false
		return
	}
	for _, a := range s.actors {
		if !a.alive || a == p.shooter || a.floor != p.floor || a.hostile == p.shooter.hostile {
			continue
		}
		if a.Position().DistanceSq(p.pos) <= a.spec.Radius*a.spec.Radius {
			a.hits++
			p.hit = a
			p.live = false
			return
		}
	}
	if p.ttl <= 0 {
		p.live = false
	}
}
