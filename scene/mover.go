package scene

import (
	"github.com/jakecoffman/cp"
)

// Mover drives a kinematic body by velocity. Velocities last one frame:
// the scene clears them after each space step.
type Mover struct {
	body      *cp.Body
	stats     *Stats
	base      float64
	factor    float64
	immovable bool
}

func newMover(body *cp.Body, stats *Stats, base float64) *Mover {
	return &Mover{body: body, stats: stats, base: base, factor: 1}
}

// Speed is the current top speed in world units per second.
func (m *Mover) Speed() float64 {
	return m.base * m.factor * m.stats.SpeedMultiplier()
}

func (m *Mover) BaseSpeed() float64   { return m.base }
func (m *Mover) SpeedFactor() float64 { return m.factor }

func (m *Mover) Velocity() cp.Vector {
	return m.body.Velocity()
}

// MoveToward heads for target at the current speed, arriving exactly when
// it is within one frame's reach.
func (m *Mover) MoveToward(target cp.Vector, dt float64) {
	if m.immovable || dt <= 0 {
		m.Stop()
		return
	}
	delta := target.Sub(m.body.Position())
	dist := delta.Length()
	if dist == 0 {
		m.Stop()
		return
	}
	speed := m.Speed()
	if dist <= speed*dt {
		m.body.SetVelocityVector(delta.Mult(1 / dt))
		return
	}
	m.body.SetVelocityVector(delta.Mult(speed / dist))
}

// Steer moves along dir at the current speed. A zero dir stops.
func (m *Mover) Steer(dir cp.Vector) {
	if m.immovable || dir.LengthSq() == 0 {
		m.Stop()
		return
	}
	m.body.SetVelocityVector(dir.Normalize().Mult(m.Speed()))
}

func (m *Mover) Stop() {
	m.body.SetVelocity(0, 0)
}

func (m *Mover) SetSpeedFactor(f float64) {
	m.factor = f
}

func (m *Mover) ResetSpeed() {
	m.factor = 1
}

func (m *Mover) SetImmovable(immovable bool) {
	m.immovable = immovable
	if immovable {
		m.Stop()
	}
}

func (m *Mover) Immovable() bool {
	return m.immovable
}
