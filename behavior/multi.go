package behavior

import (
	"fmt"

	"github.com/milk9111/aibehavior/persist"
)

const multiVersion uint16 = 1

// MultiBehavior runs every child each frame, in order. It owns its
// children; nothing else should drive them.
type MultiBehavior struct {
	owner    Actor
	env      *Env
	active   bool
	children []Behavior
}

func NewMulti(owner Actor, env *Env, children ...Behavior) (*MultiBehavior, error) {
	if err := requireOwner(owner, env); err != nil {
		return nil, err
	}
	for i, c := range children {
		if c == nil {
			return nil, invalidf("multi: child %d is nil", i)
		}
	}
	return &MultiBehavior{owner: owner, env: env, children: children}, nil
}

func (m *MultiBehavior) Kind() Kind     { return KindMulti }
func (m *MultiBehavior) IsActive() bool { return m.active }
func (m *MultiBehavior) Len() int       { return len(m.children) }

// Children returns a copy of the child list.
func (m *MultiBehavior) Children() []Behavior {
	return append([]Behavior(nil), m.children...)
}

// Add appends a child. A child added while the composite is active is
// entered immediately.
func (m *MultiBehavior) Add(b Behavior) error {
	if b == nil {
		return invalidf("multi: child is nil")
	}
	m.children = append(m.children, b)
	if m.active {
		b.Enter()
	}
	return nil
}

// Find returns the first child of the given kind, or nil.
func (m *MultiBehavior) Find(kind Kind) Behavior {
	for _, c := range m.children {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

func (m *MultiBehavior) Update(dt float64) {
	if !m.active {
		return
	}
	for _, c := range m.children {
		c.Update(dt)
	}
}

func (m *MultiBehavior) Enter() {
	if m.active {
		return
	}
	m.active = true
	for _, c := range m.children {
		c.Enter()
	}
}

func (m *MultiBehavior) Leave() {
	if !m.active {
		return
	}
	m.active = false
	for _, c := range m.children {
		c.Leave()
	}
}

func (m *MultiBehavior) Reset() {
	for _, c := range m.children {
		c.Reset()
	}
}

func (m *MultiBehavior) Clone(owner Actor) (Behavior, error) {
	children := make([]Behavior, 0, len(m.children))
	for _, c := range m.children {
		cc, err := c.Clone(owner)
		if err != nil {
			return nil, fmt.Errorf("behavior: clone %s child: %w", c.Kind(), err)
		}
		children = append(children, cc)
	}
	return NewMulti(owner, m.env, children...)
}

func (m *MultiBehavior) Serialize(w *persist.Writer) error {
	w.WriteVersion(multiVersion)
	w.WriteInt(len(m.children))
	for _, c := range m.children {
		if err := WriteTagged(w, c); err != nil {
			return err
		}
	}
	return w.Err()
}

// Deserialize replaces the child list with the serialized one. Children are
// built through the env's factory.
func (m *MultiBehavior) Deserialize(r *persist.Reader) error {
	if err := r.ExpectVersion("MultiBehavior", multiVersion); err != nil {
		return err
	}
	n := r.ReadInt()
	if err := r.Err(); err != nil {
		return fmt.Errorf("behavior: read MultiBehavior: %w", err)
	}
	if n < 0 || n > r.Remaining() {
		return fmt.Errorf("behavior: read MultiBehavior: bad child count %d", n)
	}

	factory := m.env.factory()
	children := make([]Behavior, 0, n)
	for i := 0; i < n; i++ {
		c, err := ReadTagged(r, factory, m.owner)
		if err != nil {
			return fmt.Errorf("behavior: read MultiBehavior child %d: %w", i, err)
		}
		children = append(children, c)
	}

	if m.active {
		for _, c := range m.children {
			c.Leave()
		}
		for _, c := range children {
			c.Enter()
		}
	}
	m.children = children
	return nil
}
