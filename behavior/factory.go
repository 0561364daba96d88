package behavior

import (
	"fmt"

	"github.com/milk9111/aibehavior/persist"
)

// Constructor builds a behavior of one kind with its default configuration.
type Constructor func(owner Actor, env *Env) (Behavior, error)

// Factory resolves kind tags to fresh behaviors bound to an owner.
type Factory struct {
	env   *Env
	ctors map[Kind]Constructor
}

func NewFactory(env *Env) *Factory {
	return &Factory{env: env, ctors: map[Kind]Constructor{}}
}

// DefaultFactory registers every built-in kind.
func DefaultFactory(env *Env) *Factory {
	f := NewFactory(env)
	f.Register(KindChasePlayer, func(owner Actor, env *Env) (Behavior, error) {
		return NewChasePlayer(owner, env, DefaultChaseConfig())
	})
	f.Register(KindRandomWander, func(owner Actor, env *Env) (Behavior, error) {
		return NewRandomWander(owner, env, DefaultWanderConfig())
	})
	f.Register(KindCompanionFollow, func(owner Actor, env *Env) (Behavior, error) {
		return NewCompanionFollow(owner, env, DefaultCompanionConfig())
	})
	f.Register(KindRangedActor, func(owner Actor, env *Env) (Behavior, error) {
		return NewRangedActor(owner, env, DefaultRangedConfig())
	})
	f.Register(KindMulti, func(owner Actor, env *Env) (Behavior, error) {
		return NewMulti(owner, env)
	})
	f.Register(KindScript, func(owner Actor, env *Env) (Behavior, error) {
		return NewScript(owner, env, DefaultScriptConfig())
	})
	return f
}

func (f *Factory) Register(kind Kind, ctor Constructor) {
	f.ctors[kind] = ctor
}

// Resolve returns a new behavior of kind bound to owner.
func (f *Factory) Resolve(kind Kind, owner Actor) (Behavior, error) {
	ctor, ok := f.ctors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return ctor(owner, f.env)
}

func (e *Env) factory() *Factory {
	if e.Factory != nil {
		return e.Factory
	}
	return DefaultFactory(e)
}

// WriteTagged writes b's kind name followed by its serialized form.
func WriteTagged(w *persist.Writer, b Behavior) error {
	w.WriteString(b.Kind().String())
	if err := b.Serialize(w); err != nil {
		return fmt.Errorf("behavior: write %s: %w", b.Kind(), err)
	}
	return w.Err()
}

// ReadTagged reads a kind name, resolves it through f and deserializes the
// behavior that follows.
func ReadTagged(r *persist.Reader, f *Factory, owner Actor) (Behavior, error) {
	tag := r.ReadString()
	if err := r.Err(); err != nil {
		return nil, err
	}
	kind, err := ParseKind(tag)
	if err != nil {
		return nil, err
	}
	b, err := f.Resolve(kind, owner)
	if err != nil {
		return nil, err
	}
	if err := b.Deserialize(r); err != nil {
		return nil, err
	}
	return b, nil
}
