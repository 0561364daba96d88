package behavior

import (
	"fmt"

	"github.com/milk9111/aibehavior/prefabs"
)

// Build turns a template behavior spec into a behavior bound to owner.
// Params override the kind's default configuration key by key.
func Build(spec prefabs.BehaviorSpec, owner Actor, env *Env) (Behavior, error) {
	kind, err := ParseKind(spec.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindChasePlayer:
		cfg := DefaultChaseConfig()
		if err := decodeParams(spec, &cfg); err != nil {
			return nil, err
		}
		return NewChasePlayer(owner, env, cfg)
	case KindRandomWander:
		cfg := DefaultWanderConfig()
		if err := decodeParams(spec, &cfg); err != nil {
			return nil, err
		}
		return NewRandomWander(owner, env, cfg)
	case KindCompanionFollow:
		cfg := DefaultCompanionConfig()
		if err := decodeParams(spec, &cfg); err != nil {
			return nil, err
		}
		return NewCompanionFollow(owner, env, cfg)
	case KindRangedActor:
		cfg := DefaultRangedConfig()
		if err := decodeParams(spec, &cfg); err != nil {
			return nil, err
		}
		return NewRangedActor(owner, env, cfg)
	case KindScript:
		cfg := ScriptConfig{}
		if err := decodeParams(spec, &cfg); err != nil {
			return nil, err
		}
		return NewScript(owner, env, cfg)
	case KindMulti:
		children := make([]Behavior, 0, len(spec.Children))
		for i, cs := range spec.Children {
			c, err := Build(cs, owner, env)
			if err != nil {
				return nil, fmt.Errorf("behavior: build multi child %d: %w", i, err)
			}
			children = append(children, c)
		}
		return NewMulti(owner, env, children...)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, spec.Kind)
}

func decodeParams[T any](spec prefabs.BehaviorSpec, cfg *T) error {
	if err := prefabs.DecodeParams(spec.Params, cfg); err != nil {
		return fmt.Errorf("%w: %s params: %v", ErrInvalidConfig, spec.Kind, err)
	}
	return nil
}
