// Package behavior implements per-actor AI controllers. Every controller
// satisfies Behavior and is driven once per frame by its owning actor.
package behavior

import (
	"errors"
	"fmt"

	"github.com/milk9111/aibehavior/persist"
)

var (
	ErrNilOwner      = errors.New("behavior: owner is nil")
	ErrInvalidConfig = errors.New("behavior: invalid config")
	ErrUnknownKind   = errors.New("behavior: unknown kind")
	ErrNilEnv        = errors.New("behavior: env is nil")
)

// Behavior is the lifecycle contract shared by every controller.
//
// Enter and Leave are idempotent. Update is a no-op while the behavior is
// inactive. Clone copies configuration only.
type Behavior interface {
	Kind() Kind
	IsActive() bool
	Update(dt float64)
	Enter()
	Leave()
	Reset()
	Clone(owner Actor) (Behavior, error)
	Serialize(w *persist.Writer) error
	Deserialize(r *persist.Reader) error
}

// Kind tags a concrete behavior type. It is what gets written in front of a
// child in serialized composites and what MultiBehavior.Find matches on.
type Kind uint8

const (
	KindNone Kind = iota
	KindMulti
	KindChasePlayer
	KindRandomWander
	KindCompanionFollow
	KindRangedActor
	KindScript
)

var kindNames = map[Kind]string{
	KindNone:            "none",
	KindMulti:           "multi",
	KindChasePlayer:     "chase_player",
	KindRandomWander:    "random_wander",
	KindCompanionFollow: "companion_follow",
	KindRangedActor:     "ranged_actor",
	KindScript:          "script",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a template/serialized name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name && k != KindNone {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func requireOwner(owner Actor, env *Env) error {
	if owner == nil {
		return ErrNilOwner
	}
	if env == nil {
		return ErrNilEnv
	}
	return nil
}

// timeEpsilon absorbs the rounding left behind when a countdown is stepped
// by frame times that are not exact in binary, such as 0.1 or 1/60.
const timeEpsilon = 1e-9

// expired reports whether a countdown has run out.
func expired(left float64) bool {
	return left <= timeEpsilon
}
