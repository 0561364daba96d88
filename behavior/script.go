package behavior

import (
	"fmt"
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/aibehavior/persist"
	"github.com/milk9111/aibehavior/prefabs"
)

const scriptVersion uint16 = 1

const scriptLifecycleDispatch = `
if __phase == "enter" {
	enter(__engine, __state)
} else if __phase == "update" {
	update(__engine, __state)
} else if __phase == "leave" {
	leave(__engine, __state)
}
`

// ScriptConfig names a tengo script under prefabs/scripts, or carries its
// source inline. Source wins when both are set.
type ScriptConfig struct {
	Path   string `yaml:"path"`
	Source string `yaml:"source"`
}

func DefaultScriptConfig() ScriptConfig {
	return ScriptConfig{Path: "idle.tengo"}
}

func (c ScriptConfig) Validate() error {
	if strings.TrimSpace(c.Path) == "" && strings.TrimSpace(c.Source) == "" {
		return invalidf("script: path or source is required")
	}
	return nil
}

func (c ScriptConfig) load() ([]byte, error) {
	if strings.TrimSpace(c.Source) != "" {
		return []byte(c.Source), nil
	}
	return prefabs.LoadScript(c.Path)
}

// ScriptBehavior delegates its lifecycle to a tengo script that defines
// enter(engine, state), update(engine, state) and leave(engine, state).
// The state map survives between calls until Reset.
type ScriptBehavior struct {
	owner Actor
	env   *Env
	cfg   ScriptConfig

	active   bool
	compiled *tengo.Compiled
	state    *tengo.Map
	lastErr  error
}

func NewScript(owner Actor, env *Env, cfg ScriptConfig) (*ScriptBehavior, error) {
	if err := requireOwner(owner, env); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	compiled, err := compileScript(cfg)
	if err != nil {
		return nil, err
	}
	return &ScriptBehavior{owner: owner, env: env, cfg: cfg, compiled: compiled, state: newScriptState()}, nil
}

func compileScript(cfg ScriptConfig) (*tengo.Compiled, error) {
	src, err := cfg.load()
	if err != nil {
		return nil, fmt.Errorf("behavior: load script %s: %w", cfg.Path, err)
	}
	script := tengo.NewScript([]byte(string(src) + "\n" + scriptLifecycleDispatch))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap("math", "rand", "fmt", "text"))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("%w: script %s: %v", ErrInvalidConfig, cfg.Path, err)
	}
	return compiled, nil
}

func newScriptState() *tengo.Map {
	return &tengo.Map{Value: map[string]tengo.Object{}}
}

func (s *ScriptBehavior) Kind() Kind           { return KindScript }
func (s *ScriptBehavior) IsActive() bool       { return s.active }
func (s *ScriptBehavior) Config() ScriptConfig { return s.cfg }

// Err returns the error from the most recent script call, if any.
func (s *ScriptBehavior) Err() error { return s.lastErr }

// StateValue returns a value the script stored in its state map.
func (s *ScriptBehavior) StateValue(key string) (any, bool) {
	obj, ok := s.state.Value[key]
	if !ok {
		return nil, false
	}
	return tengo.ToInterface(obj), true
}

func (s *ScriptBehavior) Enter() {
	if s.active {
		return
	}
	s.active = true
	s.run("enter", 0)
}

func (s *ScriptBehavior) Leave() {
	if !s.active {
		return
	}
	s.active = false
	s.run("leave", 0)
	s.owner.Movement().Stop()
}

func (s *ScriptBehavior) Reset() {
	s.state = newScriptState()
	s.lastErr = nil
}

func (s *ScriptBehavior) Clone(owner Actor) (Behavior, error) {
	return NewScript(owner, s.env, s.cfg)
}

func (s *ScriptBehavior) Update(dt float64) {
	if !s.active {
		return
	}
	s.run("update", dt)
}

func (s *ScriptBehavior) run(phase string, dt float64) {
	err := s.runPhase(phase, s.engine(dt))
	s.lastErr = err
	if err != nil {
		log.Printf("ai: entity=%d script %s %s error: %v", s.owner.ID(), s.cfg.Path, phase, err)
	}
}

func (s *ScriptBehavior) runPhase(phase string, engine *tengo.ImmutableMap) error {
	if err := s.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := s.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := s.compiled.Set("__state", s.state); err != nil {
		return err
	}
	return s.compiled.Run()
}

func (s *ScriptBehavior) engine(dt float64) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	values["dt"] = &tengo.Float{Value: dt}

	values["position"] = &tengo.UserFunction{Name: "position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return vectorObject(s.owner.Position()), nil
	}}

	values["has_target"] = &tengo.UserFunction{Name: "has_target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if alive(s.target()) {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	values["target_position"] = &tengo.UserFunction{Name: "target_position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		t := s.target()
		if !alive(t) {
			return tengo.UndefinedValue, nil
		}
		return vectorObject(t.Position()), nil
	}}

	values["move_toward"] = &tengo.UserFunction{Name: "move_toward", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		x, okX := tengo.ToFloat64(args[0])
		y, okY := tengo.ToFloat64(args[1])
		if !okX || !okY {
			return tengo.FalseValue, nil
		}
		s.owner.Movement().MoveToward(cp.Vector{X: x, Y: y}, dt)
		return tengo.TrueValue, nil
	}}

	values["stop"] = &tengo.UserFunction{Name: "stop", Value: func(args ...tengo.Object) (tengo.Object, error) {
		s.owner.Movement().Stop()
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func (s *ScriptBehavior) target() Actor {
	if s.env.Scene == nil {
		return nil
	}
	return s.env.Scene.Target(s.owner)
}

func vectorObject(v cp.Vector) tengo.Object {
	return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: v.X}, &tengo.Float{Value: v.Y}}}
}

func (s *ScriptBehavior) Serialize(w *persist.Writer) error {
	w.WriteVersion(scriptVersion)
	w.WriteString(s.cfg.Path)
	w.WriteString(s.cfg.Source)
	return w.Err()
}

// Deserialize reloads and recompiles the script. Script state starts empty.
func (s *ScriptBehavior) Deserialize(r *persist.Reader) error {
	if err := r.ExpectVersion("ScriptBehavior", scriptVersion); err != nil {
		return err
	}
	cfg := ScriptConfig{Path: r.ReadString(), Source: r.ReadString()}
	if err := r.Err(); err != nil {
		return fmt.Errorf("behavior: read ScriptBehavior: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	compiled, err := compileScript(cfg)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.compiled = compiled
	s.state = newScriptState()
	return nil
}
