package prefabs

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// ActorSpec is an actor template: body, look and behavior tree.
type ActorSpec struct {
	Name     string       `yaml:"name"`
	Speed    float64      `yaml:"speed"`
	Radius   float64      `yaml:"radius"`
	Hostile  bool         `yaml:"hostile"`
	Color    YAMLColor    `yaml:"color"`
	Behavior BehaviorSpec `yaml:"behavior"`
}

func LoadActorSpec(name string) (*ActorSpec, error) {
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	spec, err := LoadSpec[ActorSpec](name)
	if err != nil {
		return nil, err
	}
	if spec.Speed <= 0 {
		return nil, fmt.Errorf("prefabs: %s: speed must be positive", name)
	}
	return &spec, nil
}

// BehaviorSpec is one node of a behavior tree. Params are decoded onto the
// kind's default configuration; Children are only read for kind multi.
type BehaviorSpec struct {
	Kind     string         `yaml:"kind"`
	Params   map[string]any `yaml:"params"`
	Children []BehaviorSpec `yaml:"children"`
}

func (s BehaviorSpec) Empty() bool {
	return strings.TrimSpace(s.Kind) == ""
}

type YAMLColor struct {
	color.Color
}

// Or returns c, or def when the template left the color out.
func (c YAMLColor) Or(def color.Color) color.Color {
	if c.Color == nil {
		return def
	}
	return c.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
