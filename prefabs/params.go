package prefabs

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// DecodeParams overlays raw onto out. Keys absent from raw keep the value
// already in out; unknown keys are an error.
func DecodeParams[T any](raw map[string]any, out *T) error {
	if len(raw) == 0 {
		return nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	return dec.Decode(out)
}
